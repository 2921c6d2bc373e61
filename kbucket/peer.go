package kbucket

import "github.com/diode-mesh/corevm/identity"

// ServerDescriptor is the network-reachability half of a non-self
// PeerItem: enough for a Transport to dial the peer. The core treats it
// as opaque payload; Transport implementations interpret it.
type ServerDescriptor struct {
	Address string
	Port    uint16
}

// PeerItem is one routing-table entry. Self is true for exactly the one
// entry representing this node's own identity (the SelfMarker variant in
// the data model); Descriptor is meaningless when Self is true.
type PeerItem struct {
	ID         identity.NodeId
	ItemKey    ItemKey
	LastSeen   int64
	Self       bool
	Retries    uint32
	Descriptor ServerDescriptor
}

// Disabled reports whether the peer is temporarily hidden from nearest_n
// results: LastSeen set in the future is the expiry-penalty convention.
func (p *PeerItem) Disabled(now int64) bool {
	return p.LastSeen > now
}

package transport

import (
	"fmt"
	"net/http"

	"github.com/diode-mesh/corevm/kbucket"
)

// ValueLookup resolves a key to a value for FindValue RPCs, satisfied by
// a merkle.Tree-backed collaborator or any other keyed store the node
// wants to expose over the wire.
type ValueLookup interface {
	Lookup(key []byte) ([]byte, bool, error)
}

// FindArgs is the JSON-RPC argument shape for both FindNode and FindValue.
type FindArgs struct {
	Key []byte
}

// FindReply is the JSON-RPC result shape: exactly one of Value or Nodes is
// meaningful, selected by Found.
type FindReply struct {
	Found bool
	Value []byte
	Nodes []wireFindPeer
}

// wireFindPeer is the JSON-serialisable projection of a kbucket.PeerItem
// sent over the wire, with the Descriptor's address and port flattened
// into top-level fields.
type wireFindPeer struct {
	ID         []byte
	ItemKey    [32]byte
	LastSeen   int64
	Self       bool
	Retries    uint32
	Address    string
	Port       uint16
}

func toWire(p *kbucket.PeerItem) wireFindPeer {
	return wireFindPeer{
		ID:       []byte(p.ID),
		ItemKey:  p.ItemKey,
		LastSeen: p.LastSeen,
		Self:     p.Self,
		Retries:  p.Retries,
		Address:  p.Descriptor.Address,
		Port:     p.Descriptor.Port,
	}
}

func fromWire(w wireFindPeer) *kbucket.PeerItem {
	return &kbucket.PeerItem{
		ID:       w.ID,
		ItemKey:  w.ItemKey,
		LastSeen: w.LastSeen,
		Self:     w.Self,
		Retries:  w.Retries,
		Descriptor: kbucket.ServerDescriptor{
			Address: w.Address,
			Port:    w.Port,
		},
	}
}

// Service is the gorilla/rpc-registered handler answering FindNode and
// FindValue calls against this node's routing table and value store.
type Service struct {
	table  *kbucket.Table
	values ValueLookup
	width  int
}

func NewService(table *kbucket.Table, values ValueLookup, width int) *Service {
	return &Service{table: table, values: values, width: width}
}

// FindNode answers with up to `width` peers from the local routing table
// closest to args.Key.
func (s *Service) FindNode(r *http.Request, args *FindArgs, reply *FindReply) error {
	var key kbucket.ItemKey
	copy(key[:], args.Key)
	peers := s.table.NearestN(key, s.width)
	reply.Nodes = make([]wireFindPeer, len(peers))
	for i, p := range peers {
		reply.Nodes[i] = toWire(p)
	}
	return nil
}

// FindValue answers with the value under args.Key if this node holds it,
// otherwise falls back to the same node list FindNode would return.
func (s *Service) FindValue(r *http.Request, args *FindArgs, reply *FindReply) error {
	if s.values != nil {
		v, ok, err := s.values.Lookup(args.Key)
		if err != nil {
			return fmt.Errorf("transport: value lookup: %w", err)
		}
		if ok {
			reply.Found = true
			reply.Value = v
			return nil
		}
	}
	return s.FindNode(r, args, reply)
}

// Package kbucket implements the K-Bucket Routing Table: a 256-bit
// Kademlia-style DHT routing structure. Peers route into a bucket-split
// trie keyed by H(address_of(NodeId)); only the leaf holding this node's
// own identity is ever split, so the table's memory is bounded regardless
// of how many distinct peers are observed.
package kbucket

import (
	"sort"
	"sync"

	"github.com/diode-mesh/corevm/clock"
	"github.com/diode-mesh/corevm/crypto"
	"github.com/diode-mesh/corevm/identity"
)

// Table is a single-owner routing table: all mutation and lookup methods
// assume a serialising caller (see the module's concurrency notes), and
// take an internal lock only to guard against accidental concurrent
// misuse rather than to support it.
type Table struct {
	mu      sync.Mutex
	selfID  ItemKey
	root    *ktree
	wallet  identity.Wallet
	clock   clock.Clock
}

// New creates a table seeded with a self entry, derived from selfNodeID
// through wallet.
func New(selfNodeID identity.NodeId, wallet identity.Wallet, clk clock.Clock) *Table {
	selfKey := KeyOf(wallet, selfNodeID)
	t := &Table{
		selfID: selfKey,
		root:   newLeaf(nil),
		wallet: wallet,
		clock:  clk,
	}
	t.root.insert(selfKey, &PeerItem{ID: selfNodeID, ItemKey: selfKey, Self: true}, selfKey)
	return t
}

// KeyOf derives the ItemKey for a NodeId through a Wallet: H(address_of(id)).
func KeyOf(wallet identity.Wallet, id identity.NodeId) ItemKey {
	addr := wallet.AddressOf(id)
	return ItemKey(crypto.Keccak256Hash(addr.Bytes()))
}

// InsertItem applies the table's insert policy for a discovered peer.
func (t *Table) InsertItem(item *PeerItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.insert(item.ItemKey, item, t.selfID)
}

// InsertItems inserts a batch of peers.
func (t *Table) InsertItems(items []*PeerItem) {
	for _, item := range items {
		t.InsertItem(item)
	}
}

// DeleteItem removes a peer by ItemKey, a no-op if absent.
func (t *Table) DeleteItem(key ItemKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.delete(key)
}

// UpdateItem replaces an existing entry, a no-op if the key is absent.
func (t *Table) UpdateItem(item *PeerItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.update(item.ItemKey, item)
}

// Member reports whether key is currently tracked.
func (t *Table) Member(key ItemKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.root.get(key)
	return ok
}

// Item returns the entry for key, if tracked.
func (t *Table) Item(key ItemKey) (*PeerItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.get(key)
}

// NearestN returns up to n live peers closest to key by ring distance.
func (t *Table) NearestN(key ItemKey, n int) []*PeerItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.nearest(key, n, t.clock.Now())
}

// NearerN filters NearestN to peers no further from key than self is,
// per the source convention of treating the bound as inclusive.
func (t *Table) NearerN(key ItemKey, n int) []*PeerItem {
	selfDist := Distance(t.selfID, key)
	candidates := t.NearestN(key, n)
	out := candidates[:0]
	for _, p := range candidates {
		if Distance(p.ItemKey, key).Cmp(selfDist) <= 0 {
			out = append(out, p)
		}
	}
	return out
}

// Size returns the total number of tracked peers (including self).
func (t *Table) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.size()
}

// BucketCount returns the number of leaves in the trie.
func (t *Table) BucketCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.bucketCount()
}

// ToList returns every tracked peer in no particular order.
func (t *Table) ToList() []*PeerItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.all()
}

// ToRingList returns every peer except pivot, sorted by ascending integer
// ID, rotated so the first element is the smallest ID strictly greater
// than pivot.
func (t *Table) ToRingList(pivot ItemKey) []*PeerItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := t.root.all()
	list := make([]*PeerItem, 0, len(all))
	for _, p := range all {
		if p.ItemKey != pivot {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return Cmp(list[i].ItemKey, list[j].ItemKey) < 0
	})
	rotateAt := sort.Search(len(list), func(i int) bool {
		return Cmp(list[i].ItemKey, pivot) > 0
	})
	return append(list[rotateAt:], list[:rotateAt]...)
}

// NextN returns up to n peers immediately following pivot on the ring.
func (t *Table) NextN(pivot ItemKey, n int) []*PeerItem {
	list := t.ToRingList(pivot)
	if n > len(list) {
		n = len(list)
	}
	return list[:n]
}

// PrevN returns up to n peers immediately preceding pivot on the ring.
func (t *Table) PrevN(pivot ItemKey, n int) []*PeerItem {
	list := t.ToRingList(pivot)
	if n > len(list) {
		n = len(list)
	}
	if n == 0 {
		return nil
	}
	return list[len(list)-n:]
}

// SelfID returns this table's own ItemKey.
func (t *Table) SelfID() ItemKey { return t.selfID }

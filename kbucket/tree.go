package kbucket

// K is the maximum number of peers a non-self leaf may hold. Fixed for
// network compatibility.
const K = 20

type ktreeKind uint8

const (
	ktreeLeaf ktreeKind = iota
	ktreeInner
)

// ktree is the bucket-split trie backing a Table. Leaves hold up to K
// peers; only the leaf currently containing self is ever split further.
type ktree struct {
	kind   ktreeKind
	prefix []byte // 0/1 values, MSB-first

	items map[ItemKey]*PeerItem // leaf only

	zero, one *ktree // inner only
}

func newLeaf(prefix []byte) *ktree {
	return &ktree{kind: ktreeLeaf, prefix: prefix, items: make(map[ItemKey]*PeerItem)}
}

// leafFor descends to the leaf that owns key.
func (n *ktree) leafFor(key ItemKey) *ktree {
	cur := n
	for cur.kind == ktreeInner {
		if bitAt(key, len(cur.prefix)) == 0 {
			cur = cur.zero
		} else {
			cur = cur.one
		}
	}
	return cur
}

// insert applies the KBRT insert policy at the target leaf. selfKey
// identifies which leaf may split when full.
func (n *ktree) insert(key ItemKey, item *PeerItem, selfKey ItemKey) {
	leaf := n.leafFor(key)

	if _, exists := leaf.items[key]; exists {
		leaf.items[key] = item
		return
	}
	if len(leaf.items) < K {
		leaf.items[key] = item
		return
	}
	if _, hasSelf := leaf.items[selfKey]; !hasSelf {
		// Bucket saturation preserves established contacts.
		return
	}

	leaf.split()
	leaf.insertAsInner(key, item, selfKey)
}

// insertAsInner re-dispatches an insert after a leaf has just turned into
// an Inner node in place.
func (n *ktree) insertAsInner(key ItemKey, item *PeerItem, selfKey ItemKey) {
	n.insert(key, item, selfKey)
}

// split converts a full leaf into an Inner with two child leaves,
// partitioning its current items by the next routing bit.
func (n *ktree) split() {
	bit := len(n.prefix)
	zeroPrefix := append(append([]byte{}, n.prefix...), 0)
	onePrefix := append(append([]byte{}, n.prefix...), 1)
	zero := newLeaf(zeroPrefix)
	one := newLeaf(onePrefix)
	for k, v := range n.items {
		if bitAt(k, bit) == 0 {
			zero.items[k] = v
		} else {
			one.items[k] = v
		}
	}
	n.kind = ktreeInner
	n.items = nil
	n.zero = zero
	n.one = one
}

func (n *ktree) delete(key ItemKey) {
	leaf := n.leafFor(key)
	delete(leaf.items, key)
}

func (n *ktree) update(key ItemKey, item *PeerItem) {
	leaf := n.leafFor(key)
	if _, exists := leaf.items[key]; exists {
		leaf.items[key] = item
	}
}

func (n *ktree) get(key ItemKey) (*PeerItem, bool) {
	leaf := n.leafFor(key)
	p, ok := leaf.items[key]
	return p, ok
}

func (n *ktree) size() int {
	if n.kind == ktreeLeaf {
		return len(n.items)
	}
	return n.zero.size() + n.one.size()
}

func (n *ktree) bucketCount() int {
	if n.kind == ktreeLeaf {
		return 1
	}
	return n.zero.bucketCount() + n.one.bucketCount()
}

func (n *ktree) all() []*PeerItem {
	if n.kind == ktreeLeaf {
		out := make([]*PeerItem, 0, len(n.items))
		for _, p := range n.items {
			out = append(out, p)
		}
		return out
	}
	return append(n.zero.all(), n.one.all()...)
}

// nearest collects up to limit live peers near key, preferring the
// near-side subtree at each Inner and only falling back to the sibling
// when the near side comes up short.
func (n *ktree) nearest(key ItemKey, limit int, now int64) []*PeerItem {
	if n.kind == ktreeLeaf {
		out := make([]*PeerItem, 0, len(n.items))
		for _, p := range n.items {
			if !p.Disabled(now) {
				out = append(out, p)
			}
		}
		sortByDistance(out, key)
		if len(out) > limit {
			out = out[:limit]
		}
		return out
	}
	var near, far *ktree
	if bitAt(key, len(n.prefix)) == 0 {
		near, far = n.zero, n.one
	} else {
		near, far = n.one, n.zero
	}
	result := near.nearest(key, limit, now)
	if len(result) < limit {
		result = append(result, far.nearest(key, limit-len(result), now)...)
		sortByDistance(result, key)
		if len(result) > limit {
			result = result[:limit]
		}
	}
	return result
}

func sortByDistance(peers []*PeerItem, pivot ItemKey) {
	insertionSortPeers(peers, func(a, b *PeerItem) bool {
		return Less(pivot, a.ItemKey, b.ItemKey)
	})
}

func insertionSortPeers(peers []*PeerItem, less func(a, b *PeerItem) bool) {
	for i := 1; i < len(peers); i++ {
		for j := i; j > 0 && less(peers[j], peers[j-1]); j-- {
			peers[j], peers[j-1] = peers[j-1], peers[j]
		}
	}
}

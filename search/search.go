// Package search implements the Iterative Parallel Search driver: an
// alpha-worker pool issuing FindNode/FindValue RPCs against a widening
// frontier of peers seeded from a routing table's nearest_n, converging on
// either the first peer that answers the query directly or the k nodes
// ring-closest to the target among everyone visited.
package search

import (
	"context"
	"sort"
	"time"

	"github.com/holiman/uint256"

	"github.com/diode-mesh/corevm/kbucket"
	"github.com/diode-mesh/corevm/transport"
)

// Alpha is the fixed worker-pool width, a network-compatibility constant
// rather than a tuning knob.
const Alpha = 3

// SearchResult is what Find settles on: Found selects between Value (a
// FindValue hit) and Nodes (the converged node list for FindNode, or the
// fallback node list when no FindValue hit occurs).
type SearchResult struct {
	Found bool
	Value []byte
	Nodes []*kbucket.PeerItem
}

type workerOutcome struct {
	workerID int
	peer     *kbucket.PeerItem
	resp     transport.Response
	err      error
}

func runWorker(ctx context.Context, id int, assign <-chan *kbucket.PeerItem, outcomes chan<- workerOutcome, tr transport.Transport, command transport.Command, key []byte, timeout time.Duration) {
	for {
		select {
		case peer, ok := <-assign:
			if !ok {
				return
			}
			resp, err := tr.RPC(ctx, peer, command, key, timeout)
			select {
			case outcomes <- workerOutcome{workerID: id, peer: peer, resp: resp, err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// driverState is the single-threaded owner of the frontier: everything
// here is touched only from Find's select loop, never concurrently.
type driverState struct {
	target      kbucket.ItemKey
	k           int
	queryable   []*kbucket.PeerItem
	queried     map[kbucket.ItemKey]*kbucket.PeerItem
	visited     map[kbucket.ItemKey]*kbucket.PeerItem
	waiting     []int
	minDistance *uint256.Int
	assignChans []chan *kbucket.PeerItem
}

func (d *driverState) dispatch() {
	for len(d.queryable) > 0 && len(d.waiting) > 0 {
		peer := d.queryable[0]
		d.queryable = d.queryable[1:]
		workerID := d.waiting[0]
		d.waiting = d.waiting[1:]
		d.queried[peer.ItemKey] = peer
		d.assignChans[workerID] <- peer
	}
}

func (d *driverState) isDone() bool {
	return len(d.queryable) == 0 && len(d.waiting) == Alpha
}

// recomputeQueryable folds newly returned peers into the queryable
// frontier: candidates strictly closer than the closest peer observed so
// far and not already queried, deduplicated and truncated to the k
// nearest.
func (d *driverState) recomputeQueryable(returned []*kbucket.PeerItem) {
	seen := make(map[kbucket.ItemKey]bool, len(d.queryable))
	candidates := make([]*kbucket.PeerItem, 0, len(d.queryable)+len(returned))
	for _, p := range d.queryable {
		if !seen[p.ItemKey] {
			seen[p.ItemKey] = true
			candidates = append(candidates, p)
		}
	}
	for _, p := range returned {
		if !seen[p.ItemKey] {
			seen[p.ItemKey] = true
			candidates = append(candidates, p)
		}
	}

	filtered := candidates[:0]
	for _, p := range candidates {
		if _, already := d.queried[p.ItemKey]; already {
			continue
		}
		if d.minDistance != nil && kbucket.Distance(p.ItemKey, d.target).Cmp(d.minDistance) >= 0 {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return kbucket.Less(d.target, filtered[i].ItemKey, filtered[j].ItemKey)
	})
	if len(filtered) > d.k {
		filtered = filtered[:d.k]
	}
	d.queryable = filtered
}

func (d *driverState) nearestVisitedOrQueried() []*kbucket.PeerItem {
	merged := make(map[kbucket.ItemKey]*kbucket.PeerItem, len(d.visited)+len(d.queried))
	for k, p := range d.queried {
		merged[k] = p
	}
	for k, p := range d.visited {
		merged[k] = p
	}
	out := make([]*kbucket.PeerItem, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return kbucket.Less(d.target, out[i].ItemKey, out[j].ItemKey)
	})
	if len(out) > d.k {
		out = out[:d.k]
	}
	return out
}

// Find runs the driver loop to completion: seeds should already be sorted
// nearest-first, typically the output of a routing table's NearestN
// against targetRing. rawKey is the wire-format key passed to Transport.RPC
// (the un-hashed key bytes, per the RPC contract); targetRing is its
// 256-bit ring identifier used for distance comparisons.
func Find(ctx context.Context, tr transport.Transport, targetRing kbucket.ItemKey, rawKey []byte, seeds []*kbucket.PeerItem, k int, command transport.Command, timeout time.Duration) (SearchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan workerOutcome, Alpha)
	assignChans := make([]chan *kbucket.PeerItem, Alpha)
	for i := 0; i < Alpha; i++ {
		assignChans[i] = make(chan *kbucket.PeerItem, 1)
		go runWorker(ctx, i, assignChans[i], outcomes, tr, command, rawKey, timeout)
	}
	defer func() {
		for _, ch := range assignChans {
			close(ch)
		}
	}()

	d := &driverState{
		target:      targetRing,
		k:           k,
		queried:     make(map[kbucket.ItemKey]*kbucket.PeerItem),
		visited:     make(map[kbucket.ItemKey]*kbucket.PeerItem),
		assignChans: assignChans,
	}
	d.queryable = append([]*kbucket.PeerItem(nil), seeds...)
	for i := 0; i < Alpha; i++ {
		d.waiting = append(d.waiting, i)
	}

	d.dispatch()
	if d.isDone() {
		return SearchResult{Nodes: d.nearestVisitedOrQueried()}, nil
	}

	for {
		select {
		case <-ctx.Done():
			return SearchResult{}, ctx.Err()
		case out := <-outcomes:
			if out.err == nil && out.resp.IsValue {
				d.visited[out.peer.ItemKey] = out.peer
				return SearchResult{Found: true, Value: out.resp.Value, Nodes: d.nearestVisitedOrQueried()}, nil
			}

			d.waiting = append(d.waiting, out.workerID)
			var returned []*kbucket.PeerItem
			if out.err == nil {
				returned = out.resp.Nodes
				for _, p := range returned {
					if _, ok := d.visited[p.ItemKey]; !ok {
						d.visited[p.ItemKey] = p
					}
				}
			}

			dist := kbucket.Distance(out.peer.ItemKey, d.target)
			if d.minDistance == nil || dist.Cmp(d.minDistance) < 0 {
				d.minDistance = dist
			}

			d.recomputeQueryable(returned)
			d.dispatch()
			if d.isDone() {
				return SearchResult{Nodes: d.nearestVisitedOrQueried()}, nil
			}
		}
	}
}

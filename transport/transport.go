// Package transport implements the Transport collaborator: the single
// RPC call the search driver issues against a remote peer, FindNode or
// FindValue, with a per-call timeout enforced here rather than by the
// driver.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/diode-mesh/corevm/kbucket"
)

// Command selects which RPC the driver is issuing.
type Command int

const (
	FindNode Command = iota
	FindValue
)

// ErrTimeout is returned when a call does not complete within its
// deadline. The search driver treats any TransportError, including this
// one, as an empty node result rather than propagating it.
var ErrTimeout = errors.New("transport: call timed out")

// Response is what a peer answers an RPC with: either a list of nodes
// (bounded to K entries) or a terminal value.
type Response struct {
	Nodes []*kbucket.PeerItem
	Value []byte
	IsValue bool
}

// Transport issues RPCs against remote peers. Implementations must
// support at least alpha concurrent outstanding calls per search.
type Transport interface {
	RPC(ctx context.Context, peer *kbucket.PeerItem, command Command, key []byte, timeout time.Duration) (Response, error)
}

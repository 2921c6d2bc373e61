package transport

import (
	"context"
	"sync"
	"time"

	"github.com/diode-mesh/corevm/kbucket"
)

// MockTransport is a programmable, in-memory Transport used by search
// driver tests to script deterministic peer responses without a network.
type MockTransport struct {
	mu        sync.Mutex
	responses map[kbucket.ItemKey]Response
	errors    map[kbucket.ItemKey]error
	calls     []kbucket.ItemKey
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[kbucket.ItemKey]Response),
		errors:    make(map[kbucket.ItemKey]error),
	}
}

// SetResponse scripts the Response a future RPC to peerKey will receive.
func (m *MockTransport) SetResponse(peerKey kbucket.ItemKey, resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[peerKey] = resp
}

// SetError scripts an RPC to peerKey failing with err, the TransportError
// case a driver must swallow into an empty node result.
func (m *MockTransport) SetError(peerKey kbucket.ItemKey, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[peerKey] = err
}

// Calls returns the sequence of peer keys RPC was invoked against, in
// call order, for assertions about which peers a search actually visited.
func (m *MockTransport) Calls() []kbucket.ItemKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]kbucket.ItemKey, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockTransport) RPC(ctx context.Context, peer *kbucket.PeerItem, command Command, key []byte, timeout time.Duration) (Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, peer.ItemKey)
	err, hasErr := m.errors[peer.ItemKey]
	resp, hasResp := m.responses[peer.ItemKey]
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return Response{}, ErrTimeout
	default:
	}

	if hasErr {
		return Response{}, err
	}
	if hasResp {
		return resp, nil
	}
	return Response{}, nil
}

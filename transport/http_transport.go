package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/rpc"
	gjson "github.com/gorilla/rpc/json"
	"golang.org/x/sync/singleflight"

	"github.com/diode-mesh/corevm/kbucket"
)

// NewServer wires a gorilla/rpc JSON-RPC server exposing Service under the
// "Service" method namespace, matching the server side of HTTPTransport.
func NewServer(service *Service) (*rpc.Server, error) {
	server := rpc.NewServer()
	server.RegisterCodec(gjson.NewCodec(), "application/json")
	if err := server.RegisterService(service, "Service"); err != nil {
		return nil, fmt.Errorf("transport: register service: %w", err)
	}
	return server, nil
}

// HTTPTransport is the Transport collaborator's concrete implementation:
// a JSON-RPC 1.0 client dialing the peer's advertised address and port,
// the wire format gorilla/rpc's json codec expects on the server side.
//
// Alpha-way fan-out means the same peer can legitimately be queried by
// two independent searches before the first call returns (one search
// never queries a peer twice). group collapses concurrent
// identical (peer, command, key) calls into a single dial rather than
// hammering a slow or unreachable peer twice.
type HTTPTransport struct {
	client *http.Client
	group  singleflight.Group
}

func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{client: &http.Client{}}
}

type jsonRPCRequest struct {
	Method string      `json:"method"`
	Params [1]FindArgs `json:"params"`
	ID     uint64      `json:"id"`
}

type jsonRPCResponse struct {
	Result *FindReply       `json:"result"`
	Error  *json.RawMessage `json:"error"`
	ID     uint64           `json:"id"`
}

func (h *HTTPTransport) RPC(ctx context.Context, peer *kbucket.PeerItem, command Command, key []byte, timeout time.Duration) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := "Service.FindNode"
	if command == FindValue {
		method = "Service.FindValue"
	}

	dedupeKey := fmt.Sprintf("%x|%s|%x", peer.ItemKey, method, key)
	v, err, _ := h.group.Do(dedupeKey, func() (interface{}, error) {
		return h.doRPC(ctx, peer, method, key)
	})
	if err != nil {
		return Response{}, err
	}
	return v.(Response), nil
}

func (h *HTTPTransport) doRPC(ctx context.Context, peer *kbucket.PeerItem, method string, key []byte) (Response, error) {
	reqBody := jsonRPCRequest{
		Method: method,
		Params: [1]FindArgs{{Key: key}},
		ID:     1,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, fmt.Errorf("transport: encode request: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/rpc", peer.Descriptor.Address, peer.Descriptor.Port)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("transport: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ErrTimeout
		}
		return Response{}, err
	}
	defer resp.Body.Close()

	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Response{}, fmt.Errorf("transport: decode response: %w", err)
	}
	if decoded.Error != nil || decoded.Result == nil {
		return Response{}, fmt.Errorf("transport: rpc error from peer")
	}

	if decoded.Result.Found {
		return Response{IsValue: true, Value: decoded.Result.Value}, nil
	}
	nodes := make([]*kbucket.PeerItem, len(decoded.Result.Nodes))
	for i, w := range decoded.Result.Nodes {
		nodes[i] = fromWire(w)
	}
	return Response{Nodes: nodes}, nil
}

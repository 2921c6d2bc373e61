// Package node wires the module's independent subsystems -- the
// authenticated key/value tree, the routing table, the search driver, and
// the RPC transport -- into a single running process.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/diode-mesh/corevm/clock"
	"github.com/diode-mesh/corevm/config"
	"github.com/diode-mesh/corevm/crypto"
	"github.com/diode-mesh/corevm/identity"
	"github.com/diode-mesh/corevm/kbucket"
	"github.com/diode-mesh/corevm/log"
	"github.com/diode-mesh/corevm/merkle"
	"github.com/diode-mesh/corevm/search"
	"github.com/diode-mesh/corevm/store"
	"github.com/diode-mesh/corevm/transport"
)

// Node owns one instance of every subsystem for a single running peer.
type Node struct {
	cfg    config.Config
	log    *log.Logger
	wallet *identity.LocalWallet
	table  *kbucket.Table
	tree   *merkle.Tree
	root   merkle.Root
	store  merkle.Store
	rpc    transport.Transport
	server *http.Server

	mu sync.Mutex
}

// New constructs a Node from cfg without starting any network listeners.
func New(cfg config.Config) (*Node, error) {
	wallet, err := identity.NewLocalWallet()
	if err != nil {
		return nil, fmt.Errorf("node: generate identity: %w", err)
	}

	hot := store.NewCacheStore(cfg.Storage.CacheSizeMB << 20)
	cold, err := store.OpenLevelStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("node: open storage: %w", err)
	}
	tiered := store.NewTieredStore(hot, cold)

	tree := merkle.New(tiered)
	root, err := tree.Empty()
	if err != nil {
		return nil, fmt.Errorf("node: init tree: %w", err)
	}

	table := kbucket.New(wallet.NodeId(), wallet, clock.System{})

	logger := newLogger(cfg.Logging).Module("node")

	return &Node{
		cfg:    cfg,
		log:    logger,
		wallet: wallet,
		table:  table,
		tree:   tree,
		root:   root,
		store:  tiered,
		rpc:    transport.NewHTTPTransport(),
	}, nil
}

func logLevelFromString(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the node's root logger from the logging config. "json"
// (the default) keeps the slog JSON handler for log aggregation; "text" and
// "color" switch to the LogFormatter-based renderer for interactive
// terminal use.
func newLogger(cfg config.LoggingConfig) *log.Logger {
	level := logLevelFromString(cfg.Level)
	switch cfg.Format {
	case "text":
		return log.NewText(&log.TextFormatter{}, slogToLogLevel(level), os.Stderr)
	case "color":
		return log.NewText(&log.ColorFormatter{}, slogToLogLevel(level), os.Stderr)
	default:
		return log.New(level)
	}
}

func slogToLogLevel(l slog.Level) log.LogLevel {
	switch {
	case l < slog.LevelInfo:
		return log.DEBUG
	case l < slog.LevelWarn:
		return log.INFO
	case l < slog.LevelError:
		return log.WARN
	default:
		return log.ERROR
	}
}

// valueLookup adapts the Merkle tree to transport.ValueLookup, always
// reading against the node's current root.
type valueLookup struct {
	n *Node
}

func (v valueLookup) Lookup(key []byte) ([]byte, bool, error) {
	v.n.mu.Lock()
	root := v.n.root
	v.n.mu.Unlock()
	return v.n.tree.Get(root, key)
}

// Start binds the node's RPC listener and begins serving FindNode/FindValue.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	svc := transport.NewService(n.table, valueLookup{n: n}, n.cfg.Search.ResultWidth)
	rpcServer, err := transport.NewServer(svc)
	if err != nil {
		return fmt.Errorf("node: build rpc server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", rpcServer)

	addr := fmt.Sprintf("%s:%d", n.cfg.Listen.Address, n.cfg.Listen.Port)
	n.server = &http.Server{Addr: addr, Handler: mux}

	n.log.Info("starting rpc listener", "addr", addr)
	go func() {
		if err := n.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.log.Error("rpc listener stopped", "error", err.Error())
		}
	}()
	return nil
}

// Stop gracefully shuts the node's listener down.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return n.server.Shutdown(ctx)
}

// FindNode runs an iterative parallel search for the peers nearest key.
func (n *Node) FindNode(ctx context.Context, key []byte) (search.SearchResult, error) {
	var ring kbucket.ItemKey
	copy(ring[:], key)
	seeds := n.table.NearestN(ring, n.cfg.Search.ResultWidth)
	timeout := time.Duration(n.cfg.Search.RPCTimeoutMillis) * time.Millisecond
	return search.Find(ctx, n.rpc, ring, key, seeds, n.cfg.Search.ResultWidth, transport.FindNode, timeout)
}

// FindValue runs an iterative parallel search for key's value, checking
// the local tree first.
func (n *Node) FindValue(ctx context.Context, key []byte) (search.SearchResult, error) {
	n.mu.Lock()
	root := n.root
	n.mu.Unlock()

	if v, ok, err := n.tree.Get(root, key); err != nil {
		return search.SearchResult{}, err
	} else if ok {
		return search.SearchResult{Found: true, Value: v}, nil
	}

	var ring kbucket.ItemKey
	copy(ring[:], key)
	seeds := n.table.NearestN(ring, n.cfg.Search.ResultWidth)
	timeout := time.Duration(n.cfg.Search.RPCTimeoutMillis) * time.Millisecond
	return search.Find(ctx, n.rpc, ring, key, seeds, n.cfg.Search.ResultWidth, transport.FindValue, timeout)
}

// Insert writes value under key into the local tree, advancing the node's
// current root.
func (n *Node) Insert(key, value []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	newRoot, err := n.tree.Insert(n.root, key, value)
	if err != nil {
		return err
	}
	n.root = newRoot
	return nil
}

// RootHash returns the 32-byte hash committing to the node's current tree
// state.
func (n *Node) RootHash() (crypto.Hash, error) {
	n.mu.Lock()
	root := n.root
	n.mu.Unlock()
	return n.tree.RootHash(root)
}

// RootHashes returns the node's current tree root's full hash-vector.
func (n *Node) RootHashes() ([merkle.LeafSize]crypto.Hash, error) {
	n.mu.Lock()
	root := n.root
	n.mu.Unlock()
	return n.tree.RootHashes(root)
}

// Table exposes the routing table for peer bootstrap/maintenance callers.
func (n *Node) Table() *kbucket.Table { return n.table }

// Tree exposes the authenticated key/value tree for local writes.
func (n *Node) Tree() *merkle.Tree { return n.tree }

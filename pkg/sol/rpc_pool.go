package sol

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"solgraduate/pkg"
)

// RPCPool manages multiple RPC endpoints and distributes requests across them
type RPCPool struct {
	clients []*Client
	index   uint64
}

// NewRPCPool creates a new RPC pool with the given endpoints
func NewRPCPool(ctx context.Context, endpoints []string, jitoRpc string, reqLimitPerSecond int, opts ...Option) (*RPCPool, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("at least one rpc endpoint is required")
	}

	pool := &RPCPool{
		clients: make([]*Client, 0, len(endpoints)),
	}

	// Create a client for each endpoint
	for _, endpoint := range endpoints {
		client, err := NewClient(ctx, endpoint, jitoRpc, reqLimitPerSecond, opts...)
		if err != nil {
			return nil, err
		}
		pool.clients = append(pool.clients, client)
	}

	return pool, nil
}

// GetClient returns the next client in round-robin fashion
func (p *RPCPool) GetClient() *Client {
	if len(p.clients) == 0 {
		return nil
	}
	if len(p.clients) == 1 {
		return p.clients[0]
	}

	// Atomic round-robin selection
	idx := atomic.AddUint64(&p.index, 1) % uint64(len(p.clients))
	return p.clients[idx]
}

// Size returns the number of clients in the pool
func (p *RPCPool) Size() int {
	return len(p.clients)
}

// FetchMint implements pkg.MintFetcher. A transport failure moves on to the
// next endpoint; NotAMint is final.
func (p *RPCPool) FetchMint(ctx context.Context, mint solana.PublicKey) (*pkg.TokenMint, error) {
	var lastErr error
	for i := 0; i < p.Size(); i++ {
		m, err := p.GetClient().FetchMint(ctx, mint)
		if err == nil {
			return m, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("rpc pool is empty")
	}
	return nil, lastErr
}

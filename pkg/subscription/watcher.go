package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"solgraduate/pkg/pool/whirlpool"
)

// PoolFetcher reads a Whirlpool once over RPC. protocol.WhirlpoolProtocol satisfies it.
type PoolFetcher interface {
	FetchPoolByID(ctx context.Context, poolID solana.PublicKey) (*whirlpool.WhirlpoolPool, error)
}

// WhirlpoolWatcher follows Whirlpool accounts over an account subscription and
// lets callers wait until a freshly graduated pool exists on chain.
type WhirlpoolWatcher struct {
	wsClient      *WebSocketClient
	fetcher       PoolFetcher
	poolCache     *PoolCache
	subscriptions map[string]uint64 // pool -> local subscription id
	waiters       map[string][]chan struct{}
	mu            sync.Mutex
	logger        *zap.Logger
}

// NewWhirlpoolWatcher dials wsURL. fetcher may be nil; when set it covers pools
// that were created before the subscription was confirmed.
func NewWhirlpoolWatcher(ctx context.Context, wsURL string, fetcher PoolFetcher, logger *zap.Logger) (*WhirlpoolWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wsClient, err := NewWebSocketClient(ctx, wsURL, WithClientLogger(logger))
	if err != nil {
		return nil, err
	}
	return newWatcher(wsClient, fetcher, logger), nil
}

func newWatcher(wsClient *WebSocketClient, fetcher PoolFetcher, logger *zap.Logger) *WhirlpoolWatcher {
	return &WhirlpoolWatcher{
		wsClient:      wsClient,
		fetcher:       fetcher,
		poolCache:     NewPoolCache(),
		subscriptions: make(map[string]uint64),
		waiters:       make(map[string][]chan struct{}),
		logger:        logger,
	}
}

// Watch subscribes to a pool address. Repeated calls are no-ops.
func (w *WhirlpoolWatcher) Watch(address solana.PublicKey) error {
	poolID := address.String()

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.subscriptions[poolID]; exists {
		return nil
	}

	subID, err := w.wsClient.SubscribeAccount(poolID, func(_ string, data []byte, slot uint64) {
		w.handleUpdate(address, data, slot)
	})
	if err != nil {
		return err
	}
	w.subscriptions[poolID] = subID
	w.logger.Debug("watching whirlpool", zap.String("pool", poolID), zap.Uint64("subID", subID))
	return nil
}

// Unwatch drops the subscription and the cached state of a pool
func (w *WhirlpoolWatcher) Unwatch(address solana.PublicKey) error {
	poolID := address.String()

	w.mu.Lock()
	subID, exists := w.subscriptions[poolID]
	delete(w.subscriptions, poolID)
	w.mu.Unlock()

	w.poolCache.RemovePool(poolID)
	if !exists {
		return nil
	}
	return w.wsClient.Unsubscribe(subID)
}

// WaitForPool blocks until the Whirlpool at address decodes, or ctx ends
func (w *WhirlpoolWatcher) WaitForPool(ctx context.Context, address solana.PublicKey) (*whirlpool.WhirlpoolPool, error) {
	poolID := address.String()

	ready := make(chan struct{}, 1)
	w.mu.Lock()
	w.waiters[poolID] = append(w.waiters[poolID], ready)
	w.mu.Unlock()
	defer w.dropWaiter(poolID, ready)

	if pool, ok := w.poolCache.GetPool(poolID); ok {
		return pool, nil
	}
	if err := w.Watch(address); err != nil {
		return nil, err
	}

	if w.fetcher != nil {
		if pool, err := w.fetcher.FetchPoolByID(ctx, address); err == nil {
			w.store(pool, pool.LastSlot)
		} else {
			w.logger.Debug("pool not readable yet", zap.String("pool", poolID), zap.Error(err))
		}
	}

	for {
		if pool, ok := w.poolCache.GetPool(poolID); ok {
			return pool, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ready:
		}
	}
}

// GetPool returns the latest cached state of a watched pool
func (w *WhirlpoolWatcher) GetPool(address solana.PublicKey) (*whirlpool.WhirlpoolPool, bool) {
	return w.poolCache.GetPool(address.String())
}

func (w *WhirlpoolWatcher) handleUpdate(address solana.PublicKey, data []byte, slot uint64) {
	poolID := address.String()

	if err := w.poolCache.UpdatePoolAccount(poolID, data, slot); err == nil {
		w.notify(poolID)
		return
	}

	pool, err := whirlpool.ParseWhirlpool(address, data)
	if err != nil {
		w.logger.Debug("account is not a whirlpool yet", zap.String("pool", poolID), zap.Uint64("slot", slot), zap.Error(err))
		return
	}
	pool.LastSlot = slot
	w.store(pool, slot)
}

func (w *WhirlpoolWatcher) store(pool *whirlpool.WhirlpoolPool, slot uint64) {
	w.poolCache.SetPool(pool, slot)
	w.notify(pool.GetID())
}

func (w *WhirlpoolWatcher) notify(poolID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.waiters[poolID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (w *WhirlpoolWatcher) dropWaiter(poolID string, ready chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waiters := w.waiters[poolID]
	for i, ch := range waiters {
		if ch == ready {
			w.waiters[poolID] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(w.waiters[poolID]) == 0 {
		delete(w.waiters, poolID)
	}
}

// Stats returns subscription statistics
func (w *WhirlpoolWatcher) Stats() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	return map[string]interface{}{
		"subscriptions": len(w.subscriptions),
		"cachedPools":   w.poolCache.Size(),
		"connected":     w.wsClient.IsConnected(),
		"timestamp":     time.Now().Format(time.RFC3339),
	}
}

// Close drops every subscription and the connection
func (w *WhirlpoolWatcher) Close() error {
	w.mu.Lock()
	subs := make([]uint64, 0, len(w.subscriptions))
	for _, subID := range w.subscriptions {
		subs = append(subs, subID)
	}
	w.subscriptions = make(map[string]uint64)
	w.mu.Unlock()

	for _, subID := range subs {
		if err := w.wsClient.Unsubscribe(subID); err != nil {
			w.logger.Debug("unsubscribe failed", zap.Uint64("subID", subID), zap.Error(err))
		}
	}
	return w.wsClient.Close()
}

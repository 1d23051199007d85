package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"solgraduate/pkg"
)

// defaultFetchTimeout bounds one shared mint read, whoever is waiting on it
const defaultFetchTimeout = 15 * time.Second

type cachedMint struct {
	mint      *pkg.TokenMint
	fetchedAt time.Time
}

// MintCache is a pkg.MintFetcher that keeps mint metadata for ttl. Concurrent
// misses for one mint share a single RPC read.
type MintCache struct {
	inner   pkg.MintFetcher
	ttl     time.Duration
	entries map[solana.PublicKey]cachedMint
	mu      sync.RWMutex
	group   singleflight.Group
	logger  *zap.Logger
	now     func() time.Time

	fetchTimeout time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewMintCache(inner pkg.MintFetcher, ttl time.Duration, logger *zap.Logger) *MintCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MintCache{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[solana.PublicKey]cachedMint),
		logger:  logger,
		now:     time.Now,

		fetchTimeout: defaultFetchTimeout,
	}
}

func (c *MintCache) FetchMint(ctx context.Context, mint solana.PublicKey) (*pkg.TokenMint, error) {
	c.mu.RLock()
	entry, ok := c.entries[mint]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.hits.Add(1)
		return entry.mint, nil
	}
	c.misses.Add(1)
	return c.load(ctx, mint, false)
}

// load shares one read per mint across concurrent callers. The read runs
// detached from any single caller, so one cancelled request does not fail the
// others waiting on it.
func (c *MintCache) load(ctx context.Context, mint solana.PublicKey, force bool) (*pkg.TokenMint, error) {
	ch := c.group.DoChan(mint.String(), func() (interface{}, error) {
		if !force {
			// Another caller may have filled the entry since the miss
			c.mu.RLock()
			entry, ok := c.entries[mint]
			c.mu.RUnlock()
			if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
				return entry.mint, nil
			}
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		m, err := c.inner.FetchMint(fetchCtx, mint)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[mint] = cachedMint{mint: m, fetchedAt: c.now()}
		c.mu.Unlock()
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pkg.TokenMint), nil
	}
}

// Refresh reloads every cached mint. Mints that stopped resolving are dropped.
func (c *MintCache) Refresh(ctx context.Context) {
	c.mu.RLock()
	mints := make([]solana.PublicKey, 0, len(c.entries))
	for mint := range c.entries {
		mints = append(mints, mint)
	}
	c.mu.RUnlock()

	for _, mint := range mints {
		if ctx.Err() != nil {
			return
		}
		if _, err := c.load(ctx, mint, true); err != nil {
			c.logger.Warn("mint refresh failed", zap.String("mint", mint.String()), zap.Error(err))
			if pkg.CodeOf(err) == pkg.ErrCodeNotAMint {
				c.mu.Lock()
				delete(c.entries, mint)
				c.mu.Unlock()
			}
		}
	}
}

// StartPeriodicRefresh refreshes the cache every interval until ctx ends
func (c *MintCache) StartPeriodicRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			c.Refresh(ctx)
			c.logger.Debug("mint cache refreshed", zap.Int("mints", c.Size()), zap.Duration("took", time.Since(start)))
		}
	}
}

func (c *MintCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters since start
func (c *MintCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

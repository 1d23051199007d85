package graduate

import (
	"context"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"solgraduate/pkg"
)

// Engine turns a token pair and two deposit ceilings into a graduation
// instruction. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	cfg     Config
	mints   pkg.MintFetcher
	keys    pkg.KeyGenerator
	deriver pkg.AddressDeriver
	logger  *zap.Logger
}

func NewEngine(cfg Config, mints pkg.MintFetcher, keys pkg.KeyGenerator, deriver pkg.AddressDeriver, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mints == nil {
		return nil, pkg.NewError(pkg.ErrCodeInvalidInput, "mint fetcher is required")
	}
	if keys == nil {
		keys = WalletKeyGenerator{}
	}
	if deriver == nil {
		deriver = NewCachingDeriver(pkg.ProgramAddressDeriver{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		mints:   mints,
		keys:    keys,
		deriver: deriver,
		logger:  logger,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// BuildRequest is one graduation in caller order
type BuildRequest struct {
	Funder  solana.PublicKey
	Mint0   solana.PublicKey
	Mint1   solana.PublicKey
	Amount0 cosmath.Int
	Amount1 cosmath.Int
}

// BuildResult is a complete graduation. Keys must sign alongside the funder.
type BuildResult struct {
	Instruction *GraduateTokenToOrcaInstruction
	Quote       *Quote
	Addresses   *DerivedAddressSet
	Keys        EphemeralKeys
}

// Whirlpool is the address of the pool the instruction creates
func (r *BuildResult) Whirlpool() solana.PublicKey {
	return r.Addresses.Whirlpool
}

// PositionMint is the address of the locked position NFT
func (r *BuildResult) PositionMint() solana.PublicKey {
	return r.Addresses.PositionMint
}

// Quote fetches both mints and prices the graduation without generating keys
func (e *Engine) Quote(ctx context.Context, mint0, mint1 solana.PublicKey, amount0, amount1 cosmath.Int) (*Quote, error) {
	pair, err := Canonicalize(mint0, mint1)
	if err != nil {
		return nil, err
	}
	mintA, mintB, err := e.fetchPair(ctx, pair)
	if err != nil {
		return nil, err
	}
	amountA, amountB := pair.RemapAmounts(amount0, amount1)
	return NewQuote(pair, mintA, mintB, amountA, amountB, e.cfg.TickSpacing)
}

func (e *Engine) fetchPair(ctx context.Context, pair CanonicalPair) (*pkg.TokenMint, *pkg.TokenMint, error) {
	var mintA, mintB *pkg.TokenMint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mintA, err = e.mints.FetchMint(gctx, pair.MintA)
		return err
	})
	g.Go(func() (err error) {
		mintB, err = e.mints.FetchMint(gctx, pair.MintB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return mintA, mintB, nil
}

// Build assembles the graduation instruction. Mint reads and key generation
// run concurrently. On any failure nothing is returned.
func (e *Engine) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if req.Funder.IsZero() {
		return nil, pkg.NewError(pkg.ErrCodeInvalidInput, "funder is required")
	}
	pair, err := Canonicalize(req.Mint0, req.Mint1)
	if err != nil {
		return nil, err
	}

	var (
		mintA, mintB *pkg.TokenMint
		keys         EphemeralKeys
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mintA, mintB, err = e.fetchPair(gctx, pair)
		return err
	})
	g.Go(func() (err error) {
		keys, err = NewEphemeralKeys(e.keys)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	amountA, amountB := pair.RemapAmounts(req.Amount0, req.Amount1)
	quote, err := NewQuote(pair, mintA, mintB, amountA, amountB, e.cfg.TickSpacing)
	if err != nil {
		return nil, err
	}

	addrs, err := DeriveAddresses(e.deriver, e.cfg, mintA, mintB, quote.Ticks,
		keys.PositionMint.PublicKey(), keys.TokenVaultA.PublicKey(), keys.TokenVaultB.PublicKey())
	if err != nil {
		return nil, err
	}

	inst := NewGraduateTokenToOrcaInstruction(e.cfg, req.Funder, quote, addrs)

	e.logger.Debug("graduation built",
		zap.String("mintA", pair.MintA.String()),
		zap.String("mintB", pair.MintB.String()),
		zap.Bool("swapped", pair.Swapped),
		zap.String("sqrtPrice", quote.SqrtPrice.String()),
		zap.String("liquidity", quote.Liquidity.String()),
		zap.String("whirlpool", addrs.Whirlpool.String()),
		zap.String("positionMint", addrs.PositionMint.String()),
	)

	return &BuildResult{
		Instruction: inst,
		Quote:       quote,
		Addresses:   addrs,
		Keys:        keys,
	}, nil
}

package graduate

import (
	"math/big"

	cosmath "cosmossdk.io/math"
	"solgraduate/pkg"
	"solgraduate/pkg/pool/whirlpool"
	"solgraduate/pkg/token2022"
)

// TickRange is the symmetric full range for a tick spacing and the start
// indexes of the two tick arrays holding its bounds
type TickRange struct {
	TickLowerIndex      int32
	TickUpperIndex      int32
	StartTickIndexLower int32
	StartTickIndexUpper int32
}

// FullRange computes the widest usable range for tickSpacing
func FullRange(tickSpacing uint16) (TickRange, error) {
	if tickSpacing == 0 {
		return TickRange{}, pkg.NewError(pkg.ErrCodeInvalidInput, "tick spacing must be positive")
	}
	lower, upper := whirlpool.FullRangeTickIndexes(tickSpacing)
	return TickRange{
		TickLowerIndex:      lower,
		TickUpperIndex:      upper,
		StartTickIndexLower: whirlpool.TickArrayStartIndex(lower, tickSpacing),
		StartTickIndexUpper: whirlpool.TickArrayStartIndex(upper, tickSpacing),
	}, nil
}

// PriceQuote is the opening price of the pool
type PriceQuote struct {
	// Price is one whole token A in token B
	Price cosmath.LegacyDec

	// SqrtPrice is the Q64.64 encoding of the raw price
	SqrtPrice *big.Int
}

// QuotePrice prices amountB against amountA. Decimals only affect the human
// readable price: the raw ratio already carries them.
func QuotePrice(decimalsA, decimalsB uint8, amountA, amountB cosmath.Int) (PriceQuote, error) {
	raw, err := whirlpool.RawPrice(amountA, amountB)
	if err != nil {
		return PriceQuote{}, err
	}
	sqrtPrice, err := whirlpool.RawPriceToSqrtPrice(raw)
	if err != nil {
		return PriceQuote{}, err
	}
	price, err := whirlpool.DecimalPrice(raw, decimalsA, decimalsB)
	if err != nil {
		return PriceQuote{}, pkg.Errorf(pkg.ErrCodePriceOutOfRange, "price not representable").WithCause(err)
	}
	return PriceQuote{Price: price, SqrtPrice: sqrtPrice}, nil
}

// LiquidityQuote is the liquidity requested for the position
type LiquidityQuote struct {
	// Liquidity is the binding (smaller) of the two candidates
	Liquidity      *big.Int
	LiquidityFromA *big.Int
	LiquidityFromB *big.Int

	// EffectiveAmountA and EffectiveAmountB are the ceilings net of the worst case transfer fee
	EffectiveAmountA cosmath.Int
	EffectiveAmountB cosmath.Int

	// DepositA and DepositB are what the vaults receive for Liquidity, rounded up
	DepositA *big.Int
	DepositB *big.Int
}

// QuoteLiquidity sizes a position over ticks at sqrtPrice so that neither
// fee-adjusted ceiling is exceeded.
func QuoteLiquidity(
	sqrtPrice *big.Int,
	ticks TickRange,
	mintA *pkg.TokenMint,
	mintB *pkg.TokenMint,
	tokenMaxA cosmath.Int,
	tokenMaxB cosmath.Int,
) (LiquidityQuote, error) {
	sqrtPriceLower, err := whirlpool.TickIndexToSqrtPrice(ticks.TickLowerIndex)
	if err != nil {
		return LiquidityQuote{}, pkg.Errorf(pkg.ErrCodeInvalidInput, "lower tick").WithCause(err)
	}
	sqrtPriceUpper, err := whirlpool.TickIndexToSqrtPrice(ticks.TickUpperIndex)
	if err != nil {
		return LiquidityQuote{}, pkg.Errorf(pkg.ErrCodeInvalidInput, "upper tick").WithCause(err)
	}

	effectiveA := token2022.TransferFeeExcludedAmount(mintA.TransferFee, tokenMaxA)
	effectiveB := token2022.TransferFeeExcludedAmount(mintB.TransferFee, tokenMaxB)

	liquidity, fromA, fromB := whirlpool.LiquidityFromAmounts(
		sqrtPrice, sqrtPriceLower, sqrtPriceUpper, effectiveA.BigInt(), effectiveB.BigInt())
	if liquidity.Sign() <= 0 {
		return LiquidityQuote{}, pkg.Errorf(pkg.ErrCodeInsufficientLiquidity,
			"no liquidity for deposits %s/%s after transfer fees", effectiveA, effectiveB)
	}
	if liquidity.Cmp(whirlpool.MaxU128) > 0 {
		return LiquidityQuote{}, pkg.Errorf(pkg.ErrCodeInvalidInput, "liquidity %s overflows u128", liquidity)
	}

	depositA, depositB := whirlpool.TokenAmountsFromLiquidity(liquidity, sqrtPrice, sqrtPriceLower, sqrtPriceUpper, true)

	return LiquidityQuote{
		Liquidity:        liquidity,
		LiquidityFromA:   fromA,
		LiquidityFromB:   fromB,
		EffectiveAmountA: effectiveA,
		EffectiveAmountB: effectiveB,
		DepositA:         depositA,
		DepositB:         depositB,
	}, nil
}

// Quote is everything the instruction needs besides addresses
type Quote struct {
	Pair  CanonicalPair
	MintA *pkg.TokenMint
	MintB *pkg.TokenMint

	// TokenMaxA and TokenMaxB are the caller's ceilings in canonical order
	TokenMaxA cosmath.Int
	TokenMaxB cosmath.Int

	PriceQuote
	LiquidityQuote
	Ticks TickRange
}

// NewQuote prices and sizes a graduation for mints already in canonical order
func NewQuote(
	pair CanonicalPair,
	mintA *pkg.TokenMint,
	mintB *pkg.TokenMint,
	tokenMaxA cosmath.Int,
	tokenMaxB cosmath.Int,
	tickSpacing uint16,
) (*Quote, error) {
	if mintA == nil || mintB == nil {
		return nil, pkg.NewError(pkg.ErrCodeInvalidInput, "mint metadata is required for both tokens")
	}
	if !mintA.Address.Equals(pair.MintA) || !mintB.Address.Equals(pair.MintB) {
		return nil, pkg.Errorf(pkg.ErrCodeInvalidInput, "mint metadata %s/%s does not match pair %s/%s",
			mintA.Address, mintB.Address, pair.MintA, pair.MintB)
	}
	if err := checkTokenMax("A", tokenMaxA); err != nil {
		return nil, err
	}
	if err := checkTokenMax("B", tokenMaxB); err != nil {
		return nil, err
	}

	price, err := QuotePrice(mintA.Decimals, mintB.Decimals, tokenMaxA, tokenMaxB)
	if err != nil {
		return nil, err
	}
	ticks, err := FullRange(tickSpacing)
	if err != nil {
		return nil, err
	}
	liquidity, err := QuoteLiquidity(price.SqrtPrice, ticks, mintA, mintB, tokenMaxA, tokenMaxB)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Pair:           pair,
		MintA:          mintA,
		MintB:          mintB,
		TokenMaxA:      tokenMaxA,
		TokenMaxB:      tokenMaxB,
		PriceQuote:     price,
		LiquidityQuote: liquidity,
		Ticks:          ticks,
	}, nil
}

// checkTokenMax rejects ceilings the instruction cannot carry. Zero is left
// to the price calculation, which reports it as a division by zero.
func checkTokenMax(side string, amount cosmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return pkg.Errorf(pkg.ErrCodeInvalidInput, "token %s amount must not be negative", side)
	}
	if amount.BigInt().Cmp(whirlpool.MaxU64) > 0 {
		return pkg.Errorf(pkg.ErrCodeInvalidInput, "token %s amount %s overflows u64", side, amount)
	}
	return nil
}

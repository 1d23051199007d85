package whirlpool

import (
	"math/big"
)

// PositionStatus locates the current price relative to a position's range
type PositionStatus int

const (
	PriceBelowRange PositionStatus = iota
	PriceInRange
	PriceAboveRange
)

func (s PositionStatus) String() string {
	switch s {
	case PriceBelowRange:
		return "below_range"
	case PriceInRange:
		return "in_range"
	case PriceAboveRange:
		return "above_range"
	default:
		return "unknown"
	}
}

// GetPositionStatus compares the current sqrt price against the range bounds
func GetPositionStatus(sqrtPrice, sqrtPriceLower, sqrtPriceUpper *big.Int) PositionStatus {
	if sqrtPrice.Cmp(sqrtPriceLower) <= 0 {
		return PriceBelowRange
	}
	if sqrtPrice.Cmp(sqrtPriceUpper) >= 0 {
		return PriceAboveRange
	}
	return PriceInRange
}

// LiquidityFromTokenA is floor(amount * lower * upper / (upper - lower) / 2^64)
func LiquidityFromTokenA(amount, sqrtPriceLower, sqrtPriceUpper *big.Int) *big.Int {
	diff := new(big.Int).Sub(sqrtPriceUpper, sqrtPriceLower)
	if diff.Sign() <= 0 {
		return new(big.Int)
	}
	product := new(big.Int).Mul(amount, sqrtPriceLower)
	product.Mul(product, sqrtPriceUpper)
	product.Quo(product, diff)
	return product.Rsh(product, 64)
}

// LiquidityFromTokenB is floor(amount * 2^64 / (upper - lower))
func LiquidityFromTokenB(amount, sqrtPriceLower, sqrtPriceUpper *big.Int) *big.Int {
	diff := new(big.Int).Sub(sqrtPriceUpper, sqrtPriceLower)
	if diff.Sign() <= 0 {
		return new(big.Int)
	}
	shifted := new(big.Int).Lsh(amount, 64)
	return shifted.Quo(shifted, diff)
}

// LiquidityFromAmounts returns the candidate liquidity of each side and the binding
// (minimum) value for a position [sqrtPriceLower, sqrtPriceUpper] at sqrtPrice.
// A side that the position does not hold at the current price yields a nil candidate.
func LiquidityFromAmounts(
	sqrtPrice *big.Int,
	sqrtPriceLower *big.Int,
	sqrtPriceUpper *big.Int,
	amountA *big.Int,
	amountB *big.Int,
) (liquidity *big.Int, fromA *big.Int, fromB *big.Int) {
	switch GetPositionStatus(sqrtPrice, sqrtPriceLower, sqrtPriceUpper) {
	case PriceBelowRange:
		fromA = LiquidityFromTokenA(amountA, sqrtPriceLower, sqrtPriceUpper)
		return fromA, fromA, nil
	case PriceAboveRange:
		fromB = LiquidityFromTokenB(amountB, sqrtPriceLower, sqrtPriceUpper)
		return fromB, nil, fromB
	default:
		fromA = LiquidityFromTokenA(amountA, sqrtPrice, sqrtPriceUpper)
		fromB = LiquidityFromTokenB(amountB, sqrtPriceLower, sqrtPrice)
		if fromA.Cmp(fromB) <= 0 {
			return new(big.Int).Set(fromA), fromA, fromB
		}
		return new(big.Int).Set(fromB), fromA, fromB
	}
}

// AmountDeltaA is the token A needed for liquidity between two sqrt prices:
// liquidity * 2^64 * (upper - lower) / (upper * lower)
func AmountDeltaA(liquidity, sqrtPriceLower, sqrtPriceUpper *big.Int, roundUp bool) *big.Int {
	diff := new(big.Int).Sub(sqrtPriceUpper, sqrtPriceLower)
	if diff.Sign() <= 0 || liquidity.Sign() == 0 {
		return new(big.Int)
	}
	numerator := new(big.Int).Mul(liquidity, diff)
	numerator.Lsh(numerator, 64)
	denominator := new(big.Int).Mul(sqrtPriceUpper, sqrtPriceLower)

	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if roundUp && remainder.Sign() != 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return quotient
}

// AmountDeltaB is the token B needed for liquidity between two sqrt prices:
// liquidity * (upper - lower) / 2^64
func AmountDeltaB(liquidity, sqrtPriceLower, sqrtPriceUpper *big.Int, roundUp bool) *big.Int {
	diff := new(big.Int).Sub(sqrtPriceUpper, sqrtPriceLower)
	if diff.Sign() <= 0 || liquidity.Sign() == 0 {
		return new(big.Int)
	}
	product := new(big.Int).Mul(liquidity, diff)
	quotient := new(big.Int).Rsh(product, 64)
	if roundUp && new(big.Int).And(product, MaxU64).Sign() != 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return quotient
}

// TokenAmountsFromLiquidity returns the token amounts a position of liquidity holds
// at sqrtPrice. Deposits round up, withdrawals round down.
func TokenAmountsFromLiquidity(
	liquidity *big.Int,
	sqrtPrice *big.Int,
	sqrtPriceLower *big.Int,
	sqrtPriceUpper *big.Int,
	roundUp bool,
) (amountA *big.Int, amountB *big.Int) {
	switch GetPositionStatus(sqrtPrice, sqrtPriceLower, sqrtPriceUpper) {
	case PriceBelowRange:
		return AmountDeltaA(liquidity, sqrtPriceLower, sqrtPriceUpper, roundUp), new(big.Int)
	case PriceAboveRange:
		return new(big.Int), AmountDeltaB(liquidity, sqrtPriceLower, sqrtPriceUpper, roundUp)
	default:
		return AmountDeltaA(liquidity, sqrtPrice, sqrtPriceUpper, roundUp),
			AmountDeltaB(liquidity, sqrtPriceLower, sqrtPrice, roundUp)
	}
}

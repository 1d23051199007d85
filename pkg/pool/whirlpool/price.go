package whirlpool

import (
	"fmt"
	"math/big"

	cosmath "cosmossdk.io/math"
	"solgraduate/pkg"
)

// RawPrice is the exact ratio amountB / amountA in base units
func RawPrice(amountA, amountB cosmath.Int) (*big.Rat, error) {
	if amountA.IsNil() || !amountA.IsPositive() {
		return nil, pkg.Errorf(pkg.ErrCodeDivisionByZero, "token A amount must be positive, got %s", intString(amountA))
	}
	if amountB.IsNil() || !amountB.IsPositive() {
		return nil, pkg.Errorf(pkg.ErrCodeDivisionByZero, "token B amount must be positive, got %s", intString(amountB))
	}
	return new(big.Rat).SetFrac(amountB.BigInt(), amountA.BigInt()), nil
}

// RawPriceToSqrtPrice encodes a raw price as floor(sqrt(price) * 2^64), computed
// exactly as isqrt(floor(price * 2^128)). Prices outside the protocol's sqrt
// price bounds fail with PriceOutOfRange.
func RawPriceToSqrtPrice(price *big.Rat) (*big.Int, error) {
	if price.Sign() <= 0 {
		return nil, pkg.Errorf(pkg.ErrCodePriceOutOfRange, "price must be positive, got %s", price.RatString())
	}

	scaled := new(big.Int).Mul(price.Num(), Q128)
	scaled.Quo(scaled, price.Denom())
	sqrtPrice := new(big.Int).Sqrt(scaled)

	if sqrtPrice.Cmp(MinSqrtPrice) < 0 || sqrtPrice.Cmp(MaxSqrtPrice) > 0 {
		return nil, pkg.Errorf(pkg.ErrCodePriceOutOfRange,
			"sqrt price %s outside [%s, %s]", sqrtPrice, MinSqrtPrice, MaxSqrtPrice)
	}
	return sqrtPrice, nil
}

// SqrtPriceToRawPrice decodes a Q64.64 sqrt price into the exact raw price sqrt^2 / 2^128
func SqrtPriceToRawPrice(sqrtPrice *big.Int) *big.Rat {
	squared := new(big.Int).Mul(sqrtPrice, sqrtPrice)
	return new(big.Rat).SetFrac(squared, Q128)
}

// PriceToSqrtPrice is the initial sqrt price of a pool seeded with amountA and amountB
func PriceToSqrtPrice(amountA, amountB cosmath.Int) (*big.Int, error) {
	price, err := RawPrice(amountA, amountB)
	if err != nil {
		return nil, err
	}
	return RawPriceToSqrtPrice(price)
}

// DecimalPrice converts a raw price into whole-token units: the price of one
// token A in token B, truncated to LegacyDec precision.
func DecimalPrice(raw *big.Rat, decimalsA, decimalsB uint8) (cosmath.LegacyDec, error) {
	shift := int64(decimalsA) - int64(decimalsB) + cosmath.LegacyPrecision
	num := new(big.Int).Set(raw.Num())
	den := new(big.Int).Set(raw.Denom())
	if shift >= 0 {
		num.Mul(num, new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil))
	} else {
		den.Mul(den, new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil))
	}

	scaled := num.Quo(num, den)
	if scaled.BitLen() > 255 {
		return cosmath.LegacyDec{}, fmt.Errorf("price %s does not fit a decimal", raw.RatString())
	}
	return cosmath.LegacyNewDecFromBigIntWithPrec(scaled, cosmath.LegacyPrecision), nil
}

// SqrtPriceToDecimalPrice is the human readable price encoded by a Q64.64 sqrt price
func SqrtPriceToDecimalPrice(sqrtPrice *big.Int, decimalsA, decimalsB uint8) (cosmath.LegacyDec, error) {
	return DecimalPrice(SqrtPriceToRawPrice(sqrtPrice), decimalsA, decimalsB)
}

func intString(i cosmath.Int) string {
	if i.IsNil() {
		return "<nil>"
	}
	return i.String()
}

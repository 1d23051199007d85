package whirlpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splashRange(t *testing.T) (*big.Int, *big.Int) {
	t.Helper()
	lower, upper := FullRangeTickIndexes(SPLASH_POOL_TICK_SPACING)
	sqrtLower, err := TickIndexToSqrtPrice(lower)
	require.NoError(t, err)
	sqrtUpper, err := TickIndexToSqrtPrice(upper)
	require.NoError(t, err)
	return sqrtLower, sqrtUpper
}

func TestLiquidityFromAmountsBalanced(t *testing.T) {
	sqrtLower, sqrtUpper := splashRange(t)
	amount := bigFromString(t, "1000000000000000000")

	liquidity, fromA, fromB := LiquidityFromAmounts(Q64, sqrtLower, sqrtUpper, amount, amount)
	assert.Equal(t, "1000000000517852351", liquidity.String())
	assert.Equal(t, "1000000000517852351", fromA.String())
	assert.Equal(t, "1000000000517852351", fromB.String())

	amountA, amountB := TokenAmountsFromLiquidity(liquidity, Q64, sqrtLower, sqrtUpper, true)
	assert.Equal(t, amount.String(), amountA.String())
	assert.Equal(t, amount.String(), amountB.String())
}

func TestLiquidityFromAmountsBindingSide(t *testing.T) {
	sqrtLower, sqrtUpper := splashRange(t)
	sqrtPrice := bigFromString(t, "49656965805919704050663")
	maxA := big.NewInt(138_000_000_000)
	maxB := bigFromString(t, "1000000000000000001")

	liquidity, fromA, fromB := LiquidityFromAmounts(sqrtPrice, sqrtLower, sqrtUpper, maxA, maxB)
	assert.Equal(t, "371484030273206", fromA.String())
	assert.Equal(t, "371483512420205", fromB.String())
	assert.Equal(t, fromB.String(), liquidity.String())

	amountA, amountB := TokenAmountsFromLiquidity(liquidity, sqrtPrice, sqrtLower, sqrtUpper, true)
	assert.Equal(t, "137999807627", amountA.String())
	assert.Equal(t, "999999999999998216", amountB.String())
	assert.True(t, amountA.Cmp(maxA) <= 0)
	assert.True(t, amountB.Cmp(maxB) <= 0)
}

func TestLiquidityNeverOverdraws(t *testing.T) {
	sqrtLower, sqrtUpper := splashRange(t)
	amounts := []int64{1, 7, 1_000, 123_456_789, 1_000_000_000, 999_999_999_999, 1 << 62}

	for _, a := range amounts {
		for _, b := range amounts {
			maxA, maxB := big.NewInt(a), big.NewInt(b)
			sqrtPrice := new(big.Int).Sqrt(new(big.Int).Quo(new(big.Int).Lsh(maxB, 128), maxA))

			liquidity, _, _ := LiquidityFromAmounts(sqrtPrice, sqrtLower, sqrtUpper, maxA, maxB)
			amountA, amountB := TokenAmountsFromLiquidity(liquidity, sqrtPrice, sqrtLower, sqrtUpper, true)
			assert.True(t, amountA.Cmp(maxA) <= 0, "a=%d b=%d: amountA %s", a, b, amountA)
			assert.True(t, amountB.Cmp(maxB) <= 0, "a=%d b=%d: amountB %s", a, b, amountB)
		}
	}
}

func TestLiquidityOutOfRange(t *testing.T) {
	lower := big.NewInt(1_000_000)
	upper := big.NewInt(2_000_000)
	amount := big.NewInt(1_000)

	liquidity, fromA, fromB := LiquidityFromAmounts(big.NewInt(10), lower, upper, amount, amount)
	assert.Nil(t, fromB)
	assert.Equal(t, 0, liquidity.Cmp(fromA))
	assert.Equal(t, PriceBelowRange, GetPositionStatus(big.NewInt(10), lower, upper))

	liquidity, fromA, fromB = LiquidityFromAmounts(big.NewInt(3_000_000), lower, upper, amount, amount)
	assert.Nil(t, fromA)
	assert.Equal(t, 0, liquidity.Cmp(fromB))
	assert.Equal(t, PriceAboveRange, GetPositionStatus(upper, lower, upper))
	assert.Equal(t, PriceInRange, GetPositionStatus(big.NewInt(1_500_000), lower, upper))
}

func TestAmountDeltaRounding(t *testing.T) {
	lower := big.NewInt(1 << 32)
	upper := new(big.Int).Add(lower, big.NewInt(3))

	down := AmountDeltaB(big.NewInt(5), lower, upper, false)
	up := AmountDeltaB(big.NewInt(5), lower, upper, true)
	assert.Equal(t, "0", down.String())
	assert.Equal(t, "1", up.String())

	assert.Equal(t, "0", AmountDeltaA(big.NewInt(0), lower, upper, true).String())
}

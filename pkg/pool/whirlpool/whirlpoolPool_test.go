package whirlpool

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solgraduate/pkg/anchor"
)

func whirlpoolAccountData(mintA, mintB solana.PublicKey, tickSpacing uint16, sqrtPrice *big.Int) []byte {
	data := make([]byte, WHIRLPOOL_ACCOUNT_SIZE)
	copy(data[0:8], anchor.GetDiscriminator("account", WHIRLPOOL_ACCOUNT_NAME))
	copy(data[8:40], MainnetWhirlpoolsConfig.Bytes())
	data[40] = 255
	binary.LittleEndian.PutUint16(data[41:43], tickSpacing)
	binary.LittleEndian.PutUint16(data[45:47], 10_000)

	lo := new(big.Int).And(sqrtPrice, MaxU64).Uint64()
	hi := new(big.Int).Rsh(sqrtPrice, 64).Uint64()
	binary.LittleEndian.PutUint64(data[65:73], lo)
	binary.LittleEndian.PutUint64(data[73:81], hi)
	tick := int32(-12)
	binary.LittleEndian.PutUint32(data[81:85], uint32(tick))

	copy(data[101:133], mintA.Bytes())
	copy(data[181:213], mintB.Bytes())
	return data
}

func TestParseWhirlpool(t *testing.T) {
	sqrtPrice := bigFromString(t, "49656965805919704050663")
	poolID := solana.MustPublicKeyFromBase58("HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ")

	pool, err := ParseWhirlpool(poolID, whirlpoolAccountData(wsol, usdc, SPLASH_POOL_TICK_SPACING, sqrtPrice))
	require.NoError(t, err)

	assert.Equal(t, poolID.String(), pool.GetID())
	assert.Equal(t, MainnetWhirlpoolsConfig, pool.WhirlpoolsConfig)
	assert.Equal(t, uint16(SPLASH_POOL_TICK_SPACING), pool.TickSpacing)
	assert.Equal(t, uint16(10_000), pool.FeeRate)
	assert.Equal(t, int32(-12), pool.TickCurrentIndex)
	assert.Equal(t, sqrtPrice.String(), pool.SqrtPrice.Big().String())

	a, b := pool.GetTokens()
	assert.Equal(t, wsol.String(), a)
	assert.Equal(t, usdc.String(), b)

	assert.NoError(t, pool.VerifyGraduation(wsol, usdc, SPLASH_POOL_TICK_SPACING, sqrtPrice))
	assert.Error(t, pool.VerifyGraduation(usdc, wsol, SPLASH_POOL_TICK_SPACING, sqrtPrice))
	assert.Error(t, pool.VerifyGraduation(wsol, usdc, 64, sqrtPrice))
	assert.Error(t, pool.VerifyGraduation(wsol, usdc, SPLASH_POOL_TICK_SPACING, Q64))

	price, err := pool.CurrentPrice(9, 6)
	require.NoError(t, err)
	assert.Equal(t, "7246376811.594202905796882223", price.String())
}

func TestParseWhirlpoolRejectsOtherAccounts(t *testing.T) {
	data := whirlpoolAccountData(wsol, usdc, 64, Q64)
	data[0] ^= 0xff

	_, err := ParseWhirlpool(solana.PublicKey{}, data)
	assert.Error(t, err)

	_, err = ParseWhirlpool(solana.PublicKey{}, whirlpoolAccountData(wsol, usdc, 64, Q64)[:600])
	assert.Error(t, err)
}

func TestUpdateFromAccountData(t *testing.T) {
	poolID := solana.MustPublicKeyFromBase58("HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ")
	pool := &WhirlpoolPool{PoolId: poolID}

	require.NoError(t, pool.UpdateFromAccountData(poolID.String(), whirlpoolAccountData(wsol, usdc, 64, Q64), 42))
	assert.Equal(t, uint64(42), pool.LastSlot)
	assert.Equal(t, Q64.String(), pool.SqrtPrice.Big().String())

	assert.Error(t, pool.UpdateFromAccountData(usdc.String(), nil, 43))
}

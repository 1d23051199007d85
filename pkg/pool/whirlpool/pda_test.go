package whirlpool

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solgraduate/pkg"
)

var (
	wsol = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	usdc = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

type failingDeriver struct{}

func (failingDeriver) FindProgramAddress([][]byte, solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.PublicKey{}, 0, errors.New("unable to find a viable program address bump seed")
}

func TestGetWhirlpoolAddressKnownPool(t *testing.T) {
	d := pkg.ProgramAddressDeriver{}

	// mainnet SOL/USDC at tick spacing 64
	address, err := GetWhirlpoolAddress(d, WhirlpoolProgramID, MainnetWhirlpoolsConfig, wsol, usdc, 64)
	require.NoError(t, err)
	assert.Equal(t, "HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ", address.String())
}

func TestSplashPoolAddresses(t *testing.T) {
	d := pkg.ProgramAddressDeriver{}

	pool, err := GetWhirlpoolAddress(d, WhirlpoolProgramID, MainnetWhirlpoolsConfig, wsol, usdc, SPLASH_POOL_TICK_SPACING)
	require.NoError(t, err)
	assert.Equal(t, "CWjGo5jkduSW5LN5rxgiQ18vGnJJEKWPCXkpJGxKSQTH", pool.String())

	feeTier, err := GetFeeTierAddress(d, WhirlpoolProgramID, MainnetWhirlpoolsConfig, SPLASH_POOL_TICK_SPACING)
	require.NoError(t, err)
	assert.Equal(t, "zVmMsL5qGh7txhTHFgGZcFQpSsxSx6DBLJ3u113PBer", feeTier.String())

	badge, err := GetTokenBadgeAddress(d, WhirlpoolProgramID, MainnetWhirlpoolsConfig, wsol)
	require.NoError(t, err)
	assert.Equal(t, "A25FKDeNYwo4Y9KJZHfhoeojAiyhAssQesT2y3kfF2Mp", badge.String())

	lower, err := GetTickArrayAddress(d, WhirlpoolProgramID, pool, -2894848)
	require.NoError(t, err)
	assert.Equal(t, "6Bn4162ua2RhVVbiuMhsNtF7GPUJSaEyNGkAj81fU1jf", lower.String())

	upper, err := GetTickArrayAddress(d, WhirlpoolProgramID, pool, 0)
	require.NoError(t, err)
	assert.Equal(t, "4m9t2iYHKnqtJ86MuAooMYVBxJVZwjBc4WywrQCTcsqe", upper.String())
}

func TestPositionAddresses(t *testing.T) {
	d := pkg.ProgramAddressDeriver{}
	positionMint := usdc

	owner, err := GetPositionOwnerAddress(d, WhirlpoolCPIProgramID)
	require.NoError(t, err)
	assert.Equal(t, "CrtTjQTr5e9t7QtYkEUeZCRwCTEbcCeAzjBeivbkc4Qv", owner.String())

	position, err := GetPositionAddress(d, WhirlpoolProgramID, positionMint)
	require.NoError(t, err)
	assert.Equal(t, "EQYADDaqeGMd1BfZhRJYcrhuaHu9Ge3CLMrMYbJjiu2w", position.String())

	lockConfig, err := GetLockConfigAddress(d, WhirlpoolProgramID, position)
	require.NoError(t, err)
	assert.Equal(t, "8BKzbd1iSHt4P6K555CFNcwQc8shXnHswRCFGTBtt6m7", lockConfig.String())
}

func TestGetAssociatedTokenAddress(t *testing.T) {
	d := pkg.ProgramAddressDeriver{}
	owner := solana.MustPublicKeyFromBase58("CrtTjQTr5e9t7QtYkEUeZCRwCTEbcCeAzjBeivbkc4Qv")

	legacy, err := GetAssociatedTokenAddress(d, owner, usdc, TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, "2GJapSo84uoeCx1JN3Qjvb1Tp569iCsoQ6K1RasS5fFR", legacy.String())

	expected, _, err := solana.FindAssociatedTokenAddress(owner, usdc)
	require.NoError(t, err)
	assert.Equal(t, expected, legacy)

	extended, err := GetAssociatedTokenAddress(d, owner, usdc, Token2022ProgramID)
	require.NoError(t, err)
	assert.Equal(t, "6qp2eiP7pbuLLsGHtwhRF7XivzTGvd1UJfRW9VyLkWdA", extended.String())
	assert.NotEqual(t, legacy, extended)
}

func TestDerivationFailure(t *testing.T) {
	_, err := GetWhirlpoolAddress(failingDeriver{}, WhirlpoolProgramID, MainnetWhirlpoolsConfig, wsol, usdc, 64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkg.ErrAddressDerivation))
}

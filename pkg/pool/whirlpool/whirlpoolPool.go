package whirlpool

import (
	"fmt"
	"math/big"
	"time"

	cosmath "cosmossdk.io/math"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
	"solgraduate/pkg/anchor"
)

// WhirlpoolPool represents an Orca Whirlpool CLMM pool account
type WhirlpoolPool struct {
	// Account discriminator (8 bytes)
	Discriminator [8]uint8

	// Whirlpool config
	WhirlpoolsConfig solana.PublicKey // 32
	WhirlpoolBump    [1]uint8         // 1

	// Token info
	TokenMintA      solana.PublicKey // 32
	TokenMintB      solana.PublicKey // 32
	TokenVaultA     solana.PublicKey // 32
	TokenVaultB     solana.PublicKey // 32
	TickSpacing     uint16           // 2
	TickSpacingSeed [2]uint8         // 2

	// Price and liquidity
	FeeRate          uint16          // 2
	ProtocolFeeRate  uint16          // 2
	Liquidity        uint128.Uint128 // 16
	SqrtPrice        uint128.Uint128 // 16
	TickCurrentIndex int32           // 4
	ProtocolFeeOwedA uint64          // 8
	ProtocolFeeOwedB uint64          // 8
	FeeGrowthGlobalA uint128.Uint128 // 16
	FeeGrowthGlobalB uint128.Uint128 // 16

	// Reward info (3 rewards)
	RewardLastUpdatedTimestamp uint64        // 8
	RewardInfos                [3]RewardInfo // 3 * 128 = 384

	// Pool metadata
	PoolId     solana.PublicKey
	LastUpdate time.Time
	LastSlot   uint64
}

type RewardInfo struct {
	Mint                  solana.PublicKey // 32
	Vault                 solana.PublicKey // 32
	Authority             solana.PublicKey // 32
	EmissionsPerSecondX64 uint128.Uint128  // 16
	GrowthGlobalX64       uint128.Uint128  // 16
}

// ParseWhirlpool decodes a Whirlpool account and checks its discriminator
func ParseWhirlpool(poolID solana.PublicKey, data []byte) (*WhirlpoolPool, error) {
	if !anchor.HasDiscriminator(data, "account", WHIRLPOOL_ACCOUNT_NAME) {
		return nil, fmt.Errorf("account %s is not a whirlpool", poolID)
	}
	pool := &WhirlpoolPool{PoolId: poolID}
	if err := pool.Decode(data); err != nil {
		return nil, err
	}
	return pool, nil
}

func (pool *WhirlpoolPool) GetID() string {
	return pool.PoolId.String()
}

func (pool *WhirlpoolPool) GetTokens() (string, string) {
	return pool.TokenMintA.String(), pool.TokenMintB.String()
}

// UpdateFromAccountData refreshes the pool from an account notification
func (pool *WhirlpoolPool) UpdateFromAccountData(accountID string, data []byte, slot uint64) error {
	if accountID != pool.PoolId.String() {
		return fmt.Errorf("account %s is not pool %s", accountID, pool.PoolId)
	}
	if err := pool.Decode(data); err != nil {
		return err
	}
	pool.LastSlot = slot
	return nil
}

func (pool *WhirlpoolPool) Decode(data []byte) error {
	if len(data) < WHIRLPOOL_ACCOUNT_SIZE {
		return fmt.Errorf("insufficient data: expected %d bytes, got %d", WHIRLPOOL_ACCOUNT_SIZE, len(data))
	}

	// Layout of programs/whirlpool/src/state/whirlpool.rs
	copy(pool.Discriminator[:], data[0:8])
	pool.WhirlpoolsConfig = solana.PublicKeyFromBytes(data[8:40])
	pool.WhirlpoolBump[0] = data[40]

	fields := []struct {
		name  string
		start int
		end   int
		dst   interface{}
	}{
		{"tick spacing", 41, 43, &pool.TickSpacing},
		{"tick spacing seed", 43, 45, &pool.TickSpacingSeed},
		{"fee rate", 45, 47, &pool.FeeRate},
		{"protocol fee rate", 47, 49, &pool.ProtocolFeeRate},
		{"liquidity", 49, 65, &pool.Liquidity},
		{"sqrt price", 65, 81, &pool.SqrtPrice},
		{"tick current index", 81, 85, &pool.TickCurrentIndex},
		{"protocol fee owed a", 85, 93, &pool.ProtocolFeeOwedA},
		{"protocol fee owed b", 93, 101, &pool.ProtocolFeeOwedB},
		{"fee growth global a", 165, 181, &pool.FeeGrowthGlobalA},
		{"fee growth global b", 245, 261, &pool.FeeGrowthGlobalB},
		{"reward last updated", 261, 269, &pool.RewardLastUpdatedTimestamp},
		{"reward infos", 269, 653, &pool.RewardInfos},
	}
	for _, f := range fields {
		if err := bin.NewBinDecoder(data[f.start:f.end]).Decode(f.dst); err != nil {
			return fmt.Errorf("failed to decode %s: %w", f.name, err)
		}
	}

	pool.TokenMintA = solana.PublicKeyFromBytes(data[101:133])
	pool.TokenVaultA = solana.PublicKeyFromBytes(data[133:165])
	pool.TokenMintB = solana.PublicKeyFromBytes(data[181:213])
	pool.TokenVaultB = solana.PublicKeyFromBytes(data[213:245])

	pool.LastUpdate = time.Now()
	return nil
}

// CurrentPrice is the pool price of one whole token A in token B
func (pool *WhirlpoolPool) CurrentPrice(decimalsA, decimalsB uint8) (cosmath.LegacyDec, error) {
	return SqrtPriceToDecimalPrice(pool.SqrtPrice.Big(), decimalsA, decimalsB)
}

// VerifyGraduation checks that an initialised pool carries the expected pair,
// tick spacing and opening sqrt price.
func (pool *WhirlpoolPool) VerifyGraduation(mintA, mintB solana.PublicKey, tickSpacing uint16, sqrtPrice *big.Int) error {
	if !pool.TokenMintA.Equals(mintA) || !pool.TokenMintB.Equals(mintB) {
		return fmt.Errorf("pool %s holds %s/%s, expected %s/%s", pool.PoolId, pool.TokenMintA, pool.TokenMintB, mintA, mintB)
	}
	if pool.TickSpacing != tickSpacing {
		return fmt.Errorf("pool %s tick spacing %d, expected %d", pool.PoolId, pool.TickSpacing, tickSpacing)
	}
	if pool.SqrtPrice.Big().Cmp(sqrtPrice) != 0 {
		return fmt.Errorf("pool %s sqrt price %s, expected %s", pool.PoolId, pool.SqrtPrice.Big(), sqrtPrice)
	}
	return nil
}

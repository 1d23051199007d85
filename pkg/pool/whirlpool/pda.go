package whirlpool

import (
	"encoding/binary"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"solgraduate/pkg"
)

func findAddress(d pkg.AddressDeriver, role string, seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := d.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, pkg.Errorf(pkg.ErrCodeAddressDerivation, "%s under %s", role, programID).WithCause(err)
	}
	return address, nil
}

func tickSpacingSeed(tickSpacing uint16) []byte {
	seed := make([]byte, 2)
	binary.LittleEndian.PutUint16(seed, tickSpacing)
	return seed
}

// GetWhirlpoolAddress derives the pool for an ordered mint pair and tick spacing
func GetWhirlpoolAddress(
	d pkg.AddressDeriver,
	programID solana.PublicKey,
	whirlpoolsConfig solana.PublicKey,
	mintA solana.PublicKey,
	mintB solana.PublicKey,
	tickSpacing uint16,
) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(SEED_WHIRLPOOL),
		whirlpoolsConfig.Bytes(),
		mintA.Bytes(),
		mintB.Bytes(),
		tickSpacingSeed(tickSpacing),
	}
	return findAddress(d, "whirlpool", seeds, programID)
}

func GetFeeTierAddress(d pkg.AddressDeriver, programID, whirlpoolsConfig solana.PublicKey, tickSpacing uint16) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(SEED_FEE_TIER),
		whirlpoolsConfig.Bytes(),
		tickSpacingSeed(tickSpacing),
	}
	return findAddress(d, "fee tier", seeds, programID)
}

func GetTokenBadgeAddress(d pkg.AddressDeriver, programID, whirlpoolsConfig, mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(SEED_TOKEN_BADGE),
		whirlpoolsConfig.Bytes(),
		mint.Bytes(),
	}
	return findAddress(d, "token badge", seeds, programID)
}

// GetTickArrayAddress derives a tick array. The start index seed is its decimal
// string, not a little-endian integer.
func GetTickArrayAddress(d pkg.AddressDeriver, programID, whirlpool solana.PublicKey, startTickIndex int32) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(SEED_TICK_ARRAY),
		whirlpool.Bytes(),
		[]byte(strconv.FormatInt(int64(startTickIndex), 10)),
	}
	return findAddress(d, "tick array", seeds, programID)
}

func GetPositionAddress(d pkg.AddressDeriver, programID, positionMint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(SEED_POSITION),
		positionMint.Bytes(),
	}
	return findAddress(d, "position", seeds, programID)
}

func GetLockConfigAddress(d pkg.AddressDeriver, programID, position solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(SEED_LOCK_CONFIG),
		position.Bytes(),
	}
	return findAddress(d, "lock config", seeds, programID)
}

// GetPositionOwnerAddress derives the custodian of graduated positions. It lives
// under the CPI program, which signs for it when opening and locking positions.
func GetPositionOwnerAddress(d pkg.AddressDeriver, cpiProgramID solana.PublicKey) (solana.PublicKey, error) {
	return findAddress(d, "position owner", [][]byte{[]byte(SEED_POSITION_OWNER)}, cpiProgramID)
}

// GetAssociatedTokenAddress derives owner's associated token account for mint.
// The token program is part of the seeds, so legacy and Token-2022 mints derive
// different accounts.
func GetAssociatedTokenAddress(d pkg.AddressDeriver, owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		owner.Bytes(),
		tokenProgram.Bytes(),
		mint.Bytes(),
	}
	return findAddress(d, "associated token account", seeds, AssociatedTokenProgramID)
}

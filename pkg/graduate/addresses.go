package graduate

import (
	"github.com/gagliardetto/solana-go"
	"solgraduate/pkg"
	"solgraduate/pkg/pool/whirlpool"
)

// DerivedAddressSet holds every account the graduation instruction references
// besides programs and sysvars
type DerivedAddressSet struct {
	Whirlpool      solana.PublicKey
	FeeTier        solana.PublicKey
	TokenBadgeA    solana.PublicKey
	TokenBadgeB    solana.PublicKey
	TokenVaultA    solana.PublicKey
	TokenVaultB    solana.PublicKey
	TickArrayLower solana.PublicKey
	TickArrayUpper solana.PublicKey

	Position             solana.PublicKey
	PositionMint         solana.PublicKey
	PositionTokenAccount solana.PublicKey
	PositionOwner        solana.PublicKey
	LockConfig           solana.PublicKey
	TokenOwnerAccountA   solana.PublicKey
	TokenOwnerAccountB   solana.PublicKey
}

// Roles maps logical role names to addresses
func (s *DerivedAddressSet) Roles() map[string]solana.PublicKey {
	return map[string]solana.PublicKey{
		"whirlpool":              s.Whirlpool,
		"fee_tier":               s.FeeTier,
		"token_badge_a":          s.TokenBadgeA,
		"token_badge_b":          s.TokenBadgeB,
		"token_vault_a":          s.TokenVaultA,
		"token_vault_b":          s.TokenVaultB,
		"tick_array_lower":       s.TickArrayLower,
		"tick_array_upper":       s.TickArrayUpper,
		"position":               s.Position,
		"position_mint":          s.PositionMint,
		"position_token_account": s.PositionTokenAccount,
		"position_owner":         s.PositionOwner,
		"lock_config":            s.LockConfig,
		"token_owner_account_a":  s.TokenOwnerAccountA,
		"token_owner_account_b":  s.TokenOwnerAccountB,
	}
}

// EphemeralKeys are the single-use identities generated for one graduation
type EphemeralKeys struct {
	PositionMint solana.PrivateKey
	TokenVaultA  solana.PrivateKey
	TokenVaultB  solana.PrivateKey
}

// Signers returns the ephemeral keys in instruction account order
func (k EphemeralKeys) Signers() []solana.PrivateKey {
	return []solana.PrivateKey{k.TokenVaultA, k.TokenVaultB, k.PositionMint}
}

// NewEphemeralKeys draws three keys from gen and rejects any repeat
func NewEphemeralKeys(gen pkg.KeyGenerator) (EphemeralKeys, error) {
	var keys EphemeralKeys
	seen := make(map[solana.PublicKey]struct{}, 3)
	for _, dst := range []*solana.PrivateKey{&keys.PositionMint, &keys.TokenVaultA, &keys.TokenVaultB} {
		key, err := gen.NewKey()
		if err != nil {
			return EphemeralKeys{}, err
		}
		if len(key) != 64 {
			return EphemeralKeys{}, pkg.Errorf(pkg.ErrCodeInvalidInput, "key generator returned a %d byte key", len(key))
		}
		pub := key.PublicKey()
		if _, dup := seen[pub]; dup {
			return EphemeralKeys{}, pkg.Errorf(pkg.ErrCodeInvalidInput, "key generator reused %s", pub)
		}
		seen[pub] = struct{}{}
		*dst = key
	}
	return keys, nil
}

// DeriveAddresses computes the address set for a canonical pair. Only the
// ephemeral position mint and vaults vary between calls with equal inputs.
func DeriveAddresses(
	d pkg.AddressDeriver,
	cfg Config,
	mintA *pkg.TokenMint,
	mintB *pkg.TokenMint,
	ticks TickRange,
	positionMint solana.PublicKey,
	tokenVaultA solana.PublicKey,
	tokenVaultB solana.PublicKey,
) (*DerivedAddressSet, error) {
	programID := cfg.WhirlpoolProgramID
	set := &DerivedAddressSet{
		TokenVaultA:  tokenVaultA,
		TokenVaultB:  tokenVaultB,
		PositionMint: positionMint,
	}

	var err error
	if set.Whirlpool, err = whirlpool.GetWhirlpoolAddress(
		d, programID, cfg.WhirlpoolsConfig, mintA.Address, mintB.Address, cfg.TickSpacing); err != nil {
		return nil, err
	}
	if set.FeeTier, err = whirlpool.GetFeeTierAddress(d, programID, cfg.WhirlpoolsConfig, cfg.TickSpacing); err != nil {
		return nil, err
	}
	if set.TokenBadgeA, err = whirlpool.GetTokenBadgeAddress(d, programID, cfg.WhirlpoolsConfig, mintA.Address); err != nil {
		return nil, err
	}
	if set.TokenBadgeB, err = whirlpool.GetTokenBadgeAddress(d, programID, cfg.WhirlpoolsConfig, mintB.Address); err != nil {
		return nil, err
	}
	if set.TickArrayLower, err = whirlpool.GetTickArrayAddress(d, programID, set.Whirlpool, ticks.StartTickIndexLower); err != nil {
		return nil, err
	}
	if set.TickArrayUpper, err = whirlpool.GetTickArrayAddress(d, programID, set.Whirlpool, ticks.StartTickIndexUpper); err != nil {
		return nil, err
	}

	if set.Position, err = whirlpool.GetPositionAddress(d, programID, positionMint); err != nil {
		return nil, err
	}
	if set.LockConfig, err = whirlpool.GetLockConfigAddress(d, programID, set.Position); err != nil {
		return nil, err
	}
	if set.PositionOwner, err = whirlpool.GetPositionOwnerAddress(d, cfg.CPIProgramID); err != nil {
		return nil, err
	}

	// Position NFTs are always Token-2022 mints
	if set.PositionTokenAccount, err = whirlpool.GetAssociatedTokenAddress(
		d, set.PositionOwner, positionMint, whirlpool.Token2022ProgramID); err != nil {
		return nil, err
	}
	if set.TokenOwnerAccountA, err = whirlpool.GetAssociatedTokenAddress(
		d, set.PositionOwner, mintA.Address, mintA.TokenProgram); err != nil {
		return nil, err
	}
	if set.TokenOwnerAccountB, err = whirlpool.GetAssociatedTokenAddress(
		d, set.PositionOwner, mintB.Address, mintB.TokenProgram); err != nil {
		return nil, err
	}
	return set, nil
}

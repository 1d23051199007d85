package graduate

import (
	"github.com/gagliardetto/solana-go"
	"solgraduate/pkg"
	"solgraduate/pkg/pool/whirlpool"
)

// Config holds the program identities of one deployment
type Config struct {
	// WhirlpoolProgramID owns pools, positions and tick arrays
	WhirlpoolProgramID solana.PublicKey

	// CPIProgramID receives the graduation instruction and custodies the position
	CPIProgramID solana.PublicKey

	WhirlpoolsConfig   solana.PublicKey
	MetadataUpdateAuth solana.PublicKey
	TickSpacing        uint16
}

// DefaultConfig is the mainnet deployment with splash pool tick spacing
func DefaultConfig() Config {
	return Config{
		WhirlpoolProgramID: whirlpool.WhirlpoolProgramID,
		CPIProgramID:       whirlpool.WhirlpoolCPIProgramID,
		WhirlpoolsConfig:   whirlpool.MainnetWhirlpoolsConfig,
		MetadataUpdateAuth: whirlpool.MetadataUpdateAuth,
		TickSpacing:        whirlpool.SPLASH_POOL_TICK_SPACING,
	}
}

func (c Config) Validate() error {
	if c.WhirlpoolProgramID.IsZero() {
		return pkg.NewError(pkg.ErrCodeInvalidInput, "whirlpool program id is not set")
	}
	if c.CPIProgramID.IsZero() {
		return pkg.NewError(pkg.ErrCodeInvalidInput, "cpi program id is not set")
	}
	if c.WhirlpoolsConfig.IsZero() {
		return pkg.NewError(pkg.ErrCodeInvalidInput, "whirlpools config is not set")
	}
	if c.MetadataUpdateAuth.IsZero() {
		return pkg.NewError(pkg.ErrCodeInvalidInput, "metadata update authority is not set")
	}
	if c.TickSpacing == 0 {
		return pkg.NewError(pkg.ErrCodeInvalidInput, "tick spacing must be positive")
	}
	return nil
}

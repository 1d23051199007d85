package pkg

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"solgraduate/pkg/token2022"
)

// TokenMint is the mint metadata the engine needs. It is read-only once fetched.
type TokenMint struct {
	Address      solana.PublicKey
	Decimals     uint8
	TokenProgram solana.PublicKey

	// TransferFee is set for Token-2022 mints carrying the TransferFeeConfig extension
	TransferFee *token2022.TransferFeeConfig
}

// MintFetcher loads mint metadata. Implementations fail with ErrNotAMint when the
// address does not hold an initialised mint.
type MintFetcher interface {
	FetchMint(ctx context.Context, mint solana.PublicKey) (*TokenMint, error)
}

// KeyGenerator produces a fresh, never reused key pair on every call
type KeyGenerator interface {
	NewKey() (solana.PrivateKey, error)
}

// AddressDeriver is the standard program address derivation
type AddressDeriver interface {
	FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error)
}

// ProgramAddressDeriver derives addresses with solana.FindProgramAddress
type ProgramAddressDeriver struct{}

func (ProgramAddressDeriver) FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(seeds, programID)
}

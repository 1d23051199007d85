package graduate

import (
	"github.com/gagliardetto/solana-go"
)

// WalletKeyGenerator generates ed25519 keys from the system random source
type WalletKeyGenerator struct{}

func (WalletKeyGenerator) NewKey() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

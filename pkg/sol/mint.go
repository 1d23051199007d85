package sol

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"solgraduate/pkg"
	"solgraduate/pkg/pool/whirlpool"
	"solgraduate/pkg/token2022"
)

// SPL mint layout
const (
	mintDecimalsOffset      = 44
	mintIsInitializedOffset = 45
)

// ParseMint decodes mint metadata from an account owned by either token
// program. Anything that is not an initialised mint fails with ErrNotAMint.
func ParseMint(address, owner solana.PublicKey, data []byte) (*pkg.TokenMint, error) {
	notAMint := func(reason string) error {
		return pkg.Errorf(pkg.ErrCodeNotAMint, "account %s is not a mint: %s", address, reason)
	}

	isToken2022 := owner.Equals(whirlpool.Token2022ProgramID)
	if !isToken2022 && !owner.Equals(whirlpool.TokenProgramID) {
		return nil, notAMint("owned by " + owner.String())
	}

	switch {
	case len(data) == token2022.MintBaseSize:
	case isToken2022 && token2022.HasExtensions(data):
		if token2022.AccountType(data) != token2022.AccountTypeMint {
			return nil, notAMint("extended account is not a mint")
		}
	default:
		return nil, notAMint("unexpected data length")
	}
	if data[mintIsInitializedOffset] != 1 {
		return nil, notAMint("not initialized")
	}

	mint := &pkg.TokenMint{
		Address:      address,
		Decimals:     data[mintDecimalsOffset],
		TokenProgram: owner,
	}
	if isToken2022 {
		fee, err := token2022.ParseTransferFeeConfig(data)
		if err != nil {
			return nil, pkg.Errorf(pkg.ErrCodeNotAMint, "account %s has malformed extensions", address).WithCause(err)
		}
		mint.TransferFee = fee
	}
	return mint, nil
}

// FetchMint implements pkg.MintFetcher
func (c *Client) FetchMint(ctx context.Context, mint solana.PublicKey) (*pkg.TokenMint, error) {
	account, err := c.GetAccountInfoWithOpts(ctx, mint)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, pkg.Errorf(pkg.ErrCodeNotAMint, "account %s does not exist", mint)
		}
		return nil, err
	}
	if account == nil || account.Value == nil {
		return nil, pkg.Errorf(pkg.ErrCodeNotAMint, "account %s does not exist", mint)
	}
	return ParseMint(mint, account.Value.Owner, account.Value.Data.GetBinary())
}

// FetchMints loads several mints with one request
func (c *Client) FetchMints(ctx context.Context, mints []solana.PublicKey) ([]*pkg.TokenMint, error) {
	results, err := c.GetMultipleAccountsWithOpts(ctx, mints)
	if err != nil {
		return nil, err
	}
	if len(results.Value) != len(mints) {
		return nil, errors.New("getMultipleAccounts returned a short result")
	}

	out := make([]*pkg.TokenMint, len(mints))
	for i, account := range results.Value {
		if account == nil {
			return nil, pkg.Errorf(pkg.ErrCodeNotAMint, "account %s does not exist", mints[i])
		}
		if out[i], err = ParseMint(mints[i], account.Owner, account.Data.GetBinary()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

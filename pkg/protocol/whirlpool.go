package protocol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"solgraduate/pkg"
	"solgraduate/pkg/pool/whirlpool"
)

// Whirlpool account offsets of the token mints, used as memcmp filters
const (
	whirlpoolMintAOffset = 101
	whirlpoolMintBOffset = 181
)

// AccountReader is the slice of sol.Client the protocol reads through
type AccountReader interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, programID solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
}

type WhirlpoolProtocol struct {
	SolClient AccountReader
	ProgramID solana.PublicKey
}

func NewWhirlpool(solClient AccountReader, programID solana.PublicKey) *WhirlpoolProtocol {
	if programID.IsZero() {
		programID = whirlpool.WhirlpoolProgramID
	}
	return &WhirlpoolProtocol{
		SolClient: solClient,
		ProgramID: programID,
	}
}

func (p *WhirlpoolProtocol) ProtocolName() string {
	return "whirlpool"
}

// FetchPoolsByPair lists Whirlpools trading the two mints, in either order
func (p *WhirlpoolProtocol) FetchPoolsByPair(ctx context.Context, baseMint, quoteMint solana.PublicKey) ([]*whirlpool.WhirlpoolPool, error) {
	if baseMint.Equals(quoteMint) {
		return nil, pkg.Errorf(pkg.ErrCodeInvalidInput, "pair mints are identical: %s", baseMint)
	}

	programAccounts, err := p.SolClient.GetProgramAccountsWithOpts(ctx, p.ProgramID, &rpc.GetProgramAccountsOpts{
		Filters: pairFilters(baseMint, quoteMint),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch whirlpools: %w", err)
	}

	// Also try reverse pair. A failure here would hide half the pools.
	reverseAccounts, err := p.SolClient.GetProgramAccountsWithOpts(ctx, p.ProgramID, &rpc.GetProgramAccountsOpts{
		Filters: pairFilters(quoteMint, baseMint),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reverse whirlpools: %w", err)
	}
	programAccounts = append(programAccounts, reverseAccounts...)

	res := make([]*whirlpool.WhirlpoolPool, 0, len(programAccounts))
	for _, v := range programAccounts {
		if v == nil || v.Account == nil || v.Account.Data == nil {
			continue
		}
		pool, err := whirlpool.ParseWhirlpool(v.Pubkey, v.Account.Data.GetBinary())
		if err != nil {
			continue
		}
		res = append(res, pool)
	}
	return res, nil
}

// FetchPoolByID loads and decodes a single Whirlpool account
func (p *WhirlpoolProtocol) FetchPoolByID(ctx context.Context, poolID solana.PublicKey) (*whirlpool.WhirlpoolPool, error) {
	account, err := p.SolClient.GetAccountInfoWithOpts(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool account %s: %w", poolID, err)
	}
	if account == nil || account.Value == nil || account.Value.Data == nil {
		return nil, fmt.Errorf("pool account %s not found", poolID)
	}
	if !account.Value.Owner.Equals(p.ProgramID) {
		return nil, fmt.Errorf("pool account %s is owned by %s", poolID, account.Value.Owner)
	}

	pool, err := whirlpool.ParseWhirlpool(poolID, account.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool data for pool %s: %w", poolID, err)
	}
	return pool, nil
}

func pairFilters(mintA, mintB solana.PublicKey) []rpc.RPCFilter {
	return []rpc.RPCFilter{
		{DataSize: whirlpool.WHIRLPOOL_ACCOUNT_SIZE},
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: whirlpoolMintAOffset,
				Bytes:  mintA.Bytes(),
			},
		},
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: whirlpoolMintBOffset,
				Bytes:  mintB.Bytes(),
			},
		},
	}
}

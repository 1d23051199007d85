package protocol

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solgraduate/pkg"
	"solgraduate/pkg/anchor"
	"solgraduate/pkg/pool/whirlpool"
)

var (
	wsol = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	usdc = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

type fakeReader struct {
	accounts map[solana.PublicKey]*rpc.Account
	queries  [][]rpc.RPCFilter
	err      error

	// failScanAfter makes every program account scan after the first n fail
	failScanAfter int
}

func (f *fakeReader) GetAccountInfoWithOpts(_ context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	acc, ok := f.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

// GetProgramAccountsWithOpts applies the memcmp filters the way the RPC node would
func (f *fakeReader) GetProgramAccountsWithOpts(_ context.Context, programID solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.failScanAfter > 0 && len(f.queries) >= f.failScanAfter {
		return nil, errors.New("connection reset")
	}
	f.queries = append(f.queries, opts.Filters)

	var out rpc.GetProgramAccountsResult
	for key, acc := range f.accounts {
		if !acc.Owner.Equals(programID) || !matches(acc.Data.GetBinary(), opts.Filters) {
			continue
		}
		out = append(out, &rpc.KeyedAccount{Pubkey: key, Account: acc})
	}
	return out, nil
}

func matches(data []byte, filters []rpc.RPCFilter) bool {
	for _, f := range filters {
		if f.DataSize != 0 && uint64(len(data)) != f.DataSize {
			return false
		}
		if f.Memcmp != nil {
			end := int(f.Memcmp.Offset) + len(f.Memcmp.Bytes)
			if end > len(data) || string(data[f.Memcmp.Offset:end]) != string(f.Memcmp.Bytes) {
				return false
			}
		}
	}
	return true
}

func poolAccount(mintA, mintB solana.PublicKey, tickSpacing uint16) *rpc.Account {
	data := make([]byte, whirlpool.WHIRLPOOL_ACCOUNT_SIZE)
	copy(data[0:8], anchor.GetDiscriminator("account", whirlpool.WHIRLPOOL_ACCOUNT_NAME))
	copy(data[8:40], whirlpool.MainnetWhirlpoolsConfig.Bytes())
	binary.LittleEndian.PutUint16(data[41:43], tickSpacing)
	binary.LittleEndian.PutUint64(data[73:81], 1) // sqrt price 2^64
	copy(data[whirlpoolMintAOffset:], mintA.Bytes())
	copy(data[whirlpoolMintBOffset:], mintB.Bytes())
	return &rpc.Account{
		Owner: whirlpool.WhirlpoolProgramID,
		Data:  rpc.DataBytesOrJSONFromBytes(data),
	}
}

func TestFetchPoolByID(t *testing.T) {
	splash := solana.MustPublicKeyFromBase58("CWjGo5jkduSW5LN5rxgiQ18vGnJJEKWPCXkpJGxKSQTH")
	reader := &fakeReader{accounts: map[solana.PublicKey]*rpc.Account{
		splash: poolAccount(wsol, usdc, whirlpool.SPLASH_POOL_TICK_SPACING),
	}}
	p := NewWhirlpool(reader, solana.PublicKey{})
	assert.Equal(t, whirlpool.WhirlpoolProgramID, p.ProgramID)

	pool, err := p.FetchPoolByID(context.Background(), splash)
	require.NoError(t, err)
	assert.Equal(t, splash, pool.PoolId)
	assert.Equal(t, wsol, pool.TokenMintA)
	assert.Equal(t, usdc, pool.TokenMintB)
	assert.Equal(t, uint16(whirlpool.SPLASH_POOL_TICK_SPACING), pool.TickSpacing)
	assert.Equal(t, whirlpool.Q64.String(), pool.SqrtPrice.Big().String())

	_, err = p.FetchPoolByID(context.Background(), wsol)
	assert.ErrorIs(t, err, rpc.ErrNotFound)
}

func TestFetchPoolByIDRejectsForeignOwner(t *testing.T) {
	id := solana.NewWallet().PublicKey()
	acc := poolAccount(wsol, usdc, 64)
	acc.Owner = solana.SystemProgramID
	p := NewWhirlpool(&fakeReader{accounts: map[solana.PublicKey]*rpc.Account{id: acc}}, whirlpool.WhirlpoolProgramID)

	_, err := p.FetchPoolByID(context.Background(), id)
	assert.Error(t, err)
}

func TestFetchPoolsByPair(t *testing.T) {
	other := solana.NewWallet().PublicKey()
	garbage := poolAccount(wsol, usdc, 64)
	raw := append([]byte(nil), garbage.Data.GetBinary()...)
	copy(raw[0:8], make([]byte, 8))
	garbage.Data = rpc.DataBytesOrJSONFromBytes(raw)

	reader := &fakeReader{accounts: map[solana.PublicKey]*rpc.Account{
		solana.NewWallet().PublicKey(): poolAccount(wsol, usdc, 64),
		solana.NewWallet().PublicKey(): poolAccount(wsol, usdc, whirlpool.SPLASH_POOL_TICK_SPACING),
		solana.NewWallet().PublicKey(): poolAccount(wsol, other, 64),
		solana.NewWallet().PublicKey(): garbage,
	}}
	p := NewWhirlpool(reader, whirlpool.WhirlpoolProgramID)

	pools, err := p.FetchPoolsByPair(context.Background(), usdc, wsol)
	require.NoError(t, err)
	assert.Len(t, pools, 2)
	for _, pool := range pools {
		assert.Equal(t, wsol, pool.TokenMintA)
		assert.Equal(t, usdc, pool.TokenMintB)
	}

	require.Len(t, reader.queries, 2)
	for _, filters := range reader.queries {
		assert.Equal(t, uint64(whirlpool.WHIRLPOOL_ACCOUNT_SIZE), filters[0].DataSize)
	}
}

func TestFetchPoolsByPairErrors(t *testing.T) {
	p := NewWhirlpool(&fakeReader{err: errors.New("rpc down")}, whirlpool.WhirlpoolProgramID)

	_, err := p.FetchPoolsByPair(context.Background(), wsol, usdc)
	assert.Error(t, err)

	_, err = p.FetchPoolsByPair(context.Background(), wsol, wsol)
	assert.ErrorIs(t, err, pkg.ErrInvalidInput)
}

func TestFetchPoolsByPairReverseScanFails(t *testing.T) {
	reader := &fakeReader{
		accounts: map[solana.PublicKey]*rpc.Account{
			solana.NewWallet().PublicKey(): poolAccount(wsol, usdc, 64),
		},
		failScanAfter: 1,
	}
	p := NewWhirlpool(reader, whirlpool.WhirlpoolProgramID)

	pools, err := p.FetchPoolsByPair(context.Background(), wsol, usdc)
	require.Error(t, err)
	assert.Nil(t, pools)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Len(t, reader.queries, 1)
}

package graduate

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solgraduate/pkg"
	"solgraduate/pkg/pool/whirlpool"
)

func buildTestInstruction(t *testing.T) (*GraduateTokenToOrcaInstruction, *DerivedAddressSet, solana.PublicKey) {
	t.Helper()
	mintA := mint(wsol, 6)
	mintB := &pkg.TokenMint{Address: usdc, Decimals: 6, TokenProgram: whirlpool.Token2022ProgramID}
	amount := intFromString(t, "1000000000000000000")

	pair, err := Canonicalize(wsol, usdc)
	require.NoError(t, err)
	quote, err := NewQuote(pair, mintA, mintB, amount, amount, whirlpool.SPLASH_POOL_TICK_SPACING)
	require.NoError(t, err)

	keys, err := NewEphemeralKeys(WalletKeyGenerator{})
	require.NoError(t, err)
	cfg := DefaultConfig()
	addrs, err := DeriveAddresses(pkg.ProgramAddressDeriver{}, cfg, mintA, mintB, quote.Ticks,
		keys.PositionMint.PublicKey(), keys.TokenVaultA.PublicKey(), keys.TokenVaultB.PublicKey())
	require.NoError(t, err)

	funder := solana.NewWallet().PublicKey()
	return NewGraduateTokenToOrcaInstruction(cfg, funder, quote, addrs), addrs, funder
}

func TestGraduateInstructionData(t *testing.T) {
	inst, _, _ := buildTestInstruction(t)

	data, err := inst.Data()
	require.NoError(t, err)

	expected := []byte{172, 30, 71, 244, 97, 6, 1, 237}
	expected = binary.LittleEndian.AppendUint16(expected, 32896)
	expected = binary.LittleEndian.AppendUint64(expected, 0) // sqrt price = 2^64
	expected = binary.LittleEndian.AppendUint64(expected, 1)
	for _, tick := range []int32{-2894848, 0, -427648, 427648} {
		expected = binary.LittleEndian.AppendUint32(expected, uint32(tick))
	}
	expected = append(expected, 1)
	expected = binary.LittleEndian.AppendUint64(expected, 1000000000517852351)
	expected = binary.LittleEndian.AppendUint64(expected, 0)
	expected = binary.LittleEndian.AppendUint64(expected, 1_000_000_000_000_000_000)
	expected = binary.LittleEndian.AppendUint64(expected, 1_000_000_000_000_000_000)

	assert.Len(t, data, 75)
	assert.Equal(t, expected, data)
}

func TestGraduateInstructionAccounts(t *testing.T) {
	inst, addrs, funder := buildTestInstruction(t)
	cfg := DefaultConfig()

	expected := []struct {
		key      solana.PublicKey
		writable bool
		signer   bool
	}{
		{cfg.WhirlpoolProgramID, false, false},
		{cfg.WhirlpoolsConfig, false, false},
		{addrs.Whirlpool, true, false},
		{wsol, false, false},
		{usdc, false, false},
		{addrs.TokenBadgeA, true, false},
		{addrs.TokenBadgeB, true, false},
		{funder, true, true},
		{addrs.TokenVaultA, true, true},
		{addrs.TokenVaultB, true, true},
		{addrs.FeeTier, false, false},
		{addrs.TickArrayLower, true, false},
		{addrs.TickArrayUpper, true, false},
		{addrs.PositionOwner, false, false},
		{addrs.Position, true, false},
		{addrs.PositionMint, true, true},
		{addrs.PositionTokenAccount, true, false},
		{addrs.TokenOwnerAccountA, true, false},
		{addrs.TokenOwnerAccountB, true, false},
		{whirlpool.TokenProgramID, false, false},
		{whirlpool.Token2022ProgramID, false, false},
		{addrs.LockConfig, true, false},
		{whirlpool.Token2022ProgramID, false, false},
		{cfg.MetadataUpdateAuth, false, false},
		{solana.SystemProgramID, false, false},
		{solana.SysVarRentPubkey, false, false},
		{whirlpool.AssociatedTokenProgramID, false, false},
		{whirlpool.MemoProgramID, false, false},
	}

	accounts := inst.Accounts()
	require.Len(t, accounts, len(expected))
	for i, want := range expected {
		assert.Equal(t, want.key, accounts[i].PublicKey, "account %d", i)
		assert.Equal(t, want.writable, accounts[i].IsWritable, "account %d writable", i)
		assert.Equal(t, want.signer, accounts[i].IsSigner, "account %d signer", i)
	}
	assert.Equal(t, whirlpool.WhirlpoolCPIProgramID, inst.ProgramID())

	// the owner account of a Token-2022 mint uses the Token-2022 ATA derivation
	ata, err := whirlpool.GetAssociatedTokenAddress(pkg.ProgramAddressDeriver{}, addrs.PositionOwner, usdc, whirlpool.Token2022ProgramID)
	require.NoError(t, err)
	assert.Equal(t, "6qp2eiP7pbuLLsGHtwhRF7XivzTGvd1UJfRW9VyLkWdA", ata.String())
	assert.Equal(t, ata, addrs.TokenOwnerAccountB)
}

func TestGraduateInstructionIsSolanaInstruction(t *testing.T) {
	inst, _, funder := buildTestInstruction(t)

	var _ solana.Instruction = inst
	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		solana.Hash{},
		solana.TransactionPayer(funder),
	)
	require.NoError(t, err)
	// funder plus the two vaults and the position mint
	assert.Equal(t, uint8(4), tx.Message.Header.NumRequiredSignatures)
}

package graduate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
	"solgraduate/pkg/anchor"
	"solgraduate/pkg/pool/whirlpool"
)

const (
	GRADUATE_INSTRUCTION_NAME     = "graduate_token_to_orca"
	GRADUATE_INSTRUCTION_ACCOUNTS = 28
)

// GraduateTokenToOrcaInstruction initialises a splash pool, opens a full range
// position owned by the CPI program, deposits both tokens and locks the position.
type GraduateTokenToOrcaInstruction struct {
	bin.BaseVariant
	TickSpacing                uint16
	InitialSqrtPrice           uint128.Uint128
	StartTickIndexLower        int32
	StartTickIndexUpper        int32
	TickLowerIndex             int32
	TickUpperIndex             int32
	WithTokenMetadataExtension bool
	LiquidityAmount            uint128.Uint128
	TokenMaxA                  uint64
	TokenMaxB                  uint64
	programID                  solana.PublicKey
	solana.AccountMetaSlice    `bin:"-" borsh_skip:"true"`
}

// NewGraduateTokenToOrcaInstruction assembles the instruction from a quote and
// its address set. The deposit ceilings are passed through unchanged so the
// program enforces them itself.
func NewGraduateTokenToOrcaInstruction(
	cfg Config,
	funder solana.PublicKey,
	quote *Quote,
	addrs *DerivedAddressSet,
) *GraduateTokenToOrcaInstruction {
	inst := &GraduateTokenToOrcaInstruction{
		TickSpacing:                cfg.TickSpacing,
		InitialSqrtPrice:           uint128.FromBig(new(big.Int).Set(quote.SqrtPrice)),
		StartTickIndexLower:        quote.Ticks.StartTickIndexLower,
		StartTickIndexUpper:        quote.Ticks.StartTickIndexUpper,
		TickLowerIndex:             quote.Ticks.TickLowerIndex,
		TickUpperIndex:             quote.Ticks.TickUpperIndex,
		WithTokenMetadataExtension: true,
		LiquidityAmount:            uint128.FromBig(new(big.Int).Set(quote.Liquidity)),
		TokenMaxA:                  quote.TokenMaxA.Uint64(),
		TokenMaxB:                  quote.TokenMaxB.Uint64(),
		programID:                  cfg.CPIProgramID,
		AccountMetaSlice:           make(solana.AccountMetaSlice, GRADUATE_INSTRUCTION_ACCOUNTS),
	}
	inst.BaseVariant = bin.BaseVariant{
		Impl: inst,
	}

	inst.AccountMetaSlice[0] = solana.NewAccountMeta(cfg.WhirlpoolProgramID, false, false)
	inst.AccountMetaSlice[1] = solana.NewAccountMeta(cfg.WhirlpoolsConfig, false, false)
	inst.AccountMetaSlice[2] = solana.NewAccountMeta(addrs.Whirlpool, true, false)
	inst.AccountMetaSlice[3] = solana.NewAccountMeta(quote.MintA.Address, false, false)
	inst.AccountMetaSlice[4] = solana.NewAccountMeta(quote.MintB.Address, false, false)
	inst.AccountMetaSlice[5] = solana.NewAccountMeta(addrs.TokenBadgeA, true, false)
	inst.AccountMetaSlice[6] = solana.NewAccountMeta(addrs.TokenBadgeB, true, false)
	inst.AccountMetaSlice[7] = solana.NewAccountMeta(funder, true, true)
	inst.AccountMetaSlice[8] = solana.NewAccountMeta(addrs.TokenVaultA, true, true)
	inst.AccountMetaSlice[9] = solana.NewAccountMeta(addrs.TokenVaultB, true, true)
	inst.AccountMetaSlice[10] = solana.NewAccountMeta(addrs.FeeTier, false, false)
	inst.AccountMetaSlice[11] = solana.NewAccountMeta(addrs.TickArrayLower, true, false)
	inst.AccountMetaSlice[12] = solana.NewAccountMeta(addrs.TickArrayUpper, true, false)
	inst.AccountMetaSlice[13] = solana.NewAccountMeta(addrs.PositionOwner, false, false)
	inst.AccountMetaSlice[14] = solana.NewAccountMeta(addrs.Position, true, false)
	inst.AccountMetaSlice[15] = solana.NewAccountMeta(addrs.PositionMint, true, true)
	inst.AccountMetaSlice[16] = solana.NewAccountMeta(addrs.PositionTokenAccount, true, false)
	inst.AccountMetaSlice[17] = solana.NewAccountMeta(addrs.TokenOwnerAccountA, true, false)
	inst.AccountMetaSlice[18] = solana.NewAccountMeta(addrs.TokenOwnerAccountB, true, false)
	inst.AccountMetaSlice[19] = solana.NewAccountMeta(quote.MintA.TokenProgram, false, false)
	inst.AccountMetaSlice[20] = solana.NewAccountMeta(quote.MintB.TokenProgram, false, false)
	inst.AccountMetaSlice[21] = solana.NewAccountMeta(addrs.LockConfig, true, false)
	inst.AccountMetaSlice[22] = solana.NewAccountMeta(whirlpool.Token2022ProgramID, false, false)
	inst.AccountMetaSlice[23] = solana.NewAccountMeta(cfg.MetadataUpdateAuth, false, false)
	inst.AccountMetaSlice[24] = solana.NewAccountMeta(solana.SystemProgramID, false, false)
	inst.AccountMetaSlice[25] = solana.NewAccountMeta(solana.SysVarRentPubkey, false, false)
	inst.AccountMetaSlice[26] = solana.NewAccountMeta(whirlpool.AssociatedTokenProgramID, false, false)
	inst.AccountMetaSlice[27] = solana.NewAccountMeta(whirlpool.MemoProgramID, false, false)

	return inst
}

func (inst *GraduateTokenToOrcaInstruction) ProgramID() solana.PublicKey {
	return inst.programID
}

func (inst *GraduateTokenToOrcaInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *GraduateTokenToOrcaInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)

	discriminator := anchor.GetDiscriminator("global", GRADUATE_INSTRUCTION_NAME)
	if _, err := buf.Write(discriminator); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}

	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint16(inst.TickSpacing, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode tick spacing: %w", err)
	}
	if err := enc.WriteUint128(borshUint128(inst.InitialSqrtPrice), binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode initial sqrt price: %w", err)
	}

	ticks := []struct {
		name  string
		value int32
	}{
		{"start tick index lower", inst.StartTickIndexLower},
		{"start tick index upper", inst.StartTickIndexUpper},
		{"tick lower index", inst.TickLowerIndex},
		{"tick upper index", inst.TickUpperIndex},
	}
	for _, t := range ticks {
		if err := enc.WriteInt32(t.value, binary.LittleEndian); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", t.name, err)
		}
	}

	if err := enc.WriteBool(inst.WithTokenMetadataExtension); err != nil {
		return nil, fmt.Errorf("failed to encode metadata extension flag: %w", err)
	}
	if err := enc.WriteUint128(borshUint128(inst.LiquidityAmount), binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode liquidity: %w", err)
	}
	if err := enc.WriteUint64(inst.TokenMaxA, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode token max a: %w", err)
	}
	if err := enc.WriteUint64(inst.TokenMaxB, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode token max b: %w", err)
	}

	return buf.Bytes(), nil
}

func borshUint128(v uint128.Uint128) bin.Uint128 {
	return bin.Uint128{Lo: v.Lo, Hi: v.Hi, Endianness: binary.LittleEndian}
}

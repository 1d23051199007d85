package token2022

import (
	"encoding/binary"
	"fmt"

	cosmath "cosmossdk.io/math"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Token-2022 mint layout
const (
	// MintBaseSize is the size of the legacy SPL mint layout shared by both token programs
	MintBaseSize = 82

	// AccountTypeOffset is where extended accounts store their account type byte,
	// right after the padded 165-byte token account base size
	AccountTypeOffset = 165

	AccountTypeUninitialized = 0
	AccountTypeMint          = 1
	AccountTypeAccount       = 2

	// MaxFeeBasisPoints is 100%
	MaxFeeBasisPoints = 10_000
)

// Extension types used by this package
const (
	ExtensionUninitialized     uint16 = 0
	ExtensionTransferFeeConfig uint16 = 1
)

const transferFeeConfigSize = 108

// TransferFee is a single fee schedule of the TransferFeeConfig extension
type TransferFee struct {
	Epoch                  uint64 // 8
	MaximumFee             uint64 // 8
	TransferFeeBasisPoints uint16 // 2
}

// TransferFeeConfig mirrors the on-chain TransferFeeConfig extension (108 bytes)
type TransferFeeConfig struct {
	TransferFeeConfigAuthority solana.PublicKey // 32
	WithdrawWithheldAuthority  solana.PublicKey // 32
	WithheldAmount             uint64           // 8
	OlderTransferFee           TransferFee      // 18
	NewerTransferFee           TransferFee      // 18
}

// HasExtensions reports whether mint data carries a Token-2022 extension area
func HasExtensions(data []byte) bool {
	return len(data) > AccountTypeOffset
}

// AccountType returns the account type byte of an extended account, or
// AccountTypeUninitialized for plain 82-byte mints.
func AccountType(data []byte) uint8 {
	if !HasExtensions(data) {
		return AccountTypeUninitialized
	}
	return data[AccountTypeOffset]
}

// FindExtension walks the TLV area after the account type byte and returns the
// value bytes of the first entry matching extType.
func FindExtension(data []byte, extType uint16) ([]byte, bool, error) {
	if !HasExtensions(data) {
		return nil, false, nil
	}

	offset := AccountTypeOffset + 1
	for offset+4 <= len(data) {
		typ := binary.LittleEndian.Uint16(data[offset : offset+2])
		length := int(binary.LittleEndian.Uint16(data[offset+2 : offset+4]))
		if typ == ExtensionUninitialized {
			return nil, false, nil
		}

		start := offset + 4
		end := start + length
		if end > len(data) {
			return nil, false, fmt.Errorf("extension %d overruns account data: need %d bytes, have %d", typ, end, len(data))
		}
		if typ == extType {
			return data[start:end], true, nil
		}
		offset = end
	}

	return nil, false, nil
}

// ParseTransferFeeConfig returns the mint's transfer fee config, or nil when the
// mint does not carry the extension.
func ParseTransferFeeConfig(data []byte) (*TransferFeeConfig, error) {
	raw, ok, err := FindExtension(data, ExtensionTransferFeeConfig)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if len(raw) < transferFeeConfigSize {
		return nil, fmt.Errorf("transfer fee config too short: expected %d bytes, got %d", transferFeeConfigSize, len(raw))
	}

	cfg := &TransferFeeConfig{}
	if err := bin.NewBinDecoder(raw[:transferFeeConfigSize]).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode transfer fee config: %w", err)
	}
	return cfg, nil
}

// Fee returns the fee withheld when transferring amount under this schedule:
// ceil(amount * bps / 10000), capped at MaximumFee.
func (f TransferFee) Fee(amount cosmath.Int) cosmath.Int {
	if f.TransferFeeBasisPoints == 0 || !amount.IsPositive() {
		return cosmath.ZeroInt()
	}
	maxFee := cosmath.NewIntFromUint64(f.MaximumFee)
	if f.TransferFeeBasisPoints >= MaxFeeBasisPoints {
		return cosmath.MinInt(amount, maxFee)
	}

	denominator := cosmath.NewInt(MaxFeeBasisPoints)
	numerator := amount.Mul(cosmath.NewInt(int64(f.TransferFeeBasisPoints)))
	fee := numerator.Add(denominator.Sub(cosmath.OneInt())).Quo(denominator)

	return cosmath.MinInt(fee, maxFee)
}

// WorstCaseFee is the larger of the older and newer schedule fees, so the result
// does not depend on which epoch the transfer lands in.
func (c *TransferFeeConfig) WorstCaseFee(amount cosmath.Int) cosmath.Int {
	if c == nil {
		return cosmath.ZeroInt()
	}
	return cosmath.MaxInt(c.OlderTransferFee.Fee(amount), c.NewerTransferFee.Fee(amount))
}

// TransferFeeExcludedAmount is what arrives at the destination when amount is
// sent from a mint with config c, under the worst-case schedule.
func TransferFeeExcludedAmount(c *TransferFeeConfig, amount cosmath.Int) cosmath.Int {
	fee := c.WorstCaseFee(amount)
	if fee.GTE(amount) {
		return cosmath.ZeroInt()
	}
	return amount.Sub(fee)
}

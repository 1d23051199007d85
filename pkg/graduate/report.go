package graduate

import (
	"encoding/base64"
	"fmt"
)

// QuoteReport is the JSON rendering of a Quote. Integers are decimal strings.
type QuoteReport struct {
	MintA     string `json:"mintA"`
	MintB     string `json:"mintB"`
	Swapped   bool   `json:"swapped"`
	DecimalsA uint8  `json:"decimalsA"`
	DecimalsB uint8  `json:"decimalsB"`

	TokenMaxA string `json:"tokenMaxA"`
	TokenMaxB string `json:"tokenMaxB"`

	Price     string `json:"price"`
	SqrtPrice string `json:"sqrtPrice"`

	TickLowerIndex      int32 `json:"tickLowerIndex"`
	TickUpperIndex      int32 `json:"tickUpperIndex"`
	StartTickIndexLower int32 `json:"startTickIndexLower"`
	StartTickIndexUpper int32 `json:"startTickIndexUpper"`

	Liquidity        string `json:"liquidity"`
	EffectiveAmountA string `json:"effectiveAmountA"`
	EffectiveAmountB string `json:"effectiveAmountB"`
	DepositA         string `json:"depositA"`
	DepositB         string `json:"depositB"`
}

func NewQuoteReport(q *Quote) QuoteReport {
	return QuoteReport{
		MintA:               q.Pair.MintA.String(),
		MintB:               q.Pair.MintB.String(),
		Swapped:             q.Pair.Swapped,
		DecimalsA:           q.MintA.Decimals,
		DecimalsB:           q.MintB.Decimals,
		TokenMaxA:           q.TokenMaxA.String(),
		TokenMaxB:           q.TokenMaxB.String(),
		Price:               q.Price.String(),
		SqrtPrice:           q.SqrtPrice.String(),
		TickLowerIndex:      q.Ticks.TickLowerIndex,
		TickUpperIndex:      q.Ticks.TickUpperIndex,
		StartTickIndexLower: q.Ticks.StartTickIndexLower,
		StartTickIndexUpper: q.Ticks.StartTickIndexUpper,
		Liquidity:           q.Liquidity.String(),
		EffectiveAmountA:    q.EffectiveAmountA.String(),
		EffectiveAmountB:    q.EffectiveAmountB.String(),
		DepositA:            q.DepositA.String(),
		DepositB:            q.DepositB.String(),
	}
}

// AccountReport is one instruction account
type AccountReport struct {
	Index      int    `json:"index"`
	Address    string `json:"address"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// BuildReport is the JSON rendering of a BuildResult. It carries public keys only.
type BuildReport struct {
	Quote     QuoteReport       `json:"quote"`
	Addresses map[string]string `json:"addresses"`
	ProgramID string            `json:"programId"`
	Accounts  []AccountReport   `json:"accounts"`
	Data      string            `json:"data"` // base64
	Signers   []string          `json:"signers"`
}

func NewBuildReport(r *BuildResult) (BuildReport, error) {
	data, err := r.Instruction.Data()
	if err != nil {
		return BuildReport{}, fmt.Errorf("encode instruction: %w", err)
	}

	addresses := make(map[string]string)
	for role, key := range r.Addresses.Roles() {
		addresses[role] = key.String()
	}

	metas := r.Instruction.Accounts()
	accounts := make([]AccountReport, 0, len(metas))
	for i, meta := range metas {
		accounts = append(accounts, AccountReport{
			Index:      i,
			Address:    meta.PublicKey.String(),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}

	signers := make([]string, 0, 3)
	for _, key := range r.Keys.Signers() {
		signers = append(signers, key.PublicKey().String())
	}

	return BuildReport{
		Quote:     NewQuoteReport(r.Quote),
		Addresses: addresses,
		ProgramID: r.Instruction.ProgramID().String(),
		Accounts:  accounts,
		Data:      base64.StdEncoding.EncodeToString(data),
		Signers:   signers,
	}, nil
}

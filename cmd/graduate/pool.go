package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"solgraduate/pkg/pool/whirlpool"
	"solgraduate/pkg/protocol"
)

type poolReport struct {
	Address          string `json:"address"`
	WhirlpoolsConfig string `json:"whirlpoolsConfig"`
	MintA            string `json:"mintA"`
	MintB            string `json:"mintB"`
	VaultA           string `json:"vaultA"`
	VaultB           string `json:"vaultB"`
	TickSpacing      uint16 `json:"tickSpacing"`
	FeeRate          uint16 `json:"feeRate"`
	Liquidity        string `json:"liquidity"`
	SqrtPrice        string `json:"sqrtPrice"`
	TickCurrentIndex int32  `json:"tickCurrentIndex"`
	Price            string `json:"price,omitempty"`
	Slot             uint64 `json:"slot,omitempty"`
}

func newPoolReport(pool *whirlpool.WhirlpoolPool, decimalsA, decimalsB uint8) poolReport {
	report := poolReport{
		Address:          pool.GetID(),
		WhirlpoolsConfig: pool.WhirlpoolsConfig.String(),
		MintA:            pool.TokenMintA.String(),
		MintB:            pool.TokenMintB.String(),
		VaultA:           pool.TokenVaultA.String(),
		VaultB:           pool.TokenVaultB.String(),
		TickSpacing:      pool.TickSpacing,
		FeeRate:          pool.FeeRate,
		Liquidity:        pool.Liquidity.String(),
		SqrtPrice:        pool.SqrtPrice.String(),
		TickCurrentIndex: pool.TickCurrentIndex,
		Slot:             pool.LastSlot,
	}
	if price, err := pool.CurrentPrice(decimalsA, decimalsB); err == nil {
		report.Price = price.String()
	}
	return report
}

func runPool(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	ctx := cmd.Context()

	address, err := publicKeyFlag(cmd, "address", false)
	if err != nil {
		return err
	}
	mint0, err := publicKeyFlag(cmd, "mint0", false)
	if err != nil {
		return err
	}
	mint1, err := publicKeyFlag(cmd, "mint1", false)
	if err != nil {
		return err
	}

	pools := protocol.NewWhirlpool(rt.rpc.GetClient(), rt.engine.Config().WhirlpoolProgramID)

	var found []*whirlpool.WhirlpoolPool
	switch {
	case !address.IsZero():
		pool, err := pools.FetchPoolByID(ctx, address)
		if err != nil {
			return err
		}
		found = append(found, pool)
	case !mint0.IsZero() && !mint1.IsZero():
		found, err = pools.FetchPoolsByPair(ctx, mint0, mint1)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("either --address or both --mint0 and --mint1 are required")
	}

	reports := make([]poolReport, 0, len(found))
	for _, pool := range found {
		mints, err := rt.rpc.GetClient().FetchMints(ctx, []solana.PublicKey{pool.TokenMintA, pool.TokenMintB})
		if err != nil {
			rt.logger.Warn("mint metadata unavailable, price omitted",
				zap.String("pool", pool.GetID()), zap.Error(err))
			report := newPoolReport(pool, 0, 0)
			report.Price = ""
			reports = append(reports, report)
			continue
		}
		reports = append(reports, newPoolReport(pool, mints[0].Decimals, mints[1].Decimals))
	}
	return writeJSON(cmd.OutOrStdout(), reports)
}

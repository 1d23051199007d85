package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"solgraduate/pkg/graduate"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	req, err := pairRequest(cmd)
	if err != nil {
		return err
	}

	quote, err := rt.engine.Quote(cmd.Context(), req.Mint0, req.Mint1, req.Amount0, req.Amount1)
	if err != nil {
		rt.logger.Error("quote failed", zap.Error(err))
		return err
	}
	return writeJSON(cmd.OutOrStdout(), graduate.NewQuoteReport(quote))
}

func runBuild(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	req, err := pairRequest(cmd)
	if err != nil {
		return err
	}

	req.Funder, err = publicKeyFlag(cmd, "funder", false)
	if err != nil {
		return err
	}
	if req.Funder.IsZero() {
		key, err := loadKeypair(rt.cfg.Keypair)
		if err != nil {
			return err
		}
		req.Funder = key.PublicKey()
	}

	res, err := rt.engine.Build(cmd.Context(), req)
	if err != nil {
		rt.logger.Error("build failed", zap.Error(err))
		return err
	}

	report, err := graduate.NewBuildReport(res)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), struct {
		Funder string `json:"funder"`
		graduate.BuildReport
	}{
		Funder:      req.Funder.String(),
		BuildReport: report,
	})
}

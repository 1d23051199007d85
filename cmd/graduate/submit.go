package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"solgraduate/pkg/graduate"
	"solgraduate/pkg/pool/whirlpool"
	"solgraduate/pkg/protocol"
	"solgraduate/pkg/sol"
	"solgraduate/pkg/subscription"
)

type submitReport struct {
	Signature    string               `json:"signature"`
	BundleID     string               `json:"bundleId,omitempty"`
	Whirlpool    string               `json:"whirlpool"`
	PositionMint string               `json:"positionMint"`
	Simulated    bool                 `json:"simulated,omitempty"`
	UnitsUsed    uint64               `json:"unitsConsumed,omitempty"`
	Logs         []string             `json:"logs,omitempty"`
	Verified     bool                 `json:"verified"`
	Build        graduate.BuildReport `json:"build"`
	Pool         *poolReport          `json:"pool,omitempty"`
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	ctx := cmd.Context()

	payer, err := loadKeypair(rt.cfg.Keypair)
	if err != nil {
		return err
	}
	req, err := pairRequest(cmd)
	if err != nil {
		return err
	}
	req.Funder = payer.PublicKey()

	res, err := rt.engine.Build(ctx, req)
	if err != nil {
		rt.logger.Error("build failed", zap.Error(err))
		return err
	}
	build, err := graduate.NewBuildReport(res)
	if err != nil {
		return err
	}
	report := submitReport{
		Whirlpool:    res.Whirlpool().String(),
		PositionMint: res.PositionMint().String(),
		Build:        build,
	}

	useJito, _ := cmd.Flags().GetBool("jito")
	simulate, _ := cmd.Flags().GetBool("simulate")
	skipPreflight, _ := cmd.Flags().GetBool("skip-preflight")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	instrs, err := sol.ComputeBudgetInstructions(rt.cfg.ComputeUnitLimit, rt.cfg.ComputeUnitPrice)
	if err != nil {
		return err
	}
	instrs = append(instrs, res.Instruction)
	if useJito {
		if rt.cfg.JitoRPC == "" {
			return fmt.Errorf("--jito needs --jito-rpc")
		}
		instrs = append(instrs, sol.JitoTipInstruction(payer.PublicKey(), rt.cfg.JitoTip))
	}

	client := rt.rpc.GetClient()
	tx, err := client.BuildTransaction(ctx, payer.PublicKey(), instrs...)
	if err != nil {
		return err
	}
	signers := append([]solana.PrivateKey{payer}, res.Keys.Signers()...)
	if err := sol.SignTransaction(tx, signers...); err != nil {
		return err
	}
	report.Signature = tx.Signatures[0].String()

	if simulate {
		sim, err := client.SimulateTransaction(ctx, tx)
		if sim != nil {
			report.Logs = sim.Logs
			if sim.UnitsConsumed != nil {
				report.UnitsUsed = *sim.UnitsConsumed
			}
		}
		report.Simulated = true
		if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
			return werr
		}
		return err
	}

	pools := protocol.NewWhirlpool(client, rt.engine.Config().WhirlpoolProgramID)
	if existing, err := pools.FetchPoolByID(ctx, res.Whirlpool()); err == nil {
		return fmt.Errorf("whirlpool %s already exists at tick %d", existing.GetID(), existing.TickCurrentIndex)
	} else if !errors.Is(err, rpc.ErrNotFound) {
		rt.logger.Warn("pre-flight pool check failed", zap.Error(err))
	}

	// Subscribe before sending so the pool creation cannot be missed
	var watcher *subscription.WhirlpoolWatcher
	if rt.cfg.WSEndpoint != "" {
		watcher, err = subscription.NewWhirlpoolWatcher(ctx, rt.cfg.WSEndpoint, pools, rt.logger)
		if err != nil {
			rt.logger.Warn("websocket unavailable, falling back to polling", zap.Error(err))
			watcher = nil
		} else {
			defer watcher.Close()
			if err := watcher.Watch(res.Whirlpool()); err != nil {
				rt.logger.Warn("watch whirlpool failed", zap.Error(err))
			}
		}
	}

	if useJito {
		report.BundleID, err = client.SendBundle(ctx, tx)
	} else {
		_, err = client.SendTransaction(ctx, tx, skipPreflight)
	}
	if err != nil {
		return err
	}
	rt.logger.Info("graduation sent",
		zap.String("signature", report.Signature),
		zap.String("whirlpool", report.Whirlpool),
		zap.Bool("jito", useJito))

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.WaitForConfirmation(waitCtx, tx.Signatures[0]); err != nil {
		return fmt.Errorf("confirm %s: %w", report.Signature, err)
	}

	pr, err := verifyGraduatedPool(waitCtx, watcher, pools, res, rt.engine.Config().TickSpacing)
	if err != nil {
		rt.logger.Error("whirlpool does not match the quote", zap.Error(err))
		return err
	}
	report.Verified = true
	report.Pool = pr

	return writeJSON(cmd.OutOrStdout(), report)
}

// verifyGraduatedPool waits for the new whirlpool and checks it opened at the
// quoted sqrt price for the canonical pair
func verifyGraduatedPool(ctx context.Context, watcher *subscription.WhirlpoolWatcher, pools *protocol.WhirlpoolProtocol, res *graduate.BuildResult, tickSpacing uint16) (*poolReport, error) {
	pool, err := waitForPool(ctx, watcher, pools, res.Whirlpool())
	if err != nil {
		return nil, fmt.Errorf("read whirlpool %s: %w", res.Whirlpool(), err)
	}

	quote := res.Quote
	if err := pool.VerifyGraduation(quote.Pair.MintA, quote.Pair.MintB, tickSpacing, quote.SqrtPrice); err != nil {
		return nil, err
	}
	pr := newPoolReport(pool, quote.MintA.Decimals, quote.MintB.Decimals)
	return &pr, nil
}

// waitForPool prefers the websocket watcher and polls over RPC without one
func waitForPool(ctx context.Context, watcher *subscription.WhirlpoolWatcher, pools *protocol.WhirlpoolProtocol, address solana.PublicKey) (*whirlpool.WhirlpoolPool, error) {
	if watcher != nil {
		return watcher.WaitForPool(ctx, address)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		pool, err := pools.FetchPoolByID(ctx, address)
		if err == nil {
			return pool, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

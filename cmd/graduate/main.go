package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"solgraduate/pkg/config"
	"solgraduate/pkg/graduate"
	"solgraduate/pkg/logger"
	"solgraduate/pkg/sol"
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	root := &cobra.Command{
		Use:          "graduate",
		Short:        "Graduate a launchpad token into an Orca splash pool",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("rpc", "", "comma-separated Solana RPC endpoints (falls back to RPC_ENDPOINTS)")
	flags.String("ws", "", "Solana websocket endpoint (derived from the first RPC endpoint if empty)")
	flags.String("network", config.NetworkMainnet, "network preset (mainnet, devnet)")
	flags.Int("rate-limit", 20, "RPC requests per second per endpoint")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "optional rotated log file")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a graduation and size its full-range position",
		RunE:  runQuote,
	}
	addPairFlags(quoteCmd)
	root.AddCommand(quoteCmd)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the graduation instruction without sending it",
		RunE:  runBuild,
	}
	addPairFlags(buildCmd)
	buildCmd.Flags().String("funder", "", "funder address (defaults to the keypair's address)")
	buildCmd.Flags().String("keypair", "", "path to a solana-keygen JSON keypair")
	root.AddCommand(buildCmd)

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Build, sign and send the graduation, then verify the new pool",
		RunE:  runSubmit,
	}
	addPairFlags(submitCmd)
	submitCmd.Flags().String("keypair", "", "path to a solana-keygen JSON keypair (required)")
	submitCmd.Flags().Uint32("compute-unit-limit", 400_000, "compute unit limit")
	submitCmd.Flags().Uint64("compute-unit-price", 0, "priority fee in micro-lamports per compute unit")
	submitCmd.Flags().Bool("jito", false, "send as a Jito bundle with a tip")
	submitCmd.Flags().String("jito-rpc", "", "Jito block engine URL")
	submitCmd.Flags().Uint64("jito-tip", 10_000, "Jito tip in lamports")
	submitCmd.Flags().Bool("simulate", false, "simulate only, do not send")
	submitCmd.Flags().Bool("skip-preflight", false, "skip preflight checks when sending over RPC")
	submitCmd.Flags().Duration("timeout", 90*time.Second, "how long to wait for confirmation and the pool")
	root.AddCommand(submitCmd)

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Decode an existing Whirlpool, by address or by pair",
		RunE:  runPool,
	}
	poolCmd.Flags().String("address", "", "whirlpool address")
	poolCmd.Flags().String("mint0", "", "first mint of the pair")
	poolCmd.Flags().String("mint1", "", "second mint of the pair")
	root.AddCommand(poolCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func addPairFlags(cmd *cobra.Command) {
	cmd.Flags().String("mint0", "", "first token mint (required)")
	cmd.Flags().String("mint1", "", "second token mint (required)")
	cmd.Flags().String("amount0", "", "ceiling of mint0 in base units (required)")
	cmd.Flags().String("amount1", "", "ceiling of mint1 in base units (required)")
}

// runtime is what every subcommand shares: config, logger, RPC and the engine
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	rpc    *sol.RPCPool
	engine *graduate.Engine
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	if len(cfg.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured: set RPC_ENDPOINTS or use --rpc")
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	pool, err := sol.NewRPCPool(cmd.Context(), cfg.RPCEndpoints, cfg.JitoRPC, cfg.RateLimit,
		sol.WithLogger(log),
		sol.WithRetry(cfg.MaxRetries, cfg.RetryBackoff),
		sol.WithJitoUUID(cfg.JitoUUID),
	)
	if err != nil {
		return nil, fmt.Errorf("create rpc pool: %w", err)
	}

	engine, err := graduate.NewEngine(engineCfg, pool, nil, nil, log)
	if err != nil {
		return nil, err
	}

	log.Debug("runtime ready",
		zap.Int("endpoints", pool.Size()),
		zap.String("network", cfg.Network),
		zap.String("cpiProgram", engineCfg.CPIProgramID.String()),
		zap.Uint16("tickSpacing", engineCfg.TickSpacing))

	return &runtime{cfg: cfg, logger: log, rpc: pool, engine: engine}, nil
}

// pairRequest reads mint0/mint1/amount0/amount1. Funder is left for the caller.
func pairRequest(cmd *cobra.Command) (graduate.BuildRequest, error) {
	mint0, err := publicKeyFlag(cmd, "mint0", true)
	if err != nil {
		return graduate.BuildRequest{}, err
	}
	mint1, err := publicKeyFlag(cmd, "mint1", true)
	if err != nil {
		return graduate.BuildRequest{}, err
	}
	amount0, err := amountFlag(cmd, "amount0")
	if err != nil {
		return graduate.BuildRequest{}, err
	}
	amount1, err := amountFlag(cmd, "amount1")
	if err != nil {
		return graduate.BuildRequest{}, err
	}
	return graduate.BuildRequest{
		Mint0:   mint0,
		Mint1:   mint1,
		Amount0: amount0,
		Amount1: amount1,
	}, nil
}

func publicKeyFlag(cmd *cobra.Command, name string, required bool) (solana.PublicKey, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		if required {
			return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
		}
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return key, nil
}

func amountFlag(cmd *cobra.Command, name string) (cosmath.Int, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return cosmath.Int{}, fmt.Errorf("--%s is required", name)
	}
	amount, ok := cosmath.NewIntFromString(value)
	if !ok {
		return cosmath.Int{}, fmt.Errorf("invalid --%s %q: must be an integer", name, value)
	}
	return amount, nil
}

func loadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("--keypair is required")
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return key, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

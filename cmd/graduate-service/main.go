package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"solgraduate/pkg"
	"solgraduate/pkg/config"
	"solgraduate/pkg/graduate"
	"solgraduate/pkg/logger"
	"solgraduate/pkg/sol"
)

const requestIDHeader = "X-Request-ID"

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	flags := pflag.NewFlagSet("graduate-service", pflag.ExitOnError)
	cfgFile := flags.String("config", "", "config file path")
	flags.String("rpc", "", "comma-separated Solana RPC endpoints (falls back to RPC_ENDPOINTS)")
	flags.String("network", config.NetworkMainnet, "network preset (mainnet, devnet)")
	flags.Int("port", 8080, "HTTP server port")
	flags.Int("rate-limit", 20, "RPC requests per second per endpoint")
	flags.Duration("mint-cache-ttl", 10*time.Minute, "how long mint metadata stays fresh")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "optional rotated log file")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.RPCEndpoints) == 0 {
		return errors.New("no RPC endpoints configured: set RPC_ENDPOINTS or use --rpc")
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	rpcPool, err := sol.NewRPCPool(ctx, cfg.RPCEndpoints, "", cfg.RateLimit,
		sol.WithLogger(log),
		sol.WithRetry(cfg.MaxRetries, cfg.RetryBackoff),
	)
	if err != nil {
		return fmt.Errorf("create rpc pool: %w", err)
	}

	mints := NewMintCache(rpcPool, cfg.MintCacheTTL, log)
	go mints.StartPeriodicRefresh(ctx, cfg.MintCacheTTL)

	engine, err := graduate.NewEngine(engineCfg, mints, nil, nil, log)
	if err != nil {
		return err
	}

	srv := newServer(engine, mints, cfg.Network, log)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           corsMiddleware(srv.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown error", zap.Error(err))
		}
	}()

	log.Info("graduate service listening",
		zap.Int("port", cfg.Port),
		zap.Int("endpoints", rpcPool.Size()),
		zap.String("network", cfg.Network),
		zap.Duration("mintCacheTTL", cfg.MintCacheTTL))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}

type server struct {
	engine    *graduate.Engine
	mints     *MintCache
	network   string
	startTime time.Time
	logger    *zap.Logger
}

func newServer(engine *graduate.Engine, mints *MintCache, network string, logger *zap.Logger) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &server{
		engine:    engine,
		mints:     mints,
		network:   network,
		startTime: time.Now(),
		logger:    logger,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/quote", s.handleQuote)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	if r.Method != http.MethodGet {
		writeError(w, requestID, pkg.NewError("METHOD_NOT_ALLOWED", "method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	q := r.URL.Query()
	mint0, err := solana.PublicKeyFromBase58(q.Get("mint0"))
	if err != nil {
		writeError(w, requestID, pkg.Errorf(pkg.ErrCodeInvalidInput, "invalid mint0 %q", q.Get("mint0")), http.StatusBadRequest)
		return
	}
	mint1, err := solana.PublicKeyFromBase58(q.Get("mint1"))
	if err != nil {
		writeError(w, requestID, pkg.Errorf(pkg.ErrCodeInvalidInput, "invalid mint1 %q", q.Get("mint1")), http.StatusBadRequest)
		return
	}
	amount0, ok := cosmath.NewIntFromString(q.Get("amount0"))
	if !ok {
		writeError(w, requestID, pkg.Errorf(pkg.ErrCodeInvalidInput, "invalid amount0 %q", q.Get("amount0")), http.StatusBadRequest)
		return
	}
	amount1, ok := cosmath.NewIntFromString(q.Get("amount1"))
	if !ok {
		writeError(w, requestID, pkg.Errorf(pkg.ErrCodeInvalidInput, "invalid amount1 %q", q.Get("amount1")), http.StatusBadRequest)
		return
	}

	quote, err := s.engine.Quote(r.Context(), mint0, mint1, amount0, amount1)
	if err != nil {
		status := statusFor(err)
		s.logger.Info("quote rejected",
			zap.String("requestId", requestID),
			zap.Int("status", status),
			zap.Error(err))
		writeError(w, requestID, err, status)
		return
	}

	s.logger.Debug("quote served",
		zap.String("requestId", requestID),
		zap.String("mintA", quote.Pair.MintA.String()),
		zap.String("mintB", quote.Pair.MintB.String()),
		zap.Duration("took", time.Since(start)))

	writeJSON(w, http.StatusOK, QuoteResponse{
		RequestID:   requestID,
		QuoteReport: graduate.NewQuoteReport(quote),
		TimeTaken:   time.Since(start).String(),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	hits, misses := s.mints.Stats()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Network:     s.network,
		CachedMints: s.mints.Size(),
		CacheHits:   hits,
		CacheMisses: misses,
		StartedAt:   s.startTime,
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
	})
}

// statusFor maps engine error codes to HTTP statuses. Anything uncoded is an
// upstream RPC failure.
func statusFor(err error) int {
	switch pkg.CodeOf(err) {
	case pkg.ErrCodeInvalidInput, pkg.ErrCodeDivisionByZero, pkg.ErrCodePriceOutOfRange, pkg.ErrCodeInsufficientLiquidity:
		return http.StatusBadRequest
	case pkg.ErrCodeNotAMint:
		return http.StatusNotFound
	case pkg.ErrCodeAddressDerivation:
		return http.StatusInternalServerError
	default:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, requestID string, err error, status int) {
	writeJSON(w, status, QuoteError{
		Error:     err.Error(),
		Code:      pkg.CodeOf(err),
		RequestID: requestID,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

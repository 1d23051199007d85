package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"solgraduate/pkg/graduate"
	"solgraduate/pkg/pool/whirlpool"
)

const (
	NetworkMainnet = "mainnet"
	NetworkDevnet  = "devnet"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCEndpoints []string
	WSEndpoint   string
	JitoRPC      string
	JitoUUID     string
	JitoTip      uint64
	RateLimit    int

	Network          string
	WhirlpoolProgram string
	CPIProgram       string
	WhirlpoolsConfig string
	TickSpacing      uint16

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
	Keypair          string

	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	LogFile      string
	Port         int
	MintCacheTTL time.Duration
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GRADUATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rate-limit", 20)
	v.SetDefault("network", NetworkMainnet)
	v.SetDefault("whirlpool-program", whirlpool.WHIRLPOOL_PROGRAM_ID)
	v.SetDefault("cpi-program", whirlpool.WHIRLPOOL_CPI_PROGRAM_ID)
	v.SetDefault("tick-spacing", whirlpool.SPLASH_POOL_TICK_SPACING)
	v.SetDefault("compute-unit-limit", 400_000)
	v.SetDefault("compute-unit-price", 0)
	v.SetDefault("jito-tip", 10_000)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 250*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("mint-cache-ttl", 10*time.Minute)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	tickSpacing := v.GetUint("tick-spacing")
	if tickSpacing == 0 || tickSpacing > math.MaxUint16 {
		return Config{}, fmt.Errorf("tick spacing %d out of range", tickSpacing)
	}

	cfg := Config{
		RPCEndpoints:     getStringSlice(v, "rpc"),
		WSEndpoint:       v.GetString("ws"),
		JitoRPC:          v.GetString("jito-rpc"),
		JitoUUID:         v.GetString("jito-uuid"),
		JitoTip:          v.GetUint64("jito-tip"),
		RateLimit:        v.GetInt("rate-limit"),
		Network:          strings.ToLower(v.GetString("network")),
		WhirlpoolProgram: v.GetString("whirlpool-program"),
		CPIProgram:       v.GetString("cpi-program"),
		WhirlpoolsConfig: v.GetString("whirlpools-config"),
		TickSpacing:      uint16(tickSpacing),
		ComputeUnitLimit: v.GetUint32("compute-unit-limit"),
		ComputeUnitPrice: v.GetUint64("compute-unit-price"),
		Keypair:          v.GetString("keypair"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		LogLevel:         v.GetString("log-level"),
		LogFile:          v.GetString("log-file"),
		Port:             v.GetInt("port"),
		MintCacheTTL:     v.GetDuration("mint-cache-ttl"),
	}

	if len(cfg.RPCEndpoints) == 0 {
		cfg.RPCEndpoints = GetRPCEndpoints()
	}
	if cfg.WSEndpoint == "" && len(cfg.RPCEndpoints) > 0 {
		cfg.WSEndpoint = WebsocketURL(cfg.RPCEndpoints[0])
	}

	return cfg, nil
}

// EngineConfig resolves program identities for the configured network.
// An explicit whirlpools config overrides the network preset.
func (c Config) EngineConfig() (graduate.Config, error) {
	cfg := graduate.DefaultConfig()
	cfg.TickSpacing = c.TickSpacing

	switch c.Network {
	case NetworkMainnet, "":
		cfg.WhirlpoolsConfig = whirlpool.MainnetWhirlpoolsConfig
	case NetworkDevnet:
		cfg.WhirlpoolsConfig = whirlpool.DevnetWhirlpoolsConfig
	default:
		return graduate.Config{}, fmt.Errorf("unknown network %q", c.Network)
	}

	overrides := []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"whirlpool-program", c.WhirlpoolProgram, &cfg.WhirlpoolProgramID},
		{"cpi-program", c.CPIProgram, &cfg.CPIProgramID},
		{"whirlpools-config", c.WhirlpoolsConfig, &cfg.WhirlpoolsConfig},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(o.value)
		if err != nil {
			return graduate.Config{}, fmt.Errorf("invalid %s %q: %w", o.name, o.value, err)
		}
		*o.dst = key
	}

	if err := cfg.Validate(); err != nil {
		return graduate.Config{}, err
	}
	return cfg, nil
}

// WebsocketURL maps an http(s) RPC endpoint to its websocket counterpart
func WebsocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

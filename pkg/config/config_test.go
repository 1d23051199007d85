package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solgraduate/pkg/pool/whirlpool"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RPC_ENDPOINTS", "https://api.mainnet-beta.solana.com, https://backup.example.com ,")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.mainnet-beta.solana.com", "https://backup.example.com"}, cfg.RPCEndpoints)
	assert.Equal(t, "wss://api.mainnet-beta.solana.com", cfg.WSEndpoint)
	assert.Equal(t, 20, cfg.RateLimit)
	assert.Equal(t, uint16(whirlpool.SPLASH_POOL_TICK_SPACING), cfg.TickSpacing)
	assert.Equal(t, uint32(400_000), cfg.ComputeUnitLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 10*time.Minute, cfg.MintCacheTTL)

	engine, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, whirlpool.MainnetWhirlpoolsConfig, engine.WhirlpoolsConfig)
	assert.Equal(t, whirlpool.WhirlpoolCPIProgramID, engine.CPIProgramID)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("GRADUATE_NETWORK", "devnet")
	t.Setenv("GRADUATE_TICK_SPACING", "64")
	t.Setenv("GRADUATE_RATE_LIMIT", "5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("rate-limit", 20, "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--rate-limit=7", "--log-level=debug"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint16(64), cfg.TickSpacing)

	engine, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, whirlpool.DevnetWhirlpoolsConfig, engine.WhirlpoolsConfig)
	assert.Equal(t, uint16(64), engine.TickSpacing)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "rpc:\n  - http://127.0.0.1:8899\nwhirlpools-config: " + whirlpool.DEVNET_WHIRLPOOLS_CONFIG + "\nmint-cache-ttl: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://127.0.0.1:8899"}, cfg.RPCEndpoints)
	assert.Equal(t, "ws://127.0.0.1:8899", cfg.WSEndpoint)
	assert.Equal(t, 30*time.Second, cfg.MintCacheTTL)

	engine, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, whirlpool.DevnetWhirlpoolsConfig, engine.WhirlpoolsConfig)
}

func TestEngineConfigErrors(t *testing.T) {
	_, err := Config{Network: "testnet", TickSpacing: 1}.EngineConfig()
	assert.Error(t, err)

	_, err = Config{Network: NetworkMainnet, TickSpacing: 1, CPIProgram: "not-a-key"}.EngineConfig()
	assert.Error(t, err)

	_, err = Config{Network: NetworkMainnet}.EngineConfig()
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# endpoints\nGRADUATE_TEST_A=from-file\nGRADUATE_TEST_B=\"quoted value\"\n"), 0o600))
	t.Setenv("GRADUATE_TEST_A", "from-env")
	t.Setenv("GRADUATE_TEST_B", "")
	os.Unsetenv("GRADUATE_TEST_B")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-env", os.Getenv("GRADUATE_TEST_A"))
	assert.Equal(t, "quoted value", os.Getenv("GRADUATE_TEST_B"))

	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "wss://rpc.example.com/key", WebsocketURL("https://rpc.example.com/key"))
	assert.Equal(t, "ws://localhost:8899", WebsocketURL("http://localhost:8899"))
	assert.Equal(t, "ws://already", WebsocketURL("ws://already"))
}

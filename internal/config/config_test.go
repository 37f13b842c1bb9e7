package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperliquid-sdk/pkg/exchange/sim"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndHydratesExchange(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	writeFile(t, dir, "exchange.yaml", `
default: paper
providers:
  paper:
    type: sim
    initial_equity: 750
`)
	mainPath := writeFile(t, dir, "hlstream.yaml", `
Env: dev
Stream:
  Testnet: true
  Coins: [BTC, ETH]
Exchange:
  File: exchange.yaml
`)

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsTestEnv())
	assert.Equal(t, "hlstream", cfg.Log.ServiceName)
	assert.Equal(t, dir, cfg.BaseDir())
	assert.Equal(t, mainPath, cfg.MainPath())

	assert.Equal(t, 50*time.Second, cfg.Stream.PingInterval)
	assert.Equal(t, 10*time.Second, cfg.Stream.HandshakeTimeout)
	assert.Equal(t, 5, cfg.Stream.DialAttempts)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Stream.Coins)
	assert.Equal(t, "https://api.hyperliquid-testnet.xyz", cfg.Stream.APIBase())
	assert.Equal(t, "wss://api.hyperliquid-testnet.xyz/ws", cfg.Stream.Endpoint())
	assert.Len(t, cfg.Stream.Options(), 3)

	require.True(t, cfg.Exchange.Loaded())
	assert.Equal(t, filepath.Join(dir, "exchange.yaml"), cfg.Exchange.File)

	name, trader, err := cfg.BuildDefaultTrader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "paper", name)
	paper, ok := trader.(*sim.Trader)
	require.True(t, ok)
	assert.InDelta(t, 750, paper.AccountValue(), 1e-9)
}

func TestStreamEndpointOverrides(t *testing.T) {
	assert.Equal(t, "wss://api.hyperliquid.xyz/ws", StreamConf{}.Endpoint())
	assert.Equal(t, "ws://127.0.0.1:9000/ws", StreamConf{BaseURL: "http://127.0.0.1:9000/"}.Endpoint())
	assert.Equal(t, "wss://proxy.example/ws", StreamConf{BaseURL: "http://127.0.0.1:9000", URL: "wss://proxy.example/ws"}.Endpoint())
}

func TestValidateRejectsBadValues(t *testing.T) {
	valid := StreamConf{DialAttempts: 1, ImpactNotional: 1}
	cases := map[string]Config{
		"env":          {Env: "staging", Stream: valid},
		"dialAttempts": {Stream: StreamConf{ImpactNotional: 1}},
		"impact":       {Stream: StreamConf{DialAttempts: 1}},
		"ws://":        {Stream: StreamConf{DialAttempts: 1, ImpactNotional: 1, URL: "https://api.hyperliquid.xyz"}},
		"http(s)":      {Stream: StreamConf{DialAttempts: 1, ImpactNotional: 1, BaseURL: "wss://api.hyperliquid.xyz"}},
	}
	for want, cfg := range cases {
		err := cfg.Validate()
		require.Error(t, err, want)
		assert.Contains(t, err.Error(), want)
	}

	ok := Config{Stream: valid}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "test", ok.Env)
	assert.True(t, ok.IsTestEnv())
}

func TestLoadFailsOnBrokenExchangeSection(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	writeFile(t, dir, "exchange.yaml", "providers: {}\n")
	mainPath := writeFile(t, dir, "hlstream.yaml", "Stream:\n  Testnet: true\nExchange:\n  File: exchange.yaml\n")

	_, err := Load(mainPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load exchange config")
}

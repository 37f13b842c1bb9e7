package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hyperliquid-sdk/internal/config"
)

func TestConfigSummaryLines(t *testing.T) {
	assert.Equal(t, []string{"Configuration: <nil>"}, ConfigSummaryLines(nil))

	cfg := &config.Config{
		Env: "prod",
		Stream: config.StreamConf{
			Testnet:      true,
			DialAttempts: 3,
			Coins:        []string{"BTC", "SOL"},
			User:         "0xabc",
		},
	}
	lines := ConfigSummaryLines(cfg)
	assert.Contains(t, lines, "Environment: prod")
	assert.Contains(t, lines, "Log: mode=console level=info")
	assert.Contains(t, lines, "Stream endpoint: wss://api.hyperliquid-testnet.xyz/ws")
	assert.Contains(t, lines, "Stream dial attempts: 3")
	assert.Contains(t, lines, "Coins: BTC,SOL")
	assert.Contains(t, lines, "User events: configured")
	assert.Contains(t, lines, "Exchange config: not configured")
}

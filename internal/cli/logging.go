package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"hyperliquid-sdk/internal/config"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Log: mode=%s level=%s", orDefault(cfg.Log.Mode, "console"), orDefault(cfg.Log.Level, "info")),
		fmt.Sprintf("API base: %s", cfg.Stream.APIBase()),
		fmt.Sprintf("Stream endpoint: %s", cfg.Stream.Endpoint()),
		fmt.Sprintf("Stream ping/handshake: %s / %s", cfg.Stream.PingInterval, cfg.Stream.HandshakeTimeout),
		fmt.Sprintf("Stream dial attempts: %d", cfg.Stream.DialAttempts),
		fmt.Sprintf("Coins: %s", orDefault(strings.Join(cfg.Stream.Coins, ","), "none")),
		fmt.Sprintf("User events: %s", presence(cfg.Stream.User != "")),
		fmt.Sprintf("Exchange config: %s", cfg.Exchange.Describe()),
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

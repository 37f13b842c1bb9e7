package exchange_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	exchange "hyperliquid-sdk/pkg/exchange"
	_ "hyperliquid-sdk/pkg/exchange/hyperliquid"
	"hyperliquid-sdk/pkg/exchange/sim"
)

const testPrivateKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a741b52d7c5d5095e2f"

func newMetaServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":5,"maxLeverage":50}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exchange.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigAndBuildProviders(t *testing.T) {
	server := newMetaServer(t)
	t.Setenv("EXCHANGE_PRIVATE_KEY", testPrivateKey)
	t.Setenv("EXCHANGE_BASE_URL", server.URL+"/")

	path := writeConfig(t, `
default: hyperliquid_main
providers:
  hyperliquid_main:
    type: hyperliquid
    private_key: ${EXCHANGE_PRIVATE_KEY}
    base_url: ${EXCHANGE_BASE_URL}
    timeout: 45s
    vault_address: 0x0000000000000000000000000000000000000000
  paper:
    type: sim
    initial_equity: 2500
`)

	cfg, err := exchange.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Default != "hyperliquid_main" {
		t.Fatalf("unexpected default: %s", cfg.Default)
	}
	hlCfg := cfg.Providers["hyperliquid_main"]
	if hlCfg.Timeout != 45*time.Second {
		t.Fatalf("unexpected timeout: %s", hlCfg.Timeout)
	}
	if hlCfg.BaseURL != server.URL {
		t.Fatalf("base_url not normalised: %s", hlCfg.BaseURL)
	}
	if !hlCfg.RefreshAssets() {
		t.Fatalf("asset refresh should default to enabled")
	}

	providers, err := cfg.BuildProviders(context.Background())
	if err != nil {
		t.Fatalf("BuildProviders error: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if got := providers["hyperliquid_main"].Address(); got != "0xee0b1faf21860c947a3e4a0a1821d241b4d4722a" {
		t.Fatalf("unexpected signer address %s", got)
	}
	paper, ok := providers["paper"].(*sim.Trader)
	if !ok {
		t.Fatalf("paper provider has type %T", providers["paper"])
	}
	if paper.AccountValue() != 2500 {
		t.Fatalf("unexpected paper equity %v", paper.AccountValue())
	}

	name, _, err := cfg.DefaultProvider()
	if err != nil || name != "hyperliquid_main" {
		t.Fatalf("DefaultProvider = %q, %v", name, err)
	}
}

func TestLoadConfigRequiresPrivateKey(t *testing.T) {
	path := writeConfig(t, `
providers:
  hyperliquid_main:
    type: hyperliquid
`)
	_, err := exchange.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "private_key") {
		t.Fatalf("expected private_key error, got %v", err)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"timeout": `
providers:
  hl:
    type: hyperliquid
    private_key: abc
    timeout: soon
`,
		"base_url": `
providers:
  hl:
    type: hyperliquid
    private_key: abc
    base_url: ftp://example.com
`,
		"vault_address": `
providers:
  hl:
    type: hyperliquid
    private_key: abc
    vault_address: "0x742d35cc6634c0532925a3b8d4c0cd9d7fd703b"
`,
		"unsupported": `
providers:
  other:
    type: binance
`,
		"not defined": `
default: missing
providers:
  paper:
    type: sim
`,
	}
	for want, body := range cases {
		_, err := exchange.LoadConfigFromReader(strings.NewReader(body))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error containing %q, got %v", want, err)
		}
	}
}

func TestDefaultProviderRequiresChoice(t *testing.T) {
	cfg, err := exchange.LoadConfigFromReader(strings.NewReader(`
providers:
  a:
    type: sim
  b:
    type: sim
    asset_refresh: false
`))
	if err != nil {
		t.Fatalf("LoadConfigFromReader: %v", err)
	}
	if cfg.Providers["b"].RefreshAssets() {
		t.Fatalf("asset_refresh: false not honoured")
	}
	if _, _, err := cfg.DefaultProvider(); err == nil {
		t.Fatalf("expected error without default among two providers")
	}
}

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"hyperliquid-sdk/pkg/confkit"
	"hyperliquid-sdk/pkg/exchange"
	// Provider types referenced from exchange.yaml.
	_ "hyperliquid-sdk/pkg/exchange/hyperliquid"
	_ "hyperliquid-sdk/pkg/exchange/sim"
)

// MustLoadExchange loads etc/exchange.yaml from the project root and panics on error.
// It lets tests that only need traders skip the main config file.
func MustLoadExchange() *exchange.Config {
	path := filepath.Join(confkit.MustProjectRoot(), "etc", "exchange.yaml")
	cfg, err := exchange.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load exchange config %s: %w", path, err))
	}
	return cfg
}

// ExchangeConfig returns the hydrated exchange section, falling back to
// etc/exchange.yaml under the project root.
func (c *Config) ExchangeConfig() (*exchange.Config, error) {
	if c != nil && c.Exchange.Value != nil {
		return c.Exchange.Value, nil
	}
	path := filepath.Join(confkit.MustProjectRoot(), "etc", "exchange.yaml")
	return exchange.LoadConfig(path)
}

// BuildDefaultTrader builds the default trader of the exchange section.
func (c *Config) BuildDefaultTrader(ctx context.Context) (string, exchange.Trader, error) {
	exCfg, err := c.ExchangeConfig()
	if err != nil {
		return "", nil, err
	}
	name, providerCfg, err := exCfg.DefaultProvider()
	if err != nil {
		return "", nil, err
	}
	trader, err := exchange.GetProvider(ctx, providerCfg.Type, providerCfg)
	if err != nil {
		return "", nil, fmt.Errorf("exchange provider %s: %w", name, err)
	}
	return name, trader, nil
}

package hyperliquid

import (
	"context"
	"net/http"

	"hyperliquid-sdk/pkg/exchange"
)

func init() {
	exchange.RegisterProvider("hyperliquid", func(ctx context.Context, name string, cfg *exchange.ProviderConfig) (exchange.Trader, error) {
		client, err := NewFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}

// NewFromConfig builds a Client from a provider configuration section.
func NewFromConfig(ctx context.Context, cfg *exchange.ProviderConfig, opts ...ClientOption) (*Client, error) {
	signer, err := NewPrivateKeySigner(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	base := []ClientOption{WithAssetRefresh(cfg.RefreshAssets())}
	switch {
	case cfg.BaseURL != "":
		base = append(base, WithBaseURL(cfg.BaseURL))
	case cfg.Testnet:
		base = append(base, WithTestnet())
	}
	if cfg.Timeout > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	if cfg.VaultAddress != "" {
		base = append(base, WithVaultAddress(cfg.VaultAddress))
	}
	return NewClient(ctx, signer, append(base, opts...)...)
}

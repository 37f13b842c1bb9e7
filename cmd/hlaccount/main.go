package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hyperliquid-sdk/pkg/confkit"
	"hyperliquid-sdk/pkg/exchange"
	"hyperliquid-sdk/pkg/exchange/hyperliquid"
	_ "hyperliquid-sdk/pkg/exchange/sim"
	markethl "hyperliquid-sdk/pkg/market/hyperliquid"
)

var (
	exchangeFile = flag.String("exchange-config", "etc/exchange.yaml", "path to exchange provider configuration")
	providerName = flag.String("provider", "", "provider to inspect; defaults to the configured default")
	mainAddress  = flag.String("main", "", "main account when the key is an API wallet")
	timeout      = flag.Duration("timeout", 20*time.Second, "overall request timeout")
)

func main() {
	flag.Parse()
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()
	confkit.LoadDotenvOnce()

	cfg, err := exchange.LoadConfig(*exchangeFile)
	if err != nil {
		fatalf("load exchange config: %v", err)
	}
	name, providerCfg, err := pickProvider(cfg, *providerName)
	if err != nil {
		fatalf("%v", err)
	}
	if !strings.EqualFold(providerCfg.Type, "hyperliquid") {
		fatalf("provider %s has type %s; only hyperliquid accounts can be inspected", name, providerCfg.Type)
	}

	signer, err := hyperliquid.NewPrivateKeySigner(providerCfg.PrivateKey)
	if err != nil {
		fatalf("decode private key: %v", err)
	}
	apiWallet := signer.GetAddress()
	account := accountAddress(apiWallet, providerCfg.VaultAddress, *mainAddress)

	fmt.Printf("Provider:   %s\n", name)
	fmt.Printf("API wallet: %s\n", apiWallet)
	fmt.Printf("Account:    %s\n", account)
	if account != apiWallet && providerCfg.VaultAddress == "" {
		fmt.Printf("API wallet mode: %s must be approved as an agent of %s before it can trade.\n", apiWallet, account)
	}

	base := markethl.MainnetURL
	switch {
	case providerCfg.BaseURL != "":
		base = providerCfg.BaseURL
	case providerCfg.Testnet:
		base = markethl.TestnetURL
	}
	info := markethl.NewClient(markethl.WithBaseURL(base))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	state, err := info.UserState(ctx, account)
	if err != nil {
		fatalf("clearinghouse state: %v", err)
	}
	fmt.Printf("\nAccount value: %s  margin used: %s  withdrawable: %s\n",
		state.MarginSummary.AccountValue, state.MarginSummary.TotalMarginUsed, state.Withdrawable)
	for _, ap := range state.AssetPositions {
		p := ap.Position
		fmt.Printf("  %-8s szi=%s value=%s upnl=%s lev=%s/%d\n", p.Coin, p.Szi, p.PositionValue, p.UnrealizedPnl, p.Leverage.Type, p.Leverage.Value)
	}

	orders, err := info.OpenOrders(ctx, account)
	if err != nil {
		fatalf("open orders: %v", err)
	}
	fmt.Printf("\nOpen orders: %d\n", len(orders))
	for _, o := range orders {
		fmt.Printf("  %-8s %s %s@%s oid=%d\n", o.Coin, o.Side, o.Sz, o.LimitPx, o.Oid)
	}
}

func pickProvider(cfg *exchange.Config, name string) (string, *exchange.ProviderConfig, error) {
	if name == "" {
		return cfg.DefaultProvider()
	}
	p, ok := cfg.Providers[name]
	if !ok {
		return "", nil, fmt.Errorf("provider %q not defined", name)
	}
	return name, p, nil
}

// accountAddress picks the account whose state is shown: an explicit main
// address, then the vault, then the signer itself.
func accountAddress(apiWallet, vault, main string) string {
	for _, candidate := range []string{main, vault} {
		if c := strings.ToLower(strings.TrimSpace(candidate)); c != "" {
			return c
		}
	}
	return apiWallet
}

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

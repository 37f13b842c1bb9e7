package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"hyperliquid-sdk/internal/cli"
	"hyperliquid-sdk/internal/config"
	"hyperliquid-sdk/pkg/exchange/sim"
	markethl "hyperliquid-sdk/pkg/market/hyperliquid"
	"hyperliquid-sdk/pkg/stream"
)

var (
	configFile = flag.String("f", "etc/hlstream.yaml", "the config file")
	coinsRaw   = flag.String("coins", "", "comma-separated coins for l2Book and trades; overrides Stream.Coins")
	user       = flag.String("user", "", "address for userEvents; overrides Stream.User")
	showMeta   = flag.Bool("meta", false, "print the asset universe and exit")
	paperUSD   = flag.Float64("paper", 0, "mark a paper account of this size to the allMids stream")
)

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	logx.MustSetup(cfg.Log)
	logx.DisableStat()
	defer logx.Close()
	cli.LogConfigSummary(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	info := markethl.NewClient(markethl.WithBaseURL(cfg.Stream.APIBase()))
	if *showMeta {
		if err := printMeta(ctx, info); err != nil {
			fatalf("fetch meta: %v", err)
		}
		return
	}

	coins := cfg.Stream.Coins
	if *coinsRaw != "" {
		coins = parseCoins(*coinsRaw)
	}
	addr := cfg.Stream.User
	if *user != "" {
		addr = *user
	}

	opts := append(cfg.Stream.Options(), stream.WithErrorHandler(func(err error) {
		logx.Errorf("stream error: %v", err)
	}))
	mgr := stream.NewManager(cfg.Stream.Endpoint(), opts...)
	defer mgr.Close()

	var paper *sim.Trader
	if *paperUSD > 0 {
		paper = sim.New(*paperUSD)
	}
	notional := decimal.NewFromFloat(cfg.Stream.ImpactNotional)

	must(mgr.Subscribe(stream.AllMids(), func(msg stream.Message) {
		mids := msg.(*stream.AllMidsMessage).Mids
		if paper != nil {
			if skipped := paper.ApplyMids(mids); skipped > 0 {
				logx.Infof("allMids: skipped %d unparseable mids", skipped)
			}
		}
		logx.Debugf("allMids: %d coins", len(mids))
	}))
	for _, coin := range coins {
		must(mgr.Subscribe(stream.L2Book(coin), func(msg stream.Message) {
			logBook(msg.(*stream.L2BookMessage).L2Book, notional)
		}))
		must(mgr.Subscribe(stream.Trades(coin), func(msg stream.Message) {
			for _, tr := range msg.(*stream.TradesMessage).Trades {
				logx.Infof("trade %s %s %s@%s", tr.Coin, tr.Side, tr.Sz, tr.Px)
			}
		}))
	}
	if addr != "" {
		must(mgr.Subscribe(stream.UserEvents(addr), func(msg stream.Message) {
			for _, fill := range msg.(*stream.UserEventsMessage).Fills {
				logx.Infof("fill %s %s %s@%s oid=%d pnl=%s", fill.Coin, fill.Dir, fill.Sz, fill.Px, fill.Oid, fill.ClosedPnl)
			}
		}))
	}

	if err := mgr.Open(ctx); err != nil {
		fatalf("open stream %s: %v", mgr.URL(), err)
	}
	logx.Infof("streaming %d coins from %s", len(coins), mgr.URL())

	select {
	case <-ctx.Done():
		logx.Info("received shutdown signal")
	case <-mgr.Done():
		logx.Errorf("stream closed: %v", mgr.Err())
	}
	if paper != nil {
		logx.Infof("paper account value: %.2f", paper.AccountValue())
	}
}

func logBook(book markethl.L2Book, notional decimal.Decimal) {
	if len(book.Bids()) == 0 || len(book.Asks()) == 0 {
		logx.Infof("book %s: one-sided", book.Coin)
		return
	}
	line := fmt.Sprintf("book %s: bid %s ask %s", book.Coin, book.Bids()[0].Px, book.Asks()[0].Px)
	if long, err := markethl.ComputeImpactPrice(book, markethl.SideLong, notional); err == nil {
		line += " impact-long " + long.String()
	}
	if short, err := markethl.ComputeImpactPrice(book, markethl.SideShort, notional); err == nil {
		line += " impact-short " + short.String()
	}
	logx.Info(line)
}

func printMeta(ctx context.Context, info *markethl.Client) error {
	meta, err := info.Meta(ctx)
	if err != nil {
		return err
	}
	for idx, asset := range meta.Universe {
		fmt.Printf("%4d  %-10s szDecimals=%d maxLeverage=%d\n", idx, asset.Name, asset.SzDecimals, asset.MaxLeverage)
	}
	return nil
}

func parseCoins(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToUpper(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		if _, exists := seen[field]; exists {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

func must(_ int, err error) {
	if err != nil {
		fatalf("subscribe: %v", err)
	}
}

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

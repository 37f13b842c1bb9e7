//go:build integration

package exchange_test

import (
	"context"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hyperliquid-sdk/pkg/confkit"
	"hyperliquid-sdk/pkg/exchange"
	hl "hyperliquid-sdk/pkg/exchange/hyperliquid"
	markethl "hyperliquid-sdk/pkg/market/hyperliquid"
	"hyperliquid-sdk/pkg/stream"
)

// HLIntegrationSuite talks to the Hyperliquid testnet with the key from
// HYPERLIQUID_PRIVATE_KEY.
type HLIntegrationSuite struct {
	suite.Suite
	Client *hl.Client
	Info   *markethl.Client
	Coin   string
}

func (s *HLIntegrationSuite) SetupSuite() {
	confkit.LoadDotenvOnce()
	key := strings.TrimSpace(os.Getenv("HYPERLIQUID_PRIVATE_KEY"))
	if key == "" {
		s.T().Skip("HYPERLIQUID_PRIVATE_KEY not set; skipping testnet integration")
	}
	s.Coin = os.Getenv("HYPERLIQUID_TEST_COIN")
	if s.Coin == "" {
		s.Coin = "BTC"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	trader, err := exchange.GetProvider(ctx, "hyperliquid", &exchange.ProviderConfig{
		PrivateKey: key,
		Testnet:    true,
		Timeout:    20 * time.Second,
	})
	s.Require().NoError(err, "build testnet client")
	client, ok := trader.(*hl.Client)
	s.Require().True(ok, "hyperliquid provider should build *hyperliquid.Client")
	s.Client = client
	s.Info = markethl.NewClient(markethl.WithBaseURL(markethl.TestnetURL))
}

func (s *HLIntegrationSuite) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 20*time.Second)
}

func (s *HLIntegrationSuite) TestAssetIndex() {
	ctx, cancel := s.ctx()
	defer cancel()
	idx, err := s.Client.AssetIndex(ctx, s.Coin)
	s.Require().NoErrorf(err, "AssetIndex(%s)", s.Coin)
	s.GreaterOrEqual(idx, 0)

	_, err = s.Client.AssetIndex(ctx, "NOT_A_COIN_XYZ")
	s.ErrorIs(err, hl.ErrUnknownCoin)
}

func (s *HLIntegrationSuite) TestPostOnlyOrderFarFromMidThenCancel() {
	ctx, cancel := s.ctx()
	defer cancel()

	mids, err := s.Info.AllMids(ctx)
	s.Require().NoError(err)
	mid, err := strconv.ParseFloat(mids[s.Coin], 64)
	s.Require().NoErrorf(err, "mid for %s", s.Coin)

	// Half the mid rounded to whole dollars stays well away from the touch.
	px := math.Round(mid / 2)
	resp, err := s.Client.Order(ctx, exchange.OrderRequest{
		Coin:      s.Coin,
		IsBuy:     true,
		Sz:        minSize(11, px),
		LimitPx:   px,
		OrderType: exchange.Limit(exchange.TifAlo),
	})
	s.Require().NoError(err)
	s.Require().Empty(resp.FirstError())
	s.Require().Len(resp.Response.Data.Statuses, 1)
	resting := resp.Response.Data.Statuses[0].Resting
	s.Require().NotNil(resting, "post-only order should rest")

	cancelResp, err := s.Client.Cancel(ctx, s.Coin, resting.Oid)
	s.Require().NoError(err)
	s.Empty(cancelResp.FirstError())
}

func (s *HLIntegrationSuite) TestUserState() {
	ctx, cancel := s.ctx()
	defer cancel()
	state, err := s.Info.UserState(ctx, s.Client.Address())
	s.Require().NoError(err)
	s.NotEmpty(state.MarginSummary.AccountValue)
}

func (s *HLIntegrationSuite) TestStreamAllMids() {
	mgr := stream.NewManager(stream.StreamURL(markethl.TestnetURL), stream.WithPingInterval(0))
	got := make(chan *stream.AllMidsMessage, 1)
	_, err := mgr.Subscribe(stream.AllMids(), func(msg stream.Message) {
		if m, ok := msg.(*stream.AllMidsMessage); ok {
			select {
			case got <- m:
			default:
			}
		}
	})
	s.Require().NoError(err)

	ctx, cancel := s.ctx()
	defer cancel()
	s.Require().NoError(mgr.Open(ctx))
	defer mgr.Close()

	select {
	case msg := <-got:
		s.Contains(msg.Mids, s.Coin)
	case <-ctx.Done():
		s.Fail("no allMids message before timeout")
	}
}

// minSize returns a size worth at least notional USD at px, rounded up to
// five decimals.
func minSize(notional, px float64) float64 {
	return math.Ceil(notional/px*1e5) / 1e5
}

func TestHLIntegrationSuite(t *testing.T) {
	suite.Run(t, new(HLIntegrationSuite))
}

package hyperliquid

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Meta fetches the perpetuals asset universe.
func (c *Client) Meta(ctx context.Context) (*Meta, error) {
	var out Meta
	if err := c.doRequest(ctx, InfoRequest{Type: "meta"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserState fetches the clearinghouse state for user.
func (c *Client) UserState(ctx context.Context, user string) (*UserState, error) {
	addr, err := normalizeAddress("user", user)
	if err != nil {
		return nil, err
	}
	var out UserState
	if err := c.doRequest(ctx, InfoRequest{Type: "clearinghouseState", User: addr}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenOrders lists resting orders of user.
func (c *Client) OpenOrders(ctx context.Context, user string) ([]OpenOrder, error) {
	addr, err := normalizeAddress("user", user)
	if err != nil {
		return nil, err
	}
	var out []OpenOrder
	if err := c.doRequest(ctx, InfoRequest{Type: "openOrders", User: addr}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllMids maps every coin to its current mid price.
func (c *Client) AllMids(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	if err := c.doRequest(ctx, InfoRequest{Type: "allMids"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserFills lists the most recent fills of user.
func (c *Client) UserFills(ctx context.Context, user string) ([]Fill, error) {
	addr, err := normalizeAddress("user", user)
	if err != nil {
		return nil, err
	}
	var out []Fill
	if err := c.doRequest(ctx, InfoRequest{Type: "userFills", User: addr}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FundingHistory returns funding samples for coin from startTime (ms). A zero
// endTime leaves the range open.
func (c *Client) FundingHistory(ctx context.Context, coin string, startTime, endTime int64) ([]Funding, error) {
	coin = strings.TrimSpace(coin)
	if coin == "" {
		return nil, fmt.Errorf("hyperliquid: empty coin symbol")
	}
	req := InfoRequest{Type: "fundingHistory", Coin: coin, StartTime: &startTime}
	if endTime > 0 {
		req.EndTime = &endTime
	}
	var out []Funding
	if err := c.doRequest(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// L2Snapshot fetches the aggregated order book of coin.
func (c *Client) L2Snapshot(ctx context.Context, coin string) (*L2Book, error) {
	coin = strings.TrimSpace(coin)
	if coin == "" {
		return nil, fmt.Errorf("hyperliquid: empty coin symbol")
	}
	var out L2Book
	if err := c.doRequest(ctx, InfoRequest{Type: "l2Book", Coin: coin}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CandlesSnapshot fetches candles of coin at interval between startTime and endTime (ms).
func (c *Client) CandlesSnapshot(ctx context.Context, coin, interval string, startTime, endTime int64) ([]Candle, error) {
	coin = strings.TrimSpace(coin)
	if coin == "" {
		return nil, fmt.Errorf("hyperliquid: empty coin symbol")
	}
	if interval == "" {
		return nil, fmt.Errorf("hyperliquid: empty candle interval")
	}
	if endTime > 0 && endTime < startTime {
		return nil, fmt.Errorf("hyperliquid: candle range end %d before start %d", endTime, startTime)
	}
	request := InfoRequest{
		Type: "candleSnapshot",
		Req: CandleSnapshotRequest{
			Coin:      coin,
			Interval:  interval,
			StartTime: startTime,
			EndTime:   endTime,
		},
	}
	var out []Candle
	if err := c.doRequest(ctx, request, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VaultDetails retrieves vault details as seen by user.
func (c *Client) VaultDetails(ctx context.Context, user, vaultAddress string) (*VaultDetails, error) {
	vault, err := normalizeAddress("vault", vaultAddress)
	if err != nil {
		return nil, err
	}
	req := InfoRequest{Type: "vaultDetails", VaultAddress: vault}
	if user != "" {
		addr, err := normalizeAddress("user", user)
		if err != nil {
			return nil, err
		}
		req.User = addr
	}
	var out VaultDetails
	if err := c.doRequest(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func normalizeAddress(kind, addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("hyperliquid: invalid %s address %q", kind, addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

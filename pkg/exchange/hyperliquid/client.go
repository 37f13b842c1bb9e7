package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/core/logx"

	"hyperliquid-sdk/pkg/exchange"
	markethl "hyperliquid-sdk/pkg/market/hyperliquid"
)

const (
	exchangePath = "/exchange"

	defaultHTTPTimeout = 30 * time.Second
)

// Client coordinates signed requests against the Hyperliquid exchange endpoint.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	signer        Signer
	vault         string
	nonces        NonceProvider
	meta          MetaSource
	refreshAssets bool

	assetMu sync.RWMutex
	assets  assetDirectory
}

var _ exchange.Trader = (*Client)(nil)

// ClientOption customises the Hyperliquid client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL overrides the API root used for /exchange and, unless a meta
// source is supplied, /info.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithTestnet targets the testnet API root.
func WithTestnet() ClientOption {
	return WithBaseURL(markethl.TestnetURL)
}

// WithVaultAddress signs and submits actions on behalf of a vault. NewClient
// rejects addresses that are not 20-byte hex.
func WithVaultAddress(addr string) ClientOption {
	return func(c *Client) {
		c.vault = strings.TrimSpace(addr)
	}
}

// WithNonceProvider overrides the wall-clock nonce source.
func WithNonceProvider(p NonceProvider) ClientOption {
	return func(c *Client) {
		if p != nil {
			c.nonces = p
		}
	}
}

// WithMetaSource overrides where the asset universe is fetched from.
func WithMetaSource(src MetaSource) ClientOption {
	return func(c *Client) {
		if src != nil {
			c.meta = src
		}
	}
}

// WithAssetRefresh toggles the single universe re-fetch on unknown coins.
func WithAssetRefresh(enabled bool) ClientOption {
	return func(c *Client) {
		c.refreshAssets = enabled
	}
}

// NewClient constructs a trading client, fetching the asset universe once.
func NewClient(ctx context.Context, signer Signer, opts ...ClientOption) (*Client, error) {
	if signer == nil {
		return nil, errors.New("hyperliquid: signer required")
	}
	client := &Client{
		baseURL:       markethl.MainnetURL,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
		signer:        signer,
		refreshAssets: true,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.vault != "" {
		if !common.IsHexAddress(client.vault) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVaultAddress, client.vault)
		}
		client.vault = strings.ToLower(common.HexToAddress(client.vault).Hex())
	}
	if client.nonces == nil {
		client.nonces = NewClockNonce(nil)
	}
	if client.meta == nil {
		client.meta = markethl.NewClient(
			markethl.WithBaseURL(client.baseURL),
			markethl.WithHTTPClient(client.httpClient),
		)
	}
	if err := client.RefreshAssets(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Address returns the signer address.
func (c *Client) Address() string {
	return c.signer.GetAddress()
}

// Order submits a single order.
func (c *Client) Order(ctx context.Context, req exchange.OrderRequest) (*exchange.APIResponse, error) {
	return c.BulkOrdersWithGrouping(ctx, []exchange.OrderRequest{req}, exchange.GroupingNA)
}

// BulkOrders submits orders as independent (grouping "na") orders in one action.
func (c *Client) BulkOrders(ctx context.Context, reqs []exchange.OrderRequest) (*exchange.APIResponse, error) {
	return c.BulkOrdersWithGrouping(ctx, reqs, exchange.GroupingNA)
}

// BulkOrdersWithGrouping submits orders in one action under the given grouping.
func (c *Client) BulkOrdersWithGrouping(ctx context.Context, reqs []exchange.OrderRequest, grouping exchange.Grouping) (*exchange.APIResponse, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("hyperliquid: at least one order required")
	}
	coins := make([]string, len(reqs))
	for i, req := range reqs {
		coins[i] = req.Coin
	}
	assets, err := c.resolveAssets(ctx, coins)
	if err != nil {
		return nil, err
	}
	specs := make([]OrderSpec, len(reqs))
	for i, req := range reqs {
		specs[i] = OrderSpec{
			Asset:      assets[i],
			IsBuy:      req.IsBuy,
			LimitPx:    req.LimitPx,
			Sz:         req.Sz,
			ReduceOnly: req.ReduceOnly,
			OrderType:  req.OrderType,
		}
	}
	action, tuples, groupCode, err := buildOrderAction(specs, grouping)
	if err != nil {
		return nil, err
	}
	nonce := c.nonces.Next()
	sig, err := SignL1Action(c.signer, []string{OrderTupleType, GroupingType}, []any{tuples, groupCode}, c.vault, nonce)
	if err != nil {
		return nil, err
	}
	return c.postAction(ctx, c.envelope(action, nonce, sig))
}

// Cancel cancels a single resting order.
func (c *Client) Cancel(ctx context.Context, coin string, oid uint64) (*exchange.APIResponse, error) {
	return c.BulkCancel(ctx, []exchange.CancelRequest{{Coin: coin, Oid: oid}})
}

// BulkCancel cancels several resting orders in one action.
func (c *Client) BulkCancel(ctx context.Context, reqs []exchange.CancelRequest) (*exchange.APIResponse, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("hyperliquid: at least one cancel required")
	}
	coins := make([]string, len(reqs))
	for i, req := range reqs {
		coins[i] = req.Coin
	}
	assets, err := c.resolveAssets(ctx, coins)
	if err != nil {
		return nil, err
	}
	cancels := make([]CancelWire, len(reqs))
	for i, req := range reqs {
		cancels[i] = CancelWire{Asset: assets[i], Oid: req.Oid}
	}
	action, tuples := buildCancelAction(cancels)
	nonce := c.nonces.Next()
	sig, err := SignL1Action(c.signer, []string{CancelTupleType}, []any{tuples}, c.vault, nonce)
	if err != nil {
		return nil, err
	}
	return c.postAction(ctx, c.envelope(action, nonce, sig))
}

// UsdTransfer sends amount USD to destination. The nonce doubles as the
// signed payload time.
func (c *Client) UsdTransfer(ctx context.Context, destination string, amount float64) (*exchange.APIResponse, error) {
	if !common.IsHexAddress(destination) {
		return nil, fmt.Errorf("hyperliquid: invalid destination address %q", destination)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("hyperliquid: transfer amount must be positive, got %v", amount)
	}
	if _, err := FloatToUsdInt(amount); err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	nonce := c.nonces.Next()
	payload := UsdTransferPayload{
		Destination: destination,
		Amount:      strconv.FormatFloat(amount, 'f', -1, 64),
		Time:        nonce,
	}
	sig, err := SignUsdTransferAction(c.signer, payload)
	if err != nil {
		return nil, err
	}
	return c.postAction(ctx, TransferRequest{
		Action: UsdTransferAction{
			Type:    ActionTypeUsdTransfer,
			Chain:   transferChain,
			Payload: payload,
		},
		Nonce:     nonce,
		Signature: sig,
	})
}

func (c *Client) envelope(action any, nonce uint64, sig Signature) ExchangeRequest {
	req := ExchangeRequest{
		Action:    action,
		Nonce:     nonce,
		Signature: sig,
	}
	if c.vault != "" {
		vault := c.vault
		req.VaultAddress = &vault
	}
	return req
}

// postAction submits a signed envelope once; exchange requests are never retried.
func (c *Client) postAction(ctx context.Context, body any) (*exchange.APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: encode exchange request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+exchangePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: build exchange request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("hyperliquid: read exchange response: %w", readErr)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hyperliquid: exchange http status %d: %s", resp.StatusCode, string(respBody))
	}
	var out exchange.APIResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode exchange response: %w", err)
	}
	if out.Status == "err" {
		logx.WithContext(ctx).Errorf("hyperliquid: exchange rejected action: %s", out.ErrorMessage)
		return &out, fmt.Errorf("%w: %s", ErrActionRejected, out.ErrorMessage)
	}
	return &out, nil
}

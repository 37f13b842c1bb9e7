package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	// MainnetURL is the production API root.
	MainnetURL = "https://api.hyperliquid.xyz"
	// TestnetURL is the testnet API root.
	TestnetURL = "https://api.hyperliquid-testnet.xyz"

	infoPath = "/info"

	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 150 * time.Millisecond
	defaultRetryBackoffMax  = 2 * time.Second
)

// Client wraps access to the Hyperliquid info endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	newBackOff func() backoff.BackOff
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API root; "/info" is appended per request.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithRetryBackOff sets the schedule between retries. newBackOff is called
// once per request.
func WithRetryBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// NewClient constructs a Hyperliquid info client.
func NewClient(opts ...Option) *Client {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	client := &Client{
		baseURL:    MainnetURL,
		httpClient: httpClient,
		maxRetries: defaultMaxRetries,
		newBackOff: defaultRetryBackOff,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = httpClient
	}
	return client
}

func defaultRetryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryBackoffBase
	b.MaxInterval = defaultRetryBackoffMax
	return b
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest posts an InfoRequest and decodes the response into result.
// Transport failures, 429 and 5xx answers are retried up to maxRetries times
// with exponential backoff; other 4xx answers and decode failures are not.
func (c *Client) doRequest(ctx context.Context, req InfoRequest, result interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("hyperliquid: encode request: %w", err)
	}
	b := c.newBackOff()
	for attempt := 0; ; attempt++ {
		err := c.post(ctx, req.Type, payload, result)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		if attempt >= c.maxRetries {
			return err
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		logx.WithContext(ctx).Infof("hyperliquid: info %s attempt=%d failed, retrying in %s: %v", req.Type, attempt+1, wait, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// post performs one round trip. Errors that must not be retried are wrapped
// with backoff.Permanent.
func (c *Client) post(ctx context.Context, reqType string, payload []byte, result interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+infoPath, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("hyperliquid: build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("hyperliquid: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("hyperliquid: http status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(statusErr)
		}
		return statusErr
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return backoff.Permanent(fmt.Errorf("hyperliquid: decode %s response: %w", reqType, err))
	}
	return nil
}

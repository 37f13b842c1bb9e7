package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hyperliquid-sdk/pkg/confkit"
	exchangepkg "hyperliquid-sdk/pkg/exchange"
	markethl "hyperliquid-sdk/pkg/market/hyperliquid"
	"hyperliquid-sdk/pkg/stream"
)

// StreamConf configures the websocket subscription manager.
type StreamConf struct {
	// BaseURL is the HTTP API root; the stream endpoint is derived from it
	// unless URL is set.
	BaseURL          string        `json:",optional"`
	URL              string        `json:",optional"`
	Testnet          bool          `json:",optional"`
	PingInterval     time.Duration `json:",default=50s"`
	HandshakeTimeout time.Duration `json:",default=10s"`
	DialAttempts     int           `json:",default=5"`
	Coins            []string      `json:",optional"`
	User             string        `json:",optional"`
	// ImpactNotional is the quote notional used when logging impact prices.
	ImpactNotional float64 `json:",default=10000"`
}

// APIBase returns the HTTP API root for info queries.
func (s StreamConf) APIBase() string {
	switch {
	case strings.TrimSpace(s.BaseURL) != "":
		return strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	case s.Testnet:
		return markethl.TestnetURL
	default:
		return markethl.MainnetURL
	}
}

// Endpoint returns the websocket URL.
func (s StreamConf) Endpoint() string {
	if u := strings.TrimSpace(s.URL); u != "" {
		return u
	}
	return stream.StreamURL(s.APIBase())
}

// Options translates the section into manager options.
func (s StreamConf) Options() []stream.Option {
	return []stream.Option{
		stream.WithPingInterval(s.PingInterval),
		stream.WithHandshakeTimeout(s.HandshakeTimeout),
		stream.WithDialAttempts(s.DialAttempts),
	}
}

func (s StreamConf) validate() error {
	if s.DialAttempts <= 0 {
		return errors.New("config: stream.dialAttempts must be positive")
	}
	if s.PingInterval < 0 {
		return errors.New("config: stream.pingInterval cannot be negative")
	}
	if s.ImpactNotional <= 0 {
		return errors.New("config: stream.impactNotional must be positive")
	}
	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("config: stream.url %q must be a ws:// or wss:// URL", s.URL)
		}
	}
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: stream.baseUrl %q must be an http(s) URL", s.BaseURL)
		}
	}
	return nil
}

type Config struct {
	Name string `json:",default=hlstream"`
	// Env indicates the running environment: test | dev | prod
	Env string       `json:",default=test"`
	Log logx.LogConf `json:",optional"`

	Stream   StreamConf                          `json:",optional"`
	Exchange confkit.Section[exchangepkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	cfg, err := confkit.LoadFile[Config](absPath, true)
	if err != nil {
		return nil, err
	}
	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if c.Log.ServiceName == "" {
		c.Log.ServiceName = c.Name
	}
	return c.Stream.validate()
}

func (c *Config) hydrateSections() error {
	if err := c.Exchange.Hydrate(c.baseDir, exchangepkg.LoadConfig); err != nil {
		return fmt.Errorf("load exchange config: %w", err)
	}
	return nil
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

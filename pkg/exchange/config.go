package exchange

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config captures configuration for one or more trader instances.
type Config struct {
	Default   string                     `yaml:"default"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig describes how to construct a specific trader instance.
type ProviderConfig struct {
	Type         string `yaml:"type"`
	PrivateKey   string `yaml:"private_key"`
	VaultAddress string `yaml:"vault_address"`
	BaseURL      string `yaml:"base_url"`
	Testnet      bool   `yaml:"testnet"`
	// AssetRefresh controls whether an unknown coin triggers one metadata
	// re-fetch before failing. Nil means enabled.
	AssetRefresh *bool `yaml:"asset_refresh"`
	// InitialEquity seeds paper accounts (type sim).
	InitialEquity float64 `yaml:"initial_equity"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
}

// RefreshAssets reports the effective asset refresh policy.
func (p *ProviderConfig) RefreshAssets() bool {
	if p == nil || p.AssetRefresh == nil {
		return true
	}
	return *p.AssetRefresh
}

// ProviderBuilder constructs a Trader from configuration. Builders may perform
// network calls (metadata fetch) and therefore take a context.
type ProviderBuilder func(ctx context.Context, name string, cfg *ProviderConfig) (Trader, error)

var (
	providerRegistry   = make(map[string]ProviderBuilder)
	providerRegistryMu sync.RWMutex
)

// RegisterProvider associates a builder with a provider type.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()
	builder, ok := providerRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// GetProvider constructs a single trader for the given type using the provided
// configuration, without building a full config map.
func GetProvider(ctx context.Context, typeName string, cfg *ProviderConfig) (Trader, error) {
	if cfg == nil {
		cfg = &ProviderConfig{}
	}
	cfgCopy := *cfg
	cfgCopy.Type = typeName
	if err := cfgCopy.validate("inline"); err != nil {
		return nil, err
	}
	builder, ok := lookupProviderBuilder(cfgCopy.Type)
	if !ok {
		return nil, fmt.Errorf("exchange provider: unsupported type %q", cfgCopy.Type)
	}
	return builder(ctx, "inline", &cfgCopy)
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open exchange config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read exchange config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal exchange config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for name, provider := range c.Providers {
		if provider == nil {
			provider = &ProviderConfig{}
			c.Providers[name] = provider
		}
		provider.expandEnv()
		if err := provider.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.Type = strings.TrimSpace(os.ExpandEnv(p.Type))
	p.PrivateKey = strings.TrimSpace(os.ExpandEnv(p.PrivateKey))
	p.VaultAddress = strings.TrimSpace(os.ExpandEnv(p.VaultAddress))
	p.BaseURL = strings.TrimRight(strings.TrimSpace(os.ExpandEnv(p.BaseURL)), "/")
	p.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.TimeoutRaw))
}

func (p *ProviderConfig) parseDurations(name string) error {
	if p.TimeoutRaw == "" {
		p.Timeout = 0
		return nil
	}
	d, err := time.ParseDuration(p.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("exchange provider %s: invalid timeout %q: %w", name, p.TimeoutRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("exchange provider %s: timeout must be positive, got %s", name, d)
	}
	p.Timeout = d
	return nil
}

// Validate ensures all providers have sane configuration.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("exchange config: providers cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Providers[c.Default]; !ok {
			return fmt.Errorf("exchange config: default provider %q not defined", c.Default)
		}
	}

	for name, provider := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("exchange config: provider name cannot be empty")
		}
		if err := provider.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("exchange config: provider %s is nil", name)
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("exchange config: provider %s must specify type", name)
	}

	if _, ok := lookupProviderBuilder(p.Type); !ok {
		return fmt.Errorf("exchange config: provider %s has unsupported type %q", name, p.Type)
	}

	if strings.ToLower(p.Type) == "hyperliquid" && p.PrivateKey == "" {
		return fmt.Errorf("exchange config: provider %s requires private_key", name)
	}
	if p.VaultAddress != "" && !common.IsHexAddress(p.VaultAddress) {
		return fmt.Errorf("exchange config: provider %s has invalid vault_address %q", name, p.VaultAddress)
	}
	if p.BaseURL != "" {
		u, err := url.Parse(p.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("exchange config: provider %s has invalid base_url %q", name, p.BaseURL)
		}
	}
	return nil
}

// DefaultProvider returns the configured default provider, or the only one
// when no default is set.
func (c *Config) DefaultProvider() (string, *ProviderConfig, error) {
	if c == nil || len(c.Providers) == 0 {
		return "", nil, fmt.Errorf("exchange config: no providers configured")
	}
	if c.Default != "" {
		return c.Default, c.Providers[c.Default], nil
	}
	if len(c.Providers) == 1 {
		for name, p := range c.Providers {
			return name, p, nil
		}
	}
	return "", nil, fmt.Errorf("exchange config: default provider required when %d providers are configured", len(c.Providers))
}

// BuildProviders instantiates traders according to the configuration.
func (c *Config) BuildProviders(ctx context.Context) (map[string]Trader, error) {
	result := make(map[string]Trader, len(c.Providers))
	for name, providerCfg := range c.Providers {
		builder, ok := lookupProviderBuilder(providerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("exchange provider %s: unsupported type %q", name, providerCfg.Type)
		}
		provider, err := builder(ctx, name, providerCfg)
		if err != nil {
			return nil, fmt.Errorf("exchange provider %s: %w", name, err)
		}
		result[name] = provider
	}
	return result, nil
}

package hyperliquid

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	markethl "hyperliquid-sdk/pkg/market/hyperliquid"
)

// MetaSource supplies the asset universe. *markethl.Client satisfies it.
type MetaSource interface {
	Meta(ctx context.Context) (*markethl.Meta, error)
}

// assetDirectory maps canonical (trimmed, upper-cased) coin keys to universe
// indexes of one snapshot.
type assetDirectory map[string]uint32

func newAssetDirectory(meta *markethl.Meta) (assetDirectory, error) {
	if meta == nil || len(meta.Universe) == 0 {
		return nil, fmt.Errorf("hyperliquid: meta response contained no assets")
	}
	dir := make(assetDirectory, len(meta.Universe))
	for idx, entry := range meta.Universe {
		key := canonicalAssetKey(entry.Name)
		if key == "" {
			continue
		}
		// First listing wins.
		if _, exists := dir[key]; exists {
			continue
		}
		dir[key] = uint32(idx)
	}
	return dir, nil
}

// resolve maps every coin, returning the first coin not listed.
func (d assetDirectory) resolve(coins []string) ([]uint32, string, bool) {
	out := make([]uint32, len(coins))
	for i, coin := range coins {
		idx, ok := d[canonicalAssetKey(coin)]
		if !ok {
			return nil, coin, false
		}
		out[i] = idx
	}
	return out, "", true
}

// AssetIndex resolves the exchange asset index for the given coin. Coin names
// are matched case-insensitively after trimming spaces, so "btc" and "BTC"
// name the same asset; when two listings differ only by case the earlier one
// wins. Order and cancel requests resolve coins the same way.
func (c *Client) AssetIndex(ctx context.Context, coin string) (int, error) {
	if canonicalAssetKey(coin) == "" {
		return 0, fmt.Errorf("hyperliquid: empty coin symbol")
	}
	idx, err := c.resolveAssets(ctx, []string{coin})
	if err != nil {
		return 0, err
	}
	return int(idx[0]), nil
}

// RefreshAssets re-fetches the universe and replaces the asset directory.
func (c *Client) RefreshAssets(ctx context.Context) error {
	meta, err := c.meta.Meta(ctx)
	if err != nil {
		return fmt.Errorf("hyperliquid: fetch meta: %w", err)
	}
	dir, err := newAssetDirectory(meta)
	if err != nil {
		return err
	}
	c.assetMu.Lock()
	c.assets = dir
	c.assetMu.Unlock()
	return nil
}

// resolveAssets resolves a whole batch against a single directory snapshot.
// On a miss the directory is refreshed once, when enabled, and the batch is
// resolved again against the new snapshot.
func (c *Client) resolveAssets(ctx context.Context, coins []string) ([]uint32, error) {
	idx, missing, ok := c.snapshot().resolve(coins)
	if ok {
		return idx, nil
	}
	if !c.refreshAssets {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCoin, missing)
	}
	logx.WithContext(ctx).Infof("hyperliquid: coin %s not in asset directory, refreshing meta", missing)
	if err := c.RefreshAssets(ctx); err != nil {
		return nil, err
	}
	idx, missing, ok = c.snapshot().resolve(coins)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCoin, missing)
	}
	return idx, nil
}

func (c *Client) snapshot() assetDirectory {
	c.assetMu.RLock()
	defer c.assetMu.RUnlock()
	return c.assets
}

func canonicalAssetKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

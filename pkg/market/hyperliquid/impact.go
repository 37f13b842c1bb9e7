package hyperliquid

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInsufficientLiquidity indicates the book cannot absorb the requested notional.
var ErrInsufficientLiquidity = errors.New("hyperliquid: insufficient book liquidity")

// Side is the direction of a hypothetical taker order.
type Side string

const (
	// SideLong buys and therefore walks the asks.
	SideLong Side = "long"
	// SideShort sells and therefore walks the bids.
	SideShort Side = "short"
)

// ComputeImpactPrice walks the side of book a taker of the given direction
// would consume and returns the price of the level at which the accumulated
// quote notional first exceeds notional.
func ComputeImpactPrice(book L2Book, side Side, notional decimal.Decimal) (decimal.Decimal, error) {
	var levels []Level
	switch side {
	case SideLong:
		levels = book.Asks()
	case SideShort:
		levels = book.Bids()
	default:
		return decimal.Zero, fmt.Errorf("hyperliquid: unknown side %q", side)
	}

	filled := decimal.Zero
	for i, level := range levels {
		px, err := decimal.NewFromString(level.Px)
		if err != nil {
			return decimal.Zero, fmt.Errorf("hyperliquid: level %d px %q: %w", i, level.Px, err)
		}
		sz, err := decimal.NewFromString(level.Sz)
		if err != nil {
			return decimal.Zero, fmt.Errorf("hyperliquid: level %d sz %q: %w", i, level.Sz, err)
		}
		levelNotional := px.Mul(sz)
		if filled.Add(levelNotional).GreaterThan(notional) {
			return px, nil
		}
		filled = filled.Add(levelNotional)
	}
	return decimal.Zero, fmt.Errorf("%w: %s %s of %s available on %s", ErrInsufficientLiquidity, side, notional, filled, book.Coin)
}

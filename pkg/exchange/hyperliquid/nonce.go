package hyperliquid

import (
	"sync/atomic"
	"time"
)

// NonceProvider supplies the nonce attached to each signed action.
type NonceProvider interface {
	Next() uint64
}

// ClockNonce issues wall-clock millisecond nonces. Two calls in the same
// millisecond yield strictly increasing values.
type ClockNonce struct {
	now  func() time.Time
	last atomic.Uint64
}

// NewClockNonce constructs a ClockNonce over now, or time.Now when nil.
func NewClockNonce(now func() time.Time) *ClockNonce {
	if now == nil {
		now = time.Now
	}
	return &ClockNonce{now: now}
}

// Next returns max(now in ms, last+1).
func (n *ClockNonce) Next() uint64 {
	for {
		last := n.last.Load()
		next := uint64(n.now().UnixMilli())
		if next <= last {
			next = last + 1
		}
		if n.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// FixedNonce always returns the same value.
type FixedNonce uint64

// Next returns the fixed nonce.
func (n FixedNonce) Next() uint64 { return uint64(n) }

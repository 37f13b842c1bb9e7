package hyperliquid

import "errors"

var (
	// ErrPrecisionLoss indicates a float cannot be represented exactly at the required precision.
	ErrPrecisionLoss = errors.New("hyperliquid: precision loss")
	// ErrOutOfRange indicates a value that has no fixed-point encoding: negative,
	// non-finite or too large.
	ErrOutOfRange = errors.New("hyperliquid: value out of range")
	// ErrInvalidVaultAddress indicates a vault address that is not a 20-byte hex address.
	ErrInvalidVaultAddress = errors.New("hyperliquid: invalid vault address")
	// ErrInvalidOrderType indicates an order type outside the supported limit/trigger variants.
	ErrInvalidOrderType = errors.New("hyperliquid: invalid order type")
	// ErrInvalidGrouping indicates an unknown order grouping.
	ErrInvalidGrouping = errors.New("hyperliquid: invalid grouping")
	// ErrUnknownCoin indicates the coin is absent from the asset universe.
	ErrUnknownCoin = errors.New("hyperliquid: unknown coin")
	// ErrBadSignature indicates a malformed raw signature.
	ErrBadSignature = errors.New("hyperliquid: bad signature")
	// ErrActionRejected indicates the exchange answered with status "err".
	ErrActionRejected = errors.New("hyperliquid: action rejected")
)

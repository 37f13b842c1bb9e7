package hyperliquid

import (
	"fmt"
	"math"
	"strconv"
)

const (
	hashingDecimals = 8
	usdDecimals     = 6

	// intTolerance is the maximum rounding error, in scaled units, accepted by FloatToInt.
	intTolerance = 1e-4
	// wireTolerance is the maximum round-trip error accepted by FloatToWire.
	wireTolerance = 1e-12
)

// FloatToInt scales x by 10^power and returns the nearest integer. It fails with
// ErrPrecisionLoss when the value carries more precision than power decimals
// and with ErrOutOfRange when x is negative, non-finite or overflows uint64.
func FloatToInt(x float64, power int) (uint64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrOutOfRange, x)
	}
	scaled := x * math.Pow10(power)
	rounded := math.Round(scaled)
	if rounded < 0 || rounded >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: %v at %d decimals", ErrOutOfRange, x, power)
	}
	if math.Abs(rounded-scaled) >= intTolerance {
		return 0, fmt.Errorf("%w: %v at %d decimals", ErrPrecisionLoss, x, power)
	}
	return uint64(rounded), nil
}

// FloatToIntForHashing converts prices and sizes to the 8-decimal fixed point
// used in action hashes.
func FloatToIntForHashing(x float64) (uint64, error) {
	return FloatToInt(x, hashingDecimals)
}

// FloatToUsdInt converts USD amounts to 6-decimal fixed point.
func FloatToUsdInt(x float64) (uint64, error) {
	return FloatToInt(x, usdDecimals)
}

// FloatToWire renders x with exactly 8 fractional digits and verifies the text
// parses back to x.
func FloatToWire(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", fmt.Errorf("%w: %v is not finite", ErrPrecisionLoss, x)
	}
	rounded := strconv.FormatFloat(x, 'f', hashingDecimals, 64)
	parsed, err := strconv.ParseFloat(rounded, 64)
	if err != nil {
		return "", fmt.Errorf("hyperliquid: parse wire float %q: %w", rounded, err)
	}
	if math.Abs(parsed-x) >= wireTolerance {
		return "", fmt.Errorf("%w: %v rounds to %s", ErrPrecisionLoss, x, rounded)
	}
	if rounded == "-0.00000000" {
		rounded = "0.00000000"
	}
	return rounded, nil
}

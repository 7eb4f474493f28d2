/*
This file contains conversions between fixed-point decimals and float64.

Floats are only used for reporting (metrics, statistics). Invariant math never goes through them.
*/

package fixedpoint

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// ToFloat64 converts a decimal to float64 for reporting.
func ToFloat64(d sdkmath.LegacyDec) (float64, error) {
	if d.IsNil() {
		return 0, ErrNilValue
	}

	f, err := d.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, f)
	}
	return f, nil
}

// MustFloat64 converts for logging; invalid values become 0.
func MustFloat64(d sdkmath.LegacyDec) float64 {
	f, err := ToFloat64(d)
	if err != nil {
		return 0
	}
	return f
}

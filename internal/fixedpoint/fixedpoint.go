/*
This file contains the checked fixed-point arithmetic used by the invariant math.

All values are cosmossdk.io/math LegacyDec (18 decimal places). The library panics on
overflow and on division by zero; Checked turns those panics into errors so that no
arithmetic fault is ever silent. Mul and Quo truncate toward zero.
*/

package fixedpoint

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance arithmetic
var (
	ErrOverflow       = errors.New("fixed-point overflow")
	ErrDivisionByZero = errors.New("fixed-point division by zero")
	ErrNegative       = errors.New("fixed-point result is negative")
	ErrNilValue       = errors.New("fixed-point value is nil")
	ErrOutOfRange     = errors.New("fixed-point value out of range")
)

// Epsilon is the convergence tolerance of the invariant solvers (1e-8).
var Epsilon = sdkmath.LegacyNewDecWithPrec(1, 8)

// Checked evaluates fn and converts arithmetic panics raised by LegacyDec into errors.
// Panics that are not arithmetic faults are re-raised.
func Checked(fn func() sdkmath.LegacyDec) (result sdkmath.LegacyDec, err error) {
	defer func() {
		if r := recover(); r != nil {
			classified := classifyPanic(r)
			if classified == nil {
				panic(r)
			}
			result = sdkmath.LegacyDec{}
			err = classified
		}
	}()
	return fn(), nil
}

func classifyPanic(r any) error {
	var msg string
	switch v := r.(type) {
	case string:
		msg = v
	case error:
		msg = v.Error()
	default:
		return nil
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "division by zero"), strings.Contains(lower, "divide by zero"):
		return fmt.Errorf("%w: %s", ErrDivisionByZero, msg)
	case strings.Contains(lower, "overflow"), strings.Contains(lower, "out of range"):
		return fmt.Errorf("%w: %s", ErrOverflow, msg)
	}
	return nil
}

func requireSet(values ...sdkmath.LegacyDec) error {
	for _, v := range values {
		if v.IsNil() {
			return ErrNilValue
		}
	}
	return nil
}

// Add returns a + b.
func Add(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := requireSet(a, b); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return Checked(func() sdkmath.LegacyDec { return a.Add(b) })
}

// Sub returns a - b and fails when the result would be negative.
func Sub(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := requireSet(a, b); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if a.LT(b) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s - %s", ErrNegative, a, b)
	}
	return Checked(func() sdkmath.LegacyDec { return a.Sub(b) })
}

// Mul returns a * b truncated to 18 decimals.
func Mul(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := requireSet(a, b); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return Checked(func() sdkmath.LegacyDec { return a.MulTruncate(b) })
}

// MulInt returns a * n.
func MulInt(a sdkmath.LegacyDec, n int64) (sdkmath.LegacyDec, error) {
	if err := requireSet(a); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return Checked(func() sdkmath.LegacyDec { return a.MulInt64(n) })
}

// Quo returns a / b truncated toward zero.
func Quo(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := requireSet(a, b); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if b.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, a)
	}
	return Checked(func() sdkmath.LegacyDec { return a.QuoTruncate(b) })
}

// MulQuo returns a * b / c, truncating once at the end.
func MulQuo(a, b, c sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := requireSet(a, b, c); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if c.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: (%s * %s) / 0", ErrDivisionByZero, a, b)
	}
	return Checked(func() sdkmath.LegacyDec { return a.Mul(b).QuoTruncate(c) })
}

// Sum adds all values.
func Sum(values []sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := requireSet(values...); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return Checked(func() sdkmath.LegacyDec {
		total := sdkmath.LegacyZeroDec()
		for _, v := range values {
			total = total.Add(v)
		}
		return total
	})
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b sdkmath.LegacyDec) sdkmath.LegacyDec {
	if a.GTE(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

// WithinEpsilon reports whether |a - b| <= Epsilon.
func WithinEpsilon(a, b sdkmath.LegacyDec) bool {
	return AbsDiff(a, b).LTE(Epsilon)
}

// FromPercent converts a percentage in [0, 100] to a fraction in [0, 1].
func FromPercent(percent sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if percent.IsNil() {
		return sdkmath.LegacyDec{}, ErrNilValue
	}
	if percent.IsNegative() || percent.GT(sdkmath.LegacyNewDec(100)) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s%% (must be between 0 and 100)", ErrOutOfRange, percent)
	}
	return percent.QuoInt64(100), nil
}

// IsFraction reports whether d lies in [0, 1].
func IsFraction(d sdkmath.LegacyDec) bool {
	return !d.IsNil() && !d.IsNegative() && d.LTE(sdkmath.LegacyOneDec())
}

// Clone returns an independent copy of values.
func Clone(values []sdkmath.LegacyDec) []sdkmath.LegacyDec {
	out := make([]sdkmath.LegacyDec, len(values))
	for i, v := range values {
		out[i] = v.Clone()
	}
	return out
}

/*
This file contains the StableSwap invariant solvers.

Both solvers are pure: they only read their arguments and never suspend. Every
intermediate step runs through fixedpoint so overflow or division by zero
surfaces as an error instead of a silently wrong result.

Invariant:

	A·nⁿ·Σxᵢ + D = A·D·nⁿ + Dⁿ⁺¹ / (nⁿ·Πxᵢ)
*/

package solver

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/fixedpoint"
)

// MaxIterations caps both Newton loops.
const MaxIterations = 255

var (
	// ErrNoConvergence is returned when a Newton loop exhausts MaxIterations
	// or its denominator stops being positive.
	ErrNoConvergence = errors.New("solver did not converge")
	// ErrInvalidIndex is returned for i == j or an index outside the balances.
	ErrInvalidIndex = errors.New("invalid asset index")
	// ErrInvalidInput is returned for nil, negative or otherwise unusable inputs.
	ErrInvalidInput = errors.New("invalid solver input")
)

// GetAnn returns A·nⁿ.
func GetAnn(a sdkmath.LegacyDec, n int) (sdkmath.LegacyDec, error) {
	if a.IsNil() || !a.IsPositive() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: amplification coefficient must be positive", ErrInvalidInput)
	}
	if n < 1 {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: asset count %d", ErrInvalidInput, n)
	}

	ann := a
	for k := 0; k < n; k++ {
		next, err := fixedpoint.MulInt(ann, int64(n))
		if err != nil {
			return sdkmath.LegacyDec{}, err
		}
		ann = next
	}
	return ann, nil
}

// GetD solves the invariant for D by Newton iteration.
// An all-zero (or empty) balance set yields D = 0.
func GetD(balances []sdkmath.LegacyDec, ann sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := validateBalances(balances); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if ann.IsNil() || !ann.IsPositive() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: ann must be positive", ErrInvalidInput)
	}

	sum, err := fixedpoint.Sum(balances)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if sum.IsZero() {
		return sdkmath.LegacyZeroDec(), nil
	}

	n := int64(len(balances))
	d := sum
	for iter := 0; iter < MaxIterations; iter++ {
		prev := d
		next, err := fixedpoint.Checked(func() sdkmath.LegacyDec {
			dp := d
			for _, x := range balances {
				dp = dp.MulTruncate(d).QuoTruncate(x.MulInt64(n))
			}
			numerator := ann.MulTruncate(sum).Add(dp.MulInt64(n)).MulTruncate(d)
			denominator := ann.Sub(sdkmath.LegacyOneDec()).MulTruncate(d).Add(dp.MulInt64(n + 1))
			return numerator.QuoTruncate(denominator)
		})
		if err != nil {
			return sdkmath.LegacyDec{}, err
		}
		d = next
		if fixedpoint.WithinEpsilon(d, prev) {
			return d, nil
		}
	}
	return sdkmath.LegacyDec{}, fmt.Errorf("%w: D after %d iterations", ErrNoConvergence, MaxIterations)
}

// GetY returns the balance of asset j that keeps D unchanged when the balance
// of asset i becomes x.
func GetY(i, j int, x sdkmath.LegacyDec, balances []sdkmath.LegacyDec, ann sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	n := len(balances)
	if i == j || i < 0 || j < 0 || i >= n || j >= n {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: i=%d j=%d n=%d", ErrInvalidIndex, i, j, n)
	}
	if x.IsNil() || x.IsNegative() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: x must be non-negative", ErrInvalidInput)
	}

	d, err := GetD(balances, ann)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	nn := int64(n)
	c, b, err := quadraticTerms(i, j, x, balances, d, ann, nn)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	y := d
	for iter := 0; iter < MaxIterations; iter++ {
		prev := y
		// 2y + b - D
		denominator, err := fixedpoint.Checked(func() sdkmath.LegacyDec {
			return y.MulInt64(2).Add(b).Sub(d)
		})
		if err != nil {
			return sdkmath.LegacyDec{}, err
		}
		if !denominator.IsPositive() {
			return sdkmath.LegacyDec{}, fmt.Errorf("%w: non-positive denominator for y", ErrNoConvergence)
		}
		next, err := fixedpoint.Checked(func() sdkmath.LegacyDec {
			return y.MulTruncate(y).Add(c).QuoTruncate(denominator)
		})
		if err != nil {
			return sdkmath.LegacyDec{}, err
		}
		y = next
		if fixedpoint.WithinEpsilon(y, prev) {
			return y, nil
		}
	}
	return sdkmath.LegacyDec{}, fmt.Errorf("%w: y after %d iterations", ErrNoConvergence, MaxIterations)
}

// quadraticTerms folds every balance except j into
// c = Dⁿ⁺¹ / (nⁿ·Π'x·ann) and b = Σ'x + D/ann.
func quadraticTerms(i, j int, x sdkmath.LegacyDec, balances []sdkmath.LegacyDec, d, ann sdkmath.LegacyDec, n int64) (c, b sdkmath.LegacyDec, err error) {
	c = d
	sum := sdkmath.LegacyZeroDec()
	for k, balance := range balances {
		if k == j {
			continue
		}
		xk := balance
		if k == i {
			xk = x
		}
		if !xk.IsPositive() {
			return c, b, fmt.Errorf("%w: balance %d is zero", fixedpoint.ErrDivisionByZero, k)
		}
		sum = sum.Add(xk)
		c, err = fixedpoint.Checked(func() sdkmath.LegacyDec {
			return c.MulTruncate(d).QuoTruncate(xk.MulInt64(n))
		})
		if err != nil {
			return c, b, err
		}
	}

	c, err = fixedpoint.Checked(func() sdkmath.LegacyDec {
		return c.MulTruncate(d).QuoTruncate(ann.MulInt64(n))
	})
	if err != nil {
		return c, b, err
	}
	b, err = fixedpoint.Checked(func() sdkmath.LegacyDec {
		return sum.Add(d.QuoTruncate(ann))
	})
	return c, b, err
}

func validateBalances(balances []sdkmath.LegacyDec) error {
	for k, balance := range balances {
		if balance.IsNil() || balance.IsNegative() {
			return fmt.Errorf("%w: balance %d must be non-negative", ErrInvalidInput, k)
		}
	}
	return nil
}

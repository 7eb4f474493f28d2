package solver

import (
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/curveamm/internal/fixedpoint"
)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

func decs(values ...string) []sdkmath.LegacyDec {
	out := make([]sdkmath.LegacyDec, len(values))
	for i, v := range values {
		out[i] = dec(v)
	}
	return out
}

func mustAnn(t *testing.T, a string, n int) sdkmath.LegacyDec {
	t.Helper()
	ann, err := GetAnn(dec(a), n)
	require.NoError(t, err)
	return ann
}

func TestGetAnn(t *testing.T) {
	testCases := []struct {
		name        string
		a           sdkmath.LegacyDec
		n           int
		expected    string
		expectedErr error
	}{
		{name: "two assets", a: dec("5"), n: 2, expected: "20"},
		{name: "three assets", a: dec("100"), n: 3, expected: "2700"},
		{name: "fractional A", a: dec("0.5"), n: 2, expected: "2"},
		{name: "zero A", a: sdkmath.LegacyZeroDec(), n: 2, expectedErr: ErrInvalidInput},
		{name: "no assets", a: dec("5"), n: 0, expectedErr: ErrInvalidInput},
		{name: "overflow", a: dec("1" + strings.Repeat("0", 75)), n: 8, expectedErr: fixedpoint.ErrOverflow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ann, err := GetAnn(tc.a, tc.n)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tc.expected).Equal(ann), "expected %s, got %s", tc.expected, ann)
		})
	}
}

func TestGetD(t *testing.T) {
	testCases := []struct {
		name        string
		balances    []sdkmath.LegacyDec
		ann         sdkmath.LegacyDec
		expected    float64
		expectedErr error
	}{
		{name: "empty", balances: nil, ann: dec("20"), expected: 0},
		{name: "all zero", balances: decs("0", "0"), ann: dec("20"), expected: 0},
		{name: "balanced", balances: decs("10000", "10000"), ann: dec("20"), expected: 20000},
		{name: "imbalanced", balances: decs("10000", "30000"), ann: dec("20"), expected: 39418.82844389162},
		{name: "three assets", balances: decs("1000", "2000", "3000"), ann: dec("2700"), expected: 5999.260445927822},
		{name: "zero among non-zero", balances: decs("0", "100"), ann: dec("20"), expectedErr: fixedpoint.ErrDivisionByZero},
		{name: "negative balance", balances: decs("-1", "100"), ann: dec("20"), expectedErr: ErrInvalidInput},
		{name: "non-positive ann", balances: decs("1", "1"), ann: sdkmath.LegacyZeroDec(), expectedErr: ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := GetD(tc.balances, tc.ann)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, fixedpoint.MustFloat64(d), 1e-6)
		})
	}
}

// invariantResidual returns |lhs - rhs| / lhs of the StableSwap equation.
func invariantResidual(t *testing.T, balances []sdkmath.LegacyDec, ann, d sdkmath.LegacyDec) float64 {
	t.Helper()
	n := int64(len(balances))
	sum, err := fixedpoint.Sum(balances)
	require.NoError(t, err)

	lhs := ann.Mul(sum).Add(d)
	dp := d
	for _, x := range balances {
		dp = dp.Mul(d).Quo(x.MulInt64(n))
	}
	rhs := ann.Mul(d).Add(dp)

	diff := fixedpoint.MustFloat64(fixedpoint.AbsDiff(lhs, rhs))
	return diff / fixedpoint.MustFloat64(lhs)
}

func TestGetDSatisfiesInvariant(t *testing.T) {
	balances := decs("12345.678", "98765.4321", "500")
	ann := mustAnn(t, "50", 3)

	d, err := GetD(balances, ann)
	require.NoError(t, err)
	assert.Less(t, invariantResidual(t, balances, ann, d), 1e-9)
}

func TestGetY(t *testing.T) {
	ann := mustAnn(t, "5", 2)
	balances := decs("20000", "20000")

	t.Run("fixture exchange", func(t *testing.T) {
		y, err := GetY(0, 1, dec("20100"), balances, ann)
		require.NoError(t, err)
		dy := balances[1].Sub(y)
		assert.InDelta(t, 99.95456515843388, fixedpoint.MustFloat64(dy), 1e-6)
	})

	t.Run("unchanged x keeps y", func(t *testing.T) {
		y, err := GetY(1, 0, balances[1], balances, ann)
		require.NoError(t, err)
		assert.InDelta(t, 20000, fixedpoint.MustFloat64(y), 1e-6)
	})

	t.Run("new y keeps D", func(t *testing.T) {
		y, err := GetY(0, 1, dec("25000"), balances, ann)
		require.NoError(t, err)

		d0, err := GetD(balances, ann)
		require.NoError(t, err)
		d1, err := GetD([]sdkmath.LegacyDec{dec("25000"), y}, ann)
		require.NoError(t, err)
		assert.InDelta(t, fixedpoint.MustFloat64(d0), fixedpoint.MustFloat64(d1), 1e-6)
	})

	invalid := []struct {
		name string
		i, j int
	}{
		{"same index", 0, 0},
		{"i out of range", 2, 0},
		{"j out of range", 0, 2},
		{"negative index", -1, 1},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GetY(tc.i, tc.j, dec("1"), balances, ann)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidIndex)
		})
	}

	t.Run("zero x", func(t *testing.T) {
		_, err := GetY(0, 1, sdkmath.LegacyZeroDec(), balances, ann)
		assert.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)
	})
}

func TestExchangeOutputShrinksWithAmplification(t *testing.T) {
	balances := decs("20000", "20000")
	dx := dec("1000")

	expected := map[string]float64{
		"100":  999.7506888688029,
		"10":   997.6193309982924,
		"1":    983.5889257643825,
		"0.1":  959.9974406961857,
		"0.01": 953.2709872243252,
	}

	previous := balances[1]
	for _, a := range []string{"100", "10", "1", "0.1", "0.01"} {
		ann := mustAnn(t, a, 2)
		y, err := GetY(0, 1, balances[0].Add(dx), balances, ann)
		require.NoError(t, err)
		dy := balances[1].Sub(y)

		assert.InDelta(t, expected[a], fixedpoint.MustFloat64(dy), 1e-6, "A=%s", a)
		assert.True(t, dy.LT(previous), "dy must strictly decrease as A decreases (A=%s)", a)
		previous = dy
	}

	// constant product bound: 20000 - 20000*20000/21000
	assert.Greater(t, fixedpoint.MustFloat64(previous), 952.38)
}

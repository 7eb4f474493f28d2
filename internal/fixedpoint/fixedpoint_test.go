package fixedpoint

import (
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

func hugeDec() sdkmath.LegacyDec {
	return dec("1" + strings.Repeat("0", 70))
}

func TestCheckedConvertsOverflow(t *testing.T) {
	huge := hugeDec()
	_, err := Checked(func() sdkmath.LegacyDec { return huge.Mul(huge) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCheckedConvertsDivisionByZero(t *testing.T) {
	_, err := Checked(func() sdkmath.LegacyDec { return sdkmath.LegacyOneDec().Quo(sdkmath.LegacyZeroDec()) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestCheckedRepanicsOnForeignPanic(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Checked(func() sdkmath.LegacyDec { panic(struct{}{}) })
	})
}

func TestArithmetic(t *testing.T) {
	testCases := []struct {
		name        string
		fn          func() (sdkmath.LegacyDec, error)
		expected    string
		expectedErr error
	}{
		{"add", func() (sdkmath.LegacyDec, error) { return Add(dec("1.5"), dec("2.25")) }, "3.75", nil},
		{"sub", func() (sdkmath.LegacyDec, error) { return Sub(dec("3"), dec("1.25")) }, "1.75", nil},
		{"sub negative", func() (sdkmath.LegacyDec, error) { return Sub(dec("1"), dec("2")) }, "", ErrNegative},
		{"mul truncates", func() (sdkmath.LegacyDec, error) { return Mul(dec("0.000000000000000001"), dec("0.5")) }, "0", nil},
		{"quo truncates", func() (sdkmath.LegacyDec, error) { return Quo(dec("2"), dec("3")) }, "0.666666666666666666", nil},
		{"quo by zero", func() (sdkmath.LegacyDec, error) { return Quo(dec("2"), sdkmath.LegacyZeroDec()) }, "", ErrDivisionByZero},
		{"mul quo", func() (sdkmath.LegacyDec, error) { return MulQuo(dec("10"), dec("3"), dec("4")) }, "7.5", nil},
		{"mul quo by zero", func() (sdkmath.LegacyDec, error) { return MulQuo(dec("10"), dec("3"), sdkmath.LegacyZeroDec()) }, "", ErrDivisionByZero},
		{"mul int", func() (sdkmath.LegacyDec, error) { return MulInt(dec("1.5"), 4) }, "6", nil},
		{"nil operand", func() (sdkmath.LegacyDec, error) { return Add(sdkmath.LegacyDec{}, dec("1")) }, "", ErrNilValue},
		{"mul overflow", func() (sdkmath.LegacyDec, error) { return Mul(hugeDec(), hugeDec()) }, "", ErrOverflow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn()
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tc.expected).Equal(got), "expected %s, got %s", tc.expected, got)
		})
	}
}

func TestSum(t *testing.T) {
	total, err := Sum([]sdkmath.LegacyDec{dec("1"), dec("2.5"), dec("0.5")})
	require.NoError(t, err)
	assert.True(t, dec("4").Equal(total))

	empty, err := Sum(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestFromPercent(t *testing.T) {
	fraction, err := FromPercent(dec("5"))
	require.NoError(t, err)
	assert.True(t, dec("0.05").Equal(fraction))

	_, err = FromPercent(dec("100.01"))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = FromPercent(dec("-1"))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestAbsDiffAndEpsilon(t *testing.T) {
	assert.True(t, dec("2").Equal(AbsDiff(dec("1"), dec("3"))))
	assert.True(t, WithinEpsilon(dec("1"), dec("1.00000001")))
	assert.False(t, WithinEpsilon(dec("1"), dec("1.00000002")))
}

func TestIsFraction(t *testing.T) {
	assert.True(t, IsFraction(dec("0")))
	assert.True(t, IsFraction(dec("1")))
	assert.False(t, IsFraction(dec("1.0001")))
	assert.False(t, IsFraction(sdkmath.LegacyDec{}))
}

func TestFloatConversion(t *testing.T) {
	f, err := ToFloat64(dec("94.956837"))
	require.NoError(t, err)
	assert.InDelta(t, 94.956837, f, 1e-9)

	_, err = ToFloat64(sdkmath.LegacyDec{})
	assert.ErrorIs(t, err, ErrNilValue)

	assert.InDelta(t, 1.25, MustFloat64(dec("1.25")), 1e-12)
	assert.Zero(t, MustFloat64(sdkmath.LegacyDec{}))
}

package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/curveamm/internal/solver"
	"github.com/elys-network/curveamm/internal/types"
)

func fixturePool() types.PoolInfo {
	return types.PoolInfo{
		Owner:                    owner,
		LPAsset:                  lpAsset,
		Assets:                   []types.ActorID{assetX, assetY},
		AmplificationCoefficient: dec(5),
		Fee:                      sdkmath.LegacyNewDecWithPrec(5, 2),
		AdminFee:                 sdkmath.LegacyNewDecWithPrec(5, 1),
	}
}

func TestCalcMintAmountFirstDepositMintsD(t *testing.T) {
	pool := fixturePool()
	result, err := CalcMintAmount(pool, decs(0, 0), sdkmath.LegacyZeroDec(), decs(10_000, 30_000))
	require.NoError(t, err)

	ann, err := solver.GetAnn(pool.AmplificationCoefficient, pool.N())
	require.NoError(t, err)
	d, err := solver.GetD(decs(10_000, 30_000), ann)
	require.NoError(t, err)

	assert.True(t, result.MintAmount.Equal(d))
	assert.True(t, result.D0.IsZero())
	for _, fee := range result.Fees {
		assert.True(t, fee.IsZero(), "first deposit is fee free")
	}
}

func TestCalcMintAmountErrors(t *testing.T) {
	pool := fixturePool()

	_, err := CalcMintAmount(pool, decs(0, 0), dec(0), decs(1, 0))
	assert.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = CalcMintAmount(pool, decs(0), dec(0), decs(1, 1))
	assert.ErrorIs(t, err, types.ErrAssetCountMismatch)

	// supply without backing assets
	_, err = CalcMintAmount(pool, decs(0, 0), dec(100), decs(1, 1))
	assert.ErrorIs(t, err, types.ErrEmptyPool)

	// one side drained: D cannot be solved
	_, err = CalcMintAmount(pool, decs(0, 100), dec(100), decs(1, 1))
	assert.ErrorIs(t, err, types.ErrSolver)
}

func TestCalcWithdrawAmounts(t *testing.T) {
	payouts, err := CalcWithdrawAmounts(decs(20_100, 19_905), dec(40_000), dec(200))
	require.NoError(t, err)
	assert.Equal(t, "100.500000000000000000", payouts[0].String())
	assert.Equal(t, "99.525000000000000000", payouts[1].String())

	// truncation never over-pays
	payouts, err = CalcWithdrawAmounts(decs(1), dec(3), dec(1))
	require.NoError(t, err)
	assert.Equal(t, "0.333333333333333333", payouts[0].String())

	testCases := []struct {
		name           string
		supply, amount sdkmath.LegacyDec
		expectedErr    error
	}{
		{name: "zero amount", supply: dec(10), amount: dec(0), expectedErr: types.ErrInvalidAmount},
		{name: "empty pool", supply: dec(0), amount: dec(1), expectedErr: types.ErrEmptyPool},
		{name: "above supply", supply: dec(10), amount: dec(11), expectedErr: types.ErrInsufficientBalance},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CalcWithdrawAmounts(decs(5, 5), tc.supply, tc.amount)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestCalcExchangeFixture(t *testing.T) {
	result, err := CalcExchange(fixturePool(), decs(20_000, 20_000), 0, 1, dec(100))
	require.NoError(t, err)

	assert.InDelta(t, 99.95456515843388, f64(result.DyRaw), 1e-7)
	assert.InDelta(t, 94.95683690051219, f64(result.DyAmount), 1e-7)
	assert.True(t, result.DyAmount.Add(result.Fee).Equal(result.DyRaw))
	assert.True(t, result.AdminFee.Equal(result.Fee.MulTruncate(sdkmath.LegacyNewDecWithPrec(5, 1))))
}

func TestCalcExchangeNoFee(t *testing.T) {
	pool := fixturePool()
	pool.Fee = sdkmath.LegacyZeroDec()

	result, err := CalcExchange(pool, decs(20_000, 20_000), 1, 0, dec(100))
	require.NoError(t, err)
	assert.True(t, result.Fee.IsZero())
	assert.True(t, result.DyAmount.Equal(result.DyRaw))
	assert.InDelta(t, 99.95456515843388, f64(result.DyAmount), 1e-7)
}

func TestCalcExchangeOutputShrinksWithAmplification(t *testing.T) {
	previous := dec(1_000)
	for _, a := range []string{"100", "10", "1", "0.1", "0.01"} {
		pool := fixturePool()
		pool.AmplificationCoefficient = sdkmath.LegacyMustNewDecFromStr(a)

		result, err := CalcExchange(pool, decs(20_000, 20_000), 0, 1, dec(1_000))
		require.NoError(t, err, "A=%s", a)
		assert.True(t, result.DyAmount.LT(previous), "A=%s", a)
		previous = result.DyAmount
	}
}

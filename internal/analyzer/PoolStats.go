/*

This file contains the pool statistics served by the read-only API: live
balances, LP supply, the invariant D, the virtual price of one LP token and how
far the pool has drifted from balance.

*/

package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/fixedpoint"
	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/solver"
	"github.com/elys-network/curveamm/internal/types"
)

// ErrInsufficientData indicates a pool without enough data for a statistic.
var ErrInsufficientData = errors.New("insufficient data to calculate statistic")

var analyzerLogger = logger.GetForComponent("pool_analyzer")

// StatsReader is the read side of the engine.
type StatsReader interface {
	Pool(id types.PoolID) (types.PoolInfo, error)
	Balances(ctx context.Context, pool types.PoolInfo) ([]sdkmath.LegacyDec, error)
	LPSupply(ctx context.Context, pool types.PoolInfo) (sdkmath.LegacyDec, error)
	AdminFees(id types.PoolID) ([]sdkmath.LegacyDec, error)
}

// CalculatePoolStats collects the current statistics of a pool.
func CalculatePoolStats(ctx context.Context, r StatsReader, id types.PoolID) (types.PoolStats, error) {
	pool, err := r.Pool(id)
	if err != nil {
		return types.PoolStats{}, err
	}
	balances, err := r.Balances(ctx, pool)
	if err != nil {
		return types.PoolStats{}, err
	}
	supply, err := r.LPSupply(ctx, pool)
	if err != nil {
		return types.PoolStats{}, err
	}
	adminFees, err := r.AdminFees(id)
	if err != nil {
		return types.PoolStats{}, err
	}

	d, err := CalculateD(pool, balances)
	if err != nil {
		return types.PoolStats{}, err
	}
	virtualPrice, err := CalculateVirtualPrice(d, supply)
	if err != nil {
		return types.PoolStats{}, err
	}

	imbalance, err := CalculateImbalance(balances)
	if err != nil && !errors.Is(err, ErrInsufficientData) {
		return types.PoolStats{}, err
	}

	analyzerLogger.Debug().
		Uint64("poolID", uint64(id)).
		Str("d", d.String()).
		Str("virtualPrice", virtualPrice.String()).
		Float64("imbalance", imbalance).
		Msg("Pool statistics calculated")

	return types.PoolStats{
		Pool:         pool,
		Balances:     balances,
		LPSupply:     supply,
		D:            d,
		VirtualPrice: virtualPrice,
		Imbalance:    imbalance,
		AdminFees:    adminFees,
	}, nil
}

// CalculateD solves the pool invariant for the given balances.
func CalculateD(pool types.PoolInfo, balances []sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	ann, err := solver.GetAnn(pool.AmplificationCoefficient, pool.N())
	if err != nil {
		return sdkmath.LegacyDec{}, errors.Join(types.ErrSolver, err)
	}
	d, err := solver.GetD(balances, ann)
	if err != nil {
		return sdkmath.LegacyDec{}, errors.Join(types.ErrSolver, err)
	}
	return d, nil
}

// CalculateVirtualPrice returns D per LP token, or zero for an empty pool.
func CalculateVirtualPrice(d, supply sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if supply.IsNil() || !supply.IsPositive() {
		return sdkmath.LegacyZeroDec(), nil
	}
	vp, err := fixedpoint.Quo(d, supply)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("virtual price: %w", err)
	}
	return vp, nil
}

// CalculateImbalance returns max|xᵢ − mean| / mean: 0 for a balanced pool,
// approaching n−1 as the pool drains into one asset.
func CalculateImbalance(balances []sdkmath.LegacyDec) (float64, error) {
	if len(balances) < 2 {
		return 0, ErrInsufficientData
	}

	values := make([]float64, len(balances))
	sum := 0.0
	for i, b := range balances {
		f, err := fixedpoint.ToFloat64(b)
		if err != nil {
			return 0, fmt.Errorf("balance %d: %w", i, err)
		}
		values[i] = f
		sum += f
	}
	if sum == 0 {
		return 0, ErrInsufficientData
	}

	mean := sum / float64(len(values))
	worst := 0.0
	for _, v := range values {
		worst = math.Max(worst, math.Abs(v-mean))
	}
	return worst / mean, nil
}

/*

This file contains read-only quotes for the three pool operations. Quotes read
the current balances and LP supply without taking the operation guard, so a
concurrent operation may move the pool before the quoted request executes.

*/

package simulations

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/engine"
	"github.com/elys-network/curveamm/internal/fixedpoint"
	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/types"
)

var (
	exchangeLogger = logger.GetForComponent("exchange_simulator")
	joinPoolLogger = logger.GetForComponent("join_pool_simulator")
	exitPoolLogger = logger.GetForComponent("exit_pool_simulator")
)

// marginalFraction sizes the reference trade used for price impact.
var marginalFraction = sdkmath.LegacyNewDecWithPrec(1, 6)

// PoolReader is the read side of the engine.
type PoolReader interface {
	Pool(id types.PoolID) (types.PoolInfo, error)
	Balances(ctx context.Context, pool types.PoolInfo) ([]sdkmath.LegacyDec, error)
	LPSupply(ctx context.Context, pool types.PoolInfo) (sdkmath.LegacyDec, error)
}

// QuoteExchange estimates selling dx of asset i for asset j.
func QuoteExchange(ctx context.Context, r PoolReader, id types.PoolID, i, j int, dx sdkmath.LegacyDec) (types.ExchangeQuote, error) {
	pool, err := r.Pool(id)
	if err != nil {
		return types.ExchangeQuote{}, err
	}
	xp, err := r.Balances(ctx, pool)
	if err != nil {
		return types.ExchangeQuote{}, err
	}

	result, err := engine.CalcExchange(pool, xp, i, j, dx)
	if err != nil {
		exchangeLogger.Debug().Err(err).Uint64("poolID", uint64(id)).Int("i", i).Int("j", j).Str("dx", dx.String()).Msg("Exchange quote failed")
		return types.ExchangeQuote{}, err
	}

	quote := types.ExchangeQuote{
		DyAmount: result.DyAmount,
		Fee:      result.Fee,
		AdminFee: result.AdminFee,
	}
	quote.PriceImpact = priceImpact(pool, xp, i, j, dx, result.DyRaw)

	exchangeLogger.Debug().
		Uint64("poolID", uint64(id)).
		Str("dx", dx.String()).
		Str("dy", quote.DyAmount.String()).
		Float64("priceImpact", quote.PriceImpact).
		Msg("Exchange quoted")
	return quote, nil
}

// priceImpact compares the realised rate with a trade of marginalFraction of
// the input balance. Returns 0 when no reference rate can be computed.
func priceImpact(pool types.PoolInfo, xp []sdkmath.LegacyDec, i, j int, dx, dyRaw sdkmath.LegacyDec) float64 {
	dxMarginal := xp[i].Mul(marginalFraction)
	if !dxMarginal.IsPositive() || !dx.IsPositive() {
		return 0
	}
	marginal, err := engine.CalcExchange(pool, xp, i, j, dxMarginal)
	if err != nil {
		return 0
	}

	rate := fixedpoint.MustFloat64(dyRaw) / fixedpoint.MustFloat64(dx)
	marginalRate := fixedpoint.MustFloat64(marginal.DyRaw) / fixedpoint.MustFloat64(dxMarginal)
	if marginalRate <= 0 {
		return 0
	}
	impact := 1 - rate/marginalRate
	if impact < 0 {
		return 0
	}
	return impact
}

// QuoteAddLiquidity estimates the LP minted for depositing amounts.
func QuoteAddLiquidity(ctx context.Context, r PoolReader, id types.PoolID, amounts []sdkmath.LegacyDec) (types.AddLiquidityQuote, error) {
	pool, err := r.Pool(id)
	if err != nil {
		return types.AddLiquidityQuote{}, err
	}
	old, err := r.Balances(ctx, pool)
	if err != nil {
		return types.AddLiquidityQuote{}, err
	}
	supply, err := r.LPSupply(ctx, pool)
	if err != nil {
		return types.AddLiquidityQuote{}, err
	}

	result, err := engine.CalcMintAmount(pool, old, supply, amounts)
	if err != nil {
		joinPoolLogger.Debug().Err(err).Uint64("poolID", uint64(id)).Msg("Deposit quote failed")
		return types.AddLiquidityQuote{}, err
	}
	joinPoolLogger.Debug().Uint64("poolID", uint64(id)).Str("mint", result.MintAmount.String()).Msg("Deposit quoted")
	return types.AddLiquidityQuote{
		MintAmount: result.MintAmount,
		Fees:       result.Fees,
		D0:         result.D0,
		D1:         result.D1,
	}, nil
}

// QuoteRemoveLiquidity estimates the payout for burning amount LP.
func QuoteRemoveLiquidity(ctx context.Context, r PoolReader, id types.PoolID, amount sdkmath.LegacyDec) (types.RemoveLiquidityQuote, error) {
	pool, err := r.Pool(id)
	if err != nil {
		return types.RemoveLiquidityQuote{}, err
	}
	balances, err := r.Balances(ctx, pool)
	if err != nil {
		return types.RemoveLiquidityQuote{}, err
	}
	supply, err := r.LPSupply(ctx, pool)
	if err != nil {
		return types.RemoveLiquidityQuote{}, err
	}

	payouts, err := engine.CalcWithdrawAmounts(balances, supply, amount)
	if err != nil {
		exitPoolLogger.Debug().Err(err).Uint64("poolID", uint64(id)).Msg("Withdrawal quote failed")
		return types.RemoveLiquidityQuote{}, fmt.Errorf("quote remove_liquidity: %w", err)
	}
	return types.RemoveLiquidityQuote{Amounts: payouts}, nil
}

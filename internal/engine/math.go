/*

This file contains the pure liquidity calculations behind the three engine
operations. They take balances and supply as arguments and never talk to a
collaborator, so the simulations package can quote with exactly the numbers an
operation would use.

*/

package engine

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/fixedpoint"
	"github.com/elys-network/curveamm/internal/solver"
	"github.com/elys-network/curveamm/internal/types"
)

// PrecisionMargin is taken off every exchange output before fees.
var PrecisionMargin = sdkmath.LegacyNewDecWithPrec(1, 8)

type MintResult struct {
	MintAmount sdkmath.LegacyDec
	Fees       []sdkmath.LegacyDec // imbalance fee per asset
	AdminFees  []sdkmath.LegacyDec // owner share of Fees
	D0         sdkmath.LegacyDec
	D1         sdkmath.LegacyDec
	D2         sdkmath.LegacyDec
}

type ExchangeResult struct {
	DyAmount sdkmath.LegacyDec
	DyRaw    sdkmath.LegacyDec // before the fee
	Fee      sdkmath.LegacyDec
	AdminFee sdkmath.LegacyDec
}

func solverError(step string, err error) error {
	return errors.Join(errorsmod.Wrap(types.ErrSolver, step), err)
}

// ValidateDeposit checks the amount vector of an add-liquidity request.
func ValidateDeposit(pool types.PoolInfo, amounts []sdkmath.LegacyDec) error {
	if len(amounts) != pool.N() {
		return errorsmod.Wrapf(types.ErrAssetCountMismatch, "got %d amounts for %d assets", len(amounts), pool.N())
	}
	for i, amount := range amounts {
		if amount.IsNil() || !amount.IsPositive() {
			return errorsmod.Wrapf(types.ErrInvalidAmount, "amount %d must be positive", i)
		}
	}
	return nil
}

// ValidateIndices checks an exchange direction.
func ValidateIndices(pool types.PoolInfo, i, j int) error {
	n := pool.N()
	if i == j || i < 0 || j < 0 || i >= n || j >= n {
		return errorsmod.Wrapf(types.ErrInvalidIndex, "i=%d j=%d for %d assets", i, j, n)
	}
	return nil
}

// CalcMintAmount returns the LP amount minted for depositing amounts into a
// pool holding old with the given LP supply. The first deposit mints D.
func CalcMintAmount(pool types.PoolInfo, old []sdkmath.LegacyDec, supply sdkmath.LegacyDec, amounts []sdkmath.LegacyDec) (MintResult, error) {
	if err := ValidateDeposit(pool, amounts); err != nil {
		return MintResult{}, err
	}
	if len(old) != pool.N() {
		return MintResult{}, errorsmod.Wrapf(types.ErrAssetCountMismatch, "got %d balances for %d assets", len(old), pool.N())
	}

	n := pool.N()
	ann, err := solver.GetAnn(pool.AmplificationCoefficient, n)
	if err != nil {
		return MintResult{}, solverError("ann", err)
	}
	d0, err := solver.GetD(old, ann)
	if err != nil {
		return MintResult{}, solverError("d0", err)
	}

	balances := make([]sdkmath.LegacyDec, n)
	for i := range balances {
		if balances[i], err = fixedpoint.Add(old[i], amounts[i]); err != nil {
			return MintResult{}, solverError("deposit", err)
		}
	}
	d1, err := solver.GetD(balances, ann)
	if err != nil {
		return MintResult{}, solverError("d1", err)
	}
	if !d1.GT(d0) {
		return MintResult{}, errorsmod.Wrapf(types.ErrInvariantNotIncreased, "d0=%s d1=%s", d0, d1)
	}

	result := MintResult{
		Fees:      zeros(n),
		AdminFees: zeros(n),
		D0:        d0,
		D1:        d1,
		D2:        d1,
	}

	if supply.IsNil() || !supply.IsPositive() {
		result.MintAmount = d1
		return result, nil
	}
	if !d0.IsPositive() {
		return MintResult{}, errorsmod.Wrapf(types.ErrEmptyPool, "LP supply %s backed by no assets", supply)
	}

	// fee·n / (4·(n−1))
	feeRate, err := fixedpoint.MulInt(pool.Fee, int64(n))
	if err == nil {
		feeRate, err = fixedpoint.Quo(feeRate, sdkmath.LegacyNewDec(int64(4*(n-1))))
	}
	if err != nil {
		return MintResult{}, solverError("fee rate", err)
	}

	for i := range balances {
		ideal, err := fixedpoint.MulQuo(d1, old[i], d0)
		if err != nil {
			return MintResult{}, solverError("ideal balance", err)
		}
		fee, err := fixedpoint.Mul(feeRate, fixedpoint.AbsDiff(ideal, balances[i]))
		if err != nil {
			return MintResult{}, solverError("imbalance fee", err)
		}
		if balances[i], err = fixedpoint.Sub(balances[i], fee); err != nil {
			return MintResult{}, solverError("imbalance fee", err)
		}
		adminFee, err := fixedpoint.Mul(fee, pool.AdminFee)
		if err != nil {
			return MintResult{}, solverError("admin fee", err)
		}
		result.Fees[i] = fee
		result.AdminFees[i] = adminFee
	}

	d2, err := solver.GetD(balances, ann)
	if err != nil {
		return MintResult{}, solverError("d2", err)
	}
	if !d2.GT(d0) {
		return MintResult{}, errorsmod.Wrapf(types.ErrInvariantNotIncreased, "d0=%s d2=%s after fees", d0, d2)
	}
	result.D2 = d2

	growth, err := fixedpoint.Sub(d2, d0)
	if err == nil {
		result.MintAmount, err = fixedpoint.MulQuo(supply, growth, d0)
	}
	if err != nil {
		return MintResult{}, solverError("mint amount", err)
	}
	if !result.MintAmount.IsPositive() {
		return MintResult{}, errorsmod.Wrap(types.ErrInsufficientOutput, "deposit too small to mint LP")
	}
	return result, nil
}

// CalcWithdrawAmounts returns each asset's pro-rata share of amount LP.
func CalcWithdrawAmounts(balances []sdkmath.LegacyDec, supply, amount sdkmath.LegacyDec) ([]sdkmath.LegacyDec, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return nil, errorsmod.Wrap(types.ErrInvalidAmount, "LP amount must be positive")
	}
	if supply.IsNil() || !supply.IsPositive() {
		return nil, errorsmod.Wrap(types.ErrEmptyPool, "LP supply is zero")
	}
	if amount.GT(supply) {
		return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "LP amount %s exceeds supply %s", amount, supply)
	}

	payouts := make([]sdkmath.LegacyDec, len(balances))
	for i, balance := range balances {
		payout, err := fixedpoint.MulQuo(balance, amount, supply)
		if err != nil {
			return nil, solverError("payout", err)
		}
		payouts[i] = payout
	}
	return payouts, nil
}

// CalcExchange returns the output of selling dx of asset i for asset j.
func CalcExchange(pool types.PoolInfo, xp []sdkmath.LegacyDec, i, j int, dx sdkmath.LegacyDec) (ExchangeResult, error) {
	if err := ValidateIndices(pool, i, j); err != nil {
		return ExchangeResult{}, err
	}
	if dx.IsNil() || dx.IsNegative() {
		return ExchangeResult{}, errorsmod.Wrap(types.ErrInvalidAmount, "dx must be non-negative")
	}
	if len(xp) != pool.N() {
		return ExchangeResult{}, errorsmod.Wrapf(types.ErrAssetCountMismatch, "got %d balances for %d assets", len(xp), pool.N())
	}

	ann, err := solver.GetAnn(pool.AmplificationCoefficient, pool.N())
	if err != nil {
		return ExchangeResult{}, solverError("ann", err)
	}
	x, err := fixedpoint.Add(xp[i], dx)
	if err != nil {
		return ExchangeResult{}, solverError("x", err)
	}
	y, err := solver.GetY(i, j, x, xp, ann)
	if err != nil {
		return ExchangeResult{}, solverError("y", err)
	}

	dyRaw := xp[j].Sub(y).Sub(PrecisionMargin)
	if !dyRaw.IsPositive() {
		return ExchangeResult{}, errorsmod.Wrapf(types.ErrInsufficientOutput, "dx=%s yields nothing", dx)
	}

	fee, err := fixedpoint.Mul(dyRaw, pool.Fee)
	if err != nil {
		return ExchangeResult{}, solverError("fee", err)
	}
	adminFee, err := fixedpoint.Mul(fee, pool.AdminFee)
	if err != nil {
		return ExchangeResult{}, solverError("admin fee", err)
	}
	dy := dyRaw.Sub(fee)
	if !dy.IsPositive() {
		return ExchangeResult{}, errorsmod.Wrapf(types.ErrInsufficientOutput, "dx=%s yields nothing after fees", dx)
	}

	return ExchangeResult{DyAmount: dy, DyRaw: dyRaw, Fee: fee, AdminFee: adminFee}, nil
}

func zeros(n int) []sdkmath.LegacyDec {
	out := make([]sdkmath.LegacyDec, n)
	for i := range out {
		out[i] = sdkmath.LegacyZeroDec()
	}
	return out
}

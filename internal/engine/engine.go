/*

This file contains the liquidity engine: add_liquidity, remove_liquidity and
exchange against pools held in the registry.

Every operation holds the program-wide guard from its first action until it
returns. Balances and LP supply are re-read from the collaborators each time.
All checks run before the first collaborator mutation; mutations are journaled
and unwound in reverse if a later one fails. Admin-fee accrual is committed
only after every mutation has succeeded.

*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elys-network/curveamm/internal/asset"
	"github.com/elys-network/curveamm/internal/guard"
	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/registry"
	"github.com/elys-network/curveamm/internal/types"
)

// receiptTimeout bounds persisting one receipt.
const receiptTimeout = 5 * time.Second

// ReceiptSink receives a receipt for every attempted operation.
type ReceiptSink interface {
	SaveReceipt(ctx context.Context, receipt types.OperationReceipt) error
}

// Config holds the dependencies of an Engine
type Config struct {
	ProgramID types.ActorID
	Registry  *registry.Registry
	Client    asset.Client // acts as ProgramID
	Guard     *guard.Guard // defaults to a fresh guard
	Receipts  ReceiptSink  // optional
	Metrics   *Metrics     // defaults to GetMetrics()
}

type Engine struct {
	programID types.ActorID
	registry  *registry.Registry
	client    asset.Client
	guard     *guard.Guard
	receipts  ReceiptSink
	metrics   *Metrics
	logger    zerolog.Logger

	feesMu    sync.RWMutex
	adminFees map[types.PoolID][]sdkmath.LegacyDec
}

func New(cfg Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}

	e := &Engine{
		programID: cfg.ProgramID,
		registry:  cfg.Registry,
		client:    cfg.Client,
		guard:     cfg.Guard,
		receipts:  cfg.Receipts,
		metrics:   cfg.Metrics,
		logger:    logger.GetForComponent("liquidity_engine"),
		adminFees: make(map[types.PoolID][]sdkmath.LegacyDec),
	}
	if e.guard == nil {
		e.guard = guard.New()
	}
	if e.metrics == nil {
		e.metrics = GetMetrics()
	}
	return e, nil
}

func validateConfig(cfg Config) error {
	if cfg.ProgramID.IsZero() {
		return errors.New("program id is zero")
	}
	if cfg.Registry == nil {
		return errors.New("registry is nil")
	}
	if cfg.Client == nil {
		return errors.New("asset client is nil")
	}
	return nil
}

func (e *Engine) ProgramID() types.ActorID {
	return e.programID
}

// AddLiquidity deposits amounts from who and mints LP to who.
func (e *Engine) AddLiquidity(ctx context.Context, who types.ActorID, poolID types.PoolID, amounts []sdkmath.LegacyDec, minMint sdkmath.LegacyDec) (types.AddLiquidityReply, error) {
	var reply types.AddLiquidityReply
	err := e.execute(ctx, types.OperationAddLiquidity, who, poolID, amounts, func(ctx context.Context, log zerolog.Logger) ([]sdkmath.LegacyDec, error) {
		pool, err := e.registry.GetPool(poolID)
		if err != nil {
			return nil, err
		}
		if err := ValidateDeposit(pool, amounts); err != nil {
			return nil, err
		}
		minMint := types.OrZero(minMint)
		if minMint.IsNegative() {
			return nil, errorsmod.Wrap(types.ErrInvalidAmount, "min mint amount is negative")
		}

		old, err := e.readBalances(ctx, pool, e.programID)
		if err != nil {
			return nil, err
		}
		supply, err := e.readSupply(ctx, pool)
		if err != nil {
			return nil, err
		}

		result, err := CalcMintAmount(pool, old, supply, amounts)
		if err != nil {
			return nil, err
		}
		if result.MintAmount.LT(minMint) {
			return nil, errorsmod.Wrapf(types.ErrSlippage, "mint %s below minimum %s", result.MintAmount, minMint)
		}

		held, err := e.readBalances(ctx, pool, who)
		if err != nil {
			return nil, err
		}
		for i := range amounts {
			if held[i].LT(amounts[i]) {
				return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "asset %d: depositor holds %s, needs %s", i, held[i], amounts[i])
			}
		}

		mctx, cancel := mutationContext(ctx)
		defer cancel()

		var j journal
		for i, assetID := range pool.Assets {
			amount := amounts[i]
			if err := e.client.TransferFrom(mctx, assetID, who, e.programID, amount); err != nil {
				return nil, e.abort(mctx, log, types.OperationAddLiquidity, &j, collaboratorError("transfer_from", err))
			}
			j.record(fmt.Sprintf("return %s of asset %d", amount, i), func(ctx context.Context) error {
				return e.client.Transfer(ctx, assetID, who, amount)
			})
		}
		if err := e.client.Mint(mctx, pool.LPAsset, who, result.MintAmount); err != nil {
			return nil, e.abort(mctx, log, types.OperationAddLiquidity, &j, collaboratorError("mint", err))
		}

		e.commitAdminFees(pool, result.AdminFees)
		addDec(e.metrics.LPMinted.WithLabelValues(poolLabel(poolID)), result.MintAmount)

		reply = types.AddLiquidityReply{
			Who:        who,
			PoolID:     poolID,
			MintAmount: result.MintAmount,
			Fees:       result.Fees,
		}
		log.Info().
			Str("mint", result.MintAmount.String()).
			Str("d0", result.D0.String()).
			Str("d2", result.D2.String()).
			Msg("Liquidity added")
		return []sdkmath.LegacyDec{result.MintAmount}, nil
	})
	if err != nil {
		return types.AddLiquidityReply{}, err
	}
	return reply, nil
}

// RemoveLiquidity burns amount LP from who and pays out the pro-rata share of
// every asset.
func (e *Engine) RemoveLiquidity(ctx context.Context, who types.ActorID, poolID types.PoolID, amount sdkmath.LegacyDec) (types.RemoveLiquidityReply, error) {
	var reply types.RemoveLiquidityReply
	err := e.execute(ctx, types.OperationRemoveLiquidity, who, poolID, []sdkmath.LegacyDec{amount}, func(ctx context.Context, log zerolog.Logger) ([]sdkmath.LegacyDec, error) {
		pool, err := e.registry.GetPool(poolID)
		if err != nil {
			return nil, err
		}
		if amount.IsNil() || !amount.IsPositive() {
			return nil, errorsmod.Wrap(types.ErrInvalidAmount, "LP amount must be positive")
		}

		supply, err := e.readSupply(ctx, pool)
		if err != nil {
			return nil, err
		}
		old, err := e.readBalances(ctx, pool, e.programID)
		if err != nil {
			return nil, err
		}
		payouts, err := CalcWithdrawAmounts(old, supply, amount)
		if err != nil {
			return nil, err
		}

		lpHeld, err := e.readBalance(ctx, pool.LPAsset, who)
		if err != nil {
			return nil, err
		}
		if lpHeld.LT(amount) {
			return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "holder has %s LP, burning %s", lpHeld, amount)
		}
		for i := range payouts {
			if old[i].LT(payouts[i]) {
				return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "asset %d: pool holds %s, owes %s", i, old[i], payouts[i])
			}
		}

		mctx, cancel := mutationContext(ctx)
		defer cancel()

		var j journal
		if err := e.client.Burn(mctx, pool.LPAsset, who, amount); err != nil {
			return nil, collaboratorError("burn", err)
		}
		j.record(fmt.Sprintf("re-mint %s LP", amount), func(ctx context.Context) error {
			return e.client.Mint(ctx, pool.LPAsset, who, amount)
		})
		for i, assetID := range pool.Assets {
			payout := payouts[i]
			if err := e.client.Transfer(mctx, assetID, who, payout); err != nil {
				return nil, e.abort(mctx, log, types.OperationRemoveLiquidity, &j, collaboratorError("transfer", err))
			}
			j.record(fmt.Sprintf("reclaim %s of asset %d", payout, i), func(ctx context.Context) error {
				return e.client.TransferFrom(ctx, assetID, who, e.programID, payout)
			})
		}

		addDec(e.metrics.LPBurned.WithLabelValues(poolLabel(poolID)), amount)

		reply = types.RemoveLiquidityReply{Who: who, PoolID: poolID, Amounts: payouts}
		log.Info().Str("burned", amount.String()).Msg("Liquidity removed")
		return payouts, nil
	})
	if err != nil {
		return types.RemoveLiquidityReply{}, err
	}
	return reply, nil
}

// Exchange sells dx of asset i from who for asset j.
func (e *Engine) Exchange(ctx context.Context, who types.ActorID, poolID types.PoolID, i, j int, dx, minDy sdkmath.LegacyDec) (types.ExchangeReply, error) {
	var reply types.ExchangeReply
	err := e.execute(ctx, types.OperationExchange, who, poolID, []sdkmath.LegacyDec{dx}, func(ctx context.Context, log zerolog.Logger) ([]sdkmath.LegacyDec, error) {
		pool, err := e.registry.GetPool(poolID)
		if err != nil {
			return nil, err
		}
		if err := ValidateIndices(pool, i, j); err != nil {
			return nil, err
		}
		if dx.IsNil() || dx.IsNegative() {
			return nil, errorsmod.Wrap(types.ErrInvalidAmount, "dx must be non-negative")
		}
		minDy := types.OrZero(minDy)
		if minDy.IsNegative() {
			return nil, errorsmod.Wrap(types.ErrInvalidAmount, "min dy amount is negative")
		}

		xp, err := e.readBalances(ctx, pool, e.programID)
		if err != nil {
			return nil, err
		}
		result, err := CalcExchange(pool, xp, i, j, dx)
		if err != nil {
			return nil, err
		}
		if result.DyAmount.LT(minDy) {
			return nil, errorsmod.Wrapf(types.ErrSlippage, "dy %s below minimum %s", result.DyAmount, minDy)
		}

		held, err := e.readBalance(ctx, pool.Assets[i], who)
		if err != nil {
			return nil, err
		}
		if held.LT(dx) {
			return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "trader holds %s of asset %d, selling %s", held, i, dx)
		}
		if xp[j].LT(result.DyAmount) {
			return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "pool holds %s of asset %d, owes %s", xp[j], j, result.DyAmount)
		}

		mctx, cancel := mutationContext(ctx)
		defer cancel()

		var jr journal
		if err := e.client.TransferFrom(mctx, pool.Assets[i], who, e.programID, dx); err != nil {
			return nil, collaboratorError("transfer_from", err)
		}
		jr.record(fmt.Sprintf("return %s of asset %d", dx, i), func(ctx context.Context) error {
			return e.client.Transfer(ctx, pool.Assets[i], who, dx)
		})
		if err := e.client.Transfer(mctx, pool.Assets[j], who, result.DyAmount); err != nil {
			return nil, e.abort(mctx, log, types.OperationExchange, &jr, collaboratorError("transfer", err))
		}

		adminFees := zeros(pool.N())
		adminFees[j] = result.AdminFee
		e.commitAdminFees(pool, adminFees)
		addDec(e.metrics.ExchangeVolume.WithLabelValues(poolLabel(poolID), fmt.Sprint(i)), dx)
		addDec(e.metrics.ExchangeFees.WithLabelValues(poolLabel(poolID), fmt.Sprint(j)), result.Fee)

		reply = types.ExchangeReply{
			Who:      who,
			PoolID:   poolID,
			I:        i,
			J:        j,
			DyAmount: result.DyAmount,
			Fee:      result.Fee,
			AdminFee: result.AdminFee,
		}
		log.Info().
			Int("i", i).
			Int("j", j).
			Str("dx", dx.String()).
			Str("dy", result.DyAmount.String()).
			Str("fee", result.Fee.String()).
			Msg("Exchange executed")
		return []sdkmath.LegacyDec{result.DyAmount}, nil
	})
	if err != nil {
		return types.ExchangeReply{}, err
	}
	return reply, nil
}

// AdminFees returns the admin share accrued per asset of a pool.
func (e *Engine) AdminFees(poolID types.PoolID) ([]sdkmath.LegacyDec, error) {
	pool, err := e.registry.GetPool(poolID)
	if err != nil {
		return nil, err
	}

	e.feesMu.RLock()
	defer e.feesMu.RUnlock()
	accrued, ok := e.adminFees[poolID]
	if !ok {
		return zeros(pool.N()), nil
	}
	return append([]sdkmath.LegacyDec(nil), accrued...), nil
}

// Pool returns the registry entry for id.
func (e *Engine) Pool(id types.PoolID) (types.PoolInfo, error) {
	return e.registry.GetPool(id)
}

// Balances reads the program's balance of every pool asset without taking the
// guard.
func (e *Engine) Balances(ctx context.Context, pool types.PoolInfo) ([]sdkmath.LegacyDec, error) {
	return e.readBalances(ctx, pool, e.programID)
}

// LPSupply reads the LP supply without taking the guard.
func (e *Engine) LPSupply(ctx context.Context, pool types.PoolInfo) (sdkmath.LegacyDec, error) {
	return e.readSupply(ctx, pool)
}

// Busy reports whether a state-changing operation currently holds the guard.
func (e *Engine) Busy() bool {
	return e.guard.Held()
}

// execute runs fn under the guard and records the outcome.
func (e *Engine) execute(
	ctx context.Context,
	kind types.OperationKind,
	who types.ActorID,
	poolID types.PoolID,
	inputs []sdkmath.LegacyDec,
	fn func(ctx context.Context, log zerolog.Logger) ([]sdkmath.LegacyDec, error),
) error {
	receipt := types.OperationReceipt{
		ID:        uuid.New(),
		Kind:      kind,
		PoolID:    poolID,
		Who:       who,
		Inputs:    normalize(inputs),
		StartedAt: time.Now().UTC(),
	}
	opLogger := e.logger.With().
		Str("op_id", receipt.ID.String()).
		Str("kind", string(kind)).
		Uint64("poolID", uint64(poolID)).
		Str("who", who.String()).
		Logger()

	outputs, err := e.guarded(ctx, func(ctx context.Context) ([]sdkmath.LegacyDec, error) {
		return fn(ctx, opLogger)
	})

	receipt.FinishedAt = time.Now().UTC()
	receipt.Outputs = normalize(outputs)
	receipt.Status = types.StatusSuccess
	if err != nil {
		receipt.Status = types.StatusFailed
		receipt.Error = err.Error()
		opLogger.Warn().Err(err).Msg("Operation failed")
	}

	e.metrics.OperationsTotal.WithLabelValues(string(kind), string(receipt.Status)).Inc()
	e.metrics.OperationLatency.WithLabelValues(string(kind)).Observe(receipt.Duration().Seconds())
	e.emit(ctx, opLogger, receipt)
	return err
}

func (e *Engine) guarded(ctx context.Context, fn func(ctx context.Context) ([]sdkmath.LegacyDec, error)) ([]sdkmath.LegacyDec, error) {
	waitStart := time.Now()
	release, err := e.guard.Acquire(ctx)
	e.metrics.GuardWait.Observe(time.Since(waitStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("waiting for operation guard: %w", err)
	}
	defer release()

	return fn(ctx)
}

func (e *Engine) emit(ctx context.Context, log zerolog.Logger, receipt types.OperationReceipt) {
	if e.receipts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), receiptTimeout)
	defer cancel()
	if err := e.receipts.SaveReceipt(ctx, receipt); err != nil {
		log.Error().Err(err).Msg("Failed to save operation receipt")
	}
}

// abort unwinds j and returns cause, joined with the unwind failure if any.
func (e *Engine) abort(ctx context.Context, log zerolog.Logger, kind types.OperationKind, j *journal, cause error) error {
	steps := j.len()
	if steps == 0 {
		return cause
	}
	if err := j.unwind(ctx); err != nil {
		e.metrics.Compensations.WithLabelValues(string(kind), "failed").Inc()
		log.Error().Err(err).AnErr("cause", cause).Int("steps", steps).Msg("Compensation failed, collaborator state is inconsistent")
		return errors.Join(cause, errorsmod.Wrapf(types.ErrCompensationFailed, "%d steps", steps), err)
	}
	e.metrics.Compensations.WithLabelValues(string(kind), "ok").Inc()
	log.Warn().Err(cause).Int("steps", steps).Msg("Partial operation compensated")
	return cause
}

func (e *Engine) commitAdminFees(pool types.PoolInfo, fees []sdkmath.LegacyDec) {
	e.feesMu.Lock()
	defer e.feesMu.Unlock()

	accrued, ok := e.adminFees[pool.ID]
	if !ok {
		accrued = zeros(pool.N())
	}
	next := make([]sdkmath.LegacyDec, len(accrued))
	for i := range accrued {
		next[i] = accrued[i].Add(fees[i])
	}
	e.adminFees[pool.ID] = next
}

func (e *Engine) readBalances(ctx context.Context, pool types.PoolInfo, account types.ActorID) ([]sdkmath.LegacyDec, error) {
	balances := make([]sdkmath.LegacyDec, pool.N())
	g, gctx := errgroup.WithContext(ctx)
	for i, assetID := range pool.Assets {
		g.Go(func() error {
			b, err := e.readBalance(gctx, assetID, account)
			if err != nil {
				return err
			}
			balances[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return balances, nil
}

func (e *Engine) readBalance(ctx context.Context, assetID, account types.ActorID) (sdkmath.LegacyDec, error) {
	b, err := e.client.BalanceOf(ctx, assetID, account)
	if err != nil {
		return sdkmath.LegacyDec{}, collaboratorError("balance_of", err)
	}
	if b.IsNil() || b.IsNegative() {
		return sdkmath.LegacyDec{}, collaboratorError("balance_of", fmt.Errorf("%w: balance %v", asset.ErrProtocolViolation, b))
	}
	return b, nil
}

func (e *Engine) readSupply(ctx context.Context, pool types.PoolInfo) (sdkmath.LegacyDec, error) {
	supply, err := e.client.TotalSupply(ctx, pool.LPAsset)
	if err != nil {
		return sdkmath.LegacyDec{}, collaboratorError("total_supply", err)
	}
	if supply.IsNil() || supply.IsNegative() {
		return sdkmath.LegacyDec{}, collaboratorError("total_supply", fmt.Errorf("%w: supply %v", asset.ErrProtocolViolation, supply))
	}
	return supply, nil
}

func collaboratorError(call string, err error) error {
	return errors.Join(errorsmod.Wrap(types.ErrCollaborator, call), err)
}

func normalize(values []sdkmath.LegacyDec) []sdkmath.LegacyDec {
	out := make([]sdkmath.LegacyDec, len(values))
	for i, v := range values {
		out[i] = types.OrZero(v)
	}
	return out
}

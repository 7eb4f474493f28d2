/*

This file contains the program: it owns the single pool created from the init
message, dispatches state-changing requests to the liquidity engine and serves
read-only statistics and quotes.

*/

package amm

import (
	"context"
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/curveamm/internal/analyzer"
	"github.com/elys-network/curveamm/internal/asset"
	"github.com/elys-network/curveamm/internal/engine"
	"github.com/elys-network/curveamm/internal/guard"
	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/registry"
	"github.com/elys-network/curveamm/internal/simulations"
	"github.com/elys-network/curveamm/internal/types"
)

// PoolStore persists pool configurations across restarts.
type PoolStore interface {
	SavePool(ctx context.Context, pool types.PoolInfo) error
	LoadPools(ctx context.Context) ([]types.PoolInfo, error)
}

// Config holds the configuration for creating a new Program
type Config struct {
	ProgramID types.ActorID
	Owner     types.ActorID // initializer of the program
	Init      types.InitMessage
	Assets    asset.Client       // acts as ProgramID
	Store     PoolStore          // optional
	Receipts  engine.ReceiptSink // optional
	Guard     *guard.Guard       // optional
	Metrics   *engine.Metrics    // optional
}

// Program is the StableSwap AMM program with all its dependencies
type Program struct {
	logger    zerolog.Logger
	programID types.ActorID
	poolID    types.PoolID
	registry  *registry.Registry
	engine    *engine.Engine
}

// New parses the init message, creates or restores the pool and builds the
// engine over it.
func New(ctx context.Context, cfg Config) (*Program, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("program configuration validation failed: %w", err)
	}

	params, err := cfg.Init.Parse()
	if err != nil {
		return nil, err
	}

	p := &Program{
		logger:    logger.GetForComponent("amm_program"),
		programID: cfg.ProgramID,
		registry:  registry.New(),
	}

	if err := p.setupPool(ctx, cfg, params); err != nil {
		return nil, err
	}

	p.engine, err = engine.New(engine.Config{
		ProgramID: cfg.ProgramID,
		Registry:  p.registry,
		Client:    cfg.Assets,
		Guard:     cfg.Guard,
		Receipts:  cfg.Receipts,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("programID", cfg.ProgramID.String()).
		Uint64("poolID", uint64(p.poolID)).
		Str("amplification", params.AmplificationCoefficient.String()).
		Str("fee", params.Fee.String()).
		Str("adminFee", params.AdminFee.String()).
		Msg("AMM program initialized")

	return p, nil
}

func validateConfig(cfg Config) error {
	if cfg.ProgramID.IsZero() {
		return errors.New("program id cannot be zero")
	}
	if cfg.Owner.IsZero() {
		return errors.New("owner cannot be zero")
	}
	if cfg.Assets == nil {
		return errors.New("asset client cannot be nil")
	}
	return nil
}

// setupPool restores persisted pools, or creates and persists the pool on
// first start.
func (p *Program) setupPool(ctx context.Context, cfg Config, params types.PoolParams) error {
	var stored []types.PoolInfo
	if cfg.Store != nil {
		var err error
		stored, err = cfg.Store.LoadPools(ctx)
		if err != nil {
			return fmt.Errorf("failed to load pools: %w", err)
		}
	}

	if len(stored) > 0 {
		if err := p.registry.Restore(stored); err != nil {
			return err
		}
		pool := p.registry.MustGetPool(0)
		if err := matchesParams(pool, params); err != nil {
			return err
		}
		p.poolID = pool.ID
		p.logger.Info().Int("pools", len(stored)).Msg("Pools restored from store")
		return nil
	}

	id, err := p.registry.CreatePool(cfg.Owner, params.Assets, params.LPAsset,
		params.AmplificationCoefficient, params.Fee, params.AdminFee)
	if err != nil {
		return err
	}
	p.poolID = id

	if cfg.Store != nil {
		pool := p.registry.MustGetPool(id)
		if err := cfg.Store.SavePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to persist pool %d: %w", id, err)
		}
	}
	return nil
}

func matchesParams(pool types.PoolInfo, params types.PoolParams) error {
	if len(pool.Assets) != len(params.Assets) {
		return errorsmod.Wrapf(types.ErrInvalidPoolConfig, "stored pool has %d assets, init message %d", len(pool.Assets), len(params.Assets))
	}
	for i := range pool.Assets {
		if pool.Assets[i] != params.Assets[i] {
			return errorsmod.Wrapf(types.ErrInvalidPoolConfig, "stored asset %d is %s, init message %s", i, pool.Assets[i], params.Assets[i])
		}
	}
	switch {
	case pool.LPAsset != params.LPAsset:
		return errorsmod.Wrap(types.ErrInvalidPoolConfig, "stored LP asset differs from init message")
	case !pool.AmplificationCoefficient.Equal(params.AmplificationCoefficient):
		return errorsmod.Wrap(types.ErrInvalidPoolConfig, "stored amplification differs from init message")
	case !pool.Fee.Equal(params.Fee), !pool.AdminFee.Equal(params.AdminFee):
		return errorsmod.Wrap(types.ErrInvalidPoolConfig, "stored fees differ from init message")
	}
	return nil
}

// Handle executes a state-changing request on behalf of source.
func (p *Program) Handle(ctx context.Context, source types.ActorID, req types.Request) (types.Reply, error) {
	var (
		reply types.Reply
		err   error
	)
	switch r := req.(type) {
	case types.AddLiquidityRequest:
		reply, err = p.engine.AddLiquidity(ctx, source, r.PoolID, r.Amounts, types.OrZero(r.MinMintAmount))
	case types.RemoveLiquidityRequest:
		reply, err = p.engine.RemoveLiquidity(ctx, source, r.PoolID, r.Amount)
	case types.ExchangeRequest:
		reply, err = p.engine.Exchange(ctx, source, r.PoolID, r.I, r.J, r.DxAmount, types.OrZero(r.MinDyAmount))
	default:
		return nil, errorsmod.Wrapf(types.ErrUnknownRequest, "%T", req)
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (p *Program) ProgramID() types.ActorID {
	return p.programID
}

// PoolID is the id of the pool created from the init message.
func (p *Program) PoolID() types.PoolID {
	return p.poolID
}

// Busy reports whether an operation is in flight.
func (p *Program) Busy() bool {
	return p.engine.Busy()
}

func (p *Program) Pool(id types.PoolID) (types.PoolInfo, error) {
	return p.registry.GetPool(id)
}

func (p *Program) Pools() []types.PoolInfo {
	return p.registry.Pools()
}

func (p *Program) AdminFees(id types.PoolID) ([]sdkmath.LegacyDec, error) {
	return p.engine.AdminFees(id)
}

func (p *Program) Stats(ctx context.Context, id types.PoolID) (types.PoolStats, error) {
	return analyzer.CalculatePoolStats(ctx, p.engine, id)
}

func (p *Program) QuoteExchange(ctx context.Context, id types.PoolID, i, j int, dx sdkmath.LegacyDec) (types.ExchangeQuote, error) {
	return simulations.QuoteExchange(ctx, p.engine, id, i, j, dx)
}

func (p *Program) QuoteAddLiquidity(ctx context.Context, id types.PoolID, amounts []sdkmath.LegacyDec) (types.AddLiquidityQuote, error) {
	return simulations.QuoteAddLiquidity(ctx, p.engine, id, amounts)
}

func (p *Program) QuoteRemoveLiquidity(ctx context.Context, id types.PoolID, amount sdkmath.LegacyDec) (types.RemoveLiquidityQuote, error) {
	return simulations.QuoteRemoveLiquidity(ctx, p.engine, id, amount)
}

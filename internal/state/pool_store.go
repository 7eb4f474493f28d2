package state

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/lib/pq"

	"github.com/elys-network/curveamm/internal/types"
)

// SavePool inserts or replaces a pool configuration.
func (s *Store) SavePool(ctx context.Context, pool types.PoolInfo) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}

	assets := make([]string, len(pool.Assets))
	for i, a := range pool.Assets {
		assets[i] = a.String()
	}

	query := `
		INSERT INTO pools (pool_id, owner, lp_asset, assets, amplification, fee, admin_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (pool_id) DO UPDATE SET
			owner = EXCLUDED.owner,
			lp_asset = EXCLUDED.lp_asset,
			assets = EXCLUDED.assets,
			amplification = EXCLUDED.amplification,
			fee = EXCLUDED.fee,
			admin_fee = EXCLUDED.admin_fee;
	`
	_, err := s.db.ExecContext(ctx, query,
		int64(pool.ID), pool.Owner.String(), pool.LPAsset.String(), pq.Array(assets),
		pool.AmplificationCoefficient.String(), pool.Fee.String(), pool.AdminFee.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pool %d: %w", pool.ID, err)
	}

	storeLogger.Info().Uint64("poolID", uint64(pool.ID)).Int("assets", len(assets)).Msg("Pool saved to database")
	return nil
}

// LoadPools returns every stored pool ordered by id.
func (s *Store) LoadPools(ctx context.Context) ([]types.PoolInfo, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	query := `
		SELECT pool_id, owner, lp_asset, assets, amplification, fee, admin_fee
		FROM pools
		ORDER BY pool_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pools: %w", err)
	}
	defer rows.Close()

	var pools []types.PoolInfo
	for rows.Next() {
		var (
			id                           int64
			owner, lpAsset               string
			assets                       []string
			amplification, fee, adminFee string
		)
		if err := rows.Scan(&id, &owner, &lpAsset, pq.Array(&assets), &amplification, &fee, &adminFee); err != nil {
			return nil, fmt.Errorf("failed to scan pool row: %w", err)
		}
		pool, err := decodePool(id, owner, lpAsset, assets, amplification, fee, adminFee)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pool rows: %w", err)
	}

	storeLogger.Debug().Int("pools", len(pools)).Msg("Pools loaded from database")
	return pools, nil
}

func decodePool(id int64, owner, lpAsset string, assets []string, amplification, fee, adminFee string) (types.PoolInfo, error) {
	if id < 0 {
		return types.PoolInfo{}, fmt.Errorf("pool row has negative id %d", id)
	}
	pool := types.PoolInfo{ID: types.PoolID(id)}

	var err error
	if pool.Owner, err = types.ParseActorID(owner); err != nil {
		return types.PoolInfo{}, fmt.Errorf("pool %d owner: %w", id, err)
	}
	if pool.LPAsset, err = types.ParseActorID(lpAsset); err != nil {
		return types.PoolInfo{}, fmt.Errorf("pool %d lp asset: %w", id, err)
	}
	pool.Assets = make([]types.ActorID, len(assets))
	for i, a := range assets {
		if pool.Assets[i], err = types.ParseActorID(a); err != nil {
			return types.PoolInfo{}, fmt.Errorf("pool %d asset %d: %w", id, i, err)
		}
	}
	if pool.AmplificationCoefficient, err = sdkmath.LegacyNewDecFromStr(amplification); err != nil {
		return types.PoolInfo{}, fmt.Errorf("pool %d amplification: %w", id, err)
	}
	if pool.Fee, err = sdkmath.LegacyNewDecFromStr(fee); err != nil {
		return types.PoolInfo{}, fmt.Errorf("pool %d fee: %w", id, err)
	}
	if pool.AdminFee, err = sdkmath.LegacyNewDecFromStr(adminFee); err != nil {
		return types.PoolInfo{}, fmt.Errorf("pool %d admin fee: %w", id, err)
	}
	return pool, nil
}

/*

This file contains the pool registry: the set of pools the program knows about,
keyed by sequential ids. Pools are never deleted and their configuration never
changes after creation.

*/

package registry

import (
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/types"
)

var registryLogger = logger.GetForComponent("pool_registry")

// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	pools  map[types.PoolID]types.PoolInfo
	nextID types.PoolID
}

func New() *Registry {
	return &Registry{pools: make(map[types.PoolID]types.PoolInfo)}
}

// CreatePool validates the configuration and stores it under the next id.
func (r *Registry) CreatePool(
	owner types.ActorID,
	assets []types.ActorID,
	lpAsset types.ActorID,
	amplification, fee, adminFee sdkmath.LegacyDec,
) (types.PoolID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	pool := types.PoolInfo{
		ID:                       id,
		Owner:                    owner,
		LPAsset:                  lpAsset,
		Assets:                   append([]types.ActorID(nil), assets...),
		AmplificationCoefficient: amplification,
		Fee:                      fee,
		AdminFee:                 adminFee,
	}
	if err := pool.Validate(); err != nil {
		return 0, err
	}
	if _, exists := r.pools[id]; exists {
		return 0, errorsmod.Wrapf(types.ErrRegistryCorrupted, "pool id %d already taken", id)
	}

	r.pools[id] = pool
	r.nextID++

	registryLogger.Info().
		Uint64("poolID", uint64(id)).
		Str("owner", owner.String()).
		Str("lpAsset", lpAsset.String()).
		Int("assets", len(assets)).
		Str("amplification", amplification.String()).
		Msg("Pool created")
	return id, nil
}

// GetPool returns a copy of the pool with the given id.
func (r *Registry) GetPool(id types.PoolID) (types.PoolInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[id]
	if !ok {
		return types.PoolInfo{}, errorsmod.Wrapf(types.ErrPoolNotFound, "pool %d", id)
	}
	return pool.Clone(), nil
}

// MustGetPool panics when the pool does not exist.
func (r *Registry) MustGetPool(id types.PoolID) types.PoolInfo {
	pool, err := r.GetPool(id)
	if err != nil {
		panic(err)
	}
	return pool
}

func (r *Registry) PoolCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(r.nextID)
}

// Pools returns every pool ordered by id.
func (r *Registry) Pools() []types.PoolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.PoolInfo, 0, len(r.pools))
	for id := types.PoolID(0); id < r.nextID; id++ {
		out = append(out, r.pools[id].Clone())
	}
	return out
}

// Restore replaces the registry contents with persisted pools. The ids must be
// exactly 0..len(pools)-1, in any order.
func (r *Registry) Restore(pools []types.PoolInfo) error {
	restored := make(map[types.PoolID]types.PoolInfo, len(pools))
	for _, pool := range pools {
		if err := pool.Validate(); err != nil {
			return fmt.Errorf("restoring pool %d: %w", pool.ID, err)
		}
		if uint64(pool.ID) >= uint64(len(pools)) {
			return errorsmod.Wrapf(types.ErrRegistryCorrupted, "pool id %d outside 0..%d", pool.ID, len(pools)-1)
		}
		if _, dup := restored[pool.ID]; dup {
			return errorsmod.Wrapf(types.ErrRegistryCorrupted, "pool id %d restored twice", pool.ID)
		}
		restored[pool.ID] = pool.Clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools = restored
	r.nextID = types.PoolID(len(pools))

	registryLogger.Info().Int("pools", len(pools)).Msg("Registry restored")
	return nil
}

package registry

import (
	"sync"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/curveamm/internal/types"
)

func actor(b byte) types.ActorID {
	var id types.ActorID
	id[types.ActorIDLength-1] = b
	return id
}

var (
	owner   = actor(100)
	assetX  = actor(1)
	assetY  = actor(2)
	lpAsset = actor(3)
	fee     = sdkmath.LegacyNewDecWithPrec(5, 2)
	admin   = sdkmath.LegacyNewDecWithPrec(5, 1)
	ampl    = sdkmath.LegacyNewDec(5)
)

func TestCreatePoolAssignsSequentialIDs(t *testing.T) {
	r := New()

	for want := types.PoolID(0); want < 3; want++ {
		id, err := r.CreatePool(owner, []types.ActorID{assetX, assetY}, lpAsset, ampl, fee, admin)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, uint64(3), r.PoolCount())

	pools := r.Pools()
	require.Len(t, pools, 3)
	for i, p := range pools {
		assert.Equal(t, types.PoolID(i), p.ID)
		assert.Less(t, uint64(p.ID), r.PoolCount())
	}
}

func TestCreatePoolRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name        string
		assets      []types.ActorID
		lp          types.ActorID
		a, fee      sdkmath.LegacyDec
		expectedErr error
	}{
		{name: "one asset", assets: []types.ActorID{assetX}, lp: lpAsset, a: ampl, fee: fee, expectedErr: types.ErrInvalidPoolConfig},
		{name: "duplicate", assets: []types.ActorID{assetX, assetX}, lp: lpAsset, a: ampl, fee: fee, expectedErr: types.ErrDuplicateAsset},
		{name: "lp is asset", assets: []types.ActorID{assetX, assetY}, lp: assetY, a: ampl, fee: fee, expectedErr: types.ErrDuplicateAsset},
		{name: "zero A", assets: []types.ActorID{assetX, assetY}, lp: lpAsset, a: sdkmath.LegacyZeroDec(), fee: fee, expectedErr: types.ErrInvalidPoolConfig},
		{name: "fee above one", assets: []types.ActorID{assetX, assetY}, lp: lpAsset, a: ampl, fee: sdkmath.LegacyNewDec(2), expectedErr: types.ErrInvalidPoolConfig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			_, err := r.CreatePool(owner, tc.assets, tc.lp, tc.a, tc.fee, admin)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, uint64(0), r.PoolCount(), "failed creation must not consume an id")
		})
	}
}

func TestGetPool(t *testing.T) {
	r := New()
	id, err := r.CreatePool(owner, []types.ActorID{assetX, assetY}, lpAsset, ampl, fee, admin)
	require.NoError(t, err)

	pool, err := r.GetPool(id)
	require.NoError(t, err)
	assert.Equal(t, owner, pool.Owner)
	assert.Equal(t, []types.ActorID{assetX, assetY}, pool.Assets)

	// callers get copies
	pool.Assets[0] = actor(77)
	again := r.MustGetPool(id)
	assert.Equal(t, assetX, again.Assets[0])

	_, err = r.GetPool(42)
	assert.ErrorIs(t, err, types.ErrPoolNotFound)
	assert.Panics(t, func() { r.MustGetPool(42) })
}

func TestCreatePoolDetectsCorruption(t *testing.T) {
	r := New()
	r.pools[0] = types.PoolInfo{ID: 0}

	_, err := r.CreatePool(owner, []types.ActorID{assetX, assetY}, lpAsset, ampl, fee, admin)
	assert.ErrorIs(t, err, types.ErrRegistryCorrupted)
}

func TestRestore(t *testing.T) {
	source := New()
	for i := 0; i < 2; i++ {
		_, err := source.CreatePool(owner, []types.ActorID{assetX, assetY}, lpAsset, ampl, fee, admin)
		require.NoError(t, err)
	}
	pools := source.Pools()

	r := New()
	require.NoError(t, r.Restore([]types.PoolInfo{pools[1], pools[0]}))
	assert.Equal(t, uint64(2), r.PoolCount())

	id, err := r.CreatePool(owner, []types.ActorID{assetX, assetY}, lpAsset, ampl, fee, admin)
	require.NoError(t, err)
	assert.Equal(t, types.PoolID(2), id)

	gap := pools[1]
	gap.ID = 5
	err = New().Restore([]types.PoolInfo{pools[0], gap})
	assert.ErrorIs(t, err, types.ErrRegistryCorrupted)

	err = New().Restore([]types.PoolInfo{pools[0], pools[0]})
	assert.ErrorIs(t, err, types.ErrRegistryCorrupted)
}

func TestConcurrentCreateKeepsIDsDense(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CreatePool(owner, []types.ActorID{assetX, assetY}, lpAsset, ampl, fee, admin)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pools := r.Pools()
	require.Len(t, pools, 20)
	for i, p := range pools {
		assert.Equal(t, types.PoolID(i), p.ID)
	}
}

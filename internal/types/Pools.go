/*

This is the pool record held by the registry. Balances and LP supply are not
part of it: they always live with the asset collaborators and are re-read on
every operation.

*/

package types

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/fixedpoint"
)

type PoolID uint64

type PoolInfo struct {
	ID                       PoolID            `json:"id"`
	Owner                    ActorID           `json:"owner"`                     // Actor that created the pool
	LPAsset                  ActorID           `json:"lp_asset"`                  // LP receipt token collaborator
	Assets                   []ActorID         `json:"assets"`                    // Pool assets, fixed order, at least two
	AmplificationCoefficient sdkmath.LegacyDec `json:"amplification_coefficient"` // A
	Fee                      sdkmath.LegacyDec `json:"fee"`                       // Fraction in [0,1]
	AdminFee                 sdkmath.LegacyDec `json:"admin_fee"`                 // Fraction of Fee kept for the owner, [0,1]
}

// N is the number of pool assets.
func (p PoolInfo) N() int {
	return len(p.Assets)
}

// IndexOf returns the position of asset in the pool, or -1.
func (p PoolInfo) IndexOf(asset ActorID) int {
	for i, a := range p.Assets {
		if a == asset {
			return i
		}
	}
	return -1
}

// Validate checks the static pool configuration.
func (p PoolInfo) Validate() error {
	if len(p.Assets) < 2 {
		return errorsmod.Wrapf(ErrInvalidPoolConfig, "pool needs at least 2 assets, got %d", len(p.Assets))
	}
	seen := make(map[ActorID]struct{}, len(p.Assets))
	for _, a := range p.Assets {
		if a.IsZero() {
			return errorsmod.Wrap(ErrInvalidActorID, "zero asset id")
		}
		if _, dup := seen[a]; dup {
			return errorsmod.Wrapf(ErrDuplicateAsset, "asset %s listed twice", a)
		}
		seen[a] = struct{}{}
	}
	if p.LPAsset.IsZero() {
		return errorsmod.Wrap(ErrInvalidActorID, "zero LP asset id")
	}
	if _, clash := seen[p.LPAsset]; clash {
		return errorsmod.Wrapf(ErrDuplicateAsset, "LP asset %s is also a pool asset", p.LPAsset)
	}
	if p.AmplificationCoefficient.IsNil() || !p.AmplificationCoefficient.IsPositive() {
		return errorsmod.Wrap(ErrInvalidPoolConfig, "amplification coefficient must be positive")
	}
	if !fixedpoint.IsFraction(p.Fee) {
		return errorsmod.Wrapf(ErrInvalidPoolConfig, "fee %s outside [0,1]", p.Fee)
	}
	if !fixedpoint.IsFraction(p.AdminFee) {
		return errorsmod.Wrapf(ErrInvalidPoolConfig, "admin fee %s outside [0,1]", p.AdminFee)
	}
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p PoolInfo) Clone() PoolInfo {
	c := p
	c.Assets = append([]ActorID(nil), p.Assets...)
	return c
}

package asset

import (
	"context"
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/types"
)

// Error definitions for collaborator calls
var (
	ErrProtocolViolation = errors.New("collaborator replied with an unexpected message")
	ErrRejected          = errors.New("collaborator rejected the request")
	ErrUnknownActor      = errors.New("no collaborator registered for actor")
	ErrLedgerClosed      = errors.New("ledger is closed")
	ErrInvalidRequest    = errors.New("request is invalid")
)

// Client defines the program's view of the asset collaborator contract.
// Each implementation is bound to one caller identity; every method is a
// suspension point that blocks until the collaborator replies.
type Client interface {
	// BalanceOf returns account's balance of asset.
	BalanceOf(ctx context.Context, asset, account types.ActorID) (sdkmath.LegacyDec, error)

	// TotalSupply returns the outstanding supply of asset.
	TotalSupply(ctx context.Context, asset types.ActorID) (sdkmath.LegacyDec, error)

	// Transfer moves amount of asset from the caller to to.
	Transfer(ctx context.Context, asset, to types.ActorID, amount sdkmath.LegacyDec) error

	// TransferFrom moves amount of asset from owner to to. The caller must be
	// owner or approved by owner.
	TransferFrom(ctx context.Context, asset, owner, to types.ActorID, amount sdkmath.LegacyDec) error

	// Mint creates amount of asset for account. The caller must be the asset's
	// admin or a minter.
	Mint(ctx context.Context, asset, account types.ActorID, amount sdkmath.LegacyDec) error

	// Burn destroys amount of account's asset. Same permissions as Mint.
	Burn(ctx context.Context, asset, account types.ActorID, amount sdkmath.LegacyDec) error
}

// Approver is implemented by clients that can grant TransferFrom rights.
type Approver interface {
	Approve(ctx context.Context, asset, spender types.ActorID, approved bool) error
}

// Sender delivers one request from an actor to a collaborator and returns its
// reply.
type Sender interface {
	Send(ctx context.Context, from, to types.ActorID, req Request) (Reply, error)
}

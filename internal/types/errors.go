package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace groups every registered curveamm error.
const Codespace = "curveamm"

// Validation errors
var (
	ErrInvalidPoolConfig  = errorsmod.Register(Codespace, 2, "invalid pool configuration")
	ErrPoolNotFound       = errorsmod.Register(Codespace, 3, "pool not found")
	ErrInvalidAmount      = errorsmod.Register(Codespace, 4, "invalid amount")
	ErrAssetCountMismatch = errorsmod.Register(Codespace, 5, "amount count does not match pool asset count")
	ErrInvalidIndex       = errorsmod.Register(Codespace, 6, "invalid asset index")
	ErrDuplicateAsset     = errorsmod.Register(Codespace, 7, "duplicate asset")
	ErrInvalidActorID     = errorsmod.Register(Codespace, 8, "invalid actor id")
	ErrInvalidInitMessage = errorsmod.Register(Codespace, 9, "invalid init message")
	ErrUnknownRequest     = errorsmod.Register(Codespace, 10, "unknown request")
)

// Solver errors. The underlying fixedpoint/solver error is joined to ErrSolver.
var (
	ErrSolver = errorsmod.Register(Codespace, 20, "invariant solver failed")
)

// Invariant errors
var (
	ErrInvariantNotIncreased = errorsmod.Register(Codespace, 30, "invariant did not increase")
	ErrSlippage              = errorsmod.Register(Codespace, 31, "slippage limit exceeded")
	ErrInsufficientBalance   = errorsmod.Register(Codespace, 32, "insufficient balance")
	ErrInsufficientOutput    = errorsmod.Register(Codespace, 33, "insufficient output amount")
	ErrEmptyPool             = errorsmod.Register(Codespace, 34, "pool has no liquidity")
)

// Collaborator errors. The underlying asset error is joined to ErrCollaborator.
var (
	ErrCollaborator = errorsmod.Register(Codespace, 40, "asset collaborator call failed")
)

// Internal errors
var (
	ErrRegistryCorrupted  = errorsmod.Register(Codespace, 50, "pool registry corrupted")
	ErrCompensationFailed = errorsmod.Register(Codespace, 51, "compensation of a partial operation failed")
)

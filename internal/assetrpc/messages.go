package assetrpc

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/types"
)

// Wire messages. Every request names the asset ledger it is addressed to; the
// caller travels in metadata under CallerMetadataKey.

type BalanceOfRequest struct {
	Asset   types.ActorID `json:"asset"`
	Account types.ActorID `json:"account"`
}

type TotalSupplyRequest struct {
	Asset types.ActorID `json:"asset"`
}

type AmountResponse struct {
	Amount sdkmath.LegacyDec `json:"amount"`
}

type TransferRequest struct {
	Asset  types.ActorID     `json:"asset"`
	To     types.ActorID     `json:"to"`
	Amount sdkmath.LegacyDec `json:"amount"`
}

type TransferFromRequest struct {
	Asset  types.ActorID     `json:"asset"`
	Owner  types.ActorID     `json:"owner"`
	To     types.ActorID     `json:"to"`
	Amount sdkmath.LegacyDec `json:"amount"`
}

// SupplyChangeRequest is shared by Mint and Burn.
type SupplyChangeRequest struct {
	Asset   types.ActorID     `json:"asset"`
	Account types.ActorID     `json:"account"`
	Amount  sdkmath.LegacyDec `json:"amount"`
}

type TransferResponse struct {
	From   types.ActorID     `json:"from"`
	To     types.ActorID     `json:"to"`
	Amount sdkmath.LegacyDec `json:"amount"`
}

type ApproveRequest struct {
	Asset    types.ActorID `json:"asset"`
	Spender  types.ActorID `json:"spender"`
	Approved bool          `json:"approved"`
}

type ApproveResponse struct {
	Owner    types.ActorID `json:"owner"`
	Spender  types.ActorID `json:"spender"`
	Approved bool          `json:"approved"`
}

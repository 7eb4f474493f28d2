/*

This file contains the collaborator message contract. Every request has exactly
one expected reply variant.

*/

package asset

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/types"
)

type Request interface {
	Method() string
}

type Reply interface {
	isReply()
}

// Requests
type (
	BalanceOf struct {
		Account types.ActorID `json:"account"`
	}
	TotalSupply struct{}
	Transfer    struct {
		To     types.ActorID     `json:"to"`
		Amount sdkmath.LegacyDec `json:"amount"`
	}
	TransferFrom struct {
		Owner  types.ActorID     `json:"owner"`
		To     types.ActorID     `json:"to"`
		Amount sdkmath.LegacyDec `json:"amount"`
	}
	Mint struct {
		Account types.ActorID     `json:"account"`
		Amount  sdkmath.LegacyDec `json:"amount"`
	}
	Burn struct {
		Account types.ActorID     `json:"account"`
		Amount  sdkmath.LegacyDec `json:"amount"`
	}
	Approve struct {
		Spender  types.ActorID `json:"spender"`
		Approved bool          `json:"approved"`
	}
)

func (BalanceOf) Method() string    { return "BalanceOf" }
func (TotalSupply) Method() string  { return "TotalSupply" }
func (Transfer) Method() string     { return "Transfer" }
func (TransferFrom) Method() string { return "TransferFrom" }
func (Mint) Method() string         { return "Mint" }
func (Burn) Method() string         { return "Burn" }
func (Approve) Method() string      { return "Approve" }

// Replies
type (
	Balance struct {
		Amount sdkmath.LegacyDec `json:"amount"`
	}
	Supply struct {
		Amount sdkmath.LegacyDec `json:"amount"`
	}
	Transferred struct {
		From   types.ActorID     `json:"from"`
		To     types.ActorID     `json:"to"`
		Amount sdkmath.LegacyDec `json:"amount"`
	}
	Approved struct {
		Owner    types.ActorID `json:"owner"`
		Spender  types.ActorID `json:"spender"`
		Approved bool          `json:"approved"`
	}
)

func (Balance) isReply()     {}
func (Supply) isReply()      {}
func (Transferred) isReply() {}
func (Approved) isReply()    {}

func protocolViolation(asset types.ActorID, req Request, reply Reply) error {
	return fmt.Errorf("%w: %s on %s answered with %T", ErrProtocolViolation, req.Method(), asset, reply)
}

func validAmount(amount sdkmath.LegacyDec) error {
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: amount must be non-negative", ErrInvalidRequest)
	}
	return nil
}

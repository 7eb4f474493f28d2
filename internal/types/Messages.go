/*

This file contains the program's external message contract: the init message,
the three state-changing requests and their replies.

*/

package types

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/fixedpoint"
)

// OperationKind names a state-changing request.
type OperationKind string

const (
	OperationAddLiquidity    OperationKind = "add_liquidity"
	OperationRemoveLiquidity OperationKind = "remove_liquidity"
	OperationExchange        OperationKind = "exchange"
)

// InitMessage configures the single pool created at program start.
// TokenAccounts lists asset-x, asset-y and the LP asset, separated by commas,
// semicolons or whitespace. Fee and AdminFee are percents in [0,100].
type InitMessage struct {
	TokenAccounts            string            `json:"token_accounts"`
	AmplificationCoefficient uint64            `json:"amplification_coefficient"`
	Fee                      sdkmath.LegacyDec `json:"fee"`
	AdminFee                 sdkmath.LegacyDec `json:"admin_fee"`
}

// PoolParams is the parsed form of an InitMessage.
type PoolParams struct {
	Assets                   []ActorID
	LPAsset                  ActorID
	AmplificationCoefficient sdkmath.LegacyDec
	Fee                      sdkmath.LegacyDec // fraction
	AdminFee                 sdkmath.LegacyDec // fraction
}

// Parse validates the init message and converts percents to fractions.
func (m InitMessage) Parse() (PoolParams, error) {
	ids, err := ParseActorIDList(m.TokenAccounts)
	if err != nil {
		return PoolParams{}, errorsmod.Wrap(ErrInvalidInitMessage, err.Error())
	}
	if len(ids) != 3 {
		return PoolParams{}, errorsmod.Wrapf(ErrInvalidInitMessage, "expected 3 token accounts (asset-x, asset-y, lp), got %d", len(ids))
	}
	if m.AmplificationCoefficient == 0 {
		return PoolParams{}, errorsmod.Wrap(ErrInvalidInitMessage, "amplification coefficient must be positive")
	}
	fee, err := fixedpoint.FromPercent(m.Fee)
	if err != nil {
		return PoolParams{}, errorsmod.Wrapf(ErrInvalidInitMessage, "fee: %v", err)
	}
	adminFee, err := fixedpoint.FromPercent(m.AdminFee)
	if err != nil {
		return PoolParams{}, errorsmod.Wrapf(ErrInvalidInitMessage, "admin fee: %v", err)
	}

	assets := ids[:len(ids)-1]
	return PoolParams{
		Assets:                   append([]ActorID(nil), assets...),
		LPAsset:                  ids[len(ids)-1],
		AmplificationCoefficient: sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(m.AmplificationCoefficient)),
		Fee:                      fee,
		AdminFee:                 adminFee,
	}, nil
}

// Request is implemented by every state-changing request.
type Request interface {
	Kind() OperationKind
	Pool() PoolID
}

// Reply is implemented by every reply to a Request.
type Reply interface {
	Kind() OperationKind
}

type AddLiquidityRequest struct {
	PoolID        PoolID              `json:"pool_id"`
	Amounts       []sdkmath.LegacyDec `json:"amounts"`
	MinMintAmount sdkmath.LegacyDec   `json:"min_mint_amount"` // optional, zero when unset
}

type RemoveLiquidityRequest struct {
	PoolID PoolID            `json:"pool_id"`
	Amount sdkmath.LegacyDec `json:"amount"`
}

type ExchangeRequest struct {
	PoolID      PoolID            `json:"pool_id"`
	I           int               `json:"i"`
	J           int               `json:"j"`
	DxAmount    sdkmath.LegacyDec `json:"dx_amount"`
	MinDyAmount sdkmath.LegacyDec `json:"min_dy_amount"` // optional, zero when unset
}

func (AddLiquidityRequest) Kind() OperationKind    { return OperationAddLiquidity }
func (RemoveLiquidityRequest) Kind() OperationKind { return OperationRemoveLiquidity }
func (ExchangeRequest) Kind() OperationKind        { return OperationExchange }

func (r AddLiquidityRequest) Pool() PoolID    { return r.PoolID }
func (r RemoveLiquidityRequest) Pool() PoolID { return r.PoolID }
func (r ExchangeRequest) Pool() PoolID        { return r.PoolID }

type AddLiquidityReply struct {
	Who        ActorID             `json:"who"`
	PoolID     PoolID              `json:"pool_id"`
	MintAmount sdkmath.LegacyDec   `json:"mint_amount"`
	Fees       []sdkmath.LegacyDec `json:"fees"` // imbalance fee charged per asset
}

type RemoveLiquidityReply struct {
	Who     ActorID             `json:"who"`
	PoolID  PoolID              `json:"pool_id"`
	Amounts []sdkmath.LegacyDec `json:"amounts"`
}

type ExchangeReply struct {
	Who      ActorID           `json:"who"`
	PoolID   PoolID            `json:"pool_id"`
	I        int               `json:"i"`
	J        int               `json:"j"`
	DyAmount sdkmath.LegacyDec `json:"dy_amount"`
	Fee      sdkmath.LegacyDec `json:"fee"`
	AdminFee sdkmath.LegacyDec `json:"admin_fee"`
}

func (AddLiquidityReply) Kind() OperationKind    { return OperationAddLiquidity }
func (RemoveLiquidityReply) Kind() OperationKind { return OperationRemoveLiquidity }
func (ExchangeReply) Kind() OperationKind        { return OperationExchange }

// OrZero returns d, or zero when d was never set.
func OrZero(d sdkmath.LegacyDec) sdkmath.LegacyDec {
	if d.IsNil() {
		return sdkmath.LegacyZeroDec()
	}
	return d
}

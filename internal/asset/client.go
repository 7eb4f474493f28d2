package asset

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/types"
)

// ActorClient implements Client over any Sender for a fixed caller.
type ActorClient struct {
	sender Sender
	caller types.ActorID
}

var (
	_ Client   = (*ActorClient)(nil)
	_ Approver = (*ActorClient)(nil)
)

func NewActorClient(sender Sender, caller types.ActorID) *ActorClient {
	return &ActorClient{sender: sender, caller: caller}
}

func (c *ActorClient) Caller() types.ActorID {
	return c.caller
}

func (c *ActorClient) BalanceOf(ctx context.Context, asset, account types.ActorID) (sdkmath.LegacyDec, error) {
	req := BalanceOf{Account: account}
	reply, err := c.sender.Send(ctx, c.caller, asset, req)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	balance, ok := reply.(Balance)
	if !ok {
		return sdkmath.LegacyDec{}, protocolViolation(asset, req, reply)
	}
	return balance.Amount, nil
}

func (c *ActorClient) TotalSupply(ctx context.Context, asset types.ActorID) (sdkmath.LegacyDec, error) {
	req := TotalSupply{}
	reply, err := c.sender.Send(ctx, c.caller, asset, req)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	supply, ok := reply.(Supply)
	if !ok {
		return sdkmath.LegacyDec{}, protocolViolation(asset, req, reply)
	}
	return supply.Amount, nil
}

func (c *ActorClient) Transfer(ctx context.Context, asset, to types.ActorID, amount sdkmath.LegacyDec) error {
	return c.expectTransferred(ctx, asset, Transfer{To: to, Amount: amount})
}

func (c *ActorClient) TransferFrom(ctx context.Context, asset, owner, to types.ActorID, amount sdkmath.LegacyDec) error {
	return c.expectTransferred(ctx, asset, TransferFrom{Owner: owner, To: to, Amount: amount})
}

func (c *ActorClient) Mint(ctx context.Context, asset, account types.ActorID, amount sdkmath.LegacyDec) error {
	return c.expectTransferred(ctx, asset, Mint{Account: account, Amount: amount})
}

func (c *ActorClient) Burn(ctx context.Context, asset, account types.ActorID, amount sdkmath.LegacyDec) error {
	return c.expectTransferred(ctx, asset, Burn{Account: account, Amount: amount})
}

func (c *ActorClient) Approve(ctx context.Context, asset, spender types.ActorID, approved bool) error {
	req := Approve{Spender: spender, Approved: approved}
	reply, err := c.sender.Send(ctx, c.caller, asset, req)
	if err != nil {
		return err
	}
	if _, ok := reply.(Approved); !ok {
		return protocolViolation(asset, req, reply)
	}
	return nil
}

func (c *ActorClient) expectTransferred(ctx context.Context, asset types.ActorID, req Request) error {
	reply, err := c.sender.Send(ctx, c.caller, asset, req)
	if err != nil {
		return err
	}
	if _, ok := reply.(Transferred); !ok {
		return protocolViolation(asset, req, reply)
	}
	return nil
}

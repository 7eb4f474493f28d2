package assetrpc

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/elys-network/curveamm/internal/asset"
	"github.com/elys-network/curveamm/internal/types"
)

// Error definitions for the transport
var (
	ErrConnectionFailed  = errors.New("connection establishment failed")
	ErrInvalidConnection = errors.New("connection is invalid")
)

// Client implements asset.Client over the gRPC ledger service for a fixed
// caller.
type Client struct {
	conn   grpc.ClientConnInterface
	caller types.ActorID
}

var (
	_ asset.Client   = (*Client)(nil)
	_ asset.Approver = (*Client)(nil)
)

func NewClient(conn grpc.ClientConnInterface, caller types.ActorID) (*Client, error) {
	if conn == nil {
		return nil, errors.Join(ErrInvalidConnection, errors.New("gRPC connection is nil"))
	}
	if cc, ok := conn.(*grpc.ClientConn); ok {
		if err := validateConnection(cc); err != nil {
			return nil, errors.Join(ErrInvalidConnection, err)
		}
	}
	if caller.IsZero() {
		return nil, errors.Join(ErrInvalidConnection, errors.New("caller id is zero"))
	}
	return &Client{conn: conn, caller: caller}, nil
}

// Dial opens a plaintext connection to a ledger service endpoint.
func Dial(endpoint string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if endpoint == "" {
		return nil, errors.Join(ErrConnectionFailed, errors.New("gRPC endpoint is empty"))
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		rpcLogger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to create gRPC client")
		return nil, errors.Join(ErrConnectionFailed, fmt.Errorf("failed to connect to gRPC endpoint %s: %w", endpoint, err))
	}
	rpcLogger.Info().Str("endpoint", endpoint).Msg("gRPC client created")
	return conn, nil
}

func validateConnection(conn *grpc.ClientConn) error {
	switch conn.GetState() {
	case connectivity.Shutdown:
		return errors.New("gRPC connection is shutdown")
	case connectivity.TransientFailure:
		return errors.New("gRPC connection is in transient failure state")
	}
	return nil
}

func (c *Client) Caller() types.ActorID {
	return c.caller
}

func (c *Client) BalanceOf(ctx context.Context, assetID, account types.ActorID) (sdkmath.LegacyDec, error) {
	var resp AmountResponse
	if err := c.invoke(ctx, "BalanceOf", &BalanceOfRequest{Asset: assetID, Account: account}, &resp); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return amountOf(resp, "BalanceOf")
}

func (c *Client) TotalSupply(ctx context.Context, assetID types.ActorID) (sdkmath.LegacyDec, error) {
	var resp AmountResponse
	if err := c.invoke(ctx, "TotalSupply", &TotalSupplyRequest{Asset: assetID}, &resp); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return amountOf(resp, "TotalSupply")
}

func (c *Client) Transfer(ctx context.Context, assetID, to types.ActorID, amount sdkmath.LegacyDec) error {
	var resp TransferResponse
	return c.invoke(ctx, "Transfer", &TransferRequest{Asset: assetID, To: to, Amount: amount}, &resp)
}

func (c *Client) TransferFrom(ctx context.Context, assetID, owner, to types.ActorID, amount sdkmath.LegacyDec) error {
	var resp TransferResponse
	return c.invoke(ctx, "TransferFrom", &TransferFromRequest{Asset: assetID, Owner: owner, To: to, Amount: amount}, &resp)
}

func (c *Client) Mint(ctx context.Context, assetID, account types.ActorID, amount sdkmath.LegacyDec) error {
	var resp TransferResponse
	return c.invoke(ctx, "Mint", &SupplyChangeRequest{Asset: assetID, Account: account, Amount: amount}, &resp)
}

func (c *Client) Burn(ctx context.Context, assetID, account types.ActorID, amount sdkmath.LegacyDec) error {
	var resp TransferResponse
	return c.invoke(ctx, "Burn", &SupplyChangeRequest{Asset: assetID, Account: account, Amount: amount}, &resp)
}

func (c *Client) Approve(ctx context.Context, assetID, spender types.ActorID, approved bool) error {
	var resp ApproveResponse
	return c.invoke(ctx, "Approve", &ApproveRequest{Asset: assetID, Spender: spender, Approved: approved}, &resp)
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	ctx = metadata.AppendToOutgoingContext(ctx, CallerMetadataKey, c.caller.String())
	err := c.conn.Invoke(ctx, fullMethod(method), req, resp, grpc.CallContentSubtype(CodecName))
	return fromStatus(err)
}

func amountOf(resp AmountResponse, method string) (sdkmath.LegacyDec, error) {
	if resp.Amount.IsNil() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s reply carries no amount", asset.ErrProtocolViolation, method)
	}
	return resp.Amount, nil
}

// fromStatus maps gRPC codes back onto the collaborator error taxonomy.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", asset.ErrUnknownActor, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", asset.ErrRejected, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", asset.ErrInvalidRequest, st.Message())
	case codes.Internal:
		return fmt.Errorf("%w: %s", asset.ErrProtocolViolation, st.Message())
	case codes.Canceled:
		return fmt.Errorf("%w: %s", context.Canceled, st.Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", context.DeadlineExceeded, st.Message())
	default:
		return err
	}
}

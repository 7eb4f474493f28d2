/*

This file contains the gRPC ledger service. It fronts an asset.Router: every
unary call is translated into one collaborator message and the reply variant is
checked before it is put on the wire.

*/

package assetrpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/elys-network/curveamm/internal/asset"
	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/types"
)

const (
	ServiceName = "curveamm.asset.v1.Ledger"

	// CallerMetadataKey carries the hex ActorID of the calling actor.
	CallerMetadataKey = "x-actor-id"
)

var rpcLogger = logger.GetForComponent("asset_rpc")

// LedgerServer is the service implementation registered with grpc.
type LedgerServer interface {
	BalanceOf(context.Context, *BalanceOfRequest) (*AmountResponse, error)
	TotalSupply(context.Context, *TotalSupplyRequest) (*AmountResponse, error)
	Transfer(context.Context, *TransferRequest) (*TransferResponse, error)
	TransferFrom(context.Context, *TransferFromRequest) (*TransferResponse, error)
	Mint(context.Context, *SupplyChangeRequest) (*TransferResponse, error)
	Burn(context.Context, *SupplyChangeRequest) (*TransferResponse, error)
	Approve(context.Context, *ApproveRequest) (*ApproveResponse, error)
}

type Server struct {
	sender asset.Sender
}

var _ LedgerServer = (*Server)(nil)

func NewServer(sender asset.Sender) (*Server, error) {
	if sender == nil {
		return nil, errors.New("asset sender is nil")
	}
	return &Server{sender: sender}, nil
}

// Register attaches the service to s.
func (srv *Server) Register(s *grpc.Server) {
	s.RegisterService(&serviceDesc, srv)
}

func (srv *Server) BalanceOf(ctx context.Context, in *BalanceOfRequest) (*AmountResponse, error) {
	reply, err := srv.send(ctx, in.Asset, asset.BalanceOf{Account: in.Account})
	if err != nil {
		return nil, err
	}
	balance, ok := reply.(asset.Balance)
	if !ok {
		return nil, unexpectedReply(reply)
	}
	return &AmountResponse{Amount: balance.Amount}, nil
}

func (srv *Server) TotalSupply(ctx context.Context, in *TotalSupplyRequest) (*AmountResponse, error) {
	reply, err := srv.send(ctx, in.Asset, asset.TotalSupply{})
	if err != nil {
		return nil, err
	}
	supply, ok := reply.(asset.Supply)
	if !ok {
		return nil, unexpectedReply(reply)
	}
	return &AmountResponse{Amount: supply.Amount}, nil
}

func (srv *Server) Transfer(ctx context.Context, in *TransferRequest) (*TransferResponse, error) {
	return srv.transferred(ctx, in.Asset, asset.Transfer{To: in.To, Amount: in.Amount})
}

func (srv *Server) TransferFrom(ctx context.Context, in *TransferFromRequest) (*TransferResponse, error) {
	return srv.transferred(ctx, in.Asset, asset.TransferFrom{Owner: in.Owner, To: in.To, Amount: in.Amount})
}

func (srv *Server) Mint(ctx context.Context, in *SupplyChangeRequest) (*TransferResponse, error) {
	return srv.transferred(ctx, in.Asset, asset.Mint{Account: in.Account, Amount: in.Amount})
}

func (srv *Server) Burn(ctx context.Context, in *SupplyChangeRequest) (*TransferResponse, error) {
	return srv.transferred(ctx, in.Asset, asset.Burn{Account: in.Account, Amount: in.Amount})
}

func (srv *Server) Approve(ctx context.Context, in *ApproveRequest) (*ApproveResponse, error) {
	reply, err := srv.send(ctx, in.Asset, asset.Approve{Spender: in.Spender, Approved: in.Approved})
	if err != nil {
		return nil, err
	}
	approved, ok := reply.(asset.Approved)
	if !ok {
		return nil, unexpectedReply(reply)
	}
	return &ApproveResponse{Owner: approved.Owner, Spender: approved.Spender, Approved: approved.Approved}, nil
}

func (srv *Server) transferred(ctx context.Context, assetID types.ActorID, req asset.Request) (*TransferResponse, error) {
	reply, err := srv.send(ctx, assetID, req)
	if err != nil {
		return nil, err
	}
	t, ok := reply.(asset.Transferred)
	if !ok {
		return nil, unexpectedReply(reply)
	}
	return &TransferResponse{From: t.From, To: t.To, Amount: t.Amount}, nil
}

func (srv *Server) send(ctx context.Context, assetID types.ActorID, req asset.Request) (asset.Reply, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	reply, err := srv.sender.Send(ctx, caller, assetID, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply, nil
}

func callerFromContext(ctx context.Context) (types.ActorID, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return types.ActorID{}, status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get(CallerMetadataKey)
	if len(values) != 1 {
		return types.ActorID{}, status.Errorf(codes.Unauthenticated, "expected one %s header, got %d", CallerMetadataKey, len(values))
	}
	caller, err := types.ParseActorID(values[0])
	if err != nil {
		return types.ActorID{}, status.Error(codes.Unauthenticated, err.Error())
	}
	return caller, nil
}

func unexpectedReply(reply asset.Reply) error {
	return status.Errorf(codes.Internal, "ledger replied with %T", reply)
}

// toStatus maps collaborator errors onto gRPC codes; fromStatus in client.go
// is its inverse.
func toStatus(err error) error {
	switch {
	case errors.Is(err, asset.ErrUnknownActor):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, asset.ErrRejected):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, asset.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, asset.ErrLedgerClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// UnaryLoggingInterceptor logs every call with its duration and status code.
func UnaryLoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	event := rpcLogger.Debug()
	if err != nil {
		event = rpcLogger.Warn().Err(err)
	}
	event.
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Msg("Ledger call")
	return resp, err
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler[Req any, Resp any](method string, call func(LedgerServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BalanceOf", Handler: unaryHandler("BalanceOf", LedgerServer.BalanceOf)},
		{MethodName: "TotalSupply", Handler: unaryHandler("TotalSupply", LedgerServer.TotalSupply)},
		{MethodName: "Transfer", Handler: unaryHandler("Transfer", LedgerServer.Transfer)},
		{MethodName: "TransferFrom", Handler: unaryHandler("TransferFrom", LedgerServer.TransferFrom)},
		{MethodName: "Mint", Handler: unaryHandler("Mint", LedgerServer.Mint)},
		{MethodName: "Burn", Handler: unaryHandler("Burn", LedgerServer.Burn)},
		{MethodName: "Approve", Handler: unaryHandler("Approve", LedgerServer.Approve)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "curveamm/asset/v1/ledger",
}

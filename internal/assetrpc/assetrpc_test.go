package assetrpc

import (
	"context"
	"net"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/elys-network/curveamm/internal/asset"
	"github.com/elys-network/curveamm/internal/types"
)

func actor(b byte) types.ActorID {
	var id types.ActorID
	id[types.ActorIDLength-1] = b
	return id
}

var (
	tokenID = actor(1)
	lpID    = actor(2)
	alice   = actor(10)
	program = actor(12)
)

// startServer runs the ledger service over an in-memory listener and returns a
// connection to it.
func startServer(t *testing.T, sender asset.Sender) *grpc.ClientConn {
	t.Helper()
	listener := bufconn.Listen(1 << 20)

	srv, err := NewServer(sender)
	require.NoError(t, err)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(UnaryLoggingInterceptor))
	srv.Register(grpcServer)
	go func() { _ = grpcServer.Serve(listener) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newRouter(t *testing.T) *asset.Router {
	t.Helper()
	token, err := asset.NewLedger(asset.LedgerConfig{
		ID:       tokenID,
		Balances: map[types.ActorID]sdkmath.LegacyDec{alice: sdkmath.LegacyNewDec(1000)},
	})
	require.NoError(t, err)
	lp, err := asset.NewLedger(asset.LedgerConfig{ID: lpID, Admin: program})
	require.NoError(t, err)

	router, err := asset.NewRouter(token, lp)
	require.NoError(t, err)
	t.Cleanup(router.Close)
	return router
}

func TestClientRoundTrip(t *testing.T) {
	conn := startServer(t, newRouter(t))
	ctx := context.Background()

	aliceClient, err := NewClient(conn, alice)
	require.NoError(t, err)
	programClient, err := NewClient(conn, program)
	require.NoError(t, err)

	balance, err := aliceClient.BalanceOf(ctx, tokenID, alice)
	require.NoError(t, err)
	assert.True(t, balance.Equal(sdkmath.LegacyNewDec(1000)))

	require.NoError(t, aliceClient.Approve(ctx, tokenID, program, true))
	require.NoError(t, programClient.TransferFrom(ctx, tokenID, alice, program, sdkmath.LegacyMustNewDecFromStr("94.956836900512188469")))

	balance, err = programClient.BalanceOf(ctx, tokenID, program)
	require.NoError(t, err)
	assert.Equal(t, "94.956836900512188469", balance.String(), "decimals must survive the JSON codec exactly")

	require.NoError(t, programClient.Transfer(ctx, tokenID, alice, sdkmath.LegacyNewDec(4)))

	require.NoError(t, programClient.Mint(ctx, lpID, alice, sdkmath.LegacyNewDec(20)))
	require.NoError(t, programClient.Burn(ctx, lpID, alice, sdkmath.LegacyNewDec(5)))
	supply, err := aliceClient.TotalSupply(ctx, lpID)
	require.NoError(t, err)
	assert.True(t, supply.Equal(sdkmath.LegacyNewDec(15)))
}

func TestClientMapsErrors(t *testing.T) {
	conn := startServer(t, newRouter(t))
	ctx := context.Background()

	aliceClient, err := NewClient(conn, alice)
	require.NoError(t, err)

	err = aliceClient.Transfer(ctx, tokenID, program, sdkmath.LegacyNewDec(5000))
	assert.ErrorIs(t, err, asset.ErrRejected)

	err = aliceClient.Mint(ctx, lpID, alice, sdkmath.LegacyOneDec())
	assert.ErrorIs(t, err, asset.ErrRejected)

	_, err = aliceClient.BalanceOf(ctx, actor(99), alice)
	assert.ErrorIs(t, err, asset.ErrUnknownActor)

	err = aliceClient.Transfer(ctx, tokenID, program, sdkmath.LegacyNewDec(-1))
	assert.ErrorIs(t, err, asset.ErrInvalidRequest)
}

type wrongReplySender struct{}

func (wrongReplySender) Send(context.Context, types.ActorID, types.ActorID, asset.Request) (asset.Reply, error) {
	return asset.Approved{}, nil
}

func TestServerRejectsWrongReplyVariant(t *testing.T) {
	conn := startServer(t, wrongReplySender{})
	client, err := NewClient(conn, alice)
	require.NoError(t, err)

	_, err = client.BalanceOf(context.Background(), tokenID, alice)
	assert.ErrorIs(t, err, asset.ErrProtocolViolation)
}

func TestServerRequiresCaller(t *testing.T) {
	conn := startServer(t, newRouter(t))

	var resp AmountResponse
	err := conn.Invoke(context.Background(), fullMethod("TotalSupply"), &TotalSupplyRequest{Asset: tokenID}, &resp, grpc.CallContentSubtype(CodecName))
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil, alice)
	assert.ErrorIs(t, err, ErrInvalidConnection)

	conn := startServer(t, newRouter(t))
	_, err = NewClient(conn, types.ActorID{})
	assert.ErrorIs(t, err, ErrInvalidConnection)

	_, err = Dial("")
	assert.ErrorIs(t, err, ErrConnectionFailed)

	_, err = NewServer(nil)
	assert.Error(t, err)
}

func TestCodec(t *testing.T) {
	c := jsonCodec{}
	assert.Equal(t, CodecName, c.Name())

	data, err := c.Marshal(&BalanceOfRequest{Asset: tokenID, Account: alice})
	require.NoError(t, err)

	var decoded BalanceOfRequest
	require.NoError(t, c.Unmarshal(data, &decoded))
	assert.Equal(t, tokenID, decoded.Asset)
	assert.Equal(t, alice, decoded.Account)
}

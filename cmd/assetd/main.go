package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/elys-network/curveamm/internal/asset"
	"github.com/elys-network/curveamm/internal/assetrpc"
	"github.com/elys-network/curveamm/internal/config"
	"github.com/elys-network/curveamm/internal/logger"
)

// main serves in-memory asset ledgers over gRPC.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadAssetConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)

	router, err := asset.NewRouter()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger router")
	}
	defer router.Close()

	for _, id := range config.AssetLedgerIDs {
		ledger, err := asset.NewLedger(asset.LedgerConfig{
			ID:       id,
			Admin:    config.AssetAdminID,
			Balances: config.AssetGenesis,
		})
		if err != nil {
			log.Fatal().Err(err).Str("ledger", id.String()).Msg("Failed to create ledger")
		}
		if err := router.Register(ledger); err != nil {
			log.Fatal().Err(err).Str("ledger", id.String()).Msg("Failed to register ledger")
		}
	}

	srv, err := assetrpc.NewServer(router)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create asset service")
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(assetrpc.UnaryLoggingInterceptor))
	srv.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+config.AssetGRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", config.AssetGRPCPort).Msg("Failed to listen")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info().Msg("Stopping asset ledger service...")
		grpcServer.GracefulStop()
	}()

	log.Info().
		Str("port", config.AssetGRPCPort).
		Int("ledgers", len(config.AssetLedgerIDs)).
		Msg("Asset ledger service listening")
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatal().Err(err).Msg("gRPC server failed")
	}
}

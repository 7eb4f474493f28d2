package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/curveamm/internal/amm"
	"github.com/elys-network/curveamm/internal/assetrpc"
	"github.com/elys-network/curveamm/internal/config"
	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/state"
	"github.com/elys-network/curveamm/internal/web"
)

const shutdownTimeout = 15 * time.Second

// main is the entry point for the AMM program.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)
	if config.LogFile != "" {
		logFile, err := logger.TeeToFile(config.LogFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", config.LogFile).Msg("Failed to open log file")
		}
		defer logFile.Close()
	}
	log.Info().Msg("StableSwap AMM starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. Persistence (optional) ---
	var store *state.Store
	if config.DBEnabled {
		var err error
		store, err = state.Open(ctx, config.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
	} else {
		log.Warn().Msg("DB_HOST not set, pools and receipts will not be persisted")
	}

	// --- 3. Asset collaborators ---
	conn, err := assetrpc.Dial(config.AssetGRPCEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("gRPC connection error")
	}
	defer conn.Close()

	assets, err := assetrpc.NewClient(conn, config.ProgramID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create asset client")
	}
	log.Info().Str("endpoint", config.AssetGRPCEndpoint).Msg("gRPC connected")

	// --- 4. Program ---
	programConfig := amm.Config{
		ProgramID: config.ProgramID,
		Owner:     config.OwnerID,
		Init:      config.PoolInit,
		Assets:    assets,
	}
	var receipts web.ReceiptStore
	if store != nil {
		programConfig.Store = store
		programConfig.Receipts = store
		receipts = store
	}

	program, err := amm.New(ctx, programConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create AMM program")
	}

	// --- 5. Web API ---
	webServer := web.NewWebServer(config.WebPort, program, receipts)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting AMM web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Web server shutdown failed")
	}
}

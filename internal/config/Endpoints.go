package config

import (
	"errors"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/curveamm/internal/types"
)

// Endpoint configuration loaded from environment variables.
var (
	// AssetGRPCEndpoint is the asset ledger service the program dials.
	AssetGRPCEndpoint string
)

// Asset ledger service configuration, populated by LoadAssetConfig.
var (
	// AssetGRPCPort is the port the asset ledger service listens on.
	AssetGRPCPort string
	// AssetLedgerIDs lists the ledgers served, one per asset.
	AssetLedgerIDs []types.ActorID
	// AssetAdminID may mint and burn on every ledger.
	AssetAdminID types.ActorID
	// AssetGenesis holds the initial balances credited on every ledger.
	AssetGenesis map[types.ActorID]sdkmath.LegacyDec
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	AssetGRPCEndpoint, err = getEnv("ASSET_GRPC_ENDPOINT")
	if err != nil {
		return err
	}

	log.Debug().
		Str("AssetGRPCEndpoint", AssetGRPCEndpoint).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}

// LoadAssetConfig loads the asset ledger service configuration.
func LoadAssetConfig() error {
	log.Info().Msg("Loading asset ledger configuration from environment variables...")

	AssetGRPCPort = getEnvOrDefault("ASSET_GRPC_PORT", "9090")
	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	raw, err := getEnv("ASSET_LEDGER_IDS")
	if err != nil {
		return err
	}
	AssetLedgerIDs, err = types.ParseActorIDList(raw)
	if err != nil {
		return errors.New("environment variable ASSET_LEDGER_IDS: " + err.Error())
	}
	if len(AssetLedgerIDs) == 0 {
		return errors.New("environment variable ASSET_LEDGER_IDS lists no ledgers")
	}

	AssetAdminID, err = getEnvAsActorID("ASSET_ADMIN_ID")
	if err != nil {
		return err
	}

	AssetGenesis, err = ParseGenesis(getEnvOrDefault("ASSET_GENESIS", ""))
	if err != nil {
		return err
	}

	log.Debug().
		Int("ledgers", len(AssetLedgerIDs)).
		Str("admin", AssetAdminID.String()).
		Int("genesisAccounts", len(AssetGenesis)).
		Msg("Asset ledger configuration loaded successfully.")

	return nil
}

// ParseGenesis parses "account=amount" pairs separated by commas or semicolons.
func ParseGenesis(s string) (map[types.ActorID]sdkmath.LegacyDec, error) {
	out := make(map[types.ActorID]sdkmath.LegacyDec)
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	for _, field := range fields {
		account, amount, found := strings.Cut(strings.TrimSpace(field), "=")
		if !found {
			return nil, errors.New("genesis entry " + field + " must be account=amount")
		}
		id, err := types.ParseActorID(account)
		if err != nil {
			return nil, errors.New("genesis account " + account + ": " + err.Error())
		}
		value, err := sdkmath.LegacyNewDecFromStr(strings.TrimSpace(amount))
		if err != nil || value.IsNegative() {
			return nil, errors.New("genesis amount for " + account + " must be a non-negative decimal")
		}
		if _, dup := out[id]; dup {
			return nil, errors.New("genesis account " + account + " listed twice")
		}
		out[id] = value
	}
	return out, nil
}

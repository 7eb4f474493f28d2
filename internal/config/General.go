package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/curveamm/internal/state"
	"github.com/elys-network/curveamm/internal/types"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// ProgramID is the identity the program uses towards its asset collaborators.
	ProgramID types.ActorID
	// OwnerID is the initializer of the program and owner of its pool.
	OwnerID types.ActorID

	// WebPort is the HTTP API port.
	WebPort string
	// LogLevel is the zerolog level name.
	LogLevel string
	// LogFile, when set, receives a copy of every log line.
	LogFile string

	// DBEnabled reports whether DB_HOST was set.
	DBEnabled bool
	// DB holds the PostgreSQL connection parameters when DBEnabled.
	DB state.DBConfig
)

// LoadConfig loads the AMM service configuration from environment variables
// and sets the global config vars.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	ProgramID, err = getEnvAsActorID("AMM_PROGRAM_ID")
	if err != nil {
		return err
	}

	OwnerID, err = getEnvAsActorID("AMM_OWNER_ID")
	if err != nil {
		return err
	}

	WebPort = getEnvOrDefault("WEB_PORT", "8080")
	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	LogFile = getEnvOrDefault("LOG_FILE", "")

	if err := loadDBConfig(); err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	if err := loadPoolConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("ProgramID", ProgramID.String()).
		Str("OwnerID", OwnerID.String()).
		Bool("DBEnabled", DBEnabled).
		Msg("Configuration loaded successfully.")

	return nil
}

// loadDBConfig reads DB_*. The store is disabled when DB_HOST is unset.
func loadDBConfig() error {
	host, ok := os.LookupEnv("DB_HOST")
	DBEnabled = ok && host != ""
	if !DBEnabled {
		DB = state.DBConfig{}
		return nil
	}

	port, err := getEnvAsIntOrDefault("DB_PORT", 5432)
	if err != nil {
		return err
	}
	user, err := getEnv("DB_USER")
	if err != nil {
		return err
	}
	name, err := getEnv("DB_NAME")
	if err != nil {
		return err
	}

	DB = state.DBConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   name,
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}
	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, or fallback when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsIntOrDefault retrieves an environment variable as an int, or fallback when unset.
func getEnvAsIntOrDefault(key string, fallback int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsActorID retrieves an environment variable as an ActorID. Returns error if not set or invalid.
func getEnvAsActorID(key string) (types.ActorID, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return types.ActorID{}, err
	}
	id, err := types.ParseActorID(valueStr)
	if err != nil {
		return types.ActorID{}, errors.New("environment variable " + key + " must be a valid actor id: " + err.Error())
	}
	return id, nil
}

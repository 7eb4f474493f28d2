/*

This file contains the default pool parameters. POOL_AMPLIFICATION,
POOL_FEE_PERCENT and POOL_ADMIN_FEE_PERCENT override them; POOL_TOKEN_ACCOUNTS
has no default.

*/

package config

import (
	"errors"
	"os"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/types"
)

// DefaultPoolParameters is the init message used when only the token accounts
// are configured.
var DefaultPoolParameters = types.InitMessage{
	AmplificationCoefficient: 100, // typical for pegged assets

	Fee: sdkmath.LegacyNewDecWithPrec(4, 2), // 0.04% of every exchange output

	AdminFee: sdkmath.LegacyNewDec(50), // half of each fee accrues to the owner
}

// PoolInit is the init message assembled from the environment.
var PoolInit types.InitMessage

func loadPoolConfig() error {
	tokenAccounts, err := getEnv("POOL_TOKEN_ACCOUNTS")
	if err != nil {
		return err
	}

	init := DefaultPoolParameters
	init.TokenAccounts = tokenAccounts

	if _, set := os.LookupEnv("POOL_AMPLIFICATION"); set {
		if init.AmplificationCoefficient, err = getEnvAsUint64("POOL_AMPLIFICATION"); err != nil {
			return err
		}
	}
	if init.Fee, err = getEnvAsPercent("POOL_FEE_PERCENT", init.Fee); err != nil {
		return err
	}
	if init.AdminFee, err = getEnvAsPercent("POOL_ADMIN_FEE_PERCENT", init.AdminFee); err != nil {
		return err
	}

	if _, err := init.Parse(); err != nil {
		return err
	}
	PoolInit = init
	return nil
}

// getEnvAsPercent retrieves an environment variable as a decimal percent, or fallback when unset.
func getEnvAsPercent(key string, fallback sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback, nil
	}
	value, err := sdkmath.LegacyNewDecFromStr(valueStr)
	if err != nil {
		return sdkmath.LegacyDec{}, errors.New("environment variable " + key + " must be a decimal percent, got: " + valueStr)
	}
	return value, nil
}

/*

Read-only views: pool statistics produced by the analyzer and quotes produced
by the simulations package.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

type PoolStats struct {
	Pool         PoolInfo            `json:"pool"`
	Balances     []sdkmath.LegacyDec `json:"balances"`
	LPSupply     sdkmath.LegacyDec   `json:"lp_supply"`
	D            sdkmath.LegacyDec   `json:"d"`             // Current invariant
	VirtualPrice sdkmath.LegacyDec   `json:"virtual_price"` // D / LP supply, zero for an empty pool
	Imbalance    float64             `json:"imbalance"`     // max|xᵢ - mean| / mean, 0 for a balanced pool
	AdminFees    []sdkmath.LegacyDec `json:"admin_fees"`
}

type ExchangeQuote struct {
	DyAmount sdkmath.LegacyDec `json:"dy_amount"`
	Fee      sdkmath.LegacyDec `json:"fee"`
	AdminFee sdkmath.LegacyDec `json:"admin_fee"`
	// PriceImpact compares dy/dx with the rate of a marginal trade.
	PriceImpact float64 `json:"price_impact"`
}

type AddLiquidityQuote struct {
	MintAmount sdkmath.LegacyDec   `json:"mint_amount"`
	Fees       []sdkmath.LegacyDec `json:"fees"`
	D0         sdkmath.LegacyDec   `json:"d0"`
	D1         sdkmath.LegacyDec   `json:"d1"`
}

type RemoveLiquidityQuote struct {
	Amounts []sdkmath.LegacyDec `json:"amounts"`
}

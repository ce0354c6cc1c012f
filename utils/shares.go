package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// PricePrecision is the fixed-point scale for reported share prices: a price
// of PricePrecision means one share redeems for exactly one base unit of the
// underlying asset. With a 6-decimal asset this leaves six fractional digits
// of price headroom. Conversions below never divide by it; all share/asset
// arithmetic multiplies before dividing, so the constant only affects the
// reported price.
var PricePrecision = math.NewInt(1_000_000_000_000)

// CalculateSharesFromAssets returns the number of shares minted for a given
// deposit of assets.
//
// Formula (integer, floor):
//
//	if totalShares == 0:
//	    shares = assets            (1:1 bootstrap)
//	else:
//	    shares = floor( assets * totalShares / totalAssets )
//
// Rounding is down: depositors never receive fractional-share rounding in
// their favor. Error if any input is negative.
func CalculateSharesFromAssets(assets, totalAssets, totalShares math.Int) (math.Int, error) {
	if assets.IsNegative() || totalAssets.IsNegative() || totalShares.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if assets.IsZero() {
		return math.ZeroInt(), nil
	}
	if totalShares.IsZero() {
		return assets, nil
	}
	if totalAssets.IsZero() {
		// Shares exist but assets were wiped out; a deposit here would mint
		// unbounded shares. Treat as 1:1 against the share supply.
		return assets, nil
	}
	return assets.Mul(totalShares).Quo(totalAssets), nil
}

// CalculateAssetsFromShares returns the amount of assets redeemed for a given
// number of shares.
//
// Formula (integer, floor):
//
//	if totalShares == 0:
//	    assets = 0
//	else:
//	    assets = floor( shares * totalAssets / totalShares )
//
// Rounding is down: withdrawers never receive rounding in their favor; the
// vault retains the dust. Error if any input is negative.
func CalculateAssetsFromShares(shares, totalShares, totalAssets math.Int) (math.Int, error) {
	if shares.IsNegative() || totalShares.IsNegative() || totalAssets.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if shares.IsZero() || totalShares.IsZero() {
		return math.ZeroInt(), nil
	}
	return shares.Mul(totalAssets).Quo(totalShares), nil
}

// SharePrice returns the exchange rate between shares and underlying assets
// at PricePrecision fixed point, defined as 1:1 when no shares exist.
func SharePrice(totalAssets, totalShares math.Int) math.Int {
	if totalShares.IsZero() {
		return PricePrecision
	}
	return totalAssets.Mul(PricePrecision).Quo(totalShares)
}

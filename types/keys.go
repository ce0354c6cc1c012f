package types

import "fmt"

const (
	// ModuleName defines the module name.
	ModuleName = "vault"

	// The underlying asset uses 6 fractional decimal digits; every monetary
	// amount in the engine is an integer scaled by AmountScalar. Shares are
	// unscaled integers minted 1:1 against scaled amounts at bootstrap.
	AmountDecimals = 6
	AmountScalar   = 1_000_000
)

// RiskTier identifies one of the pooled funds. The three tiers are instances
// of the same vault entity parameterized by id, not separate implementations.
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// Validate returns an error if the risk tier is not one of the known tiers.
func (t RiskTier) Validate() error {
	switch t {
	case RiskTierLow, RiskTierMedium, RiskTierHigh:
		return nil
	}
	return fmt.Errorf("unknown risk tier %q", string(t))
}

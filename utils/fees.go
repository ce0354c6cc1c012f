package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// CalculateWithdrawalFee computes the fee withheld from a gross withdrawal
// amount. The base rate always applies; the early rate additionally applies
// when the withdrawal happens before the lock period elapses. Rates are
// decimal strings (e.g. "0.005"); an empty rate means zero. The fee is
// truncated toward zero, so rounding favors the withdrawer here and the
// vault's floor rounding elsewhere keeps the ledger whole.
func CalculateWithdrawalFee(gross math.Int, baseRate, earlyRate string, early bool) (math.Int, error) {
	if gross.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}

	rate := math.LegacyZeroDec()
	if baseRate != "" {
		base, err := math.LegacyNewDecFromStr(baseRate)
		if err != nil {
			return math.Int{}, fmt.Errorf("invalid base withdrawal fee %q: %w", baseRate, err)
		}
		rate = rate.Add(base)
	}
	if early && earlyRate != "" {
		earlyDec, err := math.LegacyNewDecFromStr(earlyRate)
		if err != nil {
			return math.Int{}, fmt.Errorf("invalid early withdrawal fee %q: %w", earlyRate, err)
		}
		rate = rate.Add(earlyDec)
	}
	if rate.IsNegative() {
		return math.Int{}, fmt.Errorf("fee rate must be non-negative, got %s", rate)
	}

	fee := math.LegacyNewDecFromInt(gross).Mul(rate).TruncateInt()
	if fee.GT(gross) {
		fee = gross
	}
	return fee, nil
}

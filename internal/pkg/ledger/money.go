package ledger

import "math"

// Round2 rounds a currency amount to 2 decimal places. Every computed
// money boundary passes through here so fractional cents never
// accumulate across settlement steps.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// CommissionFee computes the platform fee for a collected amount.
func CommissionFee(total, percentage float64) float64 {
	return Round2(total * percentage / 100)
}

// ReleaseAmount computes what the payee receives after the fee.
func ReleaseAmount(total, fee float64) float64 {
	return Round2(total - fee)
}

package subscription

import (
	"math"

	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
)

const secondsPerDay = 60 * 60 * 24

// ProrationInputs are the billing-period facts a plan switch is judged
// against. Times are unix seconds; Now comes from the customer's test
// clock when one is attached.
type ProrationInputs struct {
	Now           int64
	PeriodStart   int64
	PeriodEnd     int64
	CurrentAmount float64
	NextAmount    float64
}

// Proration is the day-granularity breakdown of the current billing
// period. RestPercentage is how much of the next plan's price the unused
// remainder is worth, rounded to a whole percent because the coupon it
// feeds takes integer percentages; it caps at 100 since a coupon cannot
// discount more than the full first invoice.
type Proration struct {
	PeriodDays      int
	UsedDays        int
	RestDays        int
	AmountSpent     float64
	AmountRest      float64
	SpentPercentage float64
	RestPercentage  float64
}

// Prorate computes the day-fraction proration of the running period.
func Prorate(in ProrationInputs) Proration {
	periodDays := roundDays(in.PeriodEnd - in.PeriodStart)
	usedDays := roundDays(in.Now - in.PeriodStart)
	restDays := roundDays(in.PeriodEnd - in.Now)

	p := Proration{
		PeriodDays: periodDays,
		UsedDays:   usedDays,
		RestDays:   restDays,
	}
	if periodDays <= 0 || in.NextAmount <= 0 {
		return p
	}

	perDay := in.CurrentAmount / float64(periodDays)
	p.AmountSpent = ledger.Round2(float64(usedDays) * perDay)
	p.AmountRest = ledger.Round2(float64(restDays) * perDay)
	p.SpentPercentage = ledger.Round2(p.AmountSpent / in.NextAmount * 100)
	p.RestPercentage = math.Round(p.AmountRest / in.NextAmount * 100)
	return p
}

// CouponPercent is the discount applied to the first invoice of the new
// plan, clamped to a full discount.
func (p Proration) CouponPercent() float64 {
	if p.RestPercentage > 100 {
		return 100
	}
	return p.RestPercentage
}

func roundDays(seconds int64) int {
	return int(math.Round(float64(seconds) / secondsPerDay))
}

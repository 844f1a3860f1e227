package subscription

import "testing"

func TestProrate_Upgrade(t *testing.T) {
	t.Parallel()

	start := int64(1700000000)
	p := Prorate(ProrationInputs{
		Now:           start + 10*secondsPerDay,
		PeriodStart:   start,
		PeriodEnd:     start + 30*secondsPerDay,
		CurrentAmount: 6,
		NextAmount:    12,
	})

	if p.PeriodDays != 30 || p.UsedDays != 10 || p.RestDays != 20 {
		t.Fatalf("days = %d/%d/%d, want 30/10/20", p.PeriodDays, p.UsedDays, p.RestDays)
	}
	if p.AmountSpent != 2.00 {
		t.Fatalf("AmountSpent = %v, want 2.00", p.AmountSpent)
	}
	if p.AmountRest != 4.00 {
		t.Fatalf("AmountRest = %v, want 4.00", p.AmountRest)
	}
	if p.SpentPercentage != 16.67 {
		t.Fatalf("SpentPercentage = %v, want 16.67", p.SpentPercentage)
	}
	if p.RestPercentage != 33 {
		t.Fatalf("RestPercentage = %v, want 33", p.RestPercentage)
	}
	if p.CouponPercent() != 33 {
		t.Fatalf("CouponPercent = %v, want 33", p.CouponPercent())
	}
}

func TestProrate_RoundsPartialDays(t *testing.T) {
	t.Parallel()

	start := int64(1700000000)
	// 10 days and 13 hours in: rounds to 11 used days.
	p := Prorate(ProrationInputs{
		Now:           start + 10*secondsPerDay + 13*60*60,
		PeriodStart:   start,
		PeriodEnd:     start + 30*secondsPerDay,
		CurrentAmount: 6,
		NextAmount:    12,
	})
	if p.UsedDays != 11 {
		t.Fatalf("UsedDays = %d, want 11", p.UsedDays)
	}
	if p.RestDays != 19 {
		t.Fatalf("RestDays = %d, want 19", p.RestDays)
	}
}

func TestProrate_SameDayIsZeroUsage(t *testing.T) {
	t.Parallel()

	start := int64(1700000000)
	p := Prorate(ProrationInputs{
		Now:           start + 60, // one minute in
		PeriodStart:   start,
		PeriodEnd:     start + 30*secondsPerDay,
		CurrentAmount: 6,
		NextAmount:    6,
	})
	if p.UsedDays != 0 {
		t.Fatalf("UsedDays = %d, want 0", p.UsedDays)
	}
}

func TestProrate_ZeroNextAmount(t *testing.T) {
	t.Parallel()

	start := int64(1700000000)
	p := Prorate(ProrationInputs{
		Now:           start + 5*secondsPerDay,
		PeriodStart:   start,
		PeriodEnd:     start + 30*secondsPerDay,
		CurrentAmount: 6,
		NextAmount:    0,
	})
	if p.AmountSpent != 0 || p.RestPercentage != 0 {
		t.Fatalf("expected no amounts with zero next amount, got %+v", p)
	}
}

func TestCouponPercent_ClampsAtFullDiscount(t *testing.T) {
	t.Parallel()

	start := int64(1700000000)
	// Downgrade-sized gap: the remainder of a pricey plan is worth more
	// than the whole first invoice of the cheap one.
	p := Prorate(ProrationInputs{
		Now:           start + 1*secondsPerDay,
		PeriodStart:   start,
		PeriodEnd:     start + 30*secondsPerDay,
		CurrentAmount: 120,
		NextAmount:    6,
	})
	if p.RestPercentage <= 100 {
		t.Fatalf("RestPercentage = %v, expected above 100 before clamping", p.RestPercentage)
	}
	if p.CouponPercent() != 100 {
		t.Fatalf("CouponPercent = %v, want 100", p.CouponPercent())
	}
}

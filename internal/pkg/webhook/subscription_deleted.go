package webhook

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
)

// handleSubscriptionDeleted completes a scheduled downgrade: when the
// expiring subscription carries the expecting_downgrade marker, the
// replacement subscription on the cheaper plan is created immediately
// from the customer's stored payment method. When anything prevents
// that, the local subscription link is cleared so the user is simply
// unsubscribed rather than stuck on a phantom plan.
func (d *Dispatcher) handleSubscriptionDeleted(ctx context.Context, event *payment.Event) *Result {
	var sub payment.Subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return failure(err, "Subscription Deleted")
	}

	if err := d.startDowngradeReplacement(ctx, &sub); err != nil {
		d.clearSubscriptionLink(sub.ID)
		return failure(err, "Subscription Deleted")
	}
	return &Result{Success: true}
}

func (d *Dispatcher) startDowngradeReplacement(ctx context.Context, sub *payment.Subscription) error {
	downgrade, ok := payment.ParseExpectingDowngrade(sub.Metadata)
	if !ok {
		return apperr.New(apperr.ErrInvalidState, "No subscription is waiting")
	}

	info, err := d.store.BillingInfoBySubscription(sub.ID)
	if err != nil {
		return err
	}

	customer, err := d.gateway.GetCustomer(ctx, info.CustomerID)
	if err != nil {
		return err
	}
	if !customer.HasDefaultPaymentMethod() {
		return apperr.New(apperr.ErrInvalidState, "No Customer Payment Method")
	}

	plan, err := d.store.Plan(downgrade.TargetedPlanID)
	if err != nil {
		return err
	}

	priceData := plan.PriceDataFor(downgrade.ChargePeriod)
	price, err := d.gateway.GetPrice(ctx, priceData.PriceID)
	if err != nil || price == nil {
		return apperr.New(apperr.ErrNotFound, "Subscription Price Not Found")
	}

	couponID := ""
	if priceData.CouponID != "" {
		if coupon, err := d.gateway.GetCoupon(ctx, priceData.CouponID); err == nil && coupon != nil {
			couponID = coupon.ID
		}
	}

	replacement, err := d.gateway.CreateSubscription(ctx, payment.SubscriptionParams{
		CustomerID: customer.ID,
		PriceID:    price.ID,
		CouponID:   couponID,
		Metadata: map[string]string{
			payment.MetaCurrentPlanID: strconv.FormatUint(uint64(plan.ID), 10),
		},
	})
	if err != nil {
		return err
	}

	info.SubscriptionID = replacement.ID
	return d.store.SaveBillingInfo(info)
}

// clearSubscriptionLink unsubscribes the user locally after a failed
// replacement. Best effort: the link may already be gone.
func (d *Dispatcher) clearSubscriptionLink(subscriptionID string) {
	info, err := d.store.BillingInfoBySubscription(subscriptionID)
	if err != nil {
		return
	}
	info.SubscriptionID = ""
	if err := d.store.SaveBillingInfo(info); err != nil {
		log.Errorf("[Webhook] clearing subscription link %s failed: %v", subscriptionID, err)
	}
}

package subscription

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/mail"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
	"gorm.io/gorm"
)

// TrialPeriodDays is the free trial granted to first-time subscribers.
const TrialPeriodDays = 30

// Gift grants run on fixed-length periods, not calendar months.
const (
	GiftPeriodMonthDuration = 30 * 24 * time.Hour
	GiftPeriodYearDuration  = 365 * 24 * time.Hour
)

var errNoPrice = apperr.New(apperr.ErrNotFound, "Subscription Price Not Found")

// Mailer enqueues a transactional email for asynchronous delivery.
type Mailer interface {
	EnqueueMail(to, subject, body string)
}

// Service runs the subscription lifecycle: trial starts, prorated plan
// switches, scheduled downgrades and gift-code redemption. The gateway
// subscription object is the source of truth; locally only the
// customer/subscription link and gift grants are stored.
type Service struct {
	store   Store
	gateway payment.Gateway
	mailer  Mailer
	now     func() time.Time
}

func NewService(store Store, gateway payment.Gateway, mailer Mailer) *Service {
	return &Service{store: store, gateway: gateway, mailer: mailer, now: time.Now}
}

func NewServiceFromDB(db *gorm.DB, gateway payment.Gateway, mailer Mailer) *Service {
	return NewService(NewStore(db), gateway, mailer)
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// EnsureBillingInfo returns the user's gateway link, creating the remote
// customer (under a fresh sandbox test clock) on first contact.
func (s *Service) EnsureBillingInfo(ctx context.Context, user *models.User) (*models.UserBillingInfo, error) {
	info, err := s.store.BillingInfoByUser(user.ID)
	if err == nil {
		return info, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	customer, err := s.createCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	info = &models.UserBillingInfo{UserID: user.ID, CustomerID: customer.ID}
	if err := s.store.CreateBillingInfo(info); err != nil {
		return nil, err
	}
	return info, nil
}

// EnsureCustomer resolves the user's gateway customer, recreating it if
// the remote side deleted it.
func (s *Service) EnsureCustomer(ctx context.Context, user *models.User) (*payment.Customer, *models.UserBillingInfo, error) {
	info, err := s.EnsureBillingInfo(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	customer, err := s.gateway.GetCustomer(ctx, info.CustomerID)
	if err != nil || customer == nil || customer.Deleted {
		customer, err = s.createCustomer(ctx, user)
		if err != nil {
			return nil, nil, err
		}
		info.CustomerID = customer.ID
		if err := s.store.SaveBillingInfo(info); err != nil {
			return nil, nil, err
		}
	}
	return customer, info, nil
}

func (s *Service) createCustomer(ctx context.Context, user *models.User) (*payment.Customer, error) {
	clock, err := s.gateway.CreateTestClock(ctx, s.now().Unix())
	if err != nil {
		return nil, apperr.New(apperr.ErrUpstream, "Something went wrong")
	}
	customer, err := s.gateway.CreateCustomer(ctx, user.Email, user.Name, clock.ID)
	if err != nil || customer == nil || customer.Deleted {
		return nil, apperr.New(apperr.ErrUpstream, "Something went wrong")
	}
	return customer, nil
}

// gatewayNow is the subscription engine's "now": the customer's frozen
// test clock when one is attached, wall clock otherwise.
func (s *Service) gatewayNow(ctx context.Context, customer *payment.Customer) int64 {
	if customer.TestClock != "" {
		if clock, err := s.gateway.GetTestClock(ctx, customer.TestClock); err == nil && !clock.Deleted {
			return clock.FrozenTime
		}
	}
	return s.now().Unix()
}

// activeGiftSub returns the user's gift grant if it is still valid,
// lazily deactivating an expired one.
func (s *Service) activeGiftSub(userID uint) (*models.SubscriptionGift, error) {
	sub, err := s.store.ActiveGiftSub(userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if sub.ValidAt(s.now()) {
		return sub, nil
	}
	sub.Active = false
	if err := s.store.SaveGiftSub(sub); err != nil {
		return nil, err
	}
	return nil, nil
}

// gatewaySub returns the user's remote subscription or nil when none is
// linked or the remote lookup fails.
func (s *Service) gatewaySub(ctx context.Context, userID uint) (*payment.Subscription, *models.UserBillingInfo) {
	info, err := s.store.BillingInfoByUser(userID)
	if err != nil || info.SubscriptionID == "" {
		return nil, info
	}
	sub, err := s.gateway.GetSubscription(ctx, info.SubscriptionID)
	if err != nil {
		return nil, info
	}
	return sub, info
}

// IsSubscribed reports whether the user holds any valid entitlement,
// gift grant or gateway subscription.
func (s *Service) IsSubscribed(ctx context.Context, userID uint) bool {
	if gift, _ := s.activeGiftSub(userID); gift != nil {
		return true
	}
	sub, _ := s.gatewaySub(ctx, userID)
	return sub.IsEntitling()
}

// Current resolves what the user is subscribed to right now. Gift grants
// take precedence over gateway subscriptions.
func (s *Service) Current(ctx context.Context, userID uint) (interface{}, error) {
	gift, err := s.activeGiftSub(userID)
	if err != nil {
		return nil, err
	}
	if gift != nil {
		return mapGiftSub(gift, s.now()), nil
	}

	user, err := s.store.User(userID)
	if err != nil {
		return nil, err
	}
	sub, _ := s.gatewaySub(ctx, userID)
	if sub != nil {
		customer, _, err := s.EnsureCustomer(ctx, user)
		if err != nil {
			return nil, err
		}
		return s.mapSubscription(sub, s.gatewayNow(ctx, customer))
	}

	return nil, apperr.New(apperr.ErrUnauthorized,
		"You're Not Subscribed, Please Subscribe to access this feature.").
		WithRedirect("/page/subscriptions")
}

// Subscribe starts, upgrades or downgrades the user's recurring
// subscription to the targeted plan.
//
// First-time subscribers get a trial. An entitled subscriber switching
// to a cheaper plan is scheduled: the current subscription runs to
// period end carrying the expecting_downgrade marker. Switching to a
// pricier plan happens immediately with the unused remainder returned as
// a one-off coupon on the first invoice.
func (s *Service) Subscribe(ctx context.Context, userID, planID uint, chargePeriod string) (*SubscriptionView, error) {
	if chargePeriod != models.ChargePeriodMonth && chargePeriod != models.ChargePeriodYear {
		chargePeriod = models.ChargePeriodMonth
	}

	gift, err := s.activeGiftSub(userID)
	if err != nil {
		return nil, err
	}
	if gift != nil {
		return nil, apperr.New(apperr.ErrUnauthorized,
			"You Already have a valid subscription, Enjoy your Gift").
			WithRedirect("/my-subscription")
	}

	user, err := s.store.User(userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.store.Plan(planID)
	if err != nil {
		return nil, err
	}

	customer, info, err := s.EnsureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	targetedPrice, err := s.gateway.GetPrice(ctx, plan.PriceDataFor(chargePeriod).PriceID)
	if err != nil || targetedPrice == nil {
		return nil, errNoPrice
	}

	nowTime := s.gatewayNow(ctx, customer)

	if !user.TrialUsed {
		sub, err := s.createLinkedSubscription(ctx, info, payment.SubscriptionParams{
			CustomerID:      customer.ID,
			PriceID:         targetedPrice.ID,
			TrialPeriodDays: TrialPeriodDays,
			Metadata:        planMetadata(plan.ID),
		})
		if err != nil {
			return nil, err
		}
		user.TrialUsed = true
		if err := s.store.SaveUser(user); err != nil {
			return nil, err
		}
		return s.mapSubscription(sub, nowTime)
	}

	var currentSub *payment.Subscription
	if info.SubscriptionID != "" {
		currentSub, _ = s.gateway.GetSubscription(ctx, info.SubscriptionID)
	}

	if !customer.HasDefaultPaymentMethod() {
		return nil, apperr.New(apperr.ErrUnauthorized,
			"Please add a default payment method before upgrade or downgrade your subscription").
			WithRedirect("/payment-methods")
	}

	if currentSub.IsEntitling() {
		return s.switchPlan(ctx, info, customer, currentSub, plan, targetedPrice, chargePeriod, nowTime)
	}

	sub, err := s.createLinkedSubscription(ctx, info, payment.SubscriptionParams{
		CustomerID: customer.ID,
		PriceID:    targetedPrice.ID,
		Metadata:   planMetadata(plan.ID),
	})
	if err != nil {
		return nil, err
	}
	s.retireSubscription(ctx, currentSub)
	return s.mapSubscription(sub, nowTime)
}

func (s *Service) switchPlan(ctx context.Context, info *models.UserBillingInfo, customer *payment.Customer, currentSub *payment.Subscription, plan *models.Plan, targetedPrice *payment.Price, chargePeriod string, nowTime int64) (*SubscriptionView, error) {
	price, ok := currentSub.FirstPrice()
	if !ok {
		return nil, errNoPrice
	}

	proration := Prorate(ProrationInputs{
		Now:           nowTime,
		PeriodStart:   currentSub.CurrentPeriodStart,
		PeriodEnd:     currentSub.CurrentPeriodEnd,
		CurrentAmount: price.AmountMajor(),
		NextAmount:    targetedPrice.AmountMajor(),
	})

	if price.ID == targetedPrice.ID && proration.UsedDays < 1 {
		return nil, apperr.New(apperr.ErrTooSoon,
			"Subscribing again to the same plan require at least 1 day of usage, want to upgrade or downgrade?").
			WithRedirect("/page/subscriptions")
	}

	if price.AmountMajor() > targetedPrice.AmountMajor() {
		metadata := map[string]string{
			payment.MetaExpectingDowngrade: payment.ExpectingDowngrade{
				WillStartIn:    currentSub.CurrentPeriodEnd,
				TargetedPlanID: plan.ID,
				ChargePeriod:   chargePeriod,
			}.Encode(),
		}
		cancel := true
		updated, err := s.gateway.UpdateSubscription(ctx, currentSub.ID, payment.SubscriptionUpdate{
			CancelAtPeriodEnd: &cancel,
			Metadata:          metadata,
		})
		if err != nil {
			return nil, err
		}
		return s.mapSubscription(updated, nowTime)
	}

	coupon, err := s.gateway.CreateCoupon(ctx, proration.CouponPercent(), "once")
	if err != nil {
		return nil, err
	}

	sub, err := s.createLinkedSubscription(ctx, info, payment.SubscriptionParams{
		CustomerID: customer.ID,
		PriceID:    targetedPrice.ID,
		CouponID:   coupon.ID,
		Metadata:   planMetadata(plan.ID),
	})
	if err != nil {
		return nil, err
	}
	s.retireSubscription(ctx, currentSub)
	return s.mapSubscription(sub, nowTime)
}

func (s *Service) createLinkedSubscription(ctx context.Context, info *models.UserBillingInfo, params payment.SubscriptionParams) (*payment.Subscription, error) {
	sub, err := s.gateway.CreateSubscription(ctx, params)
	if err != nil {
		return nil, err
	}
	info.SubscriptionID = sub.ID
	if err := s.store.SaveBillingInfo(info); err != nil {
		return nil, err
	}
	return sub, nil
}

// retireSubscription clears the downgrade marker and cancels the old
// subscription. Best effort: the replacement is already linked.
func (s *Service) retireSubscription(ctx context.Context, sub *payment.Subscription) {
	if sub == nil {
		return
	}
	if _, err := s.gateway.UpdateSubscription(ctx, sub.ID, payment.SubscriptionUpdate{
		Metadata: map[string]string{payment.MetaExpectingDowngrade: ""},
	}); err != nil {
		log.Warnf("[Subscription] clearing downgrade marker on %s failed: %v", sub.ID, err)
	}
	if err := s.gateway.CancelSubscription(ctx, sub.ID); err != nil {
		log.Warnf("[Subscription] cancelling %s failed: %v", sub.ID, err)
	}
}

// RedeemGiftCode turns a paid voucher into a gift grant. A voucher for
// the plan the user already holds a grant on extends it; a voucher for a
// different plan is rejected rather than merged.
func (s *Service) RedeemGiftCode(ctx context.Context, userID uint, code string) (*GiftSubView, error) {
	user, err := s.store.User(userID)
	if err != nil {
		return nil, err
	}

	if sub, _ := s.gatewaySub(ctx, userID); sub.IsEntitling() {
		return nil, apperr.New(apperr.ErrUnauthorized, "You're already subscribed").
			WithRedirect("/my-subscription")
	}

	gift, err := s.store.GiftByCode(code)
	if err != nil {
		return nil, err
	}
	if gift.IsUsed() {
		return nil, apperr.New(apperr.ErrAlreadyUsed, "Subscription Gift code already used")
	}

	periodTime := GiftPeriodMonthDuration
	if gift.Period == models.GiftPeriodYear {
		periodTime = GiftPeriodYearDuration
	}

	now := s.now()

	current, err := s.activeGiftSub(userID)
	if err != nil {
		return nil, err
	}

	var grant *models.SubscriptionGift
	if current != nil {
		if current.TargetedPlanID != gift.TargetedPlanID {
			return nil, apperr.New(apperr.ErrPlanMismatch,
				"You're subscribed to another plan, can't merge two different plans!").
				WithRedirect("/my-subscription")
		}
		current.CancelAt = current.CancelAt.Add(periodTime)
		current.PeriodTime += periodTime
		current.Active = true
		if err := s.store.SaveGiftSub(current); err != nil {
			return nil, err
		}
		grant = current
	} else {
		if _, err := s.store.Plan(gift.TargetedPlanID); err != nil {
			return nil, apperr.New(apperr.ErrNotFound, "Targeted Subscription not found")
		}
		grant = &models.SubscriptionGift{
			UserID:         userID,
			StartDate:      now,
			CancelAt:       now.Add(periodTime),
			GiftID:         gift.ID,
			TargetedPlanID: gift.TargetedPlanID,
			Period:         gift.Period,
			PeriodTime:     periodTime,
			Active:         true,
		}
		if err := s.store.CreateGiftSub(grant); err != nil {
			return nil, err
		}
	}

	gift.UsedByID = &userID
	gift.UsedAt = &now
	gift.RefID = strconv.FormatUint(uint64(grant.ID), 10)
	if err := s.store.SaveGift(gift); err != nil {
		return nil, err
	}

	codeSpan := fmt.Sprintf(`<span style="color: #fab702">%s</span>`, gift.Code)
	if buyer, err := s.store.User(gift.BuyerID); err == nil {
		subject, body := mail.GiftCodeUsed(buyer.Name,
			fmt.Sprintf("Your %s Code %s is used by %s", mail.GiftAnchor(gift.ID), codeSpan, user.Name))
		s.mailer.EnqueueMail(buyer.Email, subject, body)
	}
	subject, body := mail.GiftCodeUsed(user.Name,
		"A subscription was successfully Added to your account by gift code.")
	s.mailer.EnqueueMail(user.Email, subject, body)

	return mapGiftSub(grant, now), nil
}

func planMetadata(planID uint) map[string]string {
	return map[string]string{
		payment.MetaCurrentPlanID: strconv.FormatUint(uint64(planID), 10),
	}
}

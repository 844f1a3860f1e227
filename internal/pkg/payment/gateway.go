package payment

import "context"

// CheckoutParams describes a one-off checkout to open at the gateway.
type CheckoutParams struct {
	Name        string
	AmountPence int64
	Currency    string
	CustomerID  string
	Ref         string
	// PaymentType disambiguates Ref: order, gift and advertisement ids
	// are drawn from separate tables and can collide.
	PaymentType string
	ConnID      string
	SuccessURL  string
	CancelURL   string
}

// SubscriptionParams describes a recurring subscription to create.
type SubscriptionParams struct {
	CustomerID      string
	PriceID         string
	CouponID        string
	TrialPeriodDays int
	Metadata        map[string]string
}

// SubscriptionUpdate carries the mutable subscription fields the engine
// touches. Nil means leave unchanged; setting a metadata value to the
// empty string unsets the key.
type SubscriptionUpdate struct {
	CancelAtPeriodEnd *bool
	Metadata          map[string]string
}

// Gateway is the payment-provider surface the settlement and
// subscription engines depend on. The production implementation is
// Client; tests substitute fakes.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	CreateRefund(ctx context.Context, paymentIntentID string) (*Refund, error)

	CreateCustomer(ctx context.Context, email, name, testClockID string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)

	CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, update SubscriptionUpdate) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error

	GetPrice(ctx context.Context, priceID string) (*Price, error)
	GetCoupon(ctx context.Context, couponID string) (*Coupon, error)
	CreateCoupon(ctx context.Context, percentOff float64, duration string) (*Coupon, error)

	CreateTestClock(ctx context.Context, frozenTime int64) (*TestClock, error)
	GetTestClock(ctx context.Context, clockID string) (*TestClock, error)
	AdvanceTestClock(ctx context.Context, clockID string, frozenTime int64) (*TestClock, error)
}

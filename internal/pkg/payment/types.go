package payment

import (
	"encoding/json"
	"strconv"
)

// Event is the webhook envelope posted by the payment gateway.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// PaymentIntent is the charge-capture object carried by
// payment_intent.succeeded events.
type PaymentIntent struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// Charge is the object carried by charge.refunded events.
type Charge struct {
	ID             string            `json:"id"`
	PaymentIntent  string            `json:"payment_intent"`
	AmountRefunded int64             `json:"amount_refunded"`
	ReceiptURL     string            `json:"receipt_url"`
	Refunded       bool              `json:"refunded"`
	Created        int64             `json:"created"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
}

// CheckoutSession is the remote checkout object.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

// Subscription statuses the engine cares about. Anything else is treated
// as non-entitling.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusCanceled = "canceled"
)

// SubscriptionItem is one priced line of a recurring subscription.
type SubscriptionItem struct {
	ID    string `json:"id"`
	Price Price  `json:"price"`
}

// Subscription mirrors the gateway recurring subscription object. It is
// never persisted locally; the engine reads it fresh per operation.
type Subscription struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	CustomerID         string            `json:"customer"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	TrialEnd           int64             `json:"trial_end"`
	Items              struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// FirstPrice returns the price of the first subscription item.
func (s *Subscription) FirstPrice() (Price, bool) {
	if len(s.Items.Data) == 0 {
		return Price{}, false
	}
	return s.Items.Data[0].Price, true
}

// IsEntitling reports whether the subscription currently grants access.
func (s *Subscription) IsEntitling() bool {
	return s != nil && (s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing)
}

// Price is a gateway price. UnitAmount is in minor currency units.
type Price struct {
	ID         string `json:"id"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Recurring  struct {
		Interval string `json:"interval"`
	} `json:"recurring"`
}

// AmountMajor returns the price in major currency units.
func (p Price) AmountMajor() float64 {
	return float64(p.UnitAmount) / 100
}

// Coupon is a gateway discount coupon.
type Coupon struct {
	ID         string  `json:"id"`
	PercentOff float64 `json:"percent_off"`
	Duration   string  `json:"duration"`
}

// Customer is the gateway customer object.
type Customer struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Deleted         bool   `json:"deleted"`
	TestClock       string `json:"test_clock"`
	InvoiceSettings struct {
		DefaultPaymentMethod string `json:"default_payment_method"`
	} `json:"invoice_settings"`
}

// HasDefaultPaymentMethod reports whether the customer can be charged
// without a new checkout.
func (c *Customer) HasDefaultPaymentMethod() bool {
	return c != nil && c.InvoiceSettings.DefaultPaymentMethod != ""
}

// TestClock is the gateway sandbox clock attached to a customer. Frozen
// time is a unix timestamp in seconds.
type TestClock struct {
	ID         string `json:"id"`
	FrozenTime int64  `json:"frozen_time"`
	Deleted    bool   `json:"deleted"`
}

// Refund is the result of a payment-intent refund.
type Refund struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
}

// Subscription metadata keys used by the proration engine.
const (
	MetaCurrentPlanID      = "current_sub_id"
	MetaExpectingDowngrade = "expecting_downgrade"
)

// ExpectingDowngrade is the JSON payload stamped on a subscription that
// was scheduled to cancel at period end in favour of a cheaper plan.
type ExpectingDowngrade struct {
	TargetedPlanID uint   `json:"targeted_sub_id"`
	ChargePeriod   string `json:"charge_period"`
	WillStartIn    int64  `json:"will_start_in"`
}

// Encode serializes the downgrade marker for subscription metadata.
func (d ExpectingDowngrade) Encode() string {
	b, _ := json.Marshal(d)
	return string(b)
}

// ParseExpectingDowngrade reads the downgrade marker from subscription
// metadata. Returns false when absent or empty.
func ParseExpectingDowngrade(metadata map[string]string) (ExpectingDowngrade, bool) {
	raw, ok := metadata[MetaExpectingDowngrade]
	if !ok || raw == "" || raw == "null" {
		return ExpectingDowngrade{}, false
	}
	var d ExpectingDowngrade
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return ExpectingDowngrade{}, false
	}
	return d, true
}

// CurrentPlanID reads the local plan id stamped on subscription metadata.
func CurrentPlanID(metadata map[string]string) (uint, bool) {
	raw, ok := metadata[MetaCurrentPlanID]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

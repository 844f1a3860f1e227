package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/posterdeck/posterdeck/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.stripe.com/v1"

// Client talks to the payment gateway REST API. Requests are
// form-encoded POSTs or plain GETs authenticated with the secret key.
type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

var _ Gateway = (*Client)(nil)

// NewClientFromEnv builds a gateway client from environment config.
func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("PAYMENT_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("PAYMENT_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("PAYMENT_SECRET_KEY is not configured")
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway request %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// CreateCheckoutSession opens a one-off payment checkout carrying ref and
// connection id metadata on both the session and the payment intent.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	currency := params.Currency
	if currency == "" {
		currency = "gbp"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][product_data][name]", params.Name)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountPence, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("metadata[ref]", params.Ref)
	form.Set("metadata[paymentType]", params.PaymentType)
	form.Set("metadata[connId]", params.ConnID)
	form.Set("payment_intent_data[metadata][ref]", params.Ref)
	form.Set("payment_intent_data[metadata][paymentType]", params.PaymentType)
	form.Set("payment_intent_data[metadata][connId]", params.ConnID)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerID != "" {
		form.Set("customer", params.CustomerID)
	}

	var out CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExpireCheckoutSession invalidates a still-open remote checkout.
func (c *Client) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/checkout/sessions/"+url.PathEscape(sessionID)+"/expire", url.Values{}, nil)
}

// CreateRefund refunds a captured payment intent in full.
func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)

	var out Refund
	if err := c.do(ctx, http.MethodPost, "/refunds", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCustomer registers a gateway customer.
func (c *Client) CreateCustomer(ctx context.Context, email, name, testClockID string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)
	if testClockID != "" {
		form.Set("test_clock", testClockID)
	}

	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCustomer retrieves a gateway customer.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription creates a recurring subscription.
func (c *Client) CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error) {
	form := url.Values{}
	form.Set("customer", params.CustomerID)
	form.Set("items[0][price]", params.PriceID)
	if params.CouponID != "" {
		form.Set("coupon", params.CouponID)
	}
	if params.TrialPeriodDays > 0 {
		form.Set("trial_period_days", strconv.Itoa(params.TrialPeriodDays))
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var out Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscription retrieves a recurring subscription.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var out Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(subscriptionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSubscription applies the given update to a subscription.
func (c *Client) UpdateSubscription(ctx context.Context, subscriptionID string, update SubscriptionUpdate) (*Subscription, error) {
	form := url.Values{}
	if update.CancelAtPeriodEnd != nil {
		form.Set("cancel_at_period_end", strconv.FormatBool(*update.CancelAtPeriodEnd))
	}
	for k, v := range update.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var out Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(subscriptionID), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription cancels a subscription immediately.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(subscriptionID), nil, nil)
}

// GetPrice retrieves a gateway price.
func (c *Client) GetPrice(ctx context.Context, priceID string) (*Price, error) {
	var out Price
	if err := c.do(ctx, http.MethodGet, "/prices/"+url.PathEscape(priceID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCoupon retrieves a gateway coupon.
func (c *Client) GetCoupon(ctx context.Context, couponID string) (*Coupon, error) {
	var out Coupon
	if err := c.do(ctx, http.MethodGet, "/coupons/"+url.PathEscape(couponID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCoupon issues a percent-off coupon. Duration "once" applies it to
// a single invoice.
func (c *Client) CreateCoupon(ctx context.Context, percentOff float64, duration string) (*Coupon, error) {
	form := url.Values{}
	form.Set("percent_off", strconv.FormatFloat(percentOff, 'f', -1, 64))
	form.Set("duration", duration)

	var out Coupon
	if err := c.do(ctx, http.MethodPost, "/coupons", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTestClock creates a sandbox test clock frozen at frozenTime.
func (c *Client) CreateTestClock(ctx context.Context, frozenTime int64) (*TestClock, error) {
	form := url.Values{}
	form.Set("frozen_time", strconv.FormatInt(frozenTime, 10))

	var out TestClock
	if err := c.do(ctx, http.MethodPost, "/test_helpers/test_clocks", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTestClock retrieves a sandbox test clock.
func (c *Client) GetTestClock(ctx context.Context, clockID string) (*TestClock, error) {
	var out TestClock
	if err := c.do(ctx, http.MethodGet, "/test_helpers/test_clocks/"+url.PathEscape(clockID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvanceTestClock moves a sandbox test clock forward to frozenTime.
func (c *Client) AdvanceTestClock(ctx context.Context, clockID string, frozenTime int64) (*TestClock, error) {
	form := url.Values{}
	form.Set("frozen_time", strconv.FormatInt(frozenTime, 10))

	var out TestClock
	if err := c.do(ctx, http.MethodPost, "/test_helpers/test_clocks/"+url.PathEscape(clockID)+"/advance", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
	"github.com/posterdeck/posterdeck/internal/pkg/notify"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
	"gorm.io/gorm"
)

// Event types the dispatcher handles. Anything else is rejected so the
// gateway stops retrying deliveries we will never act on.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventChargeRefunded         = "charge.refunded"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
)

// Mailer enqueues a transactional email for asynchronous delivery.
type Mailer interface {
	EnqueueMail(to, subject, body string)
}

// Result is the handler outcome returned to the gateway. A non-success
// result is acknowledged with a 5xx so the delivery is retried.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Dispatcher verifies, deduplicates and routes inbound gateway webhooks.
type Dispatcher struct {
	store   Store
	gateway payment.Gateway
	ledger  *ledger.Service
	notify  *notify.Registry
	mailer  Mailer
	secret  string
	now     func() time.Time
}

func NewDispatcher(store Store, gateway payment.Gateway, ledgerSvc *ledger.Service, registry *notify.Registry, mailer Mailer, secret string) *Dispatcher {
	return &Dispatcher{
		store:   store,
		gateway: gateway,
		ledger:  ledgerSvc,
		notify:  registry,
		mailer:  mailer,
		secret:  secret,
		now:     time.Now,
	}
}

func NewDispatcherFromDB(db *gorm.DB, gateway payment.Gateway, registry *notify.Registry, mailer Mailer, secret string) *Dispatcher {
	return NewDispatcher(NewStore(db), gateway, ledger.NewServiceFromDB(db), registry, mailer, secret)
}

// WithClock overrides the dispatcher clock, for tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Handle processes one raw webhook delivery. Signature and envelope
// failures return an error before any side effect; handler failures
// return a non-success Result after the attempt was recorded.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, signatureHeader string) (*Result, error) {
	if !payment.VerifyWebhookSignature(payload, signatureHeader, d.secret, d.now()) {
		return nil, apperr.New(apperr.ErrUnauthorized, "Invalid webhook signature")
	}

	var event payment.Event
	if err := json.Unmarshal(payload, &event); err != nil || event.ID == "" || event.Type == "" {
		return nil, apperr.New(apperr.ErrInvalidState, "Malformed webhook payload")
	}

	switch event.Type {
	case EventPaymentIntentSucceeded, EventChargeRefunded, EventSubscriptionDeleted:
	default:
		return nil, apperr.New(apperr.ErrInvalidState, "Event Not Supported Yet!")
	}

	created, stored, err := d.store.CreateEventIfNotExists(&models.WebhookEvent{
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		// At-least-once delivery; the first processing already ran.
		log.Infof("[Webhook] duplicate delivery of %s (%s)", event.ID, event.Type)
		return &Result{Success: true, Message: "Duplicate delivery"}, nil
	}

	var result *Result
	switch event.Type {
	case EventPaymentIntentSucceeded:
		result = d.handlePaymentIntentSucceeded(ctx, &event)
	case EventChargeRefunded:
		result = d.handleChargeRefunded(ctx, &event)
	case EventSubscriptionDeleted:
		result = d.handleSubscriptionDeleted(ctx, &event)
	}

	processingError := ""
	if !result.Success {
		processingError = result.Message
		log.Errorf("[Webhook] %s (%s) failed: %s", event.Type, event.ID, result.Message)
	}
	if err := d.store.MarkEventProcessed(stored.ID, processingError); err != nil {
		log.Errorf("[Webhook] marking %s processed failed: %v", event.ID, err)
	}

	return result, nil
}

func failure(err error, detail string) *Result {
	return &Result{Success: false, Message: err.Error(), Detail: detail}
}

package checkout

import (
	"context"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2/log"
	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/env"
	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
	"gorm.io/gorm"
)

// OpenParams carries everything needed to open a checkout for one artifact.
type OpenParams struct {
	Type   string // models.SessionType*
	Ref    string
	Name   string // line item label shown on the hosted page
	Amount float64
	// CommissionPercentage applies to poster orders only; gift and
	// advertisement checkouts have no payee and carry 0 commission.
	CommissionPercentage float64
	BuyerID              *uint // nil for anonymous advertisement checkouts
	PayeeID              *uint // seller receiving the release, nil otherwise
	CustomerID           string
	ConnID               string // websocket connection to notify on settle
	Period               string // subscription period for gift checkouts
}

// Service opens and cancels checkout sessions, keeping the local
// session/payment-record pair in lockstep with the gateway.
type Service struct {
	store   Store
	gateway payment.Gateway
}

func NewService(store Store, gateway payment.Gateway) *Service {
	return &Service{store: store, gateway: gateway}
}

func NewServiceFromDB(db *gorm.DB, gateway payment.Gateway) *Service {
	return NewService(NewStore(db), gateway)
}

// OpenSession creates a gateway checkout for the artifact and persists the
// session/record pair. Any stale unpaid session for the same ref is removed
// first, together with its pending uncollected payment record.
func (s *Service) OpenSession(ctx context.Context, params OpenParams) (*models.CheckoutSession, error) {
	if params.Amount <= 0 {
		return nil, apperr.New(apperr.ErrInvalidState, "Invalid checkout amount")
	}

	remote, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutParams{
		Name:        params.Name,
		AmountPence: int64(math.Round(params.Amount * 100)),
		Currency:    env.GetEnv("PAYMENT_CURRENCY", "gbp"),
		CustomerID:  params.CustomerID,
		Ref:         params.Ref,
		PaymentType: params.Type,
		ConnID:      params.ConnID,
		SuccessURL:  successURL(params.Type),
		CancelURL:   cancelURL(params.Type),
	})
	if err != nil {
		return nil, apperr.New(apperr.ErrUpstream, "Could not reach the payment provider")
	}

	if err := s.store.DeleteStaleUnpaid(params.Ref, params.Type); err != nil {
		return nil, err
	}

	fee := ledger.CommissionFee(params.Amount, params.CommissionPercentage)
	record := &models.PaymentRecord{
		ByUserID:                   params.BuyerID,
		ToUserID:                   params.PayeeID,
		TotalCollectedAmount:       ledger.Round2(params.Amount),
		CommissionPercentage:       params.CommissionPercentage,
		TotalCommissionFee:         fee,
		TotalReleaseAmountAfterFee: ledger.ReleaseAmount(params.Amount, fee),
		Type:                       paymentType(params.Type),
		Ref:                        params.Ref,
	}

	session := &models.CheckoutSession{
		ExternalID: remote.ID,
		URL:        remote.URL,
		Type:       params.Type,
		Ref:        params.Ref,
		Status:     models.SessionStatusUnpaid,
		Period:     params.Period,
		UserID:     params.BuyerID,
	}
	if err := s.store.CreateSession(session); err != nil {
		return nil, err
	}
	record.SessionID = session.ID
	if err := s.store.CreatePaymentRecord(record); err != nil {
		return nil, err
	}
	session.PaymentRecordID = record.ID
	if err := s.store.SaveSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// CancelSession tears down an unpaid session: the gateway session is
// expired best-effort, then the artifact, payment record and session are
// removed. Paid or refunded sessions cannot be cancelled.
func (s *Service) CancelSession(ctx context.Context, externalID string, requesterID *uint) error {
	session, err := s.store.GetSessionByExternalID(externalID)
	if err != nil {
		return err
	}
	if session.UserID != nil {
		if requesterID == nil || *requesterID != *session.UserID {
			return apperr.New(apperr.ErrUnauthorized, "You cannot cancel this checkout session")
		}
	}
	if session.IsTerminal() {
		return apperr.Newf(apperr.ErrInvalidState, "A %s checkout session cannot be cancelled", session.Status)
	}

	if err := s.gateway.ExpireCheckoutSession(ctx, session.ExternalID); err != nil {
		// The hosted session expires on its own; local cleanup still runs.
		log.Errorf("[Checkout] expire %s at gateway failed: %v", session.ExternalID, err)
	}

	if err := s.store.DeleteArtifact(session.Type, session.Ref); err != nil {
		return err
	}
	if session.PaymentRecordID != 0 {
		if err := s.store.DeletePaymentRecord(session.PaymentRecordID); err != nil {
			return err
		}
	}
	return s.store.DeleteSession(session)
}

func paymentType(sessionType string) string {
	switch sessionType {
	case models.SessionTypePoster:
		return models.PaymentTypeOrder
	case models.SessionTypeGift:
		return models.PaymentTypeGift
	default:
		return models.PaymentTypeAdvertise
	}
}

func successURL(sessionType string) string {
	base := env.GetEnv("WEB_APP", "http://localhost:3000")
	return fmt.Sprintf("%s/checkout/success?type=%s", base, sessionType)
}

func cancelURL(sessionType string) string {
	base := env.GetEnv("WEB_APP", "http://localhost:3000")
	return fmt.Sprintf("%s/checkout/cancel?type=%s", base, sessionType)
}

package ledger

import (
	"context"
	"time"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service settles payment records against user balances. All three
// operations are idempotent on their flag: re-invoking a settled
// operation returns the record unchanged with no balance delta.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// loadAuthorized fetches the record and enforces the payer check: when
// byUserID is given and the record names a payer, they must match.
func (s *Service) loadAuthorized(paymentID uint, byUserID *uint) (*models.PaymentRecord, error) {
	if byUserID != nil {
		if _, err := s.repo.GetUser(*byUserID); err != nil {
			return nil, err
		}
	}

	record, err := s.repo.GetPaymentRecord(paymentID)
	if err != nil {
		return nil, err
	}

	if byUserID != nil && record.ByUserID != nil && *record.ByUserID != *byUserID {
		return nil, apperr.New(apperr.ErrUnauthorized, "Unauthorized")
	}
	return record, nil
}

// Collect marks the record collected and credits the payee's pending
// balance with the release amount. First collection only; a re-delivery
// is a no-op success.
func (s *Service) Collect(ctx context.Context, paymentID uint, byUserID *uint) (*models.PaymentRecord, error) {
	_ = ctx
	unlock := settlementLocks.Lock(paymentID)
	defer unlock()

	record, err := s.loadAuthorized(paymentID, byUserID)
	if err != nil {
		return nil, err
	}

	if !record.Collected {
		now := s.now()
		record.Collected = true
		record.CollectedAt = &now

		if record.ToUserID != nil {
			if err := s.repo.AddToBalances(*record.ToUserID, record.TotalReleaseAmountAfterFee, 0); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.SavePaymentRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Release moves the collected amount from the payee's pending balance to
// the available balance. A transfer, not an additional credit.
func (s *Service) Release(ctx context.Context, paymentID uint, byUserID *uint) (*models.PaymentRecord, error) {
	_ = ctx
	unlock := settlementLocks.Lock(paymentID)
	defer unlock()

	record, err := s.loadAuthorized(paymentID, byUserID)
	if err != nil {
		return nil, err
	}

	if !record.Collected {
		return nil, apperr.New(apperr.ErrUnauthorized, "payment has not been collected")
	}

	if !record.Released {
		if record.Refunded {
			return nil, apperr.New(apperr.ErrInvalidState, "payment has been refunded")
		}
		now := s.now()
		record.Released = true
		record.ReleasedAt = &now

		if record.ToUserID != nil {
			if err := s.repo.AddToBalances(*record.ToUserID, -record.TotalReleaseAmountAfterFee, record.TotalReleaseAmountAfterFee); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.SavePaymentRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Refund reverses whichever balance bucket currently holds the funds:
// pending when not yet released, available otherwise. This must mirror
// exactly what Collect/Release credited or the ledger drifts.
func (s *Service) Refund(ctx context.Context, paymentID uint, byUserID *uint) (*models.PaymentRecord, error) {
	_ = ctx
	unlock := settlementLocks.Lock(paymentID)
	defer unlock()

	record, err := s.loadAuthorized(paymentID, byUserID)
	if err != nil {
		return nil, err
	}

	if !record.Collected {
		return nil, apperr.New(apperr.ErrUnauthorized, "payment has not been collected")
	}

	if !record.Refunded {
		now := s.now()
		record.Refunded = true
		record.RefundedAt = &now

		if record.ToUserID != nil {
			if record.Released {
				if err := s.repo.AddToBalances(*record.ToUserID, 0, -record.TotalReleaseAmountAfterFee); err != nil {
					return nil, err
				}
			} else {
				if err := s.repo.AddToBalances(*record.ToUserID, -record.TotalReleaseAmountAfterFee, 0); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := s.repo.SavePaymentRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

package checkout

import (
	"errors"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Store provides the DB operations used by the session state machine.
type Store interface {
	GetSessionByExternalID(externalID string) (*models.CheckoutSession, error)
	CreateSession(session *models.CheckoutSession) error
	SaveSession(session *models.CheckoutSession) error
	DeleteSession(session *models.CheckoutSession) error
	// DeleteStaleUnpaid removes any unpaid session and pending
	// uncollected payment record for the artifact, enforcing the
	// at-most-one live unpaid session invariant. Refs are per-table
	// ids, so the session type is part of the key.
	DeleteStaleUnpaid(ref, sessionType string) error
	CreatePaymentRecord(record *models.PaymentRecord) error
	SavePaymentRecord(record *models.PaymentRecord) error
	DeletePaymentRecord(id uint) error
	// DeleteArtifact removes the domain artifact a session points at.
	DeleteArtifact(sessionType, ref string) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a checkout store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetSessionByExternalID(externalID string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := s.db.Where("external_id = ?", externalID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Checkout session not found")
		}
		return nil, err
	}
	return &session, nil
}

func (s *gormStore) CreateSession(session *models.CheckoutSession) error {
	return s.db.Create(session).Error
}

func (s *gormStore) SaveSession(session *models.CheckoutSession) error {
	return s.db.Save(session).Error
}

func (s *gormStore) DeleteSession(session *models.CheckoutSession) error {
	return s.db.Delete(session).Error
}

func (s *gormStore) DeleteStaleUnpaid(ref, sessionType string) error {
	if err := s.db.Where("ref = ? AND type = ? AND status = ?", ref, sessionType, models.SessionStatusUnpaid).
		Delete(&models.CheckoutSession{}).Error; err != nil {
		return err
	}
	return s.db.Where("ref = ? AND type = ? AND collected = ?", ref, paymentType(sessionType), false).
		Delete(&models.PaymentRecord{}).Error
}

func (s *gormStore) CreatePaymentRecord(record *models.PaymentRecord) error {
	return s.db.Create(record).Error
}

func (s *gormStore) SavePaymentRecord(record *models.PaymentRecord) error {
	return s.db.Save(record).Error
}

func (s *gormStore) DeletePaymentRecord(id uint) error {
	return s.db.Delete(&models.PaymentRecord{}, id).Error
}

func (s *gormStore) DeleteArtifact(sessionType, ref string) error {
	switch sessionType {
	case models.SessionTypeAdvertisement:
		return s.db.Where("id = ?", ref).Delete(&models.Advertisement{}).Error
	case models.SessionTypePoster:
		if err := s.db.Where("order_id = ?", ref).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return s.db.Where("id = ?", ref).Delete(&models.Order{}).Error
	case models.SessionTypeGift:
		return s.db.Where("id = ?", ref).Delete(&models.Gift{}).Error
	default:
		return apperr.Newf(apperr.ErrInvalidState, "Removing %s is not supported yet", sessionType)
	}
}

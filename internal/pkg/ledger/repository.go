package ledger

import (
	"errors"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the ledger service.
type Repository interface {
	GetPaymentRecord(id uint) (*models.PaymentRecord, error)
	SavePaymentRecord(record *models.PaymentRecord) error
	GetUser(id uint) (*models.User, error)
	// AddToBalances applies deltas to a user's pending and available
	// balance atomically in one statement.
	AddToBalances(userID uint, pendingDelta, availableDelta float64) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetPaymentRecord(id uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Payment Record not found")
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) SavePaymentRecord(record *models.PaymentRecord) error {
	return r.db.Save(record).Error
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) AddToBalances(userID uint, pendingDelta, availableDelta float64) error {
	updates := map[string]interface{}{}
	if pendingDelta != 0 {
		updates["pending_balance"] = gorm.Expr("pending_balance + ?", pendingDelta)
	}
	if availableDelta != 0 {
		updates["available_balance"] = gorm.Expr("available_balance + ?", availableDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

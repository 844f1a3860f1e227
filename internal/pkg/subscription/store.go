package subscription

import (
	"errors"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Store is the persistence surface of the subscription engine.
type Store interface {
	User(id uint) (*models.User, error)
	SaveUser(user *models.User) error

	BillingInfoByUser(userID uint) (*models.UserBillingInfo, error)
	CreateBillingInfo(info *models.UserBillingInfo) error
	SaveBillingInfo(info *models.UserBillingInfo) error

	Plan(id uint) (*models.Plan, error)

	GiftByCode(code string) (*models.Gift, error)
	SaveGift(gift *models.Gift) error

	ActiveGiftSub(userID uint) (*models.SubscriptionGift, error)
	CreateGiftSub(sub *models.SubscriptionGift) error
	SaveGiftSub(sub *models.SubscriptionGift) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a subscription store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) User(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFound(err, "User Not Found")
	}
	return &user, nil
}

func (s *gormStore) SaveUser(user *models.User) error {
	return s.db.Save(user).Error
}

func (s *gormStore) BillingInfoByUser(userID uint) (*models.UserBillingInfo, error) {
	var info models.UserBillingInfo
	if err := s.db.Where("user_id = ?", userID).First(&info).Error; err != nil {
		return nil, notFound(err, "Billing info not found")
	}
	return &info, nil
}

func (s *gormStore) CreateBillingInfo(info *models.UserBillingInfo) error {
	return s.db.Create(info).Error
}

func (s *gormStore) SaveBillingInfo(info *models.UserBillingInfo) error {
	return s.db.Save(info).Error
}

func (s *gormStore) Plan(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.First(&plan, id).Error; err != nil {
		return nil, notFound(err, "Subscription not found")
	}
	return &plan, nil
}

func (s *gormStore) GiftByCode(code string) (*models.Gift, error) {
	var gift models.Gift
	err := s.db.Where("code = ? AND is_paid = ? AND type = ?", code, true, models.GiftTypeSubscription).
		First(&gift).Error
	if err != nil {
		return nil, notFound(err, "Subscription Gift code not valid")
	}
	return &gift, nil
}

func (s *gormStore) SaveGift(gift *models.Gift) error {
	return s.db.Save(gift).Error
}

func (s *gormStore) ActiveGiftSub(userID uint) (*models.SubscriptionGift, error) {
	var sub models.SubscriptionGift
	err := s.db.Where("user_id = ? AND active = ?", userID, true).First(&sub).Error
	if err != nil {
		return nil, notFound(err, "No active gift subscription")
	}
	return &sub, nil
}

func (s *gormStore) CreateGiftSub(sub *models.SubscriptionGift) error {
	return s.db.Create(sub).Error
}

func (s *gormStore) SaveGiftSub(sub *models.SubscriptionGift) error {
	return s.db.Save(sub).Error
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.ErrNotFound, message)
	}
	return err
}

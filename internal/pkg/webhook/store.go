package webhook

import (
	"errors"
	"time"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence surface the webhook handlers run against.
type Store interface {
	// CreateEventIfNotExists inserts the event unless one with the same
	// provider event id is already stored. Returns whether this call
	// created the row, plus the stored row.
	CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkEventProcessed(id uint, processingError string) error

	// Refs are per-table ids shared across artifact kinds, so session
	// lookups key on the type carried in the checkout metadata too.
	SessionByRef(ref, sessionType string) (*models.CheckoutSession, error)
	SessionByPaymentIntent(paymentIntentID, ref, sessionType string) (*models.CheckoutSession, error)
	SaveSession(session *models.CheckoutSession) error

	PaymentRecord(id uint) (*models.PaymentRecord, error)
	SavePaymentRecord(record *models.PaymentRecord) error

	User(id uint) (*models.User, error)

	Order(id uint) (*models.Order, error)
	SaveOrder(order *models.Order) error
	Product(id uint) (*models.Product, error)
	SaveProduct(product *models.Product) error
	CreateChat(chat *models.Chat) error
	DeleteChat(id uint) error
	DeleteOrder(order *models.Order) error

	Gift(id uint) (*models.Gift, error)
	SaveGift(gift *models.Gift) error
	DeleteGift(gift *models.Gift) error

	Advertisement(id uint) (*models.Advertisement, error)
	SaveAdvertisement(ad *models.Advertisement) error
	DeleteAdvertisement(ad *models.Advertisement) error

	BillingInfoBySubscription(subscriptionID string) (*models.UserBillingInfo, error)
	SaveBillingInfo(info *models.UserBillingInfo) error
	Plan(id uint) (*models.Plan, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a webhook store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := s.db.Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (s *gormStore) MarkEventProcessed(id uint, processingError string) error {
	now := time.Now()
	return s.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}).Error
}

func (s *gormStore) SessionByRef(ref, sessionType string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := s.db.Where("ref = ? AND type = ?", ref, sessionType).Order("id DESC").First(&session).Error
	if err != nil {
		return nil, mapNotFound(err, "Session Not Found")
	}
	return &session, nil
}

func (s *gormStore) SessionByPaymentIntent(paymentIntentID, ref, sessionType string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := s.db.Where("payment_intent_id = ? AND ref = ? AND type = ?", paymentIntentID, ref, sessionType).
		First(&session).Error
	if err != nil {
		return nil, mapNotFound(err, "Session Not Found")
	}
	return &session, nil
}

func (s *gormStore) SaveSession(session *models.CheckoutSession) error {
	return s.db.Save(session).Error
}

func (s *gormStore) PaymentRecord(id uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := s.db.First(&record, id).Error; err != nil {
		return nil, mapNotFound(err, "Payment Record Not Found")
	}
	return &record, nil
}

func (s *gormStore) SavePaymentRecord(record *models.PaymentRecord) error {
	return s.db.Save(record).Error
}

func (s *gormStore) User(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, mapNotFound(err, "User Not Found")
	}
	return &user, nil
}

func (s *gormStore) Order(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("OrderItems").First(&order, id).Error; err != nil {
		return nil, mapNotFound(err, "Order Removed")
	}
	return &order, nil
}

func (s *gormStore) SaveOrder(order *models.Order) error {
	return s.db.Omit("OrderItems").Save(order).Error
}

func (s *gormStore) Product(id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		return nil, mapNotFound(err, "Some Products are not found")
	}
	return &product, nil
}

func (s *gormStore) SaveProduct(product *models.Product) error {
	return s.db.Save(product).Error
}

func (s *gormStore) CreateChat(chat *models.Chat) error {
	return s.db.Create(chat).Error
}

func (s *gormStore) DeleteChat(id uint) error {
	if err := s.db.Where("chat_id = ?", id).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	return s.db.Delete(&models.Chat{}, id).Error
}

func (s *gormStore) DeleteOrder(order *models.Order) error {
	if err := s.db.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return s.db.Delete(order).Error
}

func (s *gormStore) Gift(id uint) (*models.Gift, error) {
	var gift models.Gift
	if err := s.db.First(&gift, id).Error; err != nil {
		return nil, mapNotFound(err, "Gift not found")
	}
	return &gift, nil
}

func (s *gormStore) SaveGift(gift *models.Gift) error {
	return s.db.Save(gift).Error
}

func (s *gormStore) DeleteGift(gift *models.Gift) error {
	return s.db.Delete(gift).Error
}

func (s *gormStore) Advertisement(id uint) (*models.Advertisement, error) {
	var ad models.Advertisement
	if err := s.db.First(&ad, id).Error; err != nil {
		return nil, mapNotFound(err, "Advertise Removed")
	}
	return &ad, nil
}

func (s *gormStore) SaveAdvertisement(ad *models.Advertisement) error {
	return s.db.Save(ad).Error
}

func (s *gormStore) DeleteAdvertisement(ad *models.Advertisement) error {
	return s.db.Delete(ad).Error
}

func (s *gormStore) BillingInfoBySubscription(subscriptionID string) (*models.UserBillingInfo, error) {
	var info models.UserBillingInfo
	err := s.db.Where("subscription_id = ?", subscriptionID).First(&info).Error
	if err != nil {
		return nil, mapNotFound(err, "User Already Changed his Subscription")
	}
	return &info, nil
}

func (s *gormStore) SaveBillingInfo(info *models.UserBillingInfo) error {
	return s.db.Save(info).Error
}

func (s *gormStore) Plan(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.First(&plan, id).Error; err != nil {
		return nil, mapNotFound(err, "Targeted Subscription Not Found")
	}
	return &plan, nil
}

func mapNotFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.ErrNotFound, message)
	}
	return err
}

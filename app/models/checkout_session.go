package models

import "time"

const (
	SessionTypeGift          = "gift"
	SessionTypePoster        = "poster"
	SessionTypeAdvertisement = "advertisement"
)

const (
	SessionStatusUnpaid   = "unpaid"
	SessionStatusPaid     = "paid"
	SessionStatusRefunded = "refunded"
)

const (
	LifecyclePaymentIntentSucceeded = "payment_intent.succeeded"
	LifecycleChargeRefunded         = "charge.refunded"
)

// RefundDetails captures the gateway charge-refund metadata on a session.
type RefundDetails struct {
	Amount     int64  `json:"amount"`
	ReceiptURL string `json:"url"`
	Refunded   bool   `json:"refunded"`
	RefundedIn int64  `json:"refundedIn"`
	Currency   string `json:"currency"`
}

// CheckoutSession is one external checkout attempt bound to a domain
// artifact (order, gift or advertisement) through Ref. At most one unpaid
// session may exist per Ref; opening a new one deletes the stale pair.
type CheckoutSession struct {
	ID              uint           `gorm:"primaryKey" json:"-"`
	ExternalID      string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"id"`
	URL             string         `gorm:"type:text;not null" json:"url"`
	Type            string         `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=gift poster advertisement"`
	Ref             string         `gorm:"type:varchar(64);not null;index" json:"ref"`
	Status          string         `gorm:"type:varchar(20);not null;index" json:"status" validate:"oneof=unpaid paid refunded"`
	Period          string         `gorm:"type:varchar(10);default:null" json:"period,omitempty"`
	PaymentIntentID string         `gorm:"type:varchar(191);default:null;index" json:"-"`
	LifeCycle       string         `gorm:"type:varchar(50);default:null" json:"lifeCycle,omitempty"`
	Refund          *RefundDetails `gorm:"serializer:json" json:"refund"`
	UserID          *uint          `gorm:"index" json:"user,omitempty"`
	PaymentRecordID uint           `gorm:"index" json:"payment_record"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the session can no longer be cancelled.
func (s *CheckoutSession) IsTerminal() bool {
	return s.Status == SessionStatusPaid || s.Status == SessionStatusRefunded
}

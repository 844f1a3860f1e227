package models

import "time"

const (
	PaymentTypeOrder     = "order"
	PaymentTypeGift      = "gift"
	PaymentTypeAdvertise = "advertise"
)

// PaymentRecord is the append-mostly record of one monetary obligation.
// Flag transitions (collected/released/refunded) are monotonic and carry
// a timestamp each; the release amount always equals the collected amount
// minus the commission fee.
type PaymentRecord struct {
	ID                         uint       `gorm:"primaryKey" json:"id"`
	ByUserID                   *uint      `gorm:"index" json:"by,omitempty"`
	ToUserID                   *uint      `gorm:"index" json:"to,omitempty"`
	TotalCollectedAmount       float64    `gorm:"type:decimal(12,2);not null" json:"total_collected_amount"`
	CommissionPercentage       float64    `gorm:"type:decimal(5,2);not null" json:"commission_percentage"`
	TotalCommissionFee         float64    `gorm:"type:decimal(12,2);not null" json:"total_commission_fee"`
	TotalReleaseAmountAfterFee float64    `gorm:"type:decimal(12,2);not null" json:"total_release_amount_after_fee"`
	Collected                  bool       `gorm:"default:false;index" json:"collected"`
	CollectedAt                *time.Time `gorm:"type:timestamp;default:null" json:"collected_at,omitempty"`
	Refunded                   bool       `gorm:"default:false" json:"refunded"`
	RefundedAt                 *time.Time `gorm:"type:timestamp;default:null" json:"refunded_at,omitempty"`
	Released                   bool       `gorm:"default:false" json:"released"`
	ReleasedAt                 *time.Time `gorm:"type:timestamp;default:null" json:"released_at,omitempty"`
	Type                       string     `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=order gift advertise"`
	Ref                        string     `gorm:"type:varchar(64);not null;index" json:"ref"`
	SessionID                  uint       `gorm:"not null;index" json:"session"`
	PaymentIntentID            string     `gorm:"type:varchar(191);default:null" json:"-"`
	CreatedAt                  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

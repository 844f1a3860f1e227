package models

import "time"

const (
	AdTypeBanner      = "banner"
	AdTypeSponsor     = "sponsor"
	AdTypeAdvertorial = "advertorial"
)

// Advertisement is a purchasable ad placement. It has no escrow window:
// payment is collected and released in one settlement step, after which
// the ad goes active.
type Advertisement struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          *uint      `gorm:"index" json:"user,omitempty"`
	Title           string     `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=1,max=200"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=banner sponsor advertorial"`
	TargetURL       string     `gorm:"type:varchar(255)" json:"target_url"`
	PeriodTime      int64      `gorm:"not null" json:"period_time"`
	Active          bool       `gorm:"default:false;index" json:"active"`
	ActivatedAt     *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	PaymentRecordID *uint      `gorm:"index" json:"payment_record,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

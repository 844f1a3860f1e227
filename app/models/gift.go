package models

import "time"

const (
	GiftTypeSubscription = "subscription"

	GiftPeriodMonth = "month"
	GiftPeriodYear  = "year"
)

// Gift is a purchasable subscription voucher. The redemption code is
// generated at settlement; usedBy/used_at flip once when redeemed and
// RefID then points at the materialized SubscriptionGift grant.
type Gift struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BuyerID         uint       `gorm:"not null;index" json:"buyer"`
	UsedByID        *uint      `gorm:"index" json:"usedBy,omitempty"`
	UsedAt          *time.Time `gorm:"type:timestamp;default:null" json:"used_at,omitempty"`
	Code            string     `gorm:"type:varchar(40);default:null;index" json:"code,omitempty"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=subscription"`
	Period          string     `gorm:"type:varchar(10);default:'month'" json:"period" validate:"oneof=month year"`
	RefID           string     `gorm:"type:varchar(64);default:null" json:"ref_id,omitempty"`
	TargetedPlanID  uint       `gorm:"index" json:"targeted_ref_id"`
	PaidAt          *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	IsPaid          bool       `gorm:"default:false;index" json:"is_paid"`
	PaymentRecordID *uint      `gorm:"index" json:"payment_record,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsUsed reports whether the voucher was already redeemed.
func (g *Gift) IsUsed() bool {
	return g.UsedByID != nil || g.UsedAt != nil
}

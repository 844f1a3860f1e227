package models

import "time"

// SubscriptionGift is the materialized grant created when a gift voucher
// is redeemed. Merging a same-plan voucher extends CancelAt and
// PeriodTime without moving StartDate; CancelAt == StartDate + PeriodTime
// holds at creation time.
type SubscriptionGift struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"not null;index" json:"user"`
	StartDate      time.Time     `gorm:"not null" json:"start_date"`
	CancelAt       time.Time     `gorm:"not null" json:"cancel_at"`
	GiftID         uint          `gorm:"index" json:"gift"`
	TargetedPlanID uint          `gorm:"index" json:"targeted_sub"`
	Period         string        `gorm:"type:varchar(10);not null" json:"period" validate:"oneof=month year"`
	PeriodTime     time.Duration `gorm:"not null" json:"period_time"`
	Active         bool          `gorm:"default:false;index" json:"active"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValidAt reports whether the grant is active and unexpired at now.
// Expired grants are lazily deactivated by the subscription service on
// first sight.
func (g *SubscriptionGift) ValidAt(now time.Time) bool {
	return g != nil && g.Active && now.Before(g.CancelAt)
}

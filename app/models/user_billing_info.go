package models

import "time"

// UserBillingInfo links a local user to the payment gateway: the remote
// customer id and, when subscribed, the remote recurring subscription id.
// The subscription object itself lives at the gateway and is never
// mirrored locally.
type UserBillingInfo struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex" json:"-"`
	CustomerID     string    `gorm:"type:varchar(191);not null;index" json:"customer"`
	SubscriptionID string    `gorm:"type:varchar(191);default:null;index" json:"sub,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

package models

import "time"

// Chat is opened between buyer and seller when an order settles and is
// torn down if the order payment is refunded.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuyerID   uint      `gorm:"not null;index" json:"buyer"`
	SellerID  uint      `gorm:"not null;index" json:"seller"`
	OrderID   uint      `gorm:"not null;index" json:"order"`
	Messages  []Message `gorm:"foreignKey:ChatID" json:"messages"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Message is one chat entry. IsStatus marks system-generated order
// status lines ("( Order Received )") as opposed to user text.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChatID     uint      `gorm:"not null;index" json:"chatId"`
	FromUserID uint      `gorm:"not null;index" json:"from"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	IsStatus   bool      `gorm:"default:false" json:"isStatus"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

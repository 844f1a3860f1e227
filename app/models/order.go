package models

import "time"

// OrderItem is one purchased poster line inside an order. The sale price
// is frozen at settlement time.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"order_id"`
	ProductID uint    `gorm:"not null;index" json:"product"`
	Name      string  `gorm:"type:varchar(200);not null" json:"name"`
	Qty       int     `gorm:"not null;default:1" json:"qty"`
	Price     float64 `gorm:"type:decimal(12,2);not null" json:"price"`
}

type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UserID          uint        `gorm:"not null;index" json:"user"`
	SellerID        uint        `gorm:"not null;index" json:"seller"`
	OrderItems      []OrderItem `gorm:"foreignKey:OrderID" json:"orderItems"`
	ItemsPrice      float64     `gorm:"type:decimal(12,2);not null" json:"itemsPrice"`
	TaxPrice        float64     `gorm:"type:decimal(12,2);default:0" json:"taxPrice"`
	ShippingCost    float64     `gorm:"type:decimal(12,2);default:0" json:"shippingCost"`
	TotalPrice      float64     `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
	IsPaid          bool        `gorm:"default:false;index" json:"isPaid"`
	PaidAt          *time.Time  `gorm:"type:timestamp;default:null" json:"paidAt,omitempty"`
	IsDelivered     bool        `gorm:"default:false" json:"isDelivered"`
	DeliveredAt     *time.Time  `gorm:"type:timestamp;default:null" json:"deliveredAt,omitempty"`
	IsReceived      bool        `gorm:"default:false" json:"isReceived"`
	ReceivedAt      *time.Time  `gorm:"type:timestamp;default:null" json:"receivedAt,omitempty"`
	HaveIssue       bool        `gorm:"default:false" json:"haveIssue"`
	ChatID          *uint       `gorm:"index" json:"chatId,omitempty"`
	PaymentRecordID *uint       `gorm:"index" json:"payment_record,omitempty"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

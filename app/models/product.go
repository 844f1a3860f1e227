package models

import "time"

// Product is a poster listing. Sold/salePrice flip exactly once, at
// order settlement, and flip back on refund.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SellerID  uint      `gorm:"not null;index" json:"seller"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=1,max=200"`
	Image     string    `gorm:"type:varchar(255)" json:"image"`
	Price     float64   `gorm:"type:decimal(12,2);not null" json:"price"`
	SalePrice *float64  `gorm:"type:decimal(12,2);default:null" json:"salePrice,omitempty"`
	ForSale   bool      `gorm:"default:true;index" json:"forSale"`
	Sold      bool      `gorm:"default:false;index" json:"sold"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

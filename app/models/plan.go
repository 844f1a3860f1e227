package models

import "time"

const (
	ChargePeriodMonth = "month"
	ChargePeriodYear  = "year"
)

// PlanPriceData holds the gateway references for one billing interval of
// a plan.
type PlanPriceData struct {
	PriceID  string `gorm:"type:varchar(191)" json:"price_id"`
	CouponID string `gorm:"type:varchar(191);default:null" json:"coupon_id,omitempty"`
}

// Plan is a recurring subscription product mirrored at the payment
// gateway (one gateway product, one monthly and one yearly price).
type Plan struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Name             string        `gorm:"type:varchar(100);not null;uniqueIndex" json:"name" validate:"required"`
	ItsPopular       bool          `gorm:"default:false" json:"itsPopular"`
	MonthPrice       float64       `gorm:"type:decimal(12,2);not null" json:"monthPrice"`
	YearPrice        float64       `gorm:"type:decimal(12,2);not null" json:"yearPrice"`
	Perks            string        `gorm:"type:text" json:"perks"`
	GatewayProductID string        `gorm:"type:varchar(191)" json:"stripe_product"`
	MonthlyData      PlanPriceData `gorm:"embedded;embeddedPrefix:monthly_" json:"monthly_stripe_data"`
	YearlyData       PlanPriceData `gorm:"embedded;embeddedPrefix:yearly_" json:"yearly_stripe_data"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// PriceDataFor returns the gateway price/coupon refs for the given charge
// period, defaulting to monthly.
func (p *Plan) PriceDataFor(chargePeriod string) PlanPriceData {
	if chargePeriod == ChargePeriodYear {
		return p.YearlyData
	}
	return p.MonthlyData
}

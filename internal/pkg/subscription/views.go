package subscription

import (
	"math"
	"time"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
)

// GiftSubData is the client view of a redeemed gift grant with its
// day-granularity progress breakdown.
type GiftSubData struct {
	UserID             uint          `json:"user"`
	StartDate          time.Time     `json:"start_date"`
	CancelAt           time.Time     `json:"cancel_at"`
	GiftID             uint          `json:"gift"`
	TargetedPlanID     uint          `json:"targeted_sub"`
	Period             string        `json:"period"`
	PeriodTime         time.Duration `json:"period_time"`
	Active             bool          `json:"active"`
	ProgressPercentage float64       `json:"progress_percentage"`
	PeriodDays         int           `json:"period_days"`
	UsedDays           int           `json:"used_days"`
	RestDays           int           `json:"rest_days"`
}

// GiftSubView wraps the gift grant view the way clients expect it.
type GiftSubView struct {
	GiftSub GiftSubData `json:"giftSub"`
}

func mapGiftSub(sub *models.SubscriptionGift, now time.Time) *GiftSubView {
	used := now.Sub(sub.StartDate)
	rest := sub.CancelAt.Sub(now)

	progress := 0.0
	if sub.PeriodTime > 0 {
		progress = ledger.Round2(float64(used) * 100 / float64(sub.PeriodTime))
	}

	day := 24 * time.Hour
	return &GiftSubView{GiftSub: GiftSubData{
		UserID:             sub.UserID,
		StartDate:          sub.StartDate,
		CancelAt:           sub.CancelAt,
		GiftID:             sub.GiftID,
		TargetedPlanID:     sub.TargetedPlanID,
		Period:             sub.Period,
		PeriodTime:         sub.PeriodTime,
		Active:             sub.Active,
		ProgressPercentage: progress,
		PeriodDays:         int(math.Round(float64(sub.PeriodTime) / float64(day))),
		UsedDays:           int(math.Floor(float64(used) / float64(day))),
		RestDays:           int(math.Ceil(float64(rest) / float64(day))),
	}}
}

// SubData is the client view of a gateway subscription.
type SubData struct {
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CustomerID         string            `json:"customer"`
	Metadata           map[string]string `json:"metadata"`
	Status             string            `json:"status"`
	TrialEnd           int64             `json:"trial_end"`
	ProgressPercentage int               `json:"progress_percentage"`
	Billing            string            `json:"billing"`
	Price              float64           `json:"price"`
	Plan               *models.Plan      `json:"sub"`
}

// NextSubData announces the plan a scheduled downgrade switches to.
type NextSubData struct {
	ChargePeriod string       `json:"charge_period"`
	StartDate    int64        `json:"start_date"`
	Plan         *models.Plan `json:"sub"`
}

// SubscriptionView is the full current-subscription response.
type SubscriptionView struct {
	SubData     SubData      `json:"sub_data"`
	NextSubData *NextSubData `json:"next_sub_data,omitempty"`
}

func (s *Service) mapSubscription(sub *payment.Subscription, nowTime int64) (*SubscriptionView, error) {
	price, ok := sub.FirstPrice()
	if !ok {
		return nil, errNoPrice
	}

	progress := 0
	if periodTime := sub.CurrentPeriodEnd - sub.CurrentPeriodStart; periodTime > 0 {
		progress = int(math.Round(float64(nowTime-sub.CurrentPeriodStart) / float64(periodTime) * 100))
	}

	view := &SubscriptionView{SubData: SubData{
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CustomerID:         sub.CustomerID,
		Metadata:           sub.Metadata,
		Status:             sub.Status,
		TrialEnd:           sub.TrialEnd,
		ProgressPercentage: progress,
		Billing:            price.Recurring.Interval,
		Price:              price.AmountMajor(),
	}}

	if planID, ok := payment.CurrentPlanID(sub.Metadata); ok {
		if plan, err := s.store.Plan(planID); err == nil {
			view.SubData.Plan = plan
		}
	}

	if downgrade, ok := payment.ParseExpectingDowngrade(sub.Metadata); ok {
		if nextPlan, err := s.store.Plan(downgrade.TargetedPlanID); err == nil {
			view.NextSubData = &NextSubData{
				ChargePeriod: downgrade.ChargePeriod,
				StartDate:    sub.CurrentPeriodEnd,
				Plan:         nextPlan,
			}
		}
	}

	return view, nil
}

package subscription

import (
	"context"
	"math"

	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
)

// MaxAdvanceDays caps a single sandbox clock jump.
const MaxAdvanceDays = 59

// MyTestClock returns the sandbox clock attached to the user's gateway
// customer.
func (s *Service) MyTestClock(ctx context.Context, userID uint) (*payment.TestClock, error) {
	user, err := s.store.User(userID)
	if err != nil {
		return nil, err
	}
	customer, _, err := s.EnsureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}
	if customer.TestClock == "" {
		return nil, apperr.New(apperr.ErrNotFound, "Test Clock not found")
	}
	clock, err := s.gateway.GetTestClock(ctx, customer.TestClock)
	if err != nil || clock == nil || clock.Deleted {
		return nil, apperr.New(apperr.ErrNotFound, "Test Clock not found")
	}
	return clock, nil
}

// AdvanceMyTestClock jumps the user's sandbox clock forward by advanceBy
// seconds, bounded to whole non-negative days under the gateway limit.
func (s *Service) AdvanceMyTestClock(ctx context.Context, userID uint, advanceBy int64) (*payment.TestClock, error) {
	days := math.Round(float64(advanceBy) / secondsPerDay)
	if days > MaxAdvanceDays || days < 0 {
		return nil, apperr.New(apperr.ErrUnauthorized, "Time not allowed")
	}

	clock, err := s.MyTestClock(ctx, userID)
	if err != nil {
		return nil, err
	}

	advanced, err := s.gateway.AdvanceTestClock(ctx, clock.ID, clock.FrozenTime+advanceBy)
	if err != nil {
		return nil, apperr.New(apperr.ErrUpstream, "Something went wrong")
	}
	return advanced, nil
}

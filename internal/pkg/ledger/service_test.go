package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
)

type fakeRepo struct {
	records map[uint]*models.PaymentRecord
	users   map[uint]*models.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: make(map[uint]*models.PaymentRecord),
		users:   make(map[uint]*models.User),
	}
}

func (r *fakeRepo) GetPaymentRecord(id uint) (*models.PaymentRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "Payment Record not found")
	}
	copied := *record
	return &copied, nil
}

func (r *fakeRepo) SavePaymentRecord(record *models.PaymentRecord) error {
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *fakeRepo) GetUser(id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "user not found")
	}
	return user, nil
}

func (r *fakeRepo) AddToBalances(userID uint, pendingDelta, availableDelta float64) error {
	user, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	user.PendingBalance += pendingDelta
	user.AvailableBalance += availableDelta
	return nil
}

func uintPtr(v uint) *uint { return &v }

func seedRecord(repo *fakeRepo) *models.PaymentRecord {
	repo.users[1] = &models.User{ID: 1, Name: "buyer"}
	repo.users[2] = &models.User{ID: 2, Name: "seller"}
	record := &models.PaymentRecord{
		ID:                         10,
		ByUserID:                   uintPtr(1),
		ToUserID:                   uintPtr(2),
		TotalCollectedAmount:       50.00,
		CommissionPercentage:       6,
		TotalCommissionFee:         3.00,
		TotalReleaseAmountAfterFee: 47.00,
		Type:                       models.PaymentTypeOrder,
		Ref:                        "77",
	}
	repo.records[10] = record
	return record
}

func TestCollectCreditsPendingBalance(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	svc := NewService(repo)

	record, err := svc.Collect(context.Background(), 10, uintPtr(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.Collected || record.CollectedAt == nil {
		t.Fatalf("expected record collected with timestamp, got %+v", record)
	}
	if got := repo.users[2].PendingBalance; got != 47.00 {
		t.Fatalf("seller pending balance = %v, want 47.00", got)
	}
	if got := repo.users[2].AvailableBalance; got != 0 {
		t.Fatalf("seller available balance = %v, want 0", got)
	}
}

func TestCollectIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	svc := NewService(repo)

	if _, err := svc.Collect(context.Background(), 10, uintPtr(1)); err != nil {
		t.Fatalf("first collect: %v", err)
	}
	if _, err := svc.Collect(context.Background(), 10, uintPtr(1)); err != nil {
		t.Fatalf("second collect: %v", err)
	}
	if got := repo.users[2].PendingBalance; got != 47.00 {
		t.Fatalf("seller pending balance after double collect = %v, want 47.00", got)
	}
}

func TestCollectRejectsWrongPayer(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	repo.users[3] = &models.User{ID: 3}
	svc := NewService(repo)

	_, err := svc.Collect(context.Background(), 10, uintPtr(3))
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := repo.users[2].PendingBalance; got != 0 {
		t.Fatalf("seller pending balance = %v, want 0 after rejected collect", got)
	}
}

func TestReleaseMovesPendingToAvailable(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Collect(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("collect: %v", err)
	}
	record, err := svc.Release(ctx, 10, uintPtr(1))
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !record.Released || record.ReleasedAt == nil {
		t.Fatalf("expected record released with timestamp, got %+v", record)
	}

	seller := repo.users[2]
	if seller.PendingBalance != 0 || seller.AvailableBalance != 47.00 {
		t.Fatalf("seller balances = pending %v available %v, want 0 / 47.00",
			seller.PendingBalance, seller.AvailableBalance)
	}

	// transfer, not an extra credit
	if _, err := svc.Release(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if seller.PendingBalance != 0 || seller.AvailableBalance != 47.00 {
		t.Fatalf("balances drifted on repeat release: pending %v available %v",
			seller.PendingBalance, seller.AvailableBalance)
	}
}

func TestReleaseRequiresCollect(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	svc := NewService(repo)

	if _, err := svc.Release(context.Background(), 10, uintPtr(1)); err == nil {
		t.Fatalf("expected error releasing an uncollected record")
	}
}

func TestRefundBeforeReleaseDebitsPending(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Collect(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("collect: %v", err)
	}
	record, err := svc.Refund(ctx, 10, uintPtr(1))
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !record.Refunded || record.RefundedAt == nil {
		t.Fatalf("expected record refunded with timestamp, got %+v", record)
	}

	seller := repo.users[2]
	if seller.PendingBalance != 0 || seller.AvailableBalance != 0 {
		t.Fatalf("seller balances = pending %v available %v, want 0 / 0",
			seller.PendingBalance, seller.AvailableBalance)
	}
}

func TestRefundAfterReleaseDebitsAvailable(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Collect(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if _, err := svc.Release(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := svc.Refund(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("refund: %v", err)
	}

	seller := repo.users[2]
	if seller.PendingBalance != 0 || seller.AvailableBalance != 0 {
		t.Fatalf("seller balances = pending %v available %v, want 0 / 0",
			seller.PendingBalance, seller.AvailableBalance)
	}

	if _, err := svc.Refund(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("second refund: %v", err)
	}
	if seller.PendingBalance != 0 || seller.AvailableBalance != 0 {
		t.Fatalf("balances drifted on repeat refund: pending %v available %v",
			seller.PendingBalance, seller.AvailableBalance)
	}
}

func TestNoPayeeMeansNoBalanceMovement(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = &models.User{ID: 1}
	repo.records[11] = &models.PaymentRecord{
		ID:                         11,
		ByUserID:                   uintPtr(1),
		TotalCollectedAmount:       12.00,
		TotalReleaseAmountAfterFee: 12.00,
		Type:                       models.PaymentTypeAdvertise,
		Ref:                        "5",
	}
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Collect(ctx, 11, uintPtr(1)); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if _, err := svc.Release(ctx, 11, uintPtr(1)); err != nil {
		t.Fatalf("release: %v", err)
	}
	if repo.users[1].PendingBalance != 0 || repo.users[1].AvailableBalance != 0 {
		t.Fatalf("payer balances moved without a payee")
	}
}

func TestReleaseAfterRefundIsRejected(t *testing.T) {
	repo := newFakeRepo()
	seedRecord(repo)
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Collect(ctx, 10, uintPtr(1)); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if _, err := svc.Refund(ctx, 10, nil); err != nil {
		t.Fatalf("refund: %v", err)
	}

	_, err := svc.Release(ctx, 10, nil)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("release after refund = %v, want ErrInvalidState", err)
	}
	if got := repo.users[2].PendingBalance; got != 0 {
		t.Fatalf("seller pending balance = %v, want 0", got)
	}
	if got := repo.users[2].AvailableBalance; got != 0 {
		t.Fatalf("seller available balance = %v, want 0", got)
	}
}

// Settlement of one record must serialize even when callers hold
// independently constructed services, as the webhook dispatcher and the
// order controllers do.
func TestSettlementSerializesAcrossServices(t *testing.T) {
	for i := 0; i < 50; i++ {
		repo := newFakeRepo()
		seedRecord(repo)
		releaseSvc := NewService(repo)
		refundSvc := NewService(repo)
		ctx := context.Background()

		if _, err := releaseSvc.Collect(ctx, 10, uintPtr(1)); err != nil {
			t.Fatalf("collect: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			releaseSvc.Release(ctx, 10, nil)
		}()
		go func() {
			defer wg.Done()
			if _, err := refundSvc.Refund(ctx, 10, nil); err != nil {
				t.Errorf("refund: %v", err)
			}
		}()
		wg.Wait()

		seller := repo.users[2]
		if seller.PendingBalance != 0 || seller.AvailableBalance != 0 {
			t.Fatalf("run %d: balances pending=%v available=%v, want both 0",
				i, seller.PendingBalance, seller.AvailableBalance)
		}
		record := repo.records[10]
		if !record.Refunded {
			t.Fatalf("run %d: record not refunded: %+v", i, record)
		}
	}
}

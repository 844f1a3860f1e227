package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
)

type fakeStore struct {
	sessions         map[string]*models.CheckoutSession
	records          map[uint]*models.PaymentRecord
	staleDeletes     []string
	artifactDeletes  []string
	deletedSessions  []string
	deletedRecordIDs []uint
	nextID           uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*models.CheckoutSession),
		records:  make(map[uint]*models.PaymentRecord),
	}
}

func (s *fakeStore) GetSessionByExternalID(externalID string) (*models.CheckoutSession, error) {
	session, ok := s.sessions[externalID]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "Checkout session not found")
	}
	return session, nil
}

func (s *fakeStore) CreateSession(session *models.CheckoutSession) error {
	s.nextID++
	session.ID = s.nextID
	s.sessions[session.ExternalID] = session
	return nil
}

func (s *fakeStore) SaveSession(session *models.CheckoutSession) error {
	s.sessions[session.ExternalID] = session
	return nil
}

func (s *fakeStore) DeleteSession(session *models.CheckoutSession) error {
	s.deletedSessions = append(s.deletedSessions, session.ExternalID)
	delete(s.sessions, session.ExternalID)
	return nil
}

func (s *fakeStore) DeleteStaleUnpaid(ref, sessionType string) error {
	s.staleDeletes = append(s.staleDeletes, sessionType+":"+ref)
	return nil
}

func (s *fakeStore) CreatePaymentRecord(record *models.PaymentRecord) error {
	s.nextID++
	record.ID = s.nextID
	s.records[record.ID] = record
	return nil
}

func (s *fakeStore) SavePaymentRecord(record *models.PaymentRecord) error {
	s.records[record.ID] = record
	return nil
}

func (s *fakeStore) DeletePaymentRecord(id uint) error {
	s.deletedRecordIDs = append(s.deletedRecordIDs, id)
	delete(s.records, id)
	return nil
}

func (s *fakeStore) DeleteArtifact(sessionType, ref string) error {
	s.artifactDeletes = append(s.artifactDeletes, sessionType+":"+ref)
	return nil
}

type fakeGateway struct {
	payment.Gateway

	lastParams payment.CheckoutParams
	createErr  error
	expired    []string
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.lastParams = params
	return &payment.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (g *fakeGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	g.expired = append(g.expired, sessionID)
	return nil
}

func uintPtr(v uint) *uint { return &v }

func TestOpenSession_CreatesLinkedPair(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{}
	svc := NewService(store, gateway)

	session, err := svc.OpenSession(context.Background(), OpenParams{
		Type:                 models.SessionTypePoster,
		Ref:                  "77",
		Name:                 "Order #77",
		Amount:               50.00,
		CommissionPercentage: 6,
		BuyerID:              uintPtr(1),
		PayeeID:              uintPtr(2),
		CustomerID:           "cus_1",
		ConnID:               "conn-abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.ExternalID != "cs_1" || session.URL == "" {
		t.Fatalf("session = %+v, want gateway ids carried over", session)
	}
	if session.Status != models.SessionStatusUnpaid {
		t.Fatalf("status = %q, want unpaid", session.Status)
	}
	if session.PaymentRecordID == 0 {
		t.Fatalf("expected the record linked onto the session")
	}

	record := store.records[session.PaymentRecordID]
	if record == nil {
		t.Fatalf("expected a payment record")
	}
	if record.SessionID != session.ID {
		t.Fatalf("record.SessionID = %d, want %d", record.SessionID, session.ID)
	}
	if record.TotalCommissionFee != 3.00 || record.TotalReleaseAmountAfterFee != 47.00 {
		t.Fatalf("record amounts = fee %v release %v, want 3.00 / 47.00",
			record.TotalCommissionFee, record.TotalReleaseAmountAfterFee)
	}
	if record.Type != models.PaymentTypeOrder {
		t.Fatalf("record type = %q, want order", record.Type)
	}

	if gateway.lastParams.AmountPence != 5000 {
		t.Fatalf("AmountPence = %d, want 5000", gateway.lastParams.AmountPence)
	}
	if gateway.lastParams.Ref != "77" || gateway.lastParams.ConnID != "conn-abc" {
		t.Fatalf("gateway params = %+v, want ref/connId forwarded", gateway.lastParams)
	}
	if gateway.lastParams.PaymentType != models.SessionTypePoster {
		t.Fatalf("PaymentType = %q, want poster carried in the metadata", gateway.lastParams.PaymentType)
	}

	if len(store.staleDeletes) != 1 || store.staleDeletes[0] != "poster:77" {
		t.Fatalf("expected stale poster sessions for the ref removed, got %v", store.staleDeletes)
	}
}

func TestOpenSession_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeGateway{})

	_, err := svc.OpenSession(context.Background(), OpenParams{
		Type: models.SessionTypeGift, Ref: "9", Amount: 0,
	})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestOpenSession_GatewayFailureIsUpstream(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{createErr: errors.New("connection refused")}
	svc := NewService(store, gateway)

	_, err := svc.OpenSession(context.Background(), OpenParams{
		Type: models.SessionTypeGift, Ref: "9", Amount: 10,
	})
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(store.staleDeletes) != 0 {
		t.Fatalf("a failed gateway call must not touch local state")
	}
}

func TestOpenSession_PaymentTypeMapping(t *testing.T) {
	tests := []struct {
		sessionType string
		want        string
	}{
		{sessionType: models.SessionTypePoster, want: models.PaymentTypeOrder},
		{sessionType: models.SessionTypeGift, want: models.PaymentTypeGift},
		{sessionType: models.SessionTypeAdvertisement, want: models.PaymentTypeAdvertise},
	}
	for _, tt := range tests {
		if got := paymentType(tt.sessionType); got != tt.want {
			t.Fatalf("paymentType(%q) = %q, want %q", tt.sessionType, got, tt.want)
		}
	}
}

func TestCancelSession_RemovesArtifactRecordAndSession(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{}
	svc := NewService(store, gateway)

	session, err := svc.OpenSession(context.Background(), OpenParams{
		Type: models.SessionTypeAdvertisement, Ref: "12", Amount: 20,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := svc.CancelSession(context.Background(), session.ExternalID, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if len(gateway.expired) != 1 || gateway.expired[0] != "cs_1" {
		t.Fatalf("expected the gateway session expired, got %v", gateway.expired)
	}
	if len(store.artifactDeletes) != 1 || store.artifactDeletes[0] != "advertisement:12" {
		t.Fatalf("expected the artifact removed, got %v", store.artifactDeletes)
	}
	if len(store.deletedRecordIDs) != 1 {
		t.Fatalf("expected the payment record removed, got %v", store.deletedRecordIDs)
	}
	if len(store.deletedSessions) != 1 {
		t.Fatalf("expected the session removed, got %v", store.deletedSessions)
	}
}

func TestCancelSession_RejectsForeignRequester(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeGateway{})

	session, err := svc.OpenSession(context.Background(), OpenParams{
		Type: models.SessionTypePoster, Ref: "77", Amount: 50, BuyerID: uintPtr(1),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := svc.CancelSession(context.Background(), session.ExternalID, uintPtr(2)); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := svc.CancelSession(context.Background(), session.ExternalID, nil); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for anonymous cancel, got %v", err)
	}
}

func TestCancelSession_RejectsSettledSession(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeGateway{})

	session, err := svc.OpenSession(context.Background(), OpenParams{
		Type: models.SessionTypeGift, Ref: "9", Amount: 10, BuyerID: uintPtr(1),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	session.Status = models.SessionStatusPaid

	if err := svc.CancelSession(context.Background(), session.ExternalID, uintPtr(1)); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestOpenSession_RoundsAmountToWholePence(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{amount: 50.00, want: 5000},
		{amount: 19.99, want: 1999},
		{amount: 0.29, want: 29},
		{amount: 111.11, want: 11111},
	}
	for _, tc := range cases {
		gateway := &fakeGateway{}
		svc := NewService(newFakeStore(), gateway)

		_, err := svc.OpenSession(context.Background(), OpenParams{
			Type: models.SessionTypeGift, Ref: "9", Name: "Gift", Amount: tc.amount,
		})
		if err != nil {
			t.Fatalf("amount %v: unexpected error: %v", tc.amount, err)
		}
		if gateway.lastParams.AmountPence != tc.want {
			t.Fatalf("amount %v: AmountPence = %d, want %d",
				tc.amount, gateway.lastParams.AmountPence, tc.want)
		}
	}
}

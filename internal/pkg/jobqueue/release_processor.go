package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
	"github.com/posterdeck/posterdeck/internal/pkg/mail"
	"gorm.io/gorm"
)

// Mailer enqueues a transactional email for asynchronous delivery.
type Mailer interface {
	EnqueueMail(to, subject, body string)
}

// ReleaseProcessor sweeps settled orders whose escrow window has lapsed:
// paid, delivered, not yet received and without an open issue. Each such
// order is marked received and its payment released to the seller's
// available balance. One order failing never blocks the rest of the
// sweep.
type ReleaseProcessor struct {
	db     *gorm.DB
	ledger *ledger.Service
	mailer Mailer
	now    func() time.Time
}

func NewReleaseProcessor(db *gorm.DB, ledgerSvc *ledger.Service, mailer Mailer) *ReleaseProcessor {
	return &ReleaseProcessor{db: db, ledger: ledgerSvc, mailer: mailer, now: time.Now}
}

// WithClock overrides the processor clock, for tests.
func (p *ReleaseProcessor) WithClock(now func() time.Time) *ReleaseProcessor {
	p.now = now
	return p
}

// Run executes one sweep and returns how many orders were released.
func (p *ReleaseProcessor) Run(ctx context.Context) int {
	window := models.GetAppSettings().GetAutoReleaseWindow()
	cutoff := p.now().Add(-window)

	var orders []models.Order
	err := p.db.
		Where("is_paid = ? AND is_delivered = ? AND is_received = ? AND have_issue = ?", true, true, false, false).
		Where("delivered_at <= ? AND paid_at <= ?", cutoff, cutoff).
		Find(&orders).Error
	if err != nil {
		log.Errorf("[AutoRelease] sweep query failed: %v", err)
		return 0
	}

	released := 0
	for i := range orders {
		if err := p.releaseOrder(ctx, &orders[i]); err != nil {
			log.Errorf("[AutoRelease] order %d: %v", orders[i].ID, err)
			continue
		}
		released++
	}
	if released > 0 {
		log.Infof("[AutoRelease] released %d orders", released)
	}
	return released
}

func (p *ReleaseProcessor) releaseOrder(ctx context.Context, order *models.Order) error {
	now := p.now()
	order.IsReceived = true
	order.ReceivedAt = &now
	if err := p.db.Omit("OrderItems").Save(order).Error; err != nil {
		return err
	}

	if order.PaymentRecordID == nil {
		return nil
	}
	buyerID := order.UserID
	if _, err := p.ledger.Release(ctx, *order.PaymentRecordID, &buyerID); err != nil {
		return err
	}

	anchor := mail.OrderAnchor(order.ID)

	var seller models.User
	if err := p.db.First(&seller, order.SellerID).Error; err == nil {
		subject, body := mail.OrderReceived(seller.Name,
			fmt.Sprintf("%s is marked as received Automatically.", anchor))
		p.mailer.EnqueueMail(seller.Email, subject, body)

		subject, body = mail.PaymentReleased(seller.Name,
			fmt.Sprintf("Payment for %s are automatically released. Funds added to your available balance", anchor))
		p.mailer.EnqueueMail(seller.Email, subject, body)
	}

	var buyer models.User
	if err := p.db.First(&buyer, order.UserID).Error; err == nil {
		subject, body := mail.OrderReceived(buyer.Name,
			fmt.Sprintf("Your %s is marked as received Automatically.", anchor))
		p.mailer.EnqueueMail(buyer.Email, subject, body)

		subject, body = mail.PaymentReleased(buyer.Name,
			fmt.Sprintf("Payment for %s are automatically released.", anchor))
		p.mailer.EnqueueMail(buyer.Email, subject, body)
	}

	return nil
}

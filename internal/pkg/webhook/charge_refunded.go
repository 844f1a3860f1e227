package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/mail"
	"github.com/posterdeck/posterdeck/internal/pkg/notify"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
)

// handleChargeRefunded reverses a settled payment: the session records
// the refund metadata, the ledger debits whichever balance bucket holds
// the funds, and the artifact the payment bought is rolled back.
func (d *Dispatcher) handleChargeRefunded(ctx context.Context, event *payment.Event) *Result {
	var charge payment.Charge
	if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
		return failure(err, "Failed in Charge Refund")
	}
	ref := charge.Metadata["ref"]
	sessionType := charge.Metadata["paymentType"]
	connID := charge.Metadata["connId"]

	session, err := d.store.SessionByPaymentIntent(charge.PaymentIntent, ref, sessionType)
	if err != nil {
		return failure(err, "Failed in Charge Refund")
	}
	if session.Status == models.SessionStatusRefunded {
		return &Result{Success: true, Message: "Session already refunded"}
	}

	session.Refund = &models.RefundDetails{
		Amount:     charge.AmountRefunded,
		ReceiptURL: charge.ReceiptURL,
		Refunded:   charge.Refunded,
		RefundedIn: charge.Created,
		Currency:   charge.Currency,
	}
	session.Status = models.SessionStatusRefunded
	session.LifeCycle = models.LifecycleChargeRefunded
	if err := d.store.SaveSession(session); err != nil {
		return failure(err, "Failed in Charge Refund")
	}

	if _, err := d.ledger.Refund(ctx, session.PaymentRecordID, session.UserID); err != nil {
		return failure(err, "Failed in Charge Refund")
	}

	if session.UserID != nil {
		if user, err := d.store.User(*session.UserID); err == nil {
			message := fmt.Sprintf("Your %s Payment has been refunded", strings.ToUpper(session.Type))
			subject, body := mail.PaymentRefunded(user.Name, message)
			d.mailer.EnqueueMail(user.Email, subject, body)
		}
	}

	refID, err := parseRef(session.Ref)
	if err != nil {
		return failure(err, "Failed in Charge Refund")
	}

	switch session.Type {
	case models.SessionTypeAdvertisement:
		err = d.rollbackAdvertisement(refID)
	case models.SessionTypePoster:
		err = d.rollbackOrder(refID)
	case models.SessionTypeGift:
		err = d.rollbackGift(refID)
	default:
		err = apperr.Newf(apperr.ErrInvalidState, "%s Must be supported in charge.refunded event", session.Type)
	}
	if err != nil {
		return failure(err, "Failed in Charge Refund")
	}

	if connID != "" {
		d.notify.EmitConn(connID, notify.EventCheckoutSessionRefund, session)
	}
	return &Result{Success: true}
}

func (d *Dispatcher) rollbackAdvertisement(refID uint) error {
	ad, err := d.store.Advertisement(refID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	return d.store.DeleteAdvertisement(ad)
}

// rollbackOrder puts the posters back on the market, tears down the
// buyer/seller chat and removes the order.
func (d *Dispatcher) rollbackOrder(refID uint) error {
	order, err := d.store.Order(refID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if order.ChatID != nil {
		if err := d.store.DeleteChat(*order.ChatID); err != nil {
			return err
		}
	}

	for _, item := range order.OrderItems {
		product, err := d.store.Product(item.ProductID)
		if err != nil {
			continue
		}
		if product.Sold {
			product.Sold = false
			if err := d.store.SaveProduct(product); err != nil {
				return err
			}
		}
	}

	payload := map[string]interface{}{"chatId": order.ChatID, "orderId": order.ID}
	d.notify.Emit(order.SellerID, notify.EventOrderPaymentRefunded, payload)

	return d.store.DeleteOrder(order)
}

func (d *Dispatcher) rollbackGift(refID uint) error {
	gift, err := d.store.Gift(refID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	return d.store.DeleteGift(gift)
}

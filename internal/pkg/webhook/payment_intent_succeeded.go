package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/mail"
	"github.com/posterdeck/posterdeck/internal/pkg/notify"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
	"github.com/posterdeck/posterdeck/internal/pkg/voucher"
)

// handlePaymentIntentSucceeded settles a captured payment: session goes
// paid, the ledger collects, and the artifact-specific effects run. Any
// failure after capture triggers a compensating refund at the gateway so
// the buyer is never charged for a settlement that did not happen.
func (d *Dispatcher) handlePaymentIntentSucceeded(ctx context.Context, event *payment.Event) *Result {
	var intent payment.PaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}
	ref := intent.Metadata["ref"]
	sessionType := intent.Metadata["paymentType"]
	connID := intent.Metadata["connId"]

	result := d.settlePaymentIntent(ctx, &intent, ref, sessionType, connID)
	if result.Success {
		return result
	}

	session, err := d.store.SessionByRef(ref, sessionType)
	if err != nil {
		result.Detail = "Failed In Payment Intent Succeeded"
		return result
	}
	if _, rerr := d.gateway.CreateRefund(ctx, session.PaymentIntentID); rerr != nil {
		log.Errorf("[Webhook] compensating refund for %s failed: %v", session.PaymentIntentID, rerr)
	}
	result.Detail = "Payment Refund"
	return result
}

func (d *Dispatcher) settlePaymentIntent(ctx context.Context, intent *payment.PaymentIntent, ref, sessionType, connID string) *Result {
	session, err := d.store.SessionByRef(ref, sessionType)
	if err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}
	if session.Status == models.SessionStatusPaid {
		return &Result{Success: true, Message: "Session already settled"}
	}

	session.LifeCycle = models.LifecyclePaymentIntentSucceeded
	session.Status = models.SessionStatusPaid
	session.PaymentIntentID = intent.ID
	if err := d.store.SaveSession(session); err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}

	record, err := d.store.PaymentRecord(session.PaymentRecordID)
	if err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}
	record.PaymentIntentID = intent.ID
	if err := d.store.SavePaymentRecord(record); err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}

	if _, err := d.ledger.Collect(ctx, session.PaymentRecordID, session.UserID); err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}

	refID, err := parseRef(session.Ref)
	if err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}

	switch session.Type {
	case models.SessionTypeAdvertisement:
		err = d.settleAdvertisement(ctx, session, refID)
	case models.SessionTypePoster:
		err = d.settleOrder(ctx, session, refID)
	case models.SessionTypeGift:
		err = d.settleGift(ctx, session, refID)
	default:
		err = apperr.Newf(apperr.ErrInvalidState, "%s Must be supported in payment-intent.succeeded event", session.Type)
	}
	if err != nil {
		return failure(err, "Failed In Payment Intent Succeeded")
	}

	if connID != "" {
		d.notify.EmitConn(connID, notify.EventCheckoutSessionPaid, session)
	}
	return &Result{Success: true}
}

// settleAdvertisement releases immediately (no escrow window for ad
// placements) and activates the placement.
func (d *Dispatcher) settleAdvertisement(ctx context.Context, session *models.CheckoutSession, refID uint) error {
	if _, err := d.ledger.Release(ctx, session.PaymentRecordID, session.UserID); err != nil {
		return err
	}

	ad, err := d.store.Advertisement(refID)
	if err != nil {
		return err
	}

	if ad.UserID != nil {
		if user, err := d.store.User(*ad.UserID); err == nil {
			message := fmt.Sprintf("Your %s Payment has been successfully Paid", mail.AdvertisementAnchor(ad.ID))
			subject, body := mail.PaymentCollected(user.Name, message)
			d.mailer.EnqueueMail(user.Email, subject, body)
		}
	}

	now := d.now()
	ad.Active = true
	ad.ActivatedAt = &now
	return d.store.SaveAdvertisement(ad)
}

// settleOrder marks the ordered posters sold at their current price,
// opens the buyer/seller chat and flips the order paid.
func (d *Dispatcher) settleOrder(ctx context.Context, session *models.CheckoutSession, refID uint) error {
	_ = ctx
	order, err := d.store.Order(refID)
	if err != nil {
		return err
	}

	buyer, err := d.store.User(order.UserID)
	if err != nil {
		return apperr.New(apperr.ErrNotFound, "We can't find your account")
	}
	seller, err := d.store.User(order.SellerID)
	if err != nil {
		return apperr.New(apperr.ErrNotFound, "We can't find seller account")
	}

	products := make([]*models.Product, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		product, err := d.store.Product(item.ProductID)
		if err != nil {
			return err
		}
		if !product.ForSale {
			return apperr.New(apperr.ErrInvalidState, "Some Products are not for sale anymore")
		}
		if product.Sold {
			return apperr.New(apperr.ErrAlreadyUsed, "Some Products are already sold")
		}
		products = append(products, product)
	}

	for _, product := range products {
		price := product.Price
		product.Sold = true
		product.SalePrice = &price
		if err := d.store.SaveProduct(product); err != nil {
			return err
		}
	}

	chat := &models.Chat{BuyerID: buyer.ID, SellerID: seller.ID, OrderID: order.ID}
	if err := d.store.CreateChat(chat); err != nil {
		return err
	}

	now := d.now()
	order.IsPaid = true
	order.PaidAt = &now
	order.ChatID = &chat.ID
	if err := d.store.SaveOrder(order); err != nil {
		return err
	}

	anchor := mail.OrderAnchor(order.ID)
	subject, body := mail.PaymentCollected(buyer.Name, fmt.Sprintf("Your %s Payment has been successfully Paid", anchor))
	d.mailer.EnqueueMail(buyer.Email, subject, body)

	noun := "Poster"
	if len(order.OrderItems) > 1 {
		noun = "Posters"
	}
	subject, body = mail.PaymentCollected(seller.Name, fmt.Sprintf("Your %s Sold, See %s Detail", noun, anchor))
	d.mailer.EnqueueMail(seller.Email, subject, body)

	d.notify.Emit(seller.ID, notify.EventOrderPaid, map[string]interface{}{
		"chat":  chat,
		"order": order,
	})
	return nil
}

// settleGift releases immediately and mints the redemption code.
func (d *Dispatcher) settleGift(ctx context.Context, session *models.CheckoutSession, refID uint) error {
	if _, err := d.ledger.Release(ctx, session.PaymentRecordID, session.UserID); err != nil {
		return err
	}

	gift, err := d.store.Gift(refID)
	if err != nil {
		return err
	}

	if buyer, err := d.store.User(gift.BuyerID); err == nil {
		message := fmt.Sprintf("Your %s Payment has been successfully Paid", mail.GiftAnchor(gift.ID))
		subject, body := mail.PaymentCollected(buyer.Name, message)
		d.mailer.EnqueueMail(buyer.Email, subject, body)
	}

	code, err := voucher.Generate(voucher.CodeLength)
	if err != nil {
		return err
	}

	now := d.now()
	gift.IsPaid = true
	gift.PaidAt = &now
	gift.Code = code
	return d.store.SaveGift(gift)
}

func parseRef(ref string) (uint, error) {
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return 0, apperr.Newf(apperr.ErrInvalidState, "Invalid session ref %q", ref)
	}
	return uint(id), nil
}

package mail

import (
	"fmt"

	"github.com/posterdeck/posterdeck/internal/pkg/env"
)

// Transactional email builders used by the settlement flows. Each returns
// subject and HTML body; delivery happens through the mail job queue.

func webAppURL() string {
	return env.GetEnv("WEB_APP", "http://localhost:3000")
}

// OrderAnchor renders a link to an order detail page.
func OrderAnchor(orderID uint) string {
	return fmt.Sprintf(`<a href="%s/order/%d" target="_blank">Order</a>`, webAppURL(), orderID)
}

// GiftAnchor renders a link to a purchased gift detail page.
func GiftAnchor(giftID uint) string {
	return fmt.Sprintf(`<a href="%s/purchaced-gifts/%d" target="_blank">Gift</a>`, webAppURL(), giftID)
}

// AdvertisementAnchor renders a link to an advertisement detail page.
func AdvertisementAnchor(adID uint) string {
	return fmt.Sprintf(`<a href="%s/advertisement/%d" target="_blank">Advertisment</a>`, webAppURL(), adID)
}

func greeting(name, message string) string {
	return fmt.Sprintf(`<p>Hi %s,</p><p>%s</p>`, name, message)
}

// PaymentCollected builds the payment-collected notification.
func PaymentCollected(name, message string) (subject, body string) {
	return "Payment Collected", greeting(name, message)
}

// PaymentRefunded builds the payment-refunded notification.
func PaymentRefunded(name, message string) (subject, body string) {
	return "Payment Refunded", greeting(name, message)
}

// PaymentReleased builds the payment-released notification.
func PaymentReleased(name, message string) (subject, body string) {
	return "Payment Released", greeting(name, message)
}

// OrderDelivered builds the order-delivered notification.
func OrderDelivered(name, message string) (subject, body string) {
	return "Order Delivered", greeting(name, message)
}

// OrderReceived builds the order-received notification.
func OrderReceived(name, message string) (subject, body string) {
	return "Order Received", greeting(name, message)
}

// GiftCodeUsed builds the gift-code-redeemed notification.
func GiftCodeUsed(name, message string) (subject, body string) {
	return "Gift Code Used", greeting(name, message)
}

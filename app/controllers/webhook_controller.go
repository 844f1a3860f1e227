package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/internal/pkg/database"
	"github.com/posterdeck/posterdeck/internal/pkg/notify"
	"github.com/posterdeck/posterdeck/internal/pkg/webhook"
)

// PaymentSignatureHeader carries the gateway webhook signature.
const PaymentSignatureHeader = "Stripe-Signature"

// HandlePaymentWebhook receives gateway webhook deliveries. Signature
// and envelope failures are 400s with no side effects; a handler
// failure is a 500 so the gateway retries the delivery.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	dispatcher := webhook.NewDispatcherFromDB(
		database.GetDB(),
		gatewayClient(),
		notify.Default(),
		mailQueue(),
		webhookSecret(),
	)

	result, err := dispatcher.Handle(c.Context(), c.Body(), c.Get(PaymentSignatureHeader))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false})
	}

	if !result.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
)

// HandleCurrentSubscription returns what the user is subscribed to:
// the gift grant when one is valid, the gateway subscription otherwise.
func HandleCurrentSubscription(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	view, err := subscriptionService().Current(c.Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

type subscribeRequest struct {
	SubscriptionID uint   `json:"subscriptionId"`
	ChargePeriod   string `json:"charge_period"`
}

// HandleSubscribe starts, upgrades or downgrades the user's recurring
// subscription.
func HandleSubscribe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	view, err := subscriptionService().Subscribe(c.Context(), user.ID, req.SubscriptionID, req.ChargePeriod)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

type redeemGiftCodeRequest struct {
	Code string `json:"code"`
}

// HandleRedeemGiftCode redeems a paid gift voucher into a gift grant.
func HandleRedeemGiftCode(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req redeemGiftCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	view, err := subscriptionService().RedeemGiftCode(c.Context(), user.ID, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

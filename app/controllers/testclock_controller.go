package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
)

type advanceTestClockRequest struct {
	AdvanceBy int64 `json:"advanceBy"`
}

// HandleMyTestClock returns the gateway test clock the caller's customer
// lives on.
func HandleMyTestClock(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	clock, err := subscriptionService().MyTestClock(c.Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(clock)
}

// HandleAdvanceTestClock moves the caller's test clock forward by
// advanceBy seconds, capped at two billing cycles.
func HandleAdvanceTestClock(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req advanceTestClockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	clock, err := subscriptionService().AdvanceMyTestClock(c.Context(), user.ID, req.AdvanceBy)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(clock)
}

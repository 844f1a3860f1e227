package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/internal/pkg/apperr"
	"github.com/posterdeck/posterdeck/internal/pkg/database"
	"github.com/posterdeck/posterdeck/internal/pkg/env"
	"github.com/posterdeck/posterdeck/internal/pkg/jobqueue"
	"github.com/posterdeck/posterdeck/internal/pkg/payment"
	"github.com/posterdeck/posterdeck/internal/pkg/subscription"
)

// respondError maps service failure classes to HTTP responses. The
// message and optional redirect hint travel to the client; anything
// outside the taxonomy collapses to a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized),
		errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrAlreadyUsed),
		errors.Is(err, apperr.ErrTooSoon),
		errors.Is(err, apperr.ErrPlanMismatch):
		status = fiber.StatusUnauthorized
	}

	body := fiber.Map{"message": apperr.MessageOf(err)}
	if redirect := apperr.RedirectOf(err); redirect != "" {
		body["redirect"] = redirect
	}
	return c.Status(status).JSON(body)
}

func gatewayClient() payment.Gateway {
	return payment.NewClientFromEnv()
}

func mailQueue() *jobqueue.Queue {
	return jobqueue.GetManager().GetQueue()
}

func subscriptionService() *subscription.Service {
	return subscription.NewServiceFromDB(database.GetDB(), gatewayClient(), mailQueue())
}

func webhookSecret() string {
	return env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")
}

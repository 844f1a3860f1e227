package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/database"
	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
)

// HandlePaymentRecordsMine lists the caller's collected payment records,
// split into money they paid and money coming to them.
func HandlePaymentRecordsMine(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	db := database.GetDB()

	paid := []models.PaymentRecord{}
	if err := db.Where("by_user_id = ? AND collected = ?", user.ID, true).
		Order("collected_at DESC").Find(&paid).Error; err != nil {
		return respondError(c, err)
	}

	income := []models.PaymentRecord{}
	if err := db.Where("to_user_id = ? AND collected = ?", user.ID, true).
		Order("collected_at DESC").Find(&income).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"paid":   paid,
		"income": income,
	})
}

package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/database"
	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
	"github.com/posterdeck/posterdeck/internal/pkg/mail"
	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
	"github.com/posterdeck/posterdeck/internal/pkg/notify"
)

type orderActionRequest struct {
	OrderID uint `json:"orderId"`
}

// HandleMarkOrderAsDelivered lets the seller flag a paid order as
// shipped. A status line is dropped into the order chat and both
// parties are notified.
func HandleMarkOrderAsDelivered(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req orderActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	db := database.GetDB()

	var order models.Order
	if err := db.Preload("OrderItems").First(&order, req.OrderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found"})
	}
	if order.SellerID != user.ID {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}
	if order.IsDelivered {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Order is Already Delivered"})
	}
	if order.IsReceived {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Order Recieved"})
	}
	if order.HaveIssue {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "There's an issue"})
	}

	now := time.Now()
	order.IsDelivered = true
	order.DeliveredAt = &now
	if err := db.Omit("OrderItems").Save(&order).Error; err != nil {
		return respondError(c, err)
	}

	message := appendStatusMessage(order.ChatID, user.ID, "( Order Delivered )")

	anchor := mail.OrderAnchor(order.ID)
	var buyer, seller models.User
	if err := db.First(&seller, order.SellerID).Error; err == nil {
		subject, body := mail.OrderDelivered(seller.Name, fmt.Sprintf("You marked %s as delievered", anchor))
		mailQueue().EnqueueMail(seller.Email, subject, body)
	}
	if err := db.First(&buyer, order.UserID).Error; err == nil {
		subject, body := mail.OrderDelivered(buyer.Name, fmt.Sprintf("%s delivered your %s", user.Name, anchor))
		mailQueue().EnqueueMail(buyer.Email, subject, body)
	}

	payload := map[string]interface{}{"message": message, "order": order}
	notify.Default().Emit(order.SellerID, notify.EventOrderStatusChange, payload)
	notify.Default().Emit(order.UserID, notify.EventOrderStatusChange, payload)

	return c.Status(fiber.StatusOK).JSON(order)
}

// HandleMarkOrderAsReceived lets the buyer confirm a delivered order,
// releasing the escrowed payment to the seller.
func HandleMarkOrderAsReceived(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req orderActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	db := database.GetDB()

	var order models.Order
	if err := db.Preload("OrderItems").First(&order, req.OrderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found"})
	}
	if order.UserID != user.ID {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}
	if !order.IsDelivered {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "You can't mark order as recieved, wait for seller to deliver it",
		})
	}
	if order.IsReceived {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Order Already Recieved"})
	}
	if order.HaveIssue {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "There's an issue"})
	}

	now := time.Now()
	order.IsReceived = true
	order.ReceivedAt = &now
	if err := db.Omit("OrderItems").Save(&order).Error; err != nil {
		return respondError(c, err)
	}

	if order.PaymentRecordID != nil {
		svc := ledger.NewServiceFromDB(db)
		if _, err := svc.Release(c.Context(), *order.PaymentRecordID, &order.UserID); err != nil {
			return respondError(c, err)
		}
	}

	message := appendStatusMessage(order.ChatID, user.ID, "( Order Received )")

	anchor := mail.OrderAnchor(order.ID)
	var seller models.User
	if err := db.First(&seller, order.SellerID).Error; err == nil {
		subject, body := mail.OrderReceived(seller.Name, fmt.Sprintf("%s marked %s as received", user.Name, anchor))
		mailQueue().EnqueueMail(seller.Email, subject, body)

		subject, body = mail.PaymentReleased(seller.Name,
			fmt.Sprintf("Payment for %s has been released. Funds added to your available balance", anchor))
		mailQueue().EnqueueMail(seller.Email, subject, body)
	}

	payload := map[string]interface{}{"message": message, "order": order}
	notify.Default().Emit(order.SellerID, notify.EventOrderStatusChange, payload)
	notify.Default().Emit(order.UserID, notify.EventOrderStatusChange, payload)

	return c.Status(fiber.StatusOK).JSON(order)
}

// appendStatusMessage drops a system line into the order chat. Best
// effort: an order without a chat just skips it.
func appendStatusMessage(chatID *uint, fromUserID uint, body string) *models.Message {
	if chatID == nil {
		return nil
	}
	db := database.GetDB()

	var chat models.Chat
	if err := db.First(&chat, *chatID).Error; err != nil {
		return nil
	}

	message := &models.Message{
		ChatID:     chat.ID,
		FromUserID: fromUserID,
		Body:       body,
		IsStatus:   true,
	}
	if err := db.Create(message).Error; err != nil {
		return nil
	}
	return message
}

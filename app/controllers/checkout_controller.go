package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/checkout"
	"github.com/posterdeck/posterdeck/internal/pkg/database"
	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
)

type createOrderCheckoutRequest struct {
	OrderID uint   `json:"orderId"`
	ConnID  string `json:"connId"`
}

// HandleCreateOrderCheckoutSession opens a checkout for a pending poster
// order. The seller is the payee and the configured commission applies.
func HandleCreateOrderCheckoutSession(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req createOrderCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	db := database.GetDB()

	var order models.Order
	if err := db.Preload("OrderItems").First(&order, req.OrderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found"})
	}
	if len(order.OrderItems) == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Order Empty"})
	}
	if order.UserID != user.ID {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	itemName := ""
	for _, item := range order.OrderItems {
		var product models.Product
		if err := db.First(&product, item.ProductID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("%s Poster not found or may be deleted", item.Name),
			})
		}

		var seller models.User
		if err := db.First(&seller, product.SellerID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Seller for %s is not selling posters anymore", product.Name),
			})
		}
		if seller.ID == user.ID {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "You can't buy your own posters"})
		}
		if !product.ForSale {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": fmt.Sprintf("%s Poster is not for sale more", product.Name),
			})
		}
		if product.Sold {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": fmt.Sprintf("%s Poster Already Sold", product.Name),
			})
		}
		itemName = product.Name
	}

	customer, _, err := subscriptionService().EnsureCustomer(c.Context(), user)
	if err != nil {
		return respondError(c, err)
	}

	svc := checkout.NewServiceFromDB(db, gatewayClient())
	session, err := svc.OpenSession(c.Context(), checkout.OpenParams{
		Type:                 models.SessionTypePoster,
		Ref:                  strconv.FormatUint(uint64(order.ID), 10),
		Name:                 itemName,
		Amount:               order.TotalPrice,
		CommissionPercentage: models.GetAppSettings().GetCommissionPercentage(),
		BuyerID:              &order.UserID,
		PayeeID:              &order.SellerID,
		CustomerID:           customer.ID,
		ConnID:               req.ConnID,
	})
	if err != nil {
		return respondError(c, err)
	}

	order.PaymentRecordID = &session.PaymentRecordID
	if err := db.Omit("OrderItems").Save(&order).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

type createGiftCheckoutRequest struct {
	GiftID uint   `json:"giftId"`
	ConnID string `json:"connId"`
}

// HandleCreateGiftCheckoutSession opens a checkout for a subscription
// gift voucher. No payee, no commission: the platform keeps the price.
func HandleCreateGiftCheckoutSession(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req createGiftCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	db := database.GetDB()

	var gift models.Gift
	if err := db.First(&gift, req.GiftID).Error; err != nil || gift.BuyerID != user.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Subscription Gift not found"})
	}

	var plan models.Plan
	if err := db.First(&plan, gift.TargetedPlanID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Subscription not found"})
	}

	price := plan.MonthPrice
	if gift.Period == models.GiftPeriodYear {
		price = plan.YearPrice
	}

	customer, _, err := subscriptionService().EnsureCustomer(c.Context(), user)
	if err != nil {
		return respondError(c, err)
	}

	svc := checkout.NewServiceFromDB(db, gatewayClient())
	session, err := svc.OpenSession(c.Context(), checkout.OpenParams{
		Type:       models.SessionTypeGift,
		Ref:        strconv.FormatUint(uint64(gift.ID), 10),
		Name:       fmt.Sprintf("%s Subscription Gift", strings.ToUpper(plan.Name)),
		Amount:     price,
		BuyerID:    &user.ID,
		CustomerID: customer.ID,
		ConnID:     req.ConnID,
		Period:     gift.Period,
	})
	if err != nil {
		return respondError(c, err)
	}

	recordID := session.PaymentRecordID
	gift.PaymentRecordID = &recordID
	if err := db.Save(&gift).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

type createAdCheckoutRequest struct {
	AdvertiseID uint   `json:"advertiseId"`
	ConnID      string `json:"connId"`
}

// HandleCreateAdvertisementCheckoutSession opens a checkout for an ad
// placement. Works for anonymous buyers; a yearly run is billed with 60
// free days.
func HandleCreateAdvertisementCheckoutSession(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req createAdCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	db := database.GetDB()

	var ad models.Advertisement
	if err := db.First(&ad, req.AdvertiseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Advertise Not Found, Please Try Again"})
	}
	if ad.Active {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Advertise Already Has Been Activated"})
	}

	priceForDay := models.GetAppSettings().AdPriceForDay(ad.Type)
	days := float64(ad.PeriodTime) / (60 * 60 * 24)
	total := days * priceForDay
	if days >= 365 {
		total = (days - 60) * priceForDay
	}

	customerID := ""
	var buyerID *uint
	if user != nil {
		customer, _, err := subscriptionService().EnsureCustomer(c.Context(), user)
		if err != nil {
			return respondError(c, err)
		}
		customerID = customer.ID
		buyerID = &user.ID
	}

	svc := checkout.NewServiceFromDB(db, gatewayClient())
	session, err := svc.OpenSession(c.Context(), checkout.OpenParams{
		Type:       models.SessionTypeAdvertisement,
		Ref:        strconv.FormatUint(uint64(ad.ID), 10),
		Name:       ad.Title,
		Amount:     total,
		BuyerID:    buyerID,
		CustomerID: customerID,
		ConnID:     req.ConnID,
	})
	if err != nil {
		return respondError(c, err)
	}

	recordID := session.PaymentRecordID
	ad.PaymentRecordID = &recordID
	if err := db.Save(&ad).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

type cancelCheckoutRequest struct {
	SessionID string `json:"sessionId"`
}

// HandleCancelCheckoutSession tears down an unpaid checkout and the
// artifact it was opened for.
func HandleCancelCheckoutSession(c *fiber.Ctx) error {
	var req cancelCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	var requesterID *uint
	if user := middleware.CurrentUser(c); user != nil {
		requesterID = &user.ID
	}

	svc := checkout.NewServiceFromDB(database.GetDB(), gatewayClient())
	if err := svc.CancelSession(c.Context(), req.SessionID, requesterID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(nil)
}

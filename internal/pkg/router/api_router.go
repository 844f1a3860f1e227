package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/posterdeck/posterdeck/app/controllers"
	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Gateway webhooks authenticate through their signature header, never
	// through a user session.
	v1.Post("/payment/webhook", controllers.HandlePaymentWebhook)

	checkout := v1.Group("/checkout")
	checkout.Post("/order", middleware.RequireAuth(), controllers.HandleCreateOrderCheckoutSession)
	checkout.Post("/gift", middleware.RequireAuth(), controllers.HandleCreateGiftCheckoutSession)
	// Advertisement checkouts and cancellation also work for anonymous
	// visitors, so auth is optional here.
	checkout.Post("/advertisement", middleware.OptionalAuth(), controllers.HandleCreateAdvertisementCheckoutSession)
	checkout.Post("/cancel", middleware.OptionalAuth(), controllers.HandleCancelCheckoutSession)

	subscriptions := v1.Group("/subscriptions", middleware.RequireAuth())
	subscriptions.Get("/current", controllers.HandleCurrentSubscription)
	subscriptions.Post("/subscribe", controllers.HandleSubscribe)
	subscriptions.Post("/redeem", controllers.HandleRedeemGiftCode)

	orders := v1.Group("/orders", middleware.RequireAuth())
	orders.Post("/mark-as-delivered", controllers.HandleMarkOrderAsDelivered)
	orders.Post("/mark-as-received", controllers.HandleMarkOrderAsReceived)

	records := v1.Group("/payment-records", middleware.RequireAuth())
	records.Get("/mine", controllers.HandlePaymentRecordsMine)

	clocks := v1.Group("/test-clocks", middleware.RequireAuth())
	clocks.Get("/mine", controllers.HandleMyTestClock)
	clocks.Post("/advance", controllers.HandleAdvanceTestClock)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

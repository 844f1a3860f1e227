package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/app/controllers"
	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
)

type SocketRouter struct {
}

func (h SocketRouter) InstallRouter(app *fiber.App) {
	app.Get("/ws", middleware.OptionalAuth(), controllers.SocketUpgrade, controllers.HandleSocket)
}

func NewSocketRouter() *SocketRouter {
	return &SocketRouter{}
}

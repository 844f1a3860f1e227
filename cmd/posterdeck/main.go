package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/cache"
	"github.com/posterdeck/posterdeck/internal/pkg/database"
	"github.com/posterdeck/posterdeck/internal/pkg/env"
	"github.com/posterdeck/posterdeck/internal/pkg/jobqueue"
	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
	"github.com/posterdeck/posterdeck/internal/pkg/router"
)

func main() {
	app := NewApplication()

	manager := jobqueue.GetManager()
	manager.AttachReleaseProcessor(database.GetDB(), ledger.NewServiceFromDB(database.GetDB()))
	manager.Start()

	// graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("[App] Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Errorf("[App] Shutdown error: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		log.Errorf("[App] Listen error: %v", err)
	}

	manager.Stop()
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	if err := models.LoadSettings(database.GetDB()); err != nil {
		log.Warnf("[App] Could not load settings, using defaults: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "posterdeck",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}

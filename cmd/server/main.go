package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/truenumber/internal/config"
	"github.com/example/truenumber/internal/database"
	"github.com/example/truenumber/internal/routes"
	"github.com/example/truenumber/internal/services"
	"github.com/example/truenumber/internal/store"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	st := store.NewGormStore(db)

	otp := services.NewOTPService(st.Challenges, services.LogNotifier{}, cfg.OTPLength, cfg.OTPExpiry, cfg.OTPMaxAttempts)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenExpires, cfg.RefreshExpires)
	verification := services.NewVerificationService(st.Requests, st.Users, st.Companies)

	app := fiber.New(fiber.Config{
		AppName: "TrueNumber Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, st, cfg, otp, tokens, verification)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewSweeper(otp, verification, cfg.SweepInterval, cfg.OTPRetention)
	go sweeper.Run(ctx)

	slack := services.NewSlackNotifier(cfg.SlackWebhookURL)
	if err := slack.Notify("TrueNumber Backend started on port " + cfg.AppPort); err != nil {
		log.Printf("Slack startup notification failed: %v", err)
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("fiber.Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

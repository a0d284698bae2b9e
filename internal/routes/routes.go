package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/truenumber/internal/config"
	"github.com/example/truenumber/internal/handlers"
	"github.com/example/truenumber/internal/middleware"
	"github.com/example/truenumber/internal/services"
	"github.com/example/truenumber/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, st *store.GormStore, cfg *config.Config, otp *services.OTPService, tokens *services.TokenService, verification *services.VerificationService) {
	authHandler := handlers.NewAuthHandler(st.Users, otp, tokens, cfg.DevMode)
	companyHandler := handlers.NewCompanyHandler(st.Companies)
	verificationHandler := handlers.NewVerificationHandler(verification)

	userAuth := middleware.AuthMiddleware(tokens)
	companyAuth := middleware.CompanyAuthMiddleware(st.Companies)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success":   true,
			"message":   "TrueNumber Backend API is running",
			"timestamp": time.Now().UTC(),
		})
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/send-otp", authHandler.SendOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Get("/profile", userAuth, authHandler.Profile)

	companies := api.Group("/companies")
	companies.Post("/register", companyHandler.Register)
	companies.Get("/", companyHandler.List)
	companies.Get("/domain/:domain", companyHandler.GetByDomain)
	companies.Get("/:id", companyHandler.Get)
	companies.Put("/:id", companyAuth, companyHandler.Update)

	verificationGroup := api.Group("/verification")
	verificationGroup.Post("/request", companyAuth, verificationHandler.Create)
	verificationGroup.Get("/pending", userAuth, verificationHandler.Pending)
	verificationGroup.Put("/:id/status", userAuth, verificationHandler.UpdateStatus)
	verificationGroup.Get("/company/:company_id", companyAuth, verificationHandler.CompanyRequests)
	verificationGroup.Post("/mark-expired", verificationHandler.MarkExpired)
	verificationGroup.Get("/:id", verificationHandler.Get)
}

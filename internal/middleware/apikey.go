package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/truenumber/internal/models"
	"github.com/example/truenumber/internal/store"
	"github.com/example/truenumber/internal/utils"
)

const companyContextKey = "currentCompany"

// CompanyAuthMiddleware validates the X-Company-ID / X-API-Key header pair
// against the stored key hash and loads the company into context.
func CompanyAuthMiddleware(companies store.CompanyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := uuid.Parse(c.Get("X-Company-ID"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "company credentials required")
		}

		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "company credentials required")
		}

		company, err := companies.GetByID(c.Context(), companyID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid company credentials")
		}

		if !utils.CheckAPIKey(company.APIKeyHash, apiKey) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid company credentials")
		}

		c.Locals(companyContextKey, company)
		return c.Next()
	}
}

// CurrentCompany extracts the authenticated company from context.
func CurrentCompany(c *fiber.Ctx) (*models.Company, bool) {
	company, ok := c.Locals(companyContextKey).(*models.Company)
	return company, ok
}

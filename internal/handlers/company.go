package handlers

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/truenumber/internal/middleware"
	"github.com/example/truenumber/internal/models"
	"github.com/example/truenumber/internal/store"
	"github.com/example/truenumber/internal/utils"
)

var domainRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

// CompanyHandler manages the company directory endpoints.
type CompanyHandler struct {
	companies store.CompanyStore
}

// NewCompanyHandler constructs a CompanyHandler.
func NewCompanyHandler(companies store.CompanyStore) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

type registerCompanyRequest struct {
	CompanyName     string   `json:"company_name"`
	Domain          string   `json:"domain"`
	Intent          string   `json:"intent"`
	ServicesOffered []string `json:"services_offered"`
}

// Register creates a company and returns its API key. The plaintext key is
// shown only in this response; afterwards only the hash exists.
func (h *CompanyHandler) Register(c *fiber.Ctx) error {
	var req registerCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CompanyName == "" || req.Domain == "" {
		return fiber.NewError(fiber.StatusBadRequest, "company name and domain are required")
	}

	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if !domainRe.MatchString(domain) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid domain format")
	}

	if _, err := h.companies.GetByDomain(c.Context(), domain); err == nil {
		return fiber.NewError(fiber.StatusConflict, "company with this domain already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate api key")
	}

	keyHash, err := utils.HashAPIKey(apiKey)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash api key")
	}

	services := make([]string, 0, len(req.ServicesOffered))
	for _, s := range req.ServicesOffered {
		services = append(services, strings.TrimSpace(s))
	}

	company := &models.Company{
		CompanyName:     strings.TrimSpace(req.CompanyName),
		Domain:          domain,
		ServicesOffered: pq.StringArray(services),
		APIKeyHash:      keyHash,
	}
	if intent := strings.TrimSpace(req.Intent); intent != "" {
		company.Intent = &intent
	}

	if err := h.companies.Create(c.Context(), company); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Company registered successfully",
		"company": companyJSON(company),
		"api_key": apiKey,
	})
}

// List returns a page of registered companies.
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	page := utils.ParsePagination(c)

	companies, err := h.companies.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return err
	}

	items := make([]fiber.Map, 0, len(companies))
	for i := range companies {
		items = append(items, companyJSON(&companies[i]))
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"companies": items,
		"pagination": fiber.Map{
			"page":  page.Page,
			"limit": page.Limit,
			"total": len(items),
		},
	})
}

// Get returns a company by ID.
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid company id")
	}

	company, err := h.companies.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "company not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"company": companyJSON(company),
	})
}

// GetByDomain returns a company by its registered domain.
func (h *CompanyHandler) GetByDomain(c *fiber.Ctx) error {
	domain := strings.ToLower(c.Params("domain"))

	company, err := h.companies.GetByDomain(c.Context(), domain)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "company not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"company": companyJSON(company),
	})
}

type updateCompanyRequest struct {
	CompanyName     string   `json:"company_name"`
	Intent          string   `json:"intent"`
	ServicesOffered []string `json:"services_offered"`
}

// Update modifies the authenticated company's profile. Domain and API key
// are fixed at registration.
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	company, ok := middleware.CurrentCompany(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "company credentials required")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid company id")
	}

	if company.ID != id {
		return fiber.NewError(fiber.StatusForbidden, "cannot update another company")
	}

	var req updateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CompanyName != "" {
		company.CompanyName = strings.TrimSpace(req.CompanyName)
	}
	if intent := strings.TrimSpace(req.Intent); intent != "" {
		company.Intent = &intent
	}
	if req.ServicesOffered != nil {
		services := make([]string, 0, len(req.ServicesOffered))
		for _, s := range req.ServicesOffered {
			services = append(services, strings.TrimSpace(s))
		}
		company.ServicesOffered = pq.StringArray(services)
	}

	if err := h.companies.Update(c.Context(), company); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Company updated successfully",
		"company": companyJSON(company),
	})
}

func companyJSON(company *models.Company) fiber.Map {
	return fiber.Map{
		"id":                company.ID,
		"company_name":      company.CompanyName,
		"domain":            company.Domain,
		"intent":            company.Intent,
		"services_offered":  company.ServicesOffered,
		"registration_date": company.CreatedAt,
	}
}

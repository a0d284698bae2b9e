package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/truenumber/internal/middleware"
	"github.com/example/truenumber/internal/models"
	"github.com/example/truenumber/internal/services"
	"github.com/example/truenumber/internal/utils"
)

// VerificationHandler manages verification-request endpoints.
type VerificationHandler struct {
	verification *services.VerificationService
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(verification *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

type createRequestRequest struct {
	UserMobileNumber string `json:"user_mobile_number"`
	UserCountryCode  string `json:"user_country_code"`
	RequestType      string `json:"request_type"`
	ExpiryHours      int    `json:"expiry_hours"`
}

// Create opens a verification request from the authenticated company toward
// the user owning the given number.
func (h *VerificationHandler) Create(c *fiber.Ctx) error {
	company, ok := middleware.CurrentCompany(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "company credentials required")
	}

	var req createRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.UserMobileNumber == "" || req.UserCountryCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user mobile number and country code are required")
	}

	reqType := models.RequestType(req.RequestType)
	if req.RequestType == "" {
		reqType = models.RequestTypeOTP
	}
	if !models.ValidRequestType(reqType) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request type")
	}

	expiryHours := req.ExpiryHours
	if expiryHours <= 0 {
		expiryHours = 24
	}

	request, err := h.verification.Create(c.Context(),
		req.UserMobileNumber, req.UserCountryCode,
		company.ID, reqType, time.Duration(expiryHours)*time.Hour)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":              true,
		"message":              "Verification request created successfully",
		"verification_request": requestJSON(request),
	})
}

// Pending returns the authenticated user's actionable requests.
func (h *VerificationHandler) Pending(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	requests, err := h.verification.ListPending(c.Context(), userID)
	if err != nil {
		return err
	}

	items := make([]fiber.Map, 0, len(requests))
	for i := range requests {
		item := requestJSON(&requests[i])
		if company := requests[i].Company; company != nil {
			item["company_name"] = company.CompanyName
			item["domain"] = company.Domain
			item["intent"] = company.Intent
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"requests": items,
		"total":    len(items),
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus applies the authenticated user's action to a request.
func (h *VerificationHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}

	updated, err := h.verification.Transition(c.Context(), requestID, userID, models.RequestStatus(req.Status))
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Request status updated successfully",
		"verification_request": fiber.Map{
			"id":         updated.ID,
			"status":     updated.Status,
			"updated_at": updated.UpdatedAt,
		},
	})
}

// Get returns a single request with its user and company detail.
func (h *VerificationHandler) Get(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}

	request, err := h.verification.Get(c.Context(), requestID)
	if err != nil {
		return serviceError(err)
	}

	item := requestJSON(request)
	if user := request.User; user != nil {
		item["user_name"] = user.Name
		item["mobile_number"] = user.MobileNumber
		item["country_code"] = user.CountryCode
	}
	if company := request.Company; company != nil {
		item["company_name"] = company.CompanyName
	}

	return c.JSON(fiber.Map{
		"success":              true,
		"verification_request": item,
	})
}

// CompanyRequests returns a page of the authenticated company's requests.
func (h *VerificationHandler) CompanyRequests(c *fiber.Ctx) error {
	company, ok := middleware.CurrentCompany(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "company credentials required")
	}

	companyID, err := uuid.Parse(c.Params("company_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid company id")
	}

	if company.ID != companyID {
		return fiber.NewError(fiber.StatusForbidden, "cannot view another company's requests")
	}

	page := utils.ParsePagination(c)

	requests, err := h.verification.ListForCompany(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return serviceError(err)
	}

	items := make([]fiber.Map, 0, len(requests))
	for i := range requests {
		item := requestJSON(&requests[i])
		if user := requests[i].User; user != nil {
			item["user_name"] = user.Name
			item["mobile_number"] = user.MobileNumber
			item["country_code"] = user.CountryCode
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"company": fiber.Map{
			"id":           company.ID,
			"company_name": company.CompanyName,
			"domain":       company.Domain,
		},
		"requests": items,
		"pagination": fiber.Map{
			"page":  page.Page,
			"limit": page.Limit,
			"total": len(items),
		},
	})
}

// MarkExpired triggers an immediate sweep of expired requests.
func (h *VerificationHandler) MarkExpired(c *fiber.Ctx) error {
	count := h.verification.SweepExpired(c.Context())

	return c.JSON(fiber.Map{
		"success":       true,
		"expired_count": count,
	})
}

func requestJSON(r *models.VerificationRequest) fiber.Map {
	return fiber.Map{
		"id":                    r.ID,
		"user_id":               r.UserID,
		"company_id":            r.CompanyID,
		"request_type":          r.RequestType,
		"status":                r.Status,
		"expiry_time":           r.ExpiryTime,
		"request_creation_date": r.CreatedAt,
	}
}

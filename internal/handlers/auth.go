package handlers

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/truenumber/internal/middleware"
	"github.com/example/truenumber/internal/models"
	"github.com/example/truenumber/internal/services"
	"github.com/example/truenumber/internal/store"
)

var (
	mobileNumberRe = regexp.MustCompile(`^\d{10,15}$`)
	countryCodeRe  = regexp.MustCompile(`^\+?\d{1,4}$`)
)

// AuthHandler bundles dependencies for OTP and session endpoints.
type AuthHandler struct {
	users   store.UserStore
	otp     *services.OTPService
	tokens  *services.TokenService
	devMode bool
}

// NewAuthHandler constructs an AuthHandler. devMode echoes issued codes in
// responses so clients can be tested without an SMS gateway.
func NewAuthHandler(users store.UserStore, otp *services.OTPService, tokens *services.TokenService, devMode bool) *AuthHandler {
	return &AuthHandler{users: users, otp: otp, tokens: tokens, devMode: devMode}
}

type sendOTPRequest struct {
	MobileNumber string `json:"mobile_number"`
	CountryCode  string `json:"country_code"`
}

// SendOTP issues a new challenge for the phone identity.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.MobileNumber == "" || req.CountryCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "mobile number and country code are required")
	}

	if !mobileNumberRe.MatchString(req.MobileNumber) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid mobile number format")
	}

	if !countryCodeRe.MatchString(req.CountryCode) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid country code format")
	}

	challenge, err := h.otp.Issue(c.Context(), req.MobileNumber, req.CountryCode)
	if err != nil {
		return serviceError(err)
	}

	resp := fiber.Map{
		"success": true,
		"message": "OTP sent successfully",
	}
	if h.devMode {
		resp["otp"] = challenge.Code
	}
	return c.JSON(resp)
}

type verifyOTPRequest struct {
	MobileNumber string `json:"mobile_number"`
	CountryCode  string `json:"country_code"`
	OTPCode      string `json:"otp_code"`
	Name         string `json:"name"`
}

// VerifyOTP validates the submitted code and logs the user in, registering
// them first if this identity is new.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.MobileNumber == "" || req.CountryCode == "" || req.OTPCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "mobile number, country code, and OTP code are required")
	}

	if err := h.otp.Verify(c.Context(), req.MobileNumber, req.CountryCode, req.OTPCode); err != nil {
		return serviceError(err)
	}

	user, err := h.users.GetByIdentity(c.Context(), req.MobileNumber, req.CountryCode)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required for new user registration")
		}

		user = &models.User{
			MobileNumber: req.MobileNumber,
			CountryCode:  req.CountryCode,
			Name:         name,
		}
		if err := h.users.Create(c.Context(), user); err != nil {
			return err
		}
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	refreshToken, err := h.tokens.IssueRefreshToken(user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP verified successfully",
		"user": fiber.Map{
			"id":            user.ID,
			"mobile_number": user.MobileNumber,
			"country_code":  user.CountryCode,
			"name":          user.Name,
		},
		"token":         accessToken,
		"refresh_token": refreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "refresh token is required")
	}

	claims, err := h.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		return serviceError(err)
	}

	userID, err := claims.UserID()
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
	}

	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		return err
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   accessToken,
	})
}

// Profile returns the authenticated user's record.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":            user.ID,
			"mobile_number": user.MobileNumber,
			"country_code":  user.CountryCode,
			"name":          user.Name,
			"created_at":    user.CreatedAt,
		},
	})
}

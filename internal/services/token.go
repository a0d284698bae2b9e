package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/truenumber/internal/models"
)

// Token types carried in the "type" claim. An access token presented where a
// refresh token is expected fails verification, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the signed payload of both token types.
type TokenClaims struct {
	MobileNumber string `json:"mobile_number"`
	CountryCode  string `json:"country_code"`
	Name         string `json:"name"`
	TokenType    string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer session tokens. Tokens are
// stateless; there is no revocation before natural expiry.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken signs an access token carrying the user's identity claims.
func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	return s.sign(user, TokenTypeAccess, s.accessTTL)
}

// IssueRefreshToken signs a refresh token with the longer refresh TTL.
func (s *TokenService) IssueRefreshToken(user *models.User) (string, error) {
	return s.sign(user, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		MobileNumber: user.MobileNumber,
		CountryCode:  user.CountryCode,
		Name:         user.Name,
		TokenType:    tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *TokenService) VerifyAccessToken(tokenString string) (*TokenClaims, error) {
	return s.verify(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (s *TokenService) VerifyRefreshToken(tokenString string) (*TokenClaims, error) {
	return s.verify(tokenString, TokenTypeRefresh)
}

// verify checks signature, issuer, expiry, and token type in one pass. Any
// single failure yields ErrInvalidToken; no partial decode reaches callers.
func (s *TokenService) verify(tokenString, wantType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Subject parses the user ID out of verified claims.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

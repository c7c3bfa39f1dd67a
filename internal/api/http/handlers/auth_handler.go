package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-relay/internal/api/dto"
	"github.com/spec-kit/ticket-relay/internal/auth"
	"github.com/spec-kit/ticket-relay/internal/config"
	apperrors "github.com/spec-kit/ticket-relay/pkg/util"
)

// AuthHandler issues ops API tokens against the configured admin key.
type AuthHandler struct {
	tokens *TokenIssuer
}

// TokenIssuer wraps the admin key check and token generation.
type TokenIssuer struct {
	manager      *auth.TokenManager
	adminKeyHash string
}

// NewTokenIssuer constructs the issuer.
func NewTokenIssuer(cfg config.OpsAPIConfig) *TokenIssuer {
	return &TokenIssuer{
		manager:      auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		adminKeyHash: cfg.AdminKeyHash,
	}
}

// Manager exposes the token manager for middleware construction.
func (t *TokenIssuer) Manager() *auth.TokenManager {
	return t.manager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *TokenIssuer) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// IssueToken POST /auth/token.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	if h.tokens.adminKeyHash == "" {
		return apperrors.NewForbidden("ops API auth not configured")
	}

	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AdminKey == "" {
		return apperrors.NewValidationError("admin_key required", nil)
	}

	if err := auth.CompareAdminKey(h.tokens.adminKeyHash, req.AdminKey); err != nil {
		return apperrors.NewUnauthorized("invalid admin key")
	}

	token, expiresAt, err := h.tokens.manager.GenerateToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{Token: token, ExpiresAt: expiresAt}})
}

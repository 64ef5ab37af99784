package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/api/dto"
	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/identity"
	"github.com/quickdesk/quickdesk/internal/service"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// AuthHandler exchanges identity tokens for local accounts and serves the
// caller's own profile.
type AuthHandler struct {
	verifier *identity.Verifier
	accounts *service.AccountService
}

// NewAuthHandler wires the auth endpoints.
func NewAuthHandler(verifier *identity.Verifier, accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{verifier: verifier, accounts: accounts}
}

// Login verifies a provider token from the request body and resolves or
// creates the matching account.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}
	if req.Token == "" {
		return errorutil.NewValidationError("token is required", nil)
	}

	claims, err := h.verifier.Verify(req.Token)
	if err != nil {
		return err
	}
	account, err := h.accounts.ResolveOrCreate(c.UserContext(), claims)
	if err != nil {
		return err
	}
	if !account.Active {
		return errorutil.NewForbidden("account is deactivated")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    dto.FromAccount(*account),
	})
}

// Profile returns the authenticated caller's account.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)
	return c.JSON(fiber.Map{
		"success": true,
		"user":    dto.FromAccount(*principal),
	})
}

// UpdateProfile applies self-service changes to the caller's account.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	input := service.ProfileUpdateInput{Name: req.Name}
	if req.Preferences != nil {
		input.Preferences = &domain.NotificationPreferences{
			Email:         req.Preferences.Email,
			TicketUpdates: req.Preferences.TicketUpdates,
		}
	}

	account, err := h.accounts.UpdateProfile(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "profile updated",
		"user":    dto.FromAccount(*account),
	})
}

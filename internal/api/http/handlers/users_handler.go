package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/api/dto"
	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/identity"
	"github.com/quickdesk/quickdesk/internal/service"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// UserHandler serves the admin account directory endpoints.
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler wires the directory endpoints.
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// List pages through the directory with per-account ticket counters.
func (h *UserHandler) List(c *fiber.Ctx) error {
	input := service.AccountListInput{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
		SortBy:   c.Query("sort_by"),
		SortDesc: c.Query("order", "desc") == "desc",
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		if !r.Valid() {
			return errorutil.NewValidationError("invalid role filter", map[string]any{"role": role})
		}
		input.Role = &r
	}
	if active := c.Query("active"); active != "" {
		isActive := active == "true"
		input.Active = &isActive
	}
	if search := c.Query("search"); search != "" {
		input.Search = &search
	}

	items, total, err := h.accounts.List(c.UserContext(), input)
	if err != nil {
		return err
	}

	out := make([]dto.AccountWithStatsResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.FromAccountWithStats(item))
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"users":      out,
		"pagination": dto.NewPagination(input.Page, input.Limit, total),
	})
}

// Stats summarizes the directory.
func (h *UserHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.accounts.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// Get returns one account with its full counter set.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	item, err := h.accounts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    dto.FromAccountWithStats(*item),
	})
}

// ChangeRole sets an account's role.
func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	account, err := h.accounts.ChangeRole(c.UserContext(), principal, c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "role updated",
		"user":    dto.FromAccount(*account),
	})
}

// SetActivation toggles an account's activation flag.
func (h *UserHandler) SetActivation(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.SetActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	account, err := h.accounts.SetActivation(c.UserContext(), principal, c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "account status updated",
		"user":    dto.FromAccount(*account),
	})
}

// Deactivate is the delete semantics of the directory.
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	account, err := h.accounts.Deactivate(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "account deactivated",
		"user":    dto.FromAccount(*account),
	})
}

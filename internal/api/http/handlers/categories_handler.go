package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/api/dto"
	"github.com/quickdesk/quickdesk/internal/identity"
	"github.com/quickdesk/quickdesk/internal/service"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// CategoryHandler serves the category endpoints.
type CategoryHandler struct {
	categories *service.CategoryService
}

// NewCategoryHandler wires the category endpoints.
func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List returns categories with ticket counters. Inactive categories are
// included only on request.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	includeInactive := c.QueryBool("include_inactive", false)

	items, err := h.categories.List(c.UserContext(), includeInactive)
	if err != nil {
		return err
	}

	out := make([]dto.CategoryWithStatsResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.FromCategoryWithStats(item))
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"categories": out,
	})
}

// Stats returns registry-wide counters across every category, inactive
// ones included.
func (h *CategoryHandler) Stats(c *fiber.Ctx) error {
	items, err := h.categories.List(c.UserContext(), true)
	if err != nil {
		return err
	}

	var activeCategories int
	var activeTickets, totalTickets int64
	out := make([]dto.CategoryWithStatsResponse, 0, len(items))
	for _, item := range items {
		if item.Category.Active {
			activeCategories++
		}
		activeTickets += item.Stats.ActiveTickets
		totalTickets += item.Stats.TotalTickets
		out = append(out, dto.FromCategoryWithStats(item))
	}
	return c.JSON(fiber.Map{
		"success":           true,
		"categories":        out,
		"total_categories":  len(items),
		"active_categories": activeCategories,
		"active_tickets":    activeTickets,
		"total_tickets":     totalTickets,
	})
}

// Get returns one category with its full status breakdown.
func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	item, breakdown, err := h.categories.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"category":  dto.FromCategoryWithStats(*item),
		"breakdown": breakdown,
	})
}

// Create registers a category.
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	category, err := h.categories.Create(c.UserContext(), principal, service.CategoryInput{
		Name:        &req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "category created",
		"category": dto.FromCategory(*category),
	})
}

// Update modifies a category.
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	category, err := h.categories.Update(c.UserContext(), principal, c.Params("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Active:      req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "category updated",
		"category": dto.FromCategory(*category),
	})
}

// Deactivate soft-deletes a category.
func (h *CategoryHandler) Deactivate(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	category, err := h.categories.Deactivate(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "category deactivated",
		"category": dto.FromCategory(*category),
	})
}

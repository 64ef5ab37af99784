package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CategoryStats carries the derived ticket counters shown per category.
// Active counts every ticket not yet closed.
type CategoryStats struct {
	ActiveTickets int64 `json:"active_tickets"`
	TotalTickets  int64 `json:"total_tickets"`
}

// CategoryWithStats pairs a category with its counters.
type CategoryWithStats struct {
	Category domain.Category
	Stats    CategoryStats
}

// CategoryBreakdown is the per-status split returned on single-category
// reads.
type CategoryBreakdown struct {
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Closed     int64 `json:"closed"`
}

// CategoryInput captures create and update fields. Nil pointers on update
// leave the stored value untouched.
type CategoryInput struct {
	Name        *string
	Description *string
	Color       *string
	Active      *bool
}

// CategoryService is the admin-managed registry of ticket labels.
type CategoryService struct {
	categories repository.CategoryRepository
	tickets    repository.TicketRepository
	logger     *zap.Logger
}

// NewCategoryService wires the category registry.
func NewCategoryService(categories repository.CategoryRepository, tickets repository.TicketRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, tickets: tickets, logger: logger}
}

// Create registers a new category. Names are unique case-insensitively
// and the color falls back to a neutral gray.
func (s *CategoryService) Create(ctx context.Context, actor *domain.Account, input CategoryInput) (*domain.Category, error) {
	if input.Name == nil {
		return nil, errorutil.NewValidationError("category name is required", nil)
	}
	name := strings.TrimSpace(*input.Name)
	if err := validateCategoryFields(name, input.Description, input.Color); err != nil {
		return nil, err
	}

	if existing, err := s.categories.GetByNameFold(ctx, name); err != nil && err != repository.ErrNotFound {
		return nil, errorutil.NewInternalError(err)
	} else if existing != nil {
		return nil, errorutil.NewConflict("a category with this name already exists", map[string]any{"name": existing.Name})
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     domain.DefaultCategoryColor,
		Active:    true,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc != "" {
			category.Description = &desc
		}
	}
	if input.Color != nil {
		category.Color = *input.Color
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	s.logger.Info("category created",
		zap.String("category_id", category.ID), zap.String("name", category.Name), zap.String("actor_id", actor.ID))
	return category, nil
}

// Update modifies a category. Renames run the same case-insensitive
// uniqueness check excluding the category itself; switching Active to
// false applies the deactivation guard.
func (s *CategoryService) Update(ctx context.Context, actor *domain.Account, id string, input CategoryInput) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "category")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := validateCategoryFields(name, input.Description, input.Color); err != nil {
			return nil, err
		}
		if !strings.EqualFold(name, category.Name) {
			if existing, err := s.categories.GetByNameFold(ctx, name); err != nil && err != repository.ErrNotFound {
				return nil, errorutil.NewInternalError(err)
			} else if existing != nil && existing.ID != category.ID {
				return nil, errorutil.NewConflict("a category with this name already exists", map[string]any{"name": existing.Name})
			}
		}
		category.Name = name
	} else if err := validateCategoryFields(category.Name, input.Description, input.Color); err != nil {
		return nil, err
	}

	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			category.Description = nil
		} else {
			category.Description = &desc
		}
	}
	if input.Color != nil {
		category.Color = *input.Color
	}
	if input.Active != nil {
		if !*input.Active && category.Active {
			if err := s.guardDeactivation(ctx, category.ID); err != nil {
				return nil, err
			}
		}
		category.Active = *input.Active
	}

	category.UpdatedAt = time.Now().UTC()
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return category, nil
}

// Deactivate soft-deletes a category. Blocked while any ticket in the
// category is still open or in progress; existing tickets keep their
// reference either way.
func (s *CategoryService) Deactivate(ctx context.Context, actor *domain.Account, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "category")
	}
	if err := s.guardDeactivation(ctx, category.ID); err != nil {
		return nil, err
	}

	category.Active = false
	category.UpdatedAt = time.Now().UTC()
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	s.logger.Info("category deactivated",
		zap.String("category_id", category.ID), zap.String("actor_id", actor.ID))
	return category, nil
}

func (s *CategoryService) guardDeactivation(ctx context.Context, categoryID string) error {
	blocking, err := s.tickets.Count(ctx, repository.TicketFilter{
		CategoryID: &categoryID,
		Statuses:   []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
	})
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if blocking > 0 {
		return errorutil.NewConflict(
			fmt.Sprintf("cannot deactivate category with %d active ticket(s)", blocking),
			map[string]any{"blocking_tickets": blocking})
	}
	return nil
}

// Get returns one category with its full status breakdown.
func (s *CategoryService) Get(ctx context.Context, id string) (*CategoryWithStats, *CategoryBreakdown, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapRepoErr(err, "category")
	}

	breakdown := &CategoryBreakdown{}
	for status, dest := range map[domain.TicketStatus]*int64{
		domain.TicketStatusOpen:       &breakdown.Open,
		domain.TicketStatusInProgress: &breakdown.InProgress,
		domain.TicketStatusResolved:   &breakdown.Resolved,
		domain.TicketStatusClosed:     &breakdown.Closed,
	} {
		count, err := s.tickets.Count(ctx, repository.TicketFilter{
			CategoryID: &category.ID,
			Statuses:   []domain.TicketStatus{status},
		})
		if err != nil {
			return nil, nil, errorutil.NewInternalError(err)
		}
		*dest = count
	}

	total := breakdown.Open + breakdown.InProgress + breakdown.Resolved + breakdown.Closed
	stats := CategoryStats{
		ActiveTickets: total - breakdown.Closed,
		TotalTickets:  total,
	}
	return &CategoryWithStats{Category: *category, Stats: stats}, breakdown, nil
}

// List returns categories with derived counters, optionally including
// deactivated ones.
func (s *CategoryService) List(ctx context.Context, includeInactive bool) ([]CategoryWithStats, error) {
	categories, err := s.categories.List(ctx, includeInactive)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	out := make([]CategoryWithStats, 0, len(categories))
	for _, category := range categories {
		id := category.ID
		total, err := s.tickets.Count(ctx, repository.TicketFilter{CategoryID: &id})
		if err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		closed, err := s.tickets.Count(ctx, repository.TicketFilter{
			CategoryID: &id,
			Statuses:   []domain.TicketStatus{domain.TicketStatusClosed},
		})
		if err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		out = append(out, CategoryWithStats{
			Category: category,
			Stats:    CategoryStats{ActiveTickets: total - closed, TotalTickets: total},
		})
	}
	return out, nil
}

func validateCategoryFields(name string, description, color *string) error {
	if name == "" {
		return errorutil.NewValidationError("category name is required", nil)
	}
	if len(name) > 50 {
		return errorutil.NewValidationError("category name must be at most 50 characters", nil)
	}
	if description != nil && len(strings.TrimSpace(*description)) > 200 {
		return errorutil.NewValidationError("category description must be at most 200 characters", nil)
	}
	if color != nil && !hexColorPattern.MatchString(*color) {
		return errorutil.NewValidationError("category color must be a hex value like #RRGGBB", nil)
	}
	return nil
}

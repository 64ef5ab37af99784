package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

func newCategoryEnv(t *testing.T) (*repository.MemoryStore, *CategoryService) {
	t.Helper()
	store := repository.NewMemoryStore()
	return store, NewCategoryService(store.Categories, store.Tickets, zap.NewNop())
}

func strptr(s string) *string { return &s }

func TestCategoryNameUniquenessIsCaseInsensitive(t *testing.T) {
	store, svc := newCategoryEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Billing")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("billing")}); !errorutil.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT for case-insensitive duplicate, got %v", err)
	}
	if _, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("  BILLING  ")}); !errorutil.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT for trimmed duplicate, got %v", err)
	}
}

func TestCategoryDefaultsAndValidation(t *testing.T) {
	store, svc := newCategoryEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	category, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Hardware")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if category.Color != domain.DefaultCategoryColor {
		t.Fatalf("expected default color, got %s", category.Color)
	}
	if !category.Active {
		t.Fatal("new categories must start active")
	}
	if category.CreatedBy != admin.ID {
		t.Fatalf("createdBy mismatch: %s", category.CreatedBy)
	}

	if _, err := svc.Create(ctx, admin, CategoryInput{Name: strptr(strings.Repeat("x", 51))}); !errorutil.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("long name: expected VALIDATION_FAILED, got %v", err)
	}
	if _, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Network"), Color: strptr("blue")}); !errorutil.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("bad color: expected VALIDATION_FAILED, got %v", err)
	}
	long := strings.Repeat("d", 201)
	if _, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Network"), Description: &long}); !errorutil.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("long description: expected VALIDATION_FAILED, got %v", err)
	}
}

func TestCategoryRenameExcludesSelfFromUniqueness(t *testing.T) {
	store, svc := newCategoryEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	category, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Billing")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Hardware")}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	// changing only the casing of its own name is allowed
	if _, err := svc.Update(ctx, admin, category.ID, CategoryInput{Name: strptr("BILLING")}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
	// renaming onto another category is not
	if _, err := svc.Update(ctx, admin, category.ID, CategoryInput{Name: strptr("hardware")}); !errorutil.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestCategoryDeactivationBlockedByUnresolvedTickets(t *testing.T) {
	store, svc := newCategoryEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	user := seedAccount(t, store, domain.RoleEndUser)
	ctx := context.Background()

	category, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Hardware")})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	ticket := &domain.Ticket{
		Subject:    "Monitor flickers",
		Body:       "The monitor flickers at random intervals.",
		CategoryID: category.ID,
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityMedium,
		CreatedBy:  user.ID,
	}
	if err := store.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	_, err = svc.Deactivate(ctx, admin, category.ID)
	if !errorutil.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT while tickets are open, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 active ticket") {
		t.Fatalf("conflict message must carry the blocking count, got %q", err.Error())
	}

	ticket.Status = domain.TicketStatusResolved
	if err := store.Tickets.Save(ctx, ticket); err != nil {
		t.Fatalf("resolve ticket: %v", err)
	}

	deactivated, err := svc.Deactivate(ctx, admin, category.ID)
	if err != nil {
		t.Fatalf("deactivate after resolve: %v", err)
	}
	if deactivated.Active {
		t.Fatal("category should be inactive")
	}

	// soft delete: the ticket keeps its reference
	stored, err := store.Tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.CategoryID != category.ID {
		t.Fatal("ticket lost its category reference on deactivation")
	}
}

func TestCategoryUpdateCanDeactivateAndReactivate(t *testing.T) {
	store, svc := newCategoryEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	category, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Billing")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inactive := false
	if _, err := svc.Update(ctx, admin, category.ID, CategoryInput{Active: &inactive}); err != nil {
		t.Fatalf("deactivate via update: %v", err)
	}

	listed, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("inactive categories must be excluded by default, got %d", len(listed))
	}

	active := true
	if _, err := svc.Update(ctx, admin, category.ID, CategoryInput{Active: &active}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	listed, err = svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected reactivated category in listing, got %d", len(listed))
	}
}

func TestCategoryStatsBreakdown(t *testing.T) {
	store, svc := newCategoryEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	user := seedAccount(t, store, domain.RoleEndUser)
	ctx := context.Background()

	category, err := svc.Create(ctx, admin, CategoryInput{Name: strptr("Hardware")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
		domain.TicketStatusClosed,
	} {
		ticket := &domain.Ticket{
			Subject:    "Sample ticket subject",
			Body:       "Sample ticket body text here.",
			CategoryID: category.ID,
			Status:     status,
			Priority:   domain.TicketPriorityMedium,
			CreatedBy:  user.ID,
		}
		if err := store.Tickets.Create(ctx, ticket); err != nil {
			t.Fatal(err)
		}
	}

	item, breakdown, err := svc.Get(ctx, category.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if breakdown.Open != 1 || breakdown.InProgress != 1 || breakdown.Resolved != 1 || breakdown.Closed != 2 {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}
	if item.Stats.TotalTickets != 5 || item.Stats.ActiveTickets != 3 {
		t.Fatalf("unexpected stats: %+v", item.Stats)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/identity"
	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

func newAccountEnv(t *testing.T) (*repository.MemoryStore, *AccountService) {
	t.Helper()
	store := repository.NewMemoryStore()
	cache := identity.NewPrincipalCache(nil, 0)
	return store, NewAccountService(store.Accounts, store.Tickets, cache, zap.NewNop())
}

func claimsFor(subject, email, name string) *identity.Claims {
	return &identity.Claims{
		Email:            email,
		Name:             name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func TestResolveOrCreateNewAccount(t *testing.T) {
	_, svc := newAccountEnv(t)
	ctx := context.Background()

	account, err := svc.ResolveOrCreate(ctx, claimsFor("sub-1", "jane@example.com", "Jane Doe"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if account.Role != domain.RoleEndUser {
		t.Fatalf("new accounts default to end-user, got %s", account.Role)
	}
	if !account.Active {
		t.Fatal("new accounts start active")
	}
	if !account.Preferences.Email || !account.Preferences.TicketUpdates {
		t.Fatalf("default preferences should enable all channels: %+v", account.Preferences)
	}

	again, err := svc.ResolveOrCreate(ctx, claimsFor("sub-1", "jane@example.com", "Jane Doe"))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again.ID != account.ID {
		t.Fatal("same subject must resolve to the same account")
	}
}

func TestResolveOrCreateNameFallsBackToEmailLocalPart(t *testing.T) {
	_, svc := newAccountEnv(t)

	account, err := svc.ResolveOrCreate(context.Background(), claimsFor("sub-2", "no.name@example.com", "  "))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if account.Name != "no.name" {
		t.Fatalf("expected email local part as name, got %q", account.Name)
	}
}

func TestResolveOrCreateAppliesClaimDrift(t *testing.T) {
	_, svc := newAccountEnv(t)
	ctx := context.Background()

	original, err := svc.ResolveOrCreate(ctx, claimsFor("sub-3", "old@example.com", "Old Name"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	updated, err := svc.ResolveOrCreate(ctx, claimsFor("sub-3", "new@example.com", "New Name"))
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if updated.ID != original.ID {
		t.Fatal("drift must update in place, not create")
	}
	if updated.Email != "new@example.com" || updated.Name != "New Name" {
		t.Fatalf("claims not applied: %+v", updated)
	}
}

func TestResolveOrCreateRejectsIncompleteClaims(t *testing.T) {
	_, svc := newAccountEnv(t)
	ctx := context.Background()

	if _, err := svc.ResolveOrCreate(ctx, claimsFor("", "a@example.com", "A")); !errorutil.IsCode(err, "UNAUTHENTICATED") {
		t.Fatalf("missing subject: expected UNAUTHENTICATED, got %v", err)
	}
	if _, err := svc.ResolveOrCreate(ctx, claimsFor("sub-4", "", "A")); !errorutil.IsCode(err, "UNAUTHENTICATED") {
		t.Fatalf("missing email: expected UNAUTHENTICATED, got %v", err)
	}
}

func TestSelfGuards(t *testing.T) {
	store, svc := newAccountEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	ctx := context.Background()

	if _, err := svc.ChangeRole(ctx, admin, admin.ID, domain.RoleEndUser); !errorutil.IsCode(err, "FORBIDDEN") {
		t.Fatalf("self role change: expected FORBIDDEN, got %v", err)
	}
	if _, err := svc.SetActivation(ctx, admin, admin.ID, false); !errorutil.IsCode(err, "FORBIDDEN") {
		t.Fatalf("self deactivation: expected FORBIDDEN, got %v", err)
	}
	// self reactivation is not guarded
	if _, err := svc.SetActivation(ctx, admin, admin.ID, true); err != nil {
		t.Fatalf("self activation: %v", err)
	}
}

func TestChangeRoleValidation(t *testing.T) {
	store, svc := newAccountEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	target := seedAccount(t, store, domain.RoleEndUser)
	ctx := context.Background()

	if _, err := svc.ChangeRole(ctx, admin, target.ID, domain.Role("SUPERUSER")); !errorutil.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("invalid role: expected VALIDATION_FAILED, got %v", err)
	}

	changed, err := svc.ChangeRole(ctx, admin, target.ID, domain.RoleAgent)
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if changed.Role != domain.RoleAgent {
		t.Fatalf("role not applied: %s", changed.Role)
	}
}

func TestDeactivationClearsUnresolvedAssignmentsOnly(t *testing.T) {
	store, svc := newAccountEnv(t)
	admin := seedAccount(t, store, domain.RoleAdmin)
	agent := seedAccount(t, store, domain.RoleAgent)
	user := seedAccount(t, store, domain.RoleEndUser)
	ctx := context.Background()

	open := &domain.Ticket{
		Subject:    "Open assigned ticket",
		Body:       "Still needs attention from the agent.",
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityMedium,
		CreatedBy:  user.ID,
		AssignedTo: &agent.ID,
	}
	resolved := &domain.Ticket{
		Subject:    "Resolved assigned ticket",
		Body:       "Already handled by the agent earlier.",
		Status:     domain.TicketStatusResolved,
		Priority:   domain.TicketPriorityMedium,
		CreatedBy:  user.ID,
		AssignedTo: &agent.ID,
	}
	for _, ticket := range []*domain.Ticket{open, resolved} {
		if err := store.Tickets.Create(ctx, ticket); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := svc.SetActivation(ctx, admin, agent.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	storedOpen, _ := store.Tickets.GetByID(ctx, open.ID)
	if storedOpen.AssignedTo != nil {
		t.Fatal("open ticket must be unassigned when assignee is deactivated")
	}
	storedResolved, _ := store.Tickets.GetByID(ctx, resolved.ID)
	if storedResolved.AssignedTo == nil || *storedResolved.AssignedTo != agent.ID {
		t.Fatal("resolved ticket assignment must be preserved as history")
	}
}

func TestDirectoryStats(t *testing.T) {
	store, svc := newAccountEnv(t)
	seedAccount(t, store, domain.RoleAdmin)
	seedAccount(t, store, domain.RoleAgent)
	seedAccount(t, store, domain.RoleEndUser)
	inactive := seedAccount(t, store, domain.RoleEndUser)
	inactive.Active = false
	if err := store.Accounts.Save(context.Background(), inactive); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Active != 3 || stats.Inactive != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.EndUsers != 2 || stats.Agents != 1 || stats.Admins != 1 {
		t.Fatalf("unexpected role split: %+v", stats)
	}
	if stats.RecentRegistrations != 4 {
		t.Fatalf("all accounts were created just now: %+v", stats)
	}
}

func TestAccountStatsAggregation(t *testing.T) {
	store, svc := newAccountEnv(t)
	agent := seedAccount(t, store, domain.RoleAgent)
	user := seedAccount(t, store, domain.RoleEndUser)
	ctx := context.Background()

	for _, status := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusResolved} {
		ticket := &domain.Ticket{
			Subject:    "Stats sample ticket",
			Body:       "Body for the stats sample ticket.",
			Status:     status,
			Priority:   domain.TicketPriorityMedium,
			CreatedBy:  user.ID,
			AssignedTo: &agent.ID,
		}
		if err := store.Tickets.Create(ctx, ticket); err != nil {
			t.Fatal(err)
		}
	}

	item, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.Stats.TicketsCreated != 2 || item.Stats.OpenTickets != 1 || item.Stats.ResolvedTickets != 1 {
		t.Fatalf("unexpected user stats: %+v", item.Stats)
	}

	agentItem, err := svc.Get(ctx, agent.ID)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if agentItem.Stats.TicketsAssigned != 2 {
		t.Fatalf("unexpected agent stats: %+v", agentItem.Stats)
	}
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/identity"
	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// AccountStats aggregates per-account ticket counts at read time. Counts
// are derived by live queries, never stored.
type AccountStats struct {
	TicketsCreated  int64 `json:"tickets_created"`
	TicketsAssigned int64 `json:"tickets_assigned"`
	OpenTickets     int64 `json:"open_tickets"`
	ResolvedTickets int64 `json:"resolved_tickets"`
}

// AccountWithStats pairs an account with its derived counters.
type AccountWithStats struct {
	Account domain.Account
	Stats   AccountStats
}

// DirectoryStats summarizes the whole account directory.
type DirectoryStats struct {
	Total               int64 `json:"total"`
	Active              int64 `json:"active"`
	Inactive            int64 `json:"inactive"`
	EndUsers            int64 `json:"end_users"`
	Agents              int64 `json:"agents"`
	Admins              int64 `json:"admins"`
	RecentRegistrations int64 `json:"recent_registrations"`
}

// AccountListInput captures directory listing parameters.
type AccountListInput struct {
	Role     *domain.Role
	Active   *bool
	Search   *string
	Page     int
	Limit    int
	SortBy   string
	SortDesc bool
}

// ProfileUpdateInput captures the self-service profile fields. Nil fields
// are left untouched.
type ProfileUpdateInput struct {
	Name        *string
	Preferences *domain.NotificationPreferences
}

// AccountService is the account directory. It owns role and activation
// state and materializes local accounts from verified identity claims.
type AccountService struct {
	accounts repository.AccountRepository
	tickets  repository.TicketRepository
	cache    *identity.PrincipalCache
	logger   *zap.Logger
}

// NewAccountService wires the account directory.
func NewAccountService(accounts repository.AccountRepository, tickets repository.TicketRepository, cache *identity.PrincipalCache, logger *zap.Logger) *AccountService {
	return &AccountService{accounts: accounts, tickets: tickets, cache: cache, logger: logger}
}

// ResolveOrCreate maps verified claims to a local account. Unseen subjects
// get a fresh end-user account; known subjects have drifted claim fields
// (email, name, avatar) persisted. Role and activation are never touched
// here.
func (s *AccountService) ResolveOrCreate(ctx context.Context, claims *identity.Claims) (*domain.Account, error) {
	if claims == nil || claims.Subject == "" || strings.TrimSpace(claims.Email) == "" {
		return nil, errorutil.NewUnauthorized("identity claims missing subject or email")
	}

	account, err := s.accounts.GetBySubjectID(ctx, claims.Subject)
	if err != nil && err != repository.ErrNotFound {
		return nil, errorutil.NewInternalError(err)
	}

	name := displayName(claims)

	if account == nil {
		now := time.Now().UTC()
		account = &domain.Account{
			ID:          uuid.NewString(),
			SubjectID:   claims.Subject,
			Email:       claims.Email,
			Name:        name,
			Role:        domain.RoleEndUser,
			Active:      true,
			Preferences: domain.DefaultNotificationPreferences(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if claims.Picture != "" {
			avatar := claims.Picture
			account.AvatarURL = &avatar
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		s.logger.Info("account created from identity claims",
			zap.String("account_id", account.ID), zap.String("subject", account.SubjectID))
		return account, nil
	}

	changed := false
	if account.Email != claims.Email {
		account.Email = claims.Email
		changed = true
	}
	if account.Name != name {
		account.Name = name
		changed = true
	}
	if claims.Picture != "" && (account.AvatarURL == nil || *account.AvatarURL != claims.Picture) {
		avatar := claims.Picture
		account.AvatarURL = &avatar
		changed = true
	}
	if changed {
		account.UpdatedAt = time.Now().UTC()
		if err := s.accounts.Save(ctx, account); err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		s.cache.Invalidate(ctx, account.SubjectID)
	}
	return account, nil
}

// displayName prefers the asserted name and falls back to the email local
// part.
func displayName(claims *identity.Claims) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	local := claims.Email
	if at := strings.Index(local, "@"); at > 0 {
		local = local[:at]
	}
	return local
}

// ChangeRole overwrites the target's role. Callers may not change their
// own role.
func (s *AccountService) ChangeRole(ctx context.Context, actor *domain.Account, targetID string, newRole domain.Role) (*domain.Account, error) {
	if !newRole.Valid() {
		return nil, errorutil.NewValidationError("invalid role", map[string]any{"role": newRole})
	}
	if actor.ID == targetID {
		return nil, errorutil.NewForbidden("cannot change your own role")
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}

	target.Role = newRole
	target.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Save(ctx, target); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	s.cache.Invalidate(ctx, target.SubjectID)
	s.logger.Info("account role changed",
		zap.String("account_id", target.ID), zap.String("role", string(newRole)), zap.String("actor_id", actor.ID))
	return target, nil
}

// SetActivation toggles the target's activation flag. Self-deactivation is
// rejected. Deactivating unassigns the account from every unresolved
// ticket it holds; resolved and closed assignments are preserved.
func (s *AccountService) SetActivation(ctx context.Context, actor *domain.Account, targetID string, active bool) (*domain.Account, error) {
	if actor.ID == targetID && !active {
		return nil, errorutil.NewForbidden("cannot deactivate your own account")
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}

	target.Active = active
	target.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Save(ctx, target); err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	if !active {
		cleared, err := s.tickets.ClearAssignee(ctx, target.ID)
		if err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		if cleared > 0 {
			s.logger.Info("cleared assignee on unresolved tickets",
				zap.String("account_id", target.ID), zap.Int64("tickets", cleared))
		}
	}

	s.cache.Invalidate(ctx, target.SubjectID)
	return target, nil
}

// Deactivate is the delete semantics of the directory: accounts are never
// removed, only switched inactive.
func (s *AccountService) Deactivate(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	return s.SetActivation(ctx, actor, targetID, false)
}

// UpdateProfile applies self-service changes to the caller's own account.
func (s *AccountService) UpdateProfile(ctx context.Context, caller *domain.Account, input ProfileUpdateInput) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errorutil.NewValidationError("name cannot be empty", nil)
		}
		account.Name = name
	}
	if input.Preferences != nil {
		account.Preferences = *input.Preferences
	}

	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	s.cache.Invalidate(ctx, account.SubjectID)
	return account, nil
}

// Get returns one account with its full derived stat set.
func (s *AccountService) Get(ctx context.Context, id string) (*AccountWithStats, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	stats, err := s.statsFor(ctx, account.ID, true)
	if err != nil {
		return nil, err
	}
	return &AccountWithStats{Account: *account, Stats: stats}, nil
}

// List pages through the directory with created/assigned counters per row.
func (s *AccountService) List(ctx context.Context, input AccountListInput) ([]AccountWithStats, int64, error) {
	limit, offset := pageBounds(input.Page, input.Limit)
	filter := repository.AccountFilter{
		Role:     input.Role,
		Active:   input.Active,
		Search:   input.Search,
		SortBy:   input.SortBy,
		SortDesc: input.SortDesc,
		Limit:    limit,
		Offset:   offset,
	}

	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, 0, errorutil.NewInternalError(err)
	}
	total, err := s.accounts.Count(ctx, filter)
	if err != nil {
		return nil, 0, errorutil.NewInternalError(err)
	}

	out := make([]AccountWithStats, 0, len(accounts))
	for _, account := range accounts {
		stats, err := s.statsFor(ctx, account.ID, false)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, AccountWithStats{Account: account, Stats: stats})
	}
	return out, total, nil
}

// Stats summarizes the directory: totals per role, activation split, and
// registrations over the trailing thirty days.
func (s *AccountService) Stats(ctx context.Context) (*DirectoryStats, error) {
	stats := &DirectoryStats{}

	total, err := s.accounts.Count(ctx, repository.AccountFilter{})
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	stats.Total = total

	active := true
	stats.Active, err = s.accounts.Count(ctx, repository.AccountFilter{Active: &active})
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	stats.Inactive = stats.Total - stats.Active

	for role, dest := range map[domain.Role]*int64{
		domain.RoleEndUser: &stats.EndUsers,
		domain.RoleAgent:   &stats.Agents,
		domain.RoleAdmin:   &stats.Admins,
	} {
		r := role
		count, err := s.accounts.Count(ctx, repository.AccountFilter{Role: &r})
		if err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		*dest = count
	}

	stats.RecentRegistrations, err = s.accounts.CountCreatedSince(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return stats, nil
}

func (s *AccountService) statsFor(ctx context.Context, accountID string, full bool) (AccountStats, error) {
	var stats AccountStats
	var err error

	stats.TicketsCreated, err = s.tickets.Count(ctx, repository.TicketFilter{CreatedBy: &accountID})
	if err != nil {
		return stats, errorutil.NewInternalError(err)
	}
	stats.TicketsAssigned, err = s.tickets.Count(ctx, repository.TicketFilter{AssignedTo: &accountID})
	if err != nil {
		return stats, errorutil.NewInternalError(err)
	}
	if !full {
		return stats, nil
	}

	stats.OpenTickets, err = s.tickets.Count(ctx, repository.TicketFilter{
		CreatedBy: &accountID,
		Statuses:  []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
	})
	if err != nil {
		return stats, errorutil.NewInternalError(err)
	}
	stats.ResolvedTickets, err = s.tickets.Count(ctx, repository.TicketFilter{
		CreatedBy: &accountID,
		Statuses:  []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed},
	})
	if err != nil {
		return stats, errorutil.NewInternalError(err)
	}
	return stats, nil
}

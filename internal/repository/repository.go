package repository

import (
	"context"
	"errors"
	"time"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// ErrNotFound is returned when an id does not resolve to a stored entity.
var ErrNotFound = errors.New("not found")

// ErrRevisionConflict is returned when a save loses an optimistic
// concurrency race: the stored revision no longer matches the one the
// caller read.
var ErrRevisionConflict = errors.New("revision conflict")

// AccountFilter captures account listing parameters.
type AccountFilter struct {
	Role     *domain.Role
	Active   *bool
	Search   *string
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// AccountRepository encapsulates account persistence.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Save(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetBySubjectID(ctx context.Context, subjectID string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	Count(ctx context.Context, filter AccountFilter) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// CategoryRepository encapsulates category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Save(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// GetByNameFold resolves a category by name, case-insensitively.
	GetByNameFold(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Category, error)
}

// TicketFilter captures ticket listing parameters. Visibility scoping
// (end-user sees own tickets only) is applied by the service before the
// filter reaches a repository.
type TicketFilter struct {
	CreatedBy  *string
	AssignedTo *string
	CategoryID *string
	Statuses   []domain.TicketStatus
	Search     *string
	SortBy     string
	SortDesc   bool
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence. Save compares the
// ticket's revision against the stored one and fails with
// ErrRevisionConflict on a mismatch.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Save(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
	// ClearAssignee removes the assignee from every unresolved ticket
	// assigned to the account and returns how many were touched.
	ClearAssignee(ctx context.Context, accountID string) (int64, error)
}

// CommentRepository stores the append-only comment threads.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

// AttachmentRepository stores attachment metadata set at ticket creation.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	GetByID(ctx context.Context, ticketID, attachmentID string) (*domain.Attachment, error)
}

// VoteRepository stores per-account ticket votes. Set replaces any prior
// vote by the same account on the same ticket, preserving the invariant
// that an account appears in at most one of the two vote sets.
type VoteRepository interface {
	Set(ctx context.Context, vote *domain.Vote) error
	Counts(ctx context.Context, ticketID string) (domain.VoteCounts, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Vote, error)
}

package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// MemoryStore backs every repository interface with process-local maps. It
// serves as the persistence layer when no Postgres DSN is configured and as
// the fixture for service and handler tests.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[string]domain.Account
	categories  map[string]domain.Category
	tickets     map[string]domain.Ticket
	comments    map[string][]domain.Comment
	attachments map[string][]domain.Attachment
	votes       map[string]map[string]domain.Vote

	Accounts    AccountRepository
	Categories  CategoryRepository
	Tickets     TicketRepository
	Comments    CommentRepository
	Attachments AttachmentRepository
	Votes       VoteRepository
}

// NewMemoryStore initializes an empty store with all repositories bound.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		accounts:    make(map[string]domain.Account),
		categories:  make(map[string]domain.Category),
		tickets:     make(map[string]domain.Ticket),
		comments:    make(map[string][]domain.Comment),
		attachments: make(map[string][]domain.Attachment),
		votes:       make(map[string]map[string]domain.Vote),
	}
	s.Accounts = &memoryAccounts{store: s}
	s.Categories = &memoryCategories{store: s}
	s.Tickets = &memoryTickets{store: s}
	s.Comments = &memoryComments{store: s}
	s.Attachments = &memoryAttachments{store: s}
	s.Votes = &memoryVotes{store: s}
	return s
}

type memoryAccounts struct {
	store *MemoryStore
}

func (r *memoryAccounts) Create(_ context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		now := time.Now()
		account.CreatedAt = now
		account.UpdatedAt = now
	}
	r.store.accounts[account.ID] = *account
	return nil
}

func (r *memoryAccounts) Save(_ context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.accounts[account.ID]; !ok {
		return ErrNotFound
	}
	account.UpdatedAt = time.Now()
	r.store.accounts[account.ID] = *account
	return nil
}

func (r *memoryAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	account, ok := r.store.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (r *memoryAccounts) GetBySubjectID(_ context.Context, subjectID string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, account := range r.store.accounts {
		if account.SubjectID == subjectID {
			copied := account
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func matchAccount(account domain.Account, filter AccountFilter) bool {
	if filter.Role != nil && account.Role != *filter.Role {
		return false
	}
	if filter.Active != nil && account.Active != *filter.Active {
		return false
	}
	if filter.Search != nil {
		needle := strings.ToLower(strings.TrimSpace(*filter.Search))
		if needle != "" &&
			!strings.Contains(strings.ToLower(account.Name), needle) &&
			!strings.Contains(strings.ToLower(account.Email), needle) {
			return false
		}
	}
	return true
}

func (r *memoryAccounts) List(_ context.Context, filter AccountFilter) ([]domain.Account, error) {
	r.store.mu.RLock()
	var matched []domain.Account
	for _, account := range r.store.accounts {
		if matchAccount(account, filter) {
			matched = append(matched, account)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch filter.SortBy {
		case "name":
			less = matched[i].Name < matched[j].Name
		case "email":
			less = matched[i].Email < matched[j].Email
		case "role":
			less = matched[i].Role < matched[j].Role
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if filter.SortDesc {
			return !less
		}
		return less
	})

	return paginate(matched, filter.Limit, filter.Offset, 20), nil
}

func (r *memoryAccounts) Count(_ context.Context, filter AccountFilter) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, account := range r.store.accounts {
		if matchAccount(account, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memoryAccounts) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, account := range r.store.accounts {
		if account.Active && !account.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type memoryCategories struct {
	store *MemoryStore
}

func (r *memoryCategories) Create(_ context.Context, category *domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.CreatedAt.IsZero() {
		now := time.Now()
		category.CreatedAt = now
		category.UpdatedAt = now
	}
	r.store.categories[category.ID] = *category
	return nil
}

func (r *memoryCategories) Save(_ context.Context, category *domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.categories[category.ID]; !ok {
		return ErrNotFound
	}
	category.UpdatedAt = time.Now()
	r.store.categories[category.ID] = *category
	return nil
}

func (r *memoryCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	category, ok := r.store.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &category, nil
}

func (r *memoryCategories) GetByNameFold(_ context.Context, name string) (*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, category := range r.store.categories {
		if strings.EqualFold(category.Name, name) {
			copied := category
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryCategories) List(_ context.Context, includeInactive bool) ([]domain.Category, error) {
	r.store.mu.RLock()
	var result []domain.Category
	for _, category := range r.store.categories {
		if includeInactive || category.Active {
			result = append(result, category)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type memoryTickets struct {
	store *MemoryStore
}

func (r *memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.Revision = 1
	if ticket.CreatedAt.IsZero() {
		now := time.Now()
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		ticket.LastActivityAt = now
	}
	r.store.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTickets) Save(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Revision != ticket.Revision {
		return ErrRevisionConflict
	}
	ticket.Revision++
	ticket.UpdatedAt = time.Now()
	r.store.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func matchTicket(ticket domain.Ticket, filter TicketFilter) bool {
	if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.AssignedTo != nil {
		if ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo {
			return false
		}
	}
	if filter.CategoryID != nil && ticket.CategoryID != *filter.CategoryID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if ticket.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Search != nil {
		needle := strings.ToLower(strings.TrimSpace(*filter.Search))
		if needle != "" &&
			!strings.Contains(strings.ToLower(ticket.Subject), needle) &&
			!strings.Contains(strings.ToLower(ticket.Body), needle) {
			return false
		}
	}
	return true
}

func (r *memoryTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.store.mu.RLock()
	var matched []domain.Ticket
	for _, ticket := range r.store.tickets {
		if matchTicket(ticket, filter) {
			matched = append(matched, ticket)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch filter.SortBy {
		case "created_at":
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		case "priority":
			less = matched[i].Priority < matched[j].Priority
		case "status":
			less = matched[i].Status < matched[j].Status
		case "subject":
			less = matched[i].Subject < matched[j].Subject
		default:
			less = matched[i].LastActivityAt.Before(matched[j].LastActivityAt)
		}
		if filter.SortDesc {
			return !less
		}
		return less
	})

	return paginate(matched, filter.Limit, filter.Offset, 10), nil
}

func (r *memoryTickets) Count(_ context.Context, filter TicketFilter) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, ticket := range r.store.tickets {
		if matchTicket(ticket, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTickets) ClearAssignee(_ context.Context, accountID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var cleared int64
	for id, ticket := range r.store.tickets {
		if ticket.AssignedTo != nil && *ticket.AssignedTo == accountID && ticket.Status.Unresolved() {
			ticket.AssignedTo = nil
			ticket.Revision++
			ticket.UpdatedAt = time.Now()
			r.store.tickets[id] = ticket
			cleared++
		}
	}
	return cleared, nil
}

type memoryComments struct {
	store *MemoryStore
}

func (r *memoryComments) Create(_ context.Context, comment *domain.Comment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	r.store.comments[comment.TicketID] = append(r.store.comments[comment.TicketID], *comment)
	return nil
}

func (r *memoryComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return append([]domain.Comment{}, r.store.comments[ticketID]...), nil
}

type memoryAttachments struct {
	store *MemoryStore
}

func (r *memoryAttachments) Create(_ context.Context, attachment *domain.Attachment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	r.store.attachments[attachment.TicketID] = append(r.store.attachments[attachment.TicketID], *attachment)
	return nil
}

func (r *memoryAttachments) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return append([]domain.Attachment{}, r.store.attachments[ticketID]...), nil
}

func (r *memoryAttachments) GetByID(_ context.Context, ticketID, attachmentID string) (*domain.Attachment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, attachment := range r.store.attachments[ticketID] {
		if attachment.ID == attachmentID {
			copied := attachment
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

type memoryVotes struct {
	store *MemoryStore
}

func (r *memoryVotes) Set(_ context.Context, vote *domain.Vote) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byAccount, ok := r.store.votes[vote.TicketID]
	if !ok {
		byAccount = make(map[string]domain.Vote)
		r.store.votes[vote.TicketID] = byAccount
	}
	if existing, ok := byAccount[vote.AccountID]; ok {
		vote.CreatedAt = existing.CreatedAt
	} else {
		vote.CreatedAt = time.Now()
	}
	byAccount[vote.AccountID] = *vote
	return nil
}

func (r *memoryVotes) Counts(_ context.Context, ticketID string) (domain.VoteCounts, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var counts domain.VoteCounts
	for _, vote := range r.store.votes[ticketID] {
		if vote.Direction == domain.VoteUp {
			counts.Upvotes++
		} else {
			counts.Downvotes++
		}
	}
	return counts, nil
}

func (r *memoryVotes) ListByTicket(_ context.Context, ticketID string) ([]domain.Vote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.Vote
	for _, vote := range r.store.votes[ticketID] {
		result = append(result, vote)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func paginate[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

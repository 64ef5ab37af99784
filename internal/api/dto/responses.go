package dto

import (
	"time"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/service"
)

// Pagination is the list envelope metadata.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination builds the envelope from the effective page inputs.
func NewPagination(page, limit int, total int64) Pagination {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: service.PageCount(total, limit),
	}
}

// AccountResponse is the public shape of an account.
type AccountResponse struct {
	ID          string                         `json:"id"`
	Email       string                         `json:"email"`
	Name        string                         `json:"name"`
	AvatarURL   *string                        `json:"avatar_url,omitempty"`
	Role        domain.Role                    `json:"role"`
	Active      bool                           `json:"active"`
	Preferences domain.NotificationPreferences `json:"notification_preferences"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
}

// FromAccount maps a domain account.
func FromAccount(account domain.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID,
		Email:       account.Email,
		Name:        account.Name,
		AvatarURL:   account.AvatarURL,
		Role:        account.Role,
		Active:      account.Active,
		Preferences: account.Preferences,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

// AccountWithStatsResponse adds derived ticket counters.
type AccountWithStatsResponse struct {
	AccountResponse
	Stats service.AccountStats `json:"stats"`
}

// FromAccountWithStats maps an account and its counters.
func FromAccountWithStats(item service.AccountWithStats) AccountWithStatsResponse {
	return AccountWithStatsResponse{
		AccountResponse: FromAccount(item.Account),
		Stats:           item.Stats,
	}
}

// CategoryResponse is the public shape of a category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       string    `json:"color"`
	Active      bool      `json:"active"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromCategory maps a domain category.
func FromCategory(category domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Color:       category.Color,
		Active:      category.Active,
		CreatedBy:   category.CreatedBy,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

// CategoryWithStatsResponse adds derived ticket counters.
type CategoryWithStatsResponse struct {
	CategoryResponse
	Stats service.CategoryStats `json:"stats"`
}

// FromCategoryWithStats maps a category and its counters.
func FromCategoryWithStats(item service.CategoryWithStats) CategoryWithStatsResponse {
	return CategoryWithStatsResponse{
		CategoryResponse: FromCategory(item.Category),
		Stats:            item.Stats,
	}
}

// TicketResponse is the list shape of a ticket.
type TicketResponse struct {
	ID             string                `json:"id"`
	Subject        string                `json:"subject"`
	Body           string                `json:"body"`
	CategoryID     string                `json:"category_id"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	CreatedBy      string                `json:"created_by"`
	AssignedTo     *string               `json:"assigned_to,omitempty"`
	Revision       int64                 `json:"revision"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	LastActivityAt time.Time             `json:"last_activity_at"`
	ResolvedAt     *time.Time            `json:"resolved_at,omitempty"`
}

// FromTicket maps a domain ticket.
func FromTicket(ticket domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             ticket.ID,
		Subject:        ticket.Subject,
		Body:           ticket.Body,
		CategoryID:     ticket.CategoryID,
		Status:         ticket.Status,
		Priority:       ticket.Priority,
		CreatedBy:      ticket.CreatedBy,
		AssignedTo:     ticket.AssignedTo,
		Revision:       ticket.Revision,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		LastActivityAt: ticket.LastActivityAt,
		ResolvedAt:     ticket.ResolvedAt,
	}
}

// FromTickets maps a ticket slice.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, FromTicket(ticket))
	}
	return out
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Body       string    `json:"body"`
	Internal   bool      `json:"internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse is attachment metadata without the storage key.
type AttachmentResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Position    int    `json:"position"`
}

// TicketDetailResponse is the full read model of a single ticket.
type TicketDetailResponse struct {
	TicketResponse
	CreatorName  string                `json:"creator_name,omitempty"`
	AssigneeName string                `json:"assignee_name,omitempty"`
	Comments     []CommentResponse     `json:"comments"`
	Attachments  []AttachmentResponse  `json:"attachments"`
	Votes        domain.VoteCounts     `json:"votes"`
	CallerVote   *domain.VoteDirection `json:"caller_vote,omitempty"`
}

// FromTicketDetail maps the service read model.
func FromTicketDetail(detail *service.TicketDetail) TicketDetailResponse {
	out := TicketDetailResponse{
		TicketResponse: FromTicket(detail.Ticket),
		Comments:       make([]CommentResponse, 0, len(detail.Comments)),
		Attachments:    make([]AttachmentResponse, 0, len(detail.Attachments)),
		Votes:          detail.Votes,
		CallerVote:     detail.CallerVote,
	}
	if detail.Creator != nil {
		out.CreatorName = detail.Creator.Name
	}
	if detail.Assignee != nil {
		out.AssigneeName = detail.Assignee.Name
	}
	for _, comment := range detail.Comments {
		out.Comments = append(out.Comments, CommentResponse{
			ID:         comment.ID,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			Internal:   comment.Internal,
			CreatedAt:  comment.CreatedAt,
		})
	}
	for _, attachment := range detail.Attachments {
		out.Attachments = append(out.Attachments, AttachmentResponse{
			ID:          attachment.ID,
			FileName:    attachment.FileName,
			ContentType: attachment.ContentType,
			SizeBytes:   attachment.SizeBytes,
			Position:    attachment.Position,
		})
	}
	return out
}

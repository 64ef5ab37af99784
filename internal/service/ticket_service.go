package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/internal/storage"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// AttachmentUpload is one incoming file on ticket creation.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// TicketCreateInput captures creation fields.
type TicketCreateInput struct {
	Subject     string
	Body        string
	CategoryID  string
	Priority    *domain.TicketPriority
	Attachments []AttachmentUpload
}

// TicketUpdateInput captures the staff-mutable fields. AssignedToSet
// distinguishes "leave assignee alone" from "clear the assignee".
type TicketUpdateInput struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	AssignedTo    *string
	AssignedToSet bool
}

// TicketListInput captures listing parameters before role scoping.
type TicketListInput struct {
	Status       *domain.TicketStatus
	CategoryID   *string
	Search       *string
	AssignedToMe bool
	Page         int
	Limit        int
	SortBy       string
	SortDesc     bool
}

// CommentWithAuthor is a comment with its author's display name resolved.
type CommentWithAuthor struct {
	domain.Comment
	AuthorName string
}

// TicketDetail is the full read model for one ticket.
type TicketDetail struct {
	Ticket      domain.Ticket
	Creator     *domain.Account
	Assignee    *domain.Account
	Comments    []CommentWithAuthor
	Attachments []domain.Attachment
	Votes       domain.VoteCounts
	CallerVote  *domain.VoteDirection
}

// TicketService owns ticket lifecycle rules, role-based visibility, and
// the authorization branches around mutation.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	votes       repository.VoteRepository
	categories  repository.CategoryRepository
	accounts    repository.AccountRepository
	blobs       storage.BlobStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// NewTicketService wires the ticket store.
func NewTicketService(
	tickets repository.TicketRepository,
	comments repository.CommentRepository,
	attachments repository.AttachmentRepository,
	votes repository.VoteRepository,
	categories repository.CategoryRepository,
	accounts repository.AccountRepository,
	blobs storage.BlobStore,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		tickets:     tickets,
		comments:    comments,
		attachments: attachments,
		votes:       votes,
		categories:  categories,
		accounts:    accounts,
		blobs:       blobs,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Create validates and stores a new ticket. Attachment blobs are written
// before the ticket record so the request only completes once every file
// is durable.
func (s *TicketService) Create(ctx context.Context, caller *domain.Account, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if len(subject) < 5 || len(subject) > 200 {
		return nil, errorutil.NewValidationError("subject must be between 5 and 200 characters", nil)
	}
	if len(body) < 10 {
		return nil, errorutil.NewValidationError("description must be at least 10 characters", nil)
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, errorutil.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		priority = *input.Priority
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errorutil.NewValidationError("category does not exist", map[string]any{"category_id": input.CategoryID})
		}
		return nil, errorutil.NewInternalError(err)
	}
	if !category.Active {
		return nil, errorutil.NewValidationError("category is not active", map[string]any{"category_id": category.ID})
	}

	if len(input.Attachments) > maxAttachmentCount {
		return nil, errorutil.NewValidationError(
			fmt.Sprintf("at most %d attachments are allowed", maxAttachmentCount), nil)
	}
	for _, upload := range input.Attachments {
		if err := validateAttachmentUpload(upload.FileName, upload.ContentType, upload.Size); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	ticket := &domain.Ticket{
		Subject:        subject,
		Body:           body,
		CategoryID:     category.ID,
		Status:         domain.TicketStatusOpen,
		Priority:       priority,
		CreatedBy:      caller.ID,
		Revision:       1,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	// Blob keys and attachment rows reference the id the store assigned,
	// so the ticket row has to exist before anything is keyed to it.
	stored := make([]domain.Attachment, 0, len(input.Attachments))
	for i, upload := range input.Attachments {
		key := fmt.Sprintf("tickets/%s/%s%s", ticket.ID, uuid.NewString(), strings.ToLower(filepath.Ext(upload.FileName)))
		if err := s.blobs.Put(ctx, key, upload.Reader, upload.Size, upload.ContentType); err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		attachment := domain.Attachment{
			TicketID:    ticket.ID,
			StorageKey:  key,
			FileName:    upload.FileName,
			ContentType: upload.ContentType,
			SizeBytes:   upload.Size,
			Position:    i,
		}
		if err := s.attachments.Create(ctx, &attachment); err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		stored = append(stored, attachment)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
	})
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID), zap.String("created_by", caller.ID), zap.Int("attachments", len(stored)))
	return ticket, nil
}

// Get loads a ticket with comments, attachments, and vote counts.
// End-users may only read their own tickets and never see internal
// comments, even on tickets they created.
func (s *TicketService) Get(ctx context.Context, caller *domain.Account, ticketID string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket")
	}
	if err := s.checkVisibility(caller, ticket); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	counts, err := s.votes.Counts(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	detail := &TicketDetail{
		Ticket:      *ticket,
		Attachments: attachments,
		Votes:       counts,
	}

	detail.Creator, _ = s.accounts.GetByID(ctx, ticket.CreatedBy)
	if ticket.AssignedTo != nil {
		detail.Assignee, _ = s.accounts.GetByID(ctx, *ticket.AssignedTo)
	}

	staff := caller.Role.IsStaff()
	for _, comment := range comments {
		if comment.Internal && !staff {
			continue
		}
		view := CommentWithAuthor{Comment: comment}
		if author, err := s.accounts.GetByID(ctx, comment.AuthorID); err == nil {
			view.AuthorName = author.Name
		}
		detail.Comments = append(detail.Comments, view)
	}

	ballots, err := s.votes.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	for _, vote := range ballots {
		if vote.AccountID == caller.ID {
			direction := vote.Direction
			detail.CallerVote = &direction
			break
		}
	}
	return detail, nil
}

// List pages through tickets with role scoping applied before any caller
// filter: end-users see their own tickets only, agents may narrow to
// their assignments, admins see everything.
func (s *TicketService) List(ctx context.Context, caller *domain.Account, input TicketListInput) ([]domain.Ticket, int64, error) {
	limit, offset := pageBounds(input.Page, input.Limit)
	filter := repository.TicketFilter{
		CategoryID: input.CategoryID,
		Search:     input.Search,
		SortBy:     input.SortBy,
		SortDesc:   input.SortDesc,
		Limit:      limit,
		Offset:     offset,
	}
	if filter.SortBy == "" {
		filter.SortBy = "last_activity_at"
		filter.SortDesc = true
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, 0, errorutil.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		filter.Statuses = []domain.TicketStatus{*input.Status}
	}

	switch caller.Role {
	case domain.RoleEndUser:
		creator := caller.ID
		filter.CreatedBy = &creator
	case domain.RoleAgent:
		if input.AssignedToMe {
			assignee := caller.ID
			filter.AssignedTo = &assignee
		}
	case domain.RoleAdmin:
		if input.AssignedToMe {
			assignee := caller.ID
			filter.AssignedTo = &assignee
		}
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, 0, errorutil.NewInternalError(err)
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, 0, errorutil.NewInternalError(err)
	}
	return tickets, total, nil
}

// Update applies status, priority, and assignee changes. The triage
// fields are silently ignored for end-user callers rather than rejected;
// an end-user update of their own ticket only bumps activity. Entering
// Resolved or Closed stamps the resolution time once; reopening keeps it
// as audit history. A lost revision race surfaces as a conflict.
func (s *TicketService) Update(ctx context.Context, caller *domain.Account, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket")
	}
	if err := s.checkVisibility(caller, ticket); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var assignedEvent *string

	if caller.Role.IsStaff() {
		if input.Status != nil {
			if !input.Status.Valid() {
				return nil, errorutil.NewValidationError("invalid status", map[string]any{"status": *input.Status})
			}
			ticket.Status = *input.Status
			// Re-stamped on every entry into a resolved state; reopening
			// leaves the previous stamp in place.
			if !ticket.Status.Unresolved() {
				resolved := now
				ticket.ResolvedAt = &resolved
			}
		}
		if input.Priority != nil {
			if !input.Priority.Valid() {
				return nil, errorutil.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
			}
			ticket.Priority = *input.Priority
		}
		if input.AssignedToSet {
			if input.AssignedTo == nil {
				ticket.AssignedTo = nil
			} else {
				previous := ticket.AssignedTo
				assignee, err := s.accounts.GetByID(ctx, *input.AssignedTo)
				if err != nil {
					if err == repository.ErrNotFound {
						return nil, errorutil.NewValidationError("assignee does not exist", map[string]any{"assigned_to": *input.AssignedTo})
					}
					return nil, errorutil.NewInternalError(err)
				}
				if !assignee.Active || !assignee.Role.IsStaff() {
					return nil, errorutil.NewValidationError("assignee must be an active agent or admin", map[string]any{"assigned_to": assignee.ID})
				}
				ticket.AssignedTo = &assignee.ID
				if previous == nil || *previous != assignee.ID {
					assignedEvent = &assignee.ID
				}
			}
		}
	}

	ticket.UpdatedAt = now
	ticket.LastActivityAt = now
	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "ticket")
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
	})
	if assignedEvent != nil {
		s.publish(ctx, events.Event{
			Type:       events.EventTicketAssigned,
			TicketID:   ticket.ID,
			ActorID:    caller.ID,
			AssigneeID: *assignedEvent,
		})
	}
	return ticket, nil
}

// AddComment appends to a ticket's thread. The internal flag is forced
// to false for end-user authors no matter what was requested.
func (s *TicketService) AddComment(ctx context.Context, caller *domain.Account, ticketID, body string, internal bool) (*domain.Comment, error) {
	text := strings.TrimSpace(body)
	if len(text) < 1 || len(text) > 1000 {
		return nil, errorutil.NewValidationError("comment must be between 1 and 1000 characters", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket")
	}
	if err := s.checkVisibility(caller, ticket); err != nil {
		return nil, err
	}

	if !caller.Role.IsStaff() {
		internal = false
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		AuthorID:  caller.ID,
		Body:      text,
		Internal:  internal,
		CreatedAt: now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	ticket.UpdatedAt = now
	ticket.LastActivityAt = now
	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "ticket")
	}

	s.publish(ctx, events.Event{
		Type:      events.EventCommentAdded,
		TicketID:  ticket.ID,
		ActorID:   caller.ID,
		CommentID: comment.ID,
	})
	return comment, nil
}

// Vote sets the caller's vote on a ticket. Voting replaces any previous
// direction, so an account is never counted on both sides. Any
// authenticated caller may vote on any ticket.
func (s *TicketService) Vote(ctx context.Context, caller *domain.Account, ticketID string, direction domain.VoteDirection) (domain.VoteCounts, error) {
	if !direction.Valid() {
		return domain.VoteCounts{}, errorutil.NewValidationError("vote direction must be up or down", map[string]any{"direction": direction})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return domain.VoteCounts{}, mapRepoErr(err, "ticket")
	}

	vote := &domain.Vote{
		TicketID:  ticket.ID,
		AccountID: caller.ID,
		Direction: direction,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.votes.Set(ctx, vote); err != nil {
		return domain.VoteCounts{}, errorutil.NewInternalError(err)
	}

	counts, err := s.votes.Counts(ctx, ticket.ID)
	if err != nil {
		return domain.VoteCounts{}, errorutil.NewInternalError(err)
	}
	return counts, nil
}

// OpenAttachment streams an attachment blob. Visibility matches Get.
func (s *TicketService) OpenAttachment(ctx context.Context, caller *domain.Account, ticketID, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, mapRepoErr(err, "ticket")
	}
	if err := s.checkVisibility(caller, ticket); err != nil {
		return nil, nil, err
	}

	attachment, err := s.attachments.GetByID(ctx, ticket.ID, attachmentID)
	if err != nil {
		return nil, nil, mapRepoErr(err, "attachment")
	}

	reader, err := s.blobs.Get(ctx, attachment.StorageKey)
	if err != nil {
		if err == storage.ErrBlobNotFound {
			return nil, nil, errorutil.NewNotFound("attachment", nil)
		}
		return nil, nil, errorutil.NewInternalError(err)
	}
	return attachment, reader, nil
}

// checkVisibility enforces the creator-only rule for end-users. Staff may
// reach any ticket.
func (s *TicketService) checkVisibility(caller *domain.Account, ticket *domain.Ticket) error {
	if caller.Role.IsStaff() {
		return nil
	}
	if ticket.CreatedBy != caller.ID {
		return errorutil.NewForbidden("you do not have access to this ticket")
	}
	return nil
}

// publish hands an event to the dispatcher. Dispatch failures never reach
// the caller; notification is strictly a side channel.
func (s *TicketService) publish(ctx context.Context, event events.Event) {
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/mail"
	"github.com/quickdesk/quickdesk/internal/repository"
)

// NotificationService turns domain events into templated email. Events
// carry ids only, so every delivery resolves the current ticket, actor,
// and recipient state first. Delivery failures are logged and dropped;
// nothing here may affect the operation that emitted the event.
type NotificationService struct {
	tickets     repository.TicketRepository
	accounts    repository.AccountRepository
	categories  repository.CategoryRepository
	comments    repository.CommentRepository
	sender      mail.Sender
	frontendURL string
	logger      *zap.Logger
}

// NewNotificationService wires the notifier.
func NewNotificationService(
	tickets repository.TicketRepository,
	accounts repository.AccountRepository,
	categories repository.CategoryRepository,
	comments repository.CommentRepository,
	sender mail.Sender,
	frontendURL string,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		tickets:     tickets,
		accounts:    accounts,
		categories:  categories,
		comments:    comments,
		sender:      sender,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Register subscribes the notifier to every event type it handles.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.HandleTicketCreated)
	dispatcher.Subscribe(events.EventTicketUpdated, s.HandleTicketUpdated)
	dispatcher.Subscribe(events.EventTicketAssigned, s.HandleTicketAssigned)
	dispatcher.Subscribe(events.EventCommentAdded, s.HandleCommentAdded)
}

// HandleTicketCreated notifies the ticket's creator.
func (s *NotificationService) HandleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	creator, err := s.accounts.GetByID(ctx, ticket.CreatedBy)
	if err != nil {
		return err
	}
	if !creator.Preferences.Email {
		return nil
	}

	data := s.messageData(ctx, ticket, creator, nil)
	subject, body, err := mail.RenderTicketCreated(data)
	if err != nil {
		return err
	}
	s.deliver(creator.Email, subject, body, event)
	return nil
}

// HandleTicketUpdated notifies the creator unless they made the change
// themselves. Gated on both the email and ticket-updates preferences.
func (s *NotificationService) HandleTicketUpdated(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	creator, err := s.accounts.GetByID(ctx, ticket.CreatedBy)
	if err != nil {
		return err
	}
	if creator.ID == event.ActorID {
		return nil
	}
	if !creator.Preferences.Email || !creator.Preferences.TicketUpdates {
		return nil
	}

	actor := s.resolveAccount(ctx, event.ActorID)
	data := s.messageData(ctx, ticket, creator, actor)
	if ticket.AssignedTo != nil {
		if assignee := s.resolveAccount(ctx, *ticket.AssignedTo); assignee != nil {
			data.AssigneeName = assignee.Name
		}
	}
	subject, body, err := mail.RenderTicketUpdated(data)
	if err != nil {
		return err
	}
	s.deliver(creator.Email, subject, body, event)
	return nil
}

// HandleTicketAssigned notifies the new assignee.
func (s *NotificationService) HandleTicketAssigned(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	assignee, err := s.accounts.GetByID(ctx, event.AssigneeID)
	if err != nil {
		return err
	}
	if assignee.ID == event.ActorID {
		return nil
	}
	if !assignee.Preferences.Email {
		return nil
	}

	creator := s.resolveAccount(ctx, ticket.CreatedBy)
	data := s.messageData(ctx, ticket, assignee, creator)
	data.BodyPreview = preview(ticket.Body, 200)
	subject, body, err := mail.RenderTicketAssigned(data)
	if err != nil {
		return err
	}
	s.deliver(assignee.Email, subject, body, event)
	return nil
}

// HandleCommentAdded notifies the other party of the thread: the assignee
// when the creator commented, the creator when staff commented. The
// comment's own author is never notified, and internal comments never
// reach the end-user creator.
func (s *NotificationService) HandleCommentAdded(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}

	var comment *domain.Comment
	thread, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return err
	}
	for i := range thread {
		if thread[i].ID == event.CommentID {
			comment = &thread[i]
			break
		}
	}
	if comment == nil {
		return fmt.Errorf("comment %s not found on ticket %s", event.CommentID, ticket.ID)
	}

	var recipient *domain.Account
	if comment.AuthorID == ticket.CreatedBy {
		if ticket.AssignedTo == nil {
			return nil
		}
		recipient, err = s.accounts.GetByID(ctx, *ticket.AssignedTo)
	} else {
		if comment.Internal {
			return nil
		}
		recipient, err = s.accounts.GetByID(ctx, ticket.CreatedBy)
	}
	if err != nil {
		return err
	}
	if recipient.ID == comment.AuthorID {
		return nil
	}
	if !recipient.Preferences.Email {
		return nil
	}

	actor := s.resolveAccount(ctx, comment.AuthorID)
	data := s.messageData(ctx, ticket, recipient, actor)
	data.CommentBody = comment.Body
	subject, body, err := mail.RenderCommentAdded(data)
	if err != nil {
		return err
	}
	s.deliver(recipient.Email, subject, body, event)
	return nil
}

func (s *NotificationService) messageData(ctx context.Context, ticket *domain.Ticket, recipient, actor *domain.Account) mail.TicketMessageData {
	data := mail.TicketMessageData{
		RecipientName: recipient.Name,
		TicketRef:     shortRef(ticket.ID),
		TicketURL:     fmt.Sprintf("%s/tickets/%s", s.frontendURL, ticket.ID),
		Subject:       ticket.Subject,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
	}
	if actor != nil {
		data.ActorName = actor.Name
	}
	if category, err := s.categories.GetByID(ctx, ticket.CategoryID); err == nil {
		data.CategoryName = category.Name
	}
	return data
}

func (s *NotificationService) resolveAccount(ctx context.Context, id string) *domain.Account {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return account
}

// deliver sends one email and swallows the outcome.
func (s *NotificationService) deliver(to, subject, body string, event events.Event) {
	err := s.sender.Send(to, subject, body)
	switch {
	case err == nil:
		s.logger.Info("notification delivered",
			zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
	case errors.Is(err, mail.ErrNotConfigured):
		s.logger.Debug("notification skipped, smtp not configured",
			zap.String("event_type", string(event.Type)))
	default:
		s.logger.Warn("notification delivery failed",
			zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
}

// shortRef renders the id fragment shown in email subjects.
func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func preview(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

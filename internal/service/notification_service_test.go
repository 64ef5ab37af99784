package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/repository"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeSender struct {
	sent []sentMail
}

func (f *fakeSender) Send(to, subject, htmlBody string) error {
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

type notifyEnv struct {
	store    *repository.MemoryStore
	sender   *fakeSender
	notifier *NotificationService
}

func newNotifyEnv(t *testing.T) *notifyEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	sender := &fakeSender{}
	notifier := NewNotificationService(
		store.Tickets, store.Accounts, store.Categories, store.Comments,
		sender, "http://localhost:3000", zap.NewNop())
	return &notifyEnv{store: store, sender: sender, notifier: notifier}
}

func (e *notifyEnv) seedTicket(t *testing.T, creator *domain.Account, assignee *string) *domain.Ticket {
	t.Helper()
	category := seedCategory(t, e.store, "Email-"+creator.ID[:6])
	ticket := &domain.Ticket{
		Subject:    "Keyboard stopped working",
		Body:       "The keyboard stopped responding after the update.",
		CategoryID: category.ID,
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityMedium,
		CreatedBy:  creator.ID,
		AssignedTo: assignee,
	}
	if err := e.store.Tickets.Create(context.Background(), ticket); err != nil {
		t.Fatal(err)
	}
	return ticket
}

func (e *notifyEnv) seedComment(t *testing.T, ticket *domain.Ticket, author *domain.Account, internal bool) *domain.Comment {
	t.Helper()
	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: author.ID,
		Body:     "Have you tried turning it off and on again?",
		Internal: internal,
	}
	if err := e.store.Comments.Create(context.Background(), comment); err != nil {
		t.Fatal(err)
	}
	return comment
}

func TestTicketCreatedNotifiesCreator(t *testing.T) {
	env := newNotifyEnv(t)
	creator := seedAccount(t, env.store, domain.RoleEndUser)
	ticket := env.seedTicket(t, creator, nil)

	err := env.notifier.HandleTicketCreated(context.Background(), events.Event{
		Type: events.EventTicketCreated, TicketID: ticket.ID, ActorID: creator.ID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 1 || env.sender.sent[0].To != creator.Email {
		t.Fatalf("expected one mail to creator, got %+v", env.sender.sent)
	}
	if !strings.Contains(env.sender.sent[0].Body, ticket.ID) {
		t.Fatal("mail body should link to the ticket")
	}
}

func TestTicketCreatedRespectsEmailPreference(t *testing.T) {
	env := newNotifyEnv(t)
	creator := seedAccount(t, env.store, domain.RoleEndUser)
	creator.Preferences.Email = false
	if err := env.store.Accounts.Save(context.Background(), creator); err != nil {
		t.Fatal(err)
	}
	ticket := env.seedTicket(t, creator, nil)

	if err := env.notifier.HandleTicketCreated(context.Background(), events.Event{
		Type: events.EventTicketCreated, TicketID: ticket.ID, ActorID: creator.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 0 {
		t.Fatalf("email preference off must suppress delivery, got %+v", env.sender.sent)
	}
}

func TestTicketUpdatedRecipientRules(t *testing.T) {
	env := newNotifyEnv(t)
	creator := seedAccount(t, env.store, domain.RoleEndUser)
	agent := seedAccount(t, env.store, domain.RoleAgent)
	ticket := env.seedTicket(t, creator, nil)
	ctx := context.Background()

	// staff update notifies the creator
	if err := env.notifier.HandleTicketUpdated(ctx, events.Event{
		Type: events.EventTicketUpdated, TicketID: ticket.ID, ActorID: agent.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 1 || env.sender.sent[0].To != creator.Email {
		t.Fatalf("expected one mail to creator, got %+v", env.sender.sent)
	}

	// the creator's own update is not echoed back
	env.sender.sent = nil
	if err := env.notifier.HandleTicketUpdated(ctx, events.Event{
		Type: events.EventTicketUpdated, TicketID: ticket.ID, ActorID: creator.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 0 {
		t.Fatalf("actor must never be notified about their own change, got %+v", env.sender.sent)
	}

	// ticket-updates preference gates update notifications specifically
	creator.Preferences.TicketUpdates = false
	if err := env.store.Accounts.Save(ctx, creator); err != nil {
		t.Fatal(err)
	}
	if err := env.notifier.HandleTicketUpdated(ctx, events.Event{
		Type: events.EventTicketUpdated, TicketID: ticket.ID, ActorID: agent.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 0 {
		t.Fatalf("ticket-updates preference off must suppress delivery, got %+v", env.sender.sent)
	}
}

func TestTicketAssignedNotifiesAssignee(t *testing.T) {
	env := newNotifyEnv(t)
	creator := seedAccount(t, env.store, domain.RoleEndUser)
	admin := seedAccount(t, env.store, domain.RoleAdmin)
	agent := seedAccount(t, env.store, domain.RoleAgent)
	ticket := env.seedTicket(t, creator, &agent.ID)
	ctx := context.Background()

	if err := env.notifier.HandleTicketAssigned(ctx, events.Event{
		Type: events.EventTicketAssigned, TicketID: ticket.ID, ActorID: admin.ID, AssigneeID: agent.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 1 || env.sender.sent[0].To != agent.Email {
		t.Fatalf("expected one mail to assignee, got %+v", env.sender.sent)
	}

	// self-assignment is not announced
	env.sender.sent = nil
	if err := env.notifier.HandleTicketAssigned(ctx, events.Event{
		Type: events.EventTicketAssigned, TicketID: ticket.ID, ActorID: agent.ID, AssigneeID: agent.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 0 {
		t.Fatalf("self-assignment must not notify, got %+v", env.sender.sent)
	}
}

func TestCommentAddedNotifiesOtherParty(t *testing.T) {
	env := newNotifyEnv(t)
	creator := seedAccount(t, env.store, domain.RoleEndUser)
	agent := seedAccount(t, env.store, domain.RoleAgent)
	ticket := env.seedTicket(t, creator, &agent.ID)
	ctx := context.Background()

	// creator comments: assignee is notified
	comment := env.seedComment(t, ticket, creator, false)
	if err := env.notifier.HandleCommentAdded(ctx, events.Event{
		Type: events.EventCommentAdded, TicketID: ticket.ID, ActorID: creator.ID, CommentID: comment.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 1 || env.sender.sent[0].To != agent.Email {
		t.Fatalf("expected one mail to assignee, got %+v", env.sender.sent)
	}

	// staff comments: creator is notified
	env.sender.sent = nil
	comment = env.seedComment(t, ticket, agent, false)
	if err := env.notifier.HandleCommentAdded(ctx, events.Event{
		Type: events.EventCommentAdded, TicketID: ticket.ID, ActorID: agent.ID, CommentID: comment.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 1 || env.sender.sent[0].To != creator.Email {
		t.Fatalf("expected one mail to creator, got %+v", env.sender.sent)
	}

	// internal staff comments never reach the creator
	env.sender.sent = nil
	comment = env.seedComment(t, ticket, agent, true)
	if err := env.notifier.HandleCommentAdded(ctx, events.Event{
		Type: events.EventCommentAdded, TicketID: ticket.ID, ActorID: agent.ID, CommentID: comment.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 0 {
		t.Fatalf("internal comment leaked a notification: %+v", env.sender.sent)
	}
}

func TestCommentByCreatorWithoutAssigneeIsSilent(t *testing.T) {
	env := newNotifyEnv(t)
	creator := seedAccount(t, env.store, domain.RoleEndUser)
	ticket := env.seedTicket(t, creator, nil)

	comment := env.seedComment(t, ticket, creator, false)
	if err := env.notifier.HandleCommentAdded(context.Background(), events.Event{
		Type: events.EventCommentAdded, TicketID: ticket.ID, ActorID: creator.ID, CommentID: comment.ID,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.sender.sent) != 0 {
		t.Fatalf("no assignee means no recipient, got %+v", env.sender.sent)
	}
}

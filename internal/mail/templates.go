package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// TicketMessageData feeds the notification templates. TicketRef is the
// short id shown to users; TicketURL points at the frontend detail view.
type TicketMessageData struct {
	RecipientName string
	ActorName     string
	TicketRef     string
	TicketURL     string
	Subject       string
	Status        domain.TicketStatus
	StatusColor   string
	Priority      domain.TicketPriority
	CategoryName  string
	AssigneeName  string
	CommentBody   string
	BodyPreview   string
}

var ticketCreatedTmpl = template.Must(template.New("ticket_created").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3B82F6;">New Support Ticket Created</h2>
  <p>Hello {{.RecipientName}},</p>
  <p>Your support ticket has been created successfully.</p>
  <div style="background-color: #F3F4F6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0;">Ticket Details</h3>
    <p><strong>Ticket ID:</strong> #{{.TicketRef}}</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <p><strong>Status:</strong> {{.Status}}</p>
    <p><strong>Priority:</strong> {{.Priority}}</p>
    <p><strong>Category:</strong> {{.CategoryName}}</p>
  </div>
  <p>We'll get back to you as soon as possible.</p>
  <p style="margin-top: 30px;">
    <a href="{{.TicketURL}}" style="background-color: #3B82F6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Ticket</a>
  </p>
  <p style="color: #6B7280; font-size: 12px; margin-top: 30px;">This is an automated email from QuickDesk Support.</p>
</div>`))

var ticketUpdatedTmpl = template.Must(template.New("ticket_updated").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3B82F6;">Ticket Updated</h2>
  <p>Hello {{.RecipientName}},</p>
  <p>Your support ticket has been updated by {{.ActorName}}.</p>
  <div style="background-color: #F3F4F6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0;">Ticket Details</h3>
    <p><strong>Ticket ID:</strong> #{{.TicketRef}}</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <p><strong>Status:</strong> <span style="color: {{.StatusColor}};">{{.Status}}</span></p>
    <p><strong>Priority:</strong> {{.Priority}}</p>
    {{if .AssigneeName}}<p><strong>Assigned to:</strong> {{.AssigneeName}}</p>{{end}}
  </div>
  <p style="margin-top: 30px;">
    <a href="{{.TicketURL}}" style="background-color: #3B82F6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Ticket</a>
  </p>
  <p style="color: #6B7280; font-size: 12px; margin-top: 30px;">This is an automated email from QuickDesk Support.</p>
</div>`))

var commentAddedTmpl = template.Must(template.New("comment_added").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3B82F6;">New Comment Added</h2>
  <p>Hello {{.RecipientName}},</p>
  <p>{{.ActorName}} has added a new comment to your ticket.</p>
  <div style="background-color: #F3F4F6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0;">Ticket: {{.Subject}}</h3>
    <p><strong>Ticket ID:</strong> #{{.TicketRef}}</p>
  </div>
  <div style="background-color: #FFFFFF; border-left: 4px solid #3B82F6; padding: 15px; margin: 20px 0;">
    <p><strong>{{.ActorName}} wrote:</strong></p>
    <p style="margin: 10px 0;">{{.CommentBody}}</p>
  </div>
  <p style="margin-top: 30px;">
    <a href="{{.TicketURL}}" style="background-color: #3B82F6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Ticket &amp; Reply</a>
  </p>
  <p style="color: #6B7280; font-size: 12px; margin-top: 30px;">This is an automated email from QuickDesk Support.</p>
</div>`))

var ticketAssignedTmpl = template.Must(template.New("ticket_assigned").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3B82F6;">New Ticket Assigned</h2>
  <p>Hello {{.RecipientName}},</p>
  <p>A new ticket has been assigned to you.</p>
  <div style="background-color: #F3F4F6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0;">Ticket Details</h3>
    <p><strong>Ticket ID:</strong> #{{.TicketRef}}</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <p><strong>Priority:</strong> {{.Priority}}</p>
    <p><strong>Created by:</strong> {{.ActorName}}</p>
    <p><strong>Category:</strong> {{.CategoryName}}</p>
  </div>
  <div style="background-color: #FFFFFF; border-left: 4px solid #6B7280; padding: 15px; margin: 20px 0;">
    <p><strong>Description:</strong></p>
    <p>{{.BodyPreview}}</p>
  </div>
  <p style="margin-top: 30px;">
    <a href="{{.TicketURL}}" style="background-color: #3B82F6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Ticket</a>
  </p>
  <p style="color: #6B7280; font-size: 12px; margin-top: 30px;">This is an automated email from QuickDesk Support.</p>
</div>`))

// RenderTicketCreated builds the subject and body for a creation notice.
func RenderTicketCreated(data TicketMessageData) (string, string, error) {
	body, err := render(ticketCreatedTmpl, data)
	return fmt.Sprintf("New Ticket Created: %s", data.Subject), body, err
}

// RenderTicketUpdated builds the subject and body for an update notice.
func RenderTicketUpdated(data TicketMessageData) (string, string, error) {
	data.StatusColor = StatusColor(data.Status)
	body, err := render(ticketUpdatedTmpl, data)
	return fmt.Sprintf("Ticket Updated: %s", data.Subject), body, err
}

// RenderCommentAdded builds the subject and body for a comment notice.
func RenderCommentAdded(data TicketMessageData) (string, string, error) {
	body, err := render(commentAddedTmpl, data)
	return fmt.Sprintf("New Comment on Ticket: %s", data.Subject), body, err
}

// RenderTicketAssigned builds the subject and body for an assignment notice.
func RenderTicketAssigned(data TicketMessageData) (string, string, error) {
	body, err := render(ticketAssignedTmpl, data)
	return fmt.Sprintf("Ticket Assigned: %s", data.Subject), body, err
}

func render(tmpl *template.Template, data TicketMessageData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StatusColor maps a status to its display color.
func StatusColor(status domain.TicketStatus) string {
	switch status {
	case domain.TicketStatusOpen:
		return "#3B82F6"
	case domain.TicketStatusInProgress:
		return "#F59E0B"
	case domain.TicketStatusResolved:
		return "#10B981"
	default:
		return "#6B7280"
	}
}

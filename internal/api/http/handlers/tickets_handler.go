package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/api/dto"
	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/identity"
	"github.com/quickdesk/quickdesk/internal/service"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// TicketHandler serves the ticket endpoints.
type TicketHandler struct {
	tickets *service.TicketService
}

// NewTicketHandler wires the ticket endpoints.
func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// Create files a new ticket. The request is multipart when attachments
// are present; plain JSON is accepted for attachment-free tickets.
func (h *TicketHandler) Create(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	input := service.TicketCreateInput{
		Subject:    req.Subject,
		Body:       req.Body,
		CategoryID: req.CategoryID,
	}
	if req.Priority != nil && *req.Priority != "" {
		priority := domain.TicketPriority(*req.Priority)
		input.Priority = &priority
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, header := range form.File["attachments"] {
			file, err := header.Open()
			if err != nil {
				return errorutil.NewValidationError(
					fmt.Sprintf("unable to read uploaded file %q", header.Filename), nil)
			}
			defer file.Close()
			input.Attachments = append(input.Attachments, service.AttachmentUpload{
				FileName:    header.Filename,
				ContentType: header.Header.Get(fiber.HeaderContentType),
				Size:        header.Size,
				Reader:      file,
			})
		}
	}

	ticket, err := h.tickets.Create(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "ticket created",
		"ticket":  dto.FromTicket(*ticket),
	})
}

// List pages through tickets visible to the caller.
func (h *TicketHandler) List(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	input := service.TicketListInput{
		Page:         c.QueryInt("page", 1),
		Limit:        c.QueryInt("limit", 10),
		AssignedToMe: c.Query("assigned") == "me",
		SortBy:       c.Query("sort_by"),
		SortDesc:     c.Query("order", "desc") == "desc",
	}
	if status := c.Query("status"); status != "" {
		st := domain.TicketStatus(status)
		input.Status = &st
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		input.CategoryID = &categoryID
	}
	if search := c.Query("search"); search != "" {
		input.Search = &search
	}

	tickets, total, err := h.tickets.List(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"tickets":    dto.FromTickets(tickets),
		"pagination": dto.NewPagination(input.Page, input.Limit, total),
	})
}

// Get returns one ticket with its thread, attachments, and votes.
func (h *TicketHandler) Get(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	detail, err := h.tickets.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"ticket":  dto.FromTicketDetail(detail),
	})
}

// Update applies triage changes to a ticket.
func (h *TicketHandler) Update(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	input := service.TicketUpdateInput{
		AssignedTo:    req.AssignedTo,
		AssignedToSet: req.AssignedToSet,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		input.Priority = &priority
	}

	ticket, err := h.tickets.Update(c.UserContext(), principal, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "ticket updated",
		"ticket":  dto.FromTicket(*ticket),
	})
}

// AddComment appends to a ticket's thread.
func (h *TicketHandler) AddComment(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	comment, err := h.tickets.AddComment(c.UserContext(), principal, c.Params("id"), req.Body, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "comment added",
		"comment": dto.CommentResponse{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Body:      comment.Body,
			Internal:  comment.Internal,
			CreatedAt: comment.CreatedAt,
		},
	})
}

// Vote sets the caller's vote on a ticket.
func (h *TicketHandler) Vote(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid request body", nil)
	}

	counts, err := h.tickets.Vote(c.UserContext(), principal, c.Params("id"), domain.VoteDirection(req.Direction))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"votes":   counts,
	})
}

// DownloadAttachment streams an attachment blob to the caller.
func (h *TicketHandler) DownloadAttachment(c *fiber.Ctx) error {
	principal := identity.PrincipalFromContext(c)

	attachment, reader, err := h.tickets.OpenAttachment(c.UserContext(), principal, c.Params("id"), c.Params("attachmentID"))
	if err != nil {
		return err
	}

	// fasthttp closes the stream once the body is written.
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	if attachment.ContentType != "" {
		c.Set(fiber.HeaderContentType, attachment.ContentType)
	}
	return c.SendStream(reader, int(attachment.SizeBytes))
}

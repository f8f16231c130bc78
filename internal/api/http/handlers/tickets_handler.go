package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	util "github.com/spec-kit/support-desk/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), ident, service.TicketCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	input := parseListQuery(c)

	tickets, total, err := h.service.List(c.UserContext(), ident, input)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Data:  items,
		Total: total,
		Page:  input.Page,
		Limit: input.Limit,
	})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	detail, err := h.service.Get(c.UserContext(), ident, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetailResponse(detail)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateStatus(c.UserContext(), ident, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateAssignee PATCH /tickets/:id/assignee.
func (h *TicketsHandler) UpdateAssignee(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	var req dto.UpdateAssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateAssignee(c.UserContext(), ident, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	msg, err := h.service.AddMessage(c.UserContext(), ident, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	var req dto.CreateAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	attachment, err := h.service.AddAttachment(c.UserContext(), ident, c.Params("id"), service.AttachmentInput{
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		StorageKey: req.StorageKey,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// AuditTrail GET /tickets/:id/audit.
func (h *TicketsHandler) AuditTrail(c *fiber.Ctx) error {
	ident, _ := auth.IdentityFromContext(c)
	events, err := h.service.AuditTrail(c.UserContext(), ident, c.Params("id"))
	if err != nil {
		return err
	}

	items := make([]dto.AuditEventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, dto.AuditEventResponse{
			ID:        event.ID,
			TicketID:  event.TicketID,
			ActorID:   event.ActorID,
			Kind:      event.Kind,
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseListQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{
		Search: c.Query("q"),
		Page:   parseInt(c.Query("page"), 1),
		Limit:  parseInt(c.Query("limit"), 20),
	}
	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		status := domain.TicketStatus(statusStr)
		input.Status = &status
	}
	if assignee := strings.TrimSpace(c.Query("assignee_id")); assignee != "" {
		input.AssigneeID = &assignee
	}
	return input
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             ticket.ID,
		Number:         ticket.Number,
		Title:          ticket.Title,
		Description:    ticket.Description,
		RequesterName:  ticket.RequesterName,
		RequesterEmail: ticket.RequesterEmail,
		Status:         ticket.Status,
		AssigneeID:     ticket.AssigneeID,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func ticketDetailResponse(detail *domain.TicketDetail) dto.TicketDetailResponse {
	msgs := make([]dto.MessageResponse, 0, len(detail.Messages))
	for i := range detail.Messages {
		msgs = append(msgs, messageResponse(&detail.Messages[i]))
	}
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for i := range detail.Attachments {
		attachments = append(attachments, attachmentResponse(&detail.Attachments[i]))
	}
	return dto.TicketDetailResponse{
		TicketResponse: ticketResponse(&detail.Ticket),
		Messages:       msgs,
		Attachments:    attachments,
	}
}

func messageResponse(msg *domain.TicketMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        msg.ID,
		AuthorID:  msg.AuthorID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

func attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         attachment.ID,
		FileName:   attachment.FileName,
		MimeType:   attachment.MimeType,
		StorageKey: attachment.StorageKey,
		SizeBytes:  attachment.SizeBytes,
		CreatedAt:  attachment.CreatedAt,
	}
}

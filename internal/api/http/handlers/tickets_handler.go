package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	status  *service.StatusService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, statusService *service.StatusService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, status: statusService}
}

// Create handles POST /tickets/create.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, req.CreateInput())
	if err != nil {
		return err
	}
	return created(c, "ticket created", dto.NewTicketResponse(ticket))
}

// Edit handles PUT /tickets/edit/:id.
func (h *TicketsHandler) Edit(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.EditTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.EditTicket(c.UserContext(), actor, c.Params("id"), req.EditInput())
	if err != nil {
		return err
	}
	return ok(c, "ticket updated", dto.NewTicketResponse(ticket))
}

// UpdateStatus handles PUT /tickets/update-status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.status.UpdateStatus(c.UserContext(), actor, req.StatusInput())
	if err != nil {
		return err
	}
	if result.Path == auth.StatusPathAdmin {
		return ok(c, "ticket status updated", dto.NewTicketResponse(result.Ticket))
	}
	return ok(c, "assignment status updated", dto.AssignmentStatusResponse{
		Assignment:    dto.NewAssignmentResponse(&result.Assignment.Assignment),
		OverallStatus: result.Assignment.OverallStatus,
	})
}

// ListAll handles GET /tickets/allTickets[?status=A,B].
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	statuses, err := service.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListAllTickets(c.UserContext(), actor, statuses)
	if err != nil {
		return err
	}
	return ok(c, "tickets fetched", dto.NewTicketListResponse(tickets))
}

// ListMine handles GET /tickets/my-tickets[?status=A,B].
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	statuses, err := service.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListMyTickets(c.UserContext(), actor, statuses)
	if err != nil {
		return err
	}
	return ok(c, "tickets fetched", dto.NewTicketListResponse(tickets))
}

// Get handles GET /tickets/details/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, "ticket fetched", dto.NewTicketResponse(ticket))
}

// History handles GET /tickets/history/:id.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListHistory(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, "history fetched", dto.NewHistoryResponses(entries))
}

package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-relay/internal/api/dto"
	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/repository"
	apperrors "github.com/spec-kit/ticket-relay/pkg/util"
)

// TicketsHandler exposes the read-only ticket view for operators.
type TicketsHandler struct {
	tickets repository.TicketRepository
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets repository.TicketRepository) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// ListTickets GET /api/v1/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		Limit:  atoiDefault(c.Query("limit"), 20),
		Offset: atoiDefault(c.Query("offset"), 0),
	}
	if requester := c.Query("requester_id"); requester != "" {
		filter.RequesterID = &requester
	}
	if rawStatuses := c.Query("status"); rawStatuses != "" {
		for _, raw := range strings.Split(rawStatuses, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(raw)))
			if status != domain.TicketStatusOpen && status != domain.TicketStatusClosed {
				return apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	tickets, err := h.tickets.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/v1/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// GetStats GET /api/v1/tickets/stats.
func (h *TicketsHandler) GetStats(c *fiber.Ctx) error {
	counts, err := h.tickets.CountByStatus(c.Context())
	if err != nil {
		return err
	}
	stats := dto.TicketStats{
		Open:   counts[domain.TicketStatusOpen],
		Closed: counts[domain.TicketStatusClosed],
	}
	stats.Total = stats.Open + stats.Closed
	return c.JSON(fiber.Map{"data": stats})
}

func atoiDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

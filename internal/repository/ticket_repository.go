package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

var (
	// ErrNotFound signals that no ticket matched the lookup.
	ErrNotFound = errors.New("ticket not found")

	// ErrOpenTicketExists signals that the requester already has an OPEN
	// ticket. Open-ticket uniqueness is enforced by the store, not by the
	// caller's check, so concurrent opens cannot both succeed.
	ErrOpenTicketExists = errors.New("requester already has an open ticket")
)

// TicketFilter captures ops API listing parameters.
type TicketFilter struct {
	RequesterID *string
	Statuses    []domain.TicketStatus
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Ticket ids are the
// decimal string of a monotone sequence, reserved with NextID before the
// relay channel is provisioned so the channel can carry the ticket's name.
type TicketRepository interface {
	NextID(ctx context.Context) (string, error)
	Create(ctx context.Context, id, requesterID, channelID string) (*domain.Ticket, error)
	FindOpenByRequester(ctx context.Context, requesterID string) (*domain.Ticket, error)
	FindOpenByChannel(ctx context.Context, channelID string) (*domain.Ticket, error)
	CloseByChannel(ctx context.Context, channelID string) (*domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error)
}

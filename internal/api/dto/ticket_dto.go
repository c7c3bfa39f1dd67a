package dto

import (
	"time"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

// TokenRequest payload for admin token issuance.
type TokenRequest struct {
	AdminKey string `json:"admin_key"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TicketSummary is the ops API view of a ticket. Relayed message content is
// never exposed here.
type TicketSummary struct {
	ID          string              `json:"id"`
	RequesterID string              `json:"requester_id"`
	ChannelID   string              `json:"channel_id"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	ClosedAt    *time.Time          `json:"closed_at,omitempty"`
}

// TicketStats aggregates ticket counts by status.
type TicketStats struct {
	Open   int `json:"open"`
	Closed int `json:"closed"`
	Total  int `json:"total"`
}

// FromTicket maps a domain ticket to its summary.
func FromTicket(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          t.ID,
		RequesterID: t.RequesterID,
		ChannelID:   t.ChannelID,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		ClosedAt:    t.ClosedAt,
	}
}

package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// Ticket links a requester to the dedicated relay channel provisioned for
// their support case. Closed tickets are kept; a user opening a new ticket
// gets a fresh record, never a reopened one.
type Ticket struct {
	ID          string
	RequesterID string
	ChannelID   string
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// ChannelName returns the deterministic name for the ticket's relay channel.
func (t *Ticket) ChannelName() string {
	return fmt.Sprintf("ticket-%s", t.ID)
}

// IsOpen reports whether the ticket is still relaying.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened   EventType = "ticket_opened"
	EventTicketClosed   EventType = "ticket_closed"
	EventMessageRelayed EventType = "message_relayed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	RequesterID string   `json:"requester_id"`
	ChannelID   string   `json:"channel_id"`
	AssigneeIDs []string `json:"assignee_ids"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	RequesterID string `json:"requester_id"`
	ChannelID   string `json:"channel_id"`
	Archived    bool   `json:"archived"`
}

// MessageRelayedPayload payload. Direction is "member" for DM-to-channel
// forwards and "staff" for channel-to-DM forwards. Content itself is never
// carried on events.
type MessageRelayedPayload struct {
	Direction string `json:"direction"`
	ChannelID string `json:"channel_id"`
}

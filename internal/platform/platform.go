// Package platform defines the narrow contracts the ticket services consume
// from the chat platform. The discord subpackage provides the production
// implementation; tests substitute recording fakes.
package platform

import "context"

// Button custom ids the bot reacts to.
const (
	ButtonOpenTicket  = "open_ticket"
	ButtonCloseTicket = "close_ticket"
)

// ButtonStyle selects the visual style of a message button.
type ButtonStyle int

const (
	ButtonStyleSecondary ButtonStyle = iota
	ButtonStyleDanger
)

// Embed is a rich message block.
type Embed struct {
	Title       string
	Description string
	Color       int
}

// Button is an action control attached to a message.
type Button struct {
	CustomID string
	Label    string
	Style    ButtonStyle
	Emoji    string
}

// Message is an outbound message. Content, Embed and Button are each
// optional; Mentions are rendered ahead of the content.
type Message struct {
	Content  string
	Embed    *Embed
	Button   *Button
	Mentions []string
}

// Messenger sends messages, typing indicators and reactions.
type Messenger interface {
	SendChannelMessage(ctx context.Context, channelID string, msg Message) (messageID string, err error)
	SendDirectMessage(ctx context.Context, userID string, msg Message) (messageID string, err error)
	ChannelTyping(ctx context.Context, channelID string) error
	UserTyping(ctx context.Context, userID string) error
	React(ctx context.Context, channelID, messageID, emoji string) error
}

// ChannelManager provisions and tears down relay channels.
type ChannelManager interface {
	CreateChannel(ctx context.Context, name, parentID string) (channelID string, err error)
	SetChannelParent(ctx context.Context, channelID, parentID string) error
	DeleteChannel(ctx context.Context, channelID string) error
}

// RoleDirectory resolves staff role ids to member ids. The result is the
// flattened concatenation across roles; members holding several qualifying
// roles appear once per role.
type RoleDirectory interface {
	RoleMembers(ctx context.Context, roleIDs []string) ([]string, error)
}

// EphemeralResponder replies to the triggering interaction with a message
// only the actor can see.
type EphemeralResponder func(content string) error

// ButtonPress is an inbound button activation.
type ButtonPress struct {
	CustomID  string
	UserID    string
	ChannelID string
	Respond   EphemeralResponder
}

// InboundMessage is an inbound chat message.
type InboundMessage struct {
	MessageID string
	AuthorID  string
	ChannelID string
	Content   string
	FromGuild bool
	FromBot   bool
}

// TypingEvent is an inbound typing indicator.
type TypingEvent struct {
	UserID    string
	ChannelID string
	FromGuild bool
	FromBot   bool
}

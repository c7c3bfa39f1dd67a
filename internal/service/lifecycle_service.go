package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/platform"
	"github.com/spec-kit/ticket-relay/internal/repository"
)

const (
	colorTicketOpen   = 0x00BC06
	colorTicketClosed = 0xE34040
)

const (
	replyAlreadyOpen   = "You already have an open ticket!"
	replyGenericError  = "An error occurred."
	replyTicketClosed  = "Ticket closed."
	replyDeleteWarning = "No archive category specified, deleting channel in 30 seconds."

	dmOpenedDescription = "What would you like to talk to us about? Type in your message below " +
		"and it will be relayed to the Operations team.\n\nNOTE: For security purposes, this is " +
		"**ANONYMOUS**, and two randomly selected Operations members will be assigned to your case."
)

// LifecycleService governs ticket open/close transitions: channel
// provisioning and teardown, record writes and the notification sends around
// them.
type LifecycleService struct {
	tickets    repository.TicketRepository
	messenger  platform.Messenger
	channels   platform.ChannelManager
	roles      platform.RoleDirectory
	selector   *AssignmentSelector
	dispatcher events.Dispatcher
	teardown   TeardownScheduler
	logger     *zap.Logger

	ticketCategory  string
	archiveCategory string
	supportRoles    []string
	closeDelay      time.Duration
}

// TeardownScheduler delays relay-channel deletion after close.
type TeardownScheduler interface {
	Schedule(channelID string, delay time.Duration)
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo repository.TicketRepository
	Messenger  platform.Messenger
	Channels   platform.ChannelManager
	Roles      platform.RoleDirectory
	Selector   *AssignmentSelector
	Dispatcher events.Dispatcher
	Teardown   TeardownScheduler
	Logger     *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(cfg config.DiscordConfig, relay config.RelayConfig, deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:         deps.TicketRepo,
		messenger:       deps.Messenger,
		channels:        deps.Channels,
		roles:           deps.Roles,
		selector:        deps.Selector,
		dispatcher:      deps.Dispatcher,
		teardown:        deps.Teardown,
		logger:          deps.Logger,
		ticketCategory:  cfg.TicketCategory,
		archiveCategory: cfg.ArchiveCategory,
		supportRoles:    cfg.SupportRoles,
		closeDelay:      relay.CloseDeleteDelay,
	}
}

// OpenTicket handles an open-ticket button press. Rejections and failures
// are reported back to the actor ephemerally; errors never propagate to the
// gateway.
func (s *LifecycleService) OpenTicket(ctx context.Context, press platform.ButtonPress) error {
	if existing, err := s.tickets.FindOpenByRequester(ctx, press.UserID); err == nil && existing != nil {
		respond(press, replyAlreadyOpen)
		return nil
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("open ticket lookup failed", zap.String("user_id", press.UserID), zap.Error(err))
		respond(press, replyGenericError)
		return err
	}

	ticket, err := s.provision(ctx, press.UserID)
	if err != nil {
		s.logger.Error("ticket provisioning failed", zap.String("user_id", press.UserID), zap.Error(err))
		respond(press, replyGenericError)
		return err
	}

	respond(press, fmt.Sprintf("Ticket created! Check your DMs to send a message. [ID: %s]", ticket.ID))
	return nil
}

// provision runs the multi-step open sequence. A failure after channel
// creation deletes the channel (and closes the record, if one was written)
// before surfacing the error, so no orphaned channel is left behind.
func (s *LifecycleService) provision(ctx context.Context, requesterID string) (ticket *domain.Ticket, err error) {
	id, err := s.tickets.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve ticket id: %w", err)
	}

	channelID, err := s.channels.CreateChannel(ctx, fmt.Sprintf("ticket-%s", id), s.ticketCategory)
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if ticket != nil {
			if _, closeErr := s.tickets.CloseByChannel(ctx, channelID); closeErr != nil {
				s.logger.Warn("compensating record close failed", zap.Error(closeErr))
			}
		}
		if delErr := s.channels.DeleteChannel(ctx, channelID); delErr != nil {
			s.logger.Warn("compensating channel delete failed",
				zap.String("channel_id", channelID), zap.Error(delErr))
		}
	}()

	ticket, err = s.tickets.Create(ctx, id, requesterID, channelID)
	if err != nil {
		return nil, fmt.Errorf("create ticket record: %w", err)
	}

	if _, err = s.messenger.SendDirectMessage(ctx, requesterID, platform.Message{
		Embed: &platform.Embed{
			Title:       fmt.Sprintf("Ticket #%s Opened", ticket.ID),
			Description: dmOpenedDescription,
			Color:       colorTicketOpen,
		},
	}); err != nil {
		return ticket, fmt.Errorf("send requester confirmation: %w", err)
	}

	pool, err := s.roles.RoleMembers(ctx, s.supportRoles)
	if err != nil {
		return ticket, fmt.Errorf("resolve support roles: %w", err)
	}
	assignees := s.selector.Pick(pool, AssigneeCount)

	if _, err = s.messenger.SendChannelMessage(ctx, channelID, platform.Message{
		Mentions: assignees,
		Embed: &platform.Embed{
			Title: "Ticket Opened",
			Description: fmt.Sprintf("\nID: %s\n\nAssignees: %s\n\nWaiting for the user to type their message.",
				ticket.ID, mentionList(assignees)),
			Color: colorTicketOpen,
		},
		Button: &platform.Button{
			CustomID: platform.ButtonCloseTicket,
			Label:    "Close Ticket",
			Style:    platform.ButtonStyleDanger,
		},
	}); err != nil {
		return ticket, fmt.Errorf("send assignment announcement: %w", err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketOpened,
		TicketID: ticket.ID,
		Payload: events.TicketOpenedPayload{
			RequesterID: requesterID,
			ChannelID:   channelID,
			AssigneeIDs: assignees,
		},
	})
	s.logger.Info("ticket opened",
		zap.String("ticket_id", ticket.ID),
		zap.String("channel_id", channelID),
		zap.Strings("assignees", assignees))
	return ticket, nil
}

// CloseTicket handles a close-ticket button press inside a relay channel.
// A press in a channel with no open ticket is silently ignored.
func (s *LifecycleService) CloseTicket(ctx context.Context, press platform.ButtonPress) error {
	ticket, err := s.tickets.FindOpenByChannel(ctx, press.ChannelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		s.logger.Error("close ticket lookup failed", zap.String("channel_id", press.ChannelID), zap.Error(err))
		return err
	}

	closedEmbed := &platform.Embed{
		Title: fmt.Sprintf("Ticket #%s Closed", ticket.ID),
		Color: colorTicketClosed,
	}
	if _, err := s.messenger.SendDirectMessage(ctx, ticket.RequesterID, platform.Message{Embed: closedEmbed}); err != nil {
		s.logger.Warn("closed notice DM failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if _, err := s.messenger.SendChannelMessage(ctx, ticket.ChannelID, platform.Message{Embed: closedEmbed}); err != nil {
		s.logger.Warn("closed notice channel send failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	archived := s.archiveCategory != ""
	if archived {
		if err := s.channels.SetChannelParent(ctx, ticket.ChannelID, s.archiveCategory); err != nil {
			s.logger.Warn("archive move failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	} else {
		if _, err := s.messenger.SendChannelMessage(ctx, ticket.ChannelID, platform.Message{Content: replyDeleteWarning}); err != nil {
			s.logger.Warn("delete warning send failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
		s.teardown.Schedule(ticket.ChannelID, s.closeDelay)
	}

	if _, err := s.tickets.CloseByChannel(ctx, press.ChannelID); err != nil {
		s.logger.Error("mark ticket closed failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		Payload: events.TicketClosedPayload{
			RequesterID: ticket.RequesterID,
			ChannelID:   ticket.ChannelID,
			Archived:    archived,
		},
	})
	s.logger.Info("ticket closed", zap.String("ticket_id", ticket.ID), zap.Bool("archived", archived))

	respond(press, replyTicketClosed)
	return nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func respond(press platform.ButtonPress, content string) {
	if press.Respond == nil {
		return
	}
	_ = press.Respond(content)
}

func mentionList(userIDs []string) string {
	mentions := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		mentions = append(mentions, fmt.Sprintf("<@!%s>", id))
	}
	return strings.Join(mentions, " ")
}

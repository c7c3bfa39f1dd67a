package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/observability"
	"github.com/spec-kit/ticket-relay/internal/platform"
	"github.com/spec-kit/ticket-relay/internal/repository"
)

const relayAckEmoji = "✉"

const (
	relayDirectionMember = "member"
	relayDirectionStaff  = "staff"
)

// TypingThrottle rate-limits typing-indicator relays per ticket direction.
// Implementations must fail open: when the backing store is unreachable the
// indicator is relayed rather than dropped.
type TypingThrottle interface {
	Allow(ctx context.Context, key string) bool
}

// RelayService forwards message content and typing indicators between a
// requester's DM channel and the ticket's relay channel, both directions,
// for the lifetime of an open ticket. Events with no matching open ticket
// are dropped silently; bot-authored events are never relayed.
type RelayService struct {
	tickets    repository.TicketRepository
	messenger  platform.Messenger
	throttle   TypingThrottle
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// RelayDependencies bundles collaborators for the relay service.
type RelayDependencies struct {
	TicketRepo repository.TicketRepository
	Messenger  platform.Messenger
	Throttle   TypingThrottle
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewRelayService constructs the service.
func NewRelayService(deps RelayDependencies) *RelayService {
	return &RelayService{
		tickets:    deps.TicketRepo,
		messenger:  deps.Messenger,
		throttle:   deps.Throttle,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// HandleMessage routes an inbound message to the paired counterpart.
func (s *RelayService) HandleMessage(ctx context.Context, msg platform.InboundMessage) error {
	if msg.FromBot {
		return nil
	}
	if msg.FromGuild {
		return s.relayStaffMessage(ctx, msg)
	}
	return s.relayMemberMessage(ctx, msg)
}

func (s *RelayService) relayMemberMessage(ctx context.Context, msg platform.InboundMessage) error {
	ticket, err := s.tickets.FindOpenByRequester(ctx, msg.AuthorID)
	if err != nil {
		return s.swallowMiss(err, "member message")
	}

	if _, err := s.messenger.SendChannelMessage(ctx, ticket.ChannelID, platform.Message{
		Content: "**Member:** " + msg.Content,
	}); err != nil {
		s.logger.Warn("member message forward failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return err
	}
	s.ack(ctx, msg)
	s.recordRelay(ctx, ticket.ID, relayDirectionMember, ticket.ChannelID)
	return nil
}

func (s *RelayService) relayStaffMessage(ctx context.Context, msg platform.InboundMessage) error {
	ticket, err := s.tickets.FindOpenByChannel(ctx, msg.ChannelID)
	if err != nil {
		return s.swallowMiss(err, "staff message")
	}

	if _, err := s.messenger.SendDirectMessage(ctx, ticket.RequesterID, platform.Message{
		Content: "**Staff:** " + msg.Content,
	}); err != nil {
		s.logger.Warn("staff message forward failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return err
	}
	s.ack(ctx, msg)
	s.recordRelay(ctx, ticket.ID, relayDirectionStaff, ticket.ChannelID)
	return nil
}

// HandleTyping mirrors a typing indicator to the paired counterpart.
func (s *RelayService) HandleTyping(ctx context.Context, typing platform.TypingEvent) error {
	if typing.FromBot {
		return nil
	}
	if typing.FromGuild {
		ticket, err := s.tickets.FindOpenByChannel(ctx, typing.ChannelID)
		if err != nil {
			return s.swallowMiss(err, "staff typing")
		}
		if !s.allowTyping(ctx, relayDirectionStaff+":"+ticket.ID) {
			return nil
		}
		if err := s.messenger.UserTyping(ctx, ticket.RequesterID); err != nil {
			s.logger.Warn("typing relay to requester failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
		return nil
	}

	ticket, err := s.tickets.FindOpenByRequester(ctx, typing.UserID)
	if err != nil {
		return s.swallowMiss(err, "member typing")
	}
	if !s.allowTyping(ctx, relayDirectionMember+":"+ticket.ID) {
		return nil
	}
	if err := s.messenger.ChannelTyping(ctx, ticket.ChannelID); err != nil {
		s.logger.Warn("typing relay to channel failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	return nil
}

func (s *RelayService) ack(ctx context.Context, msg platform.InboundMessage) {
	if err := s.messenger.React(ctx, msg.ChannelID, msg.MessageID, relayAckEmoji); err != nil {
		s.logger.Warn("relay ack reaction failed", zap.String("message_id", msg.MessageID), zap.Error(err))
	}
}

func (s *RelayService) allowTyping(ctx context.Context, key string) bool {
	if s.throttle == nil {
		return true
	}
	return s.throttle.Allow(ctx, key)
}

func (s *RelayService) recordRelay(ctx context.Context, ticketID, direction, channelID string) {
	if s.metrics != nil {
		s.metrics.RecordRelay(direction)
	}
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMessageRelayed,
		TicketID:  ticketID,
		Timestamp: time.Now(),
		Payload: events.MessageRelayedPayload{
			Direction: direction,
			ChannelID: channelID,
		},
	})
}

func (s *RelayService) swallowMiss(err error, context string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	s.logger.Error("ticket lookup failed", zap.String("during", context), zap.Error(err))
	return err
}

package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/observability"
	"github.com/spec-kit/ticket-relay/internal/platform"
	"github.com/spec-kit/ticket-relay/internal/repository"
	"github.com/spec-kit/ticket-relay/internal/service"
)

// stubThrottle lets tests flip typing relays on and off.
type stubThrottle struct {
	mu    sync.Mutex
	allow bool
	calls int
}

func (s *stubThrottle) Allow(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.allow
}

func newRelayFixture(t *testing.T) (*service.RelayService, *fakePlatform, repository.TicketRepository, *observability.Metrics) {
	t.Helper()
	fake := newFakePlatform()
	repo := repository.NewMemoryRepository()
	metrics := observability.NewMetrics()
	svc := service.NewRelayService(service.RelayDependencies{
		TicketRepo: repo,
		Messenger:  fake,
		Throttle:   &stubThrottle{allow: true},
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
		Logger:     zap.NewNop(),
	})
	return svc, fake, repo, metrics
}

func openTestTicket(t *testing.T, repo repository.TicketRepository, requesterID, channelID string) {
	t.Helper()
	ctx := context.Background()
	id, err := repo.NextID(ctx)
	require.NoError(t, err)
	_, err = repo.Create(ctx, id, requesterID, channelID)
	require.NoError(t, err)
}

func TestHandleMessage_MemberToChannel(t *testing.T) {
	ctx := context.Background()
	svc, fake, repo, metrics := newRelayFixture(t)
	openTestTicket(t, repo, "user-1", "ch-1")

	require.NoError(t, svc.HandleMessage(ctx, platform.InboundMessage{
		MessageID: "dm-5",
		AuthorID:  "user-1",
		ChannelID: "dm-channel",
		Content:   "hello",
	}))

	require.Equal(t, 1, fake.channelMessageCount("ch-1"))
	forwarded, _ := fake.lastChannelMessage("ch-1")
	require.Equal(t, "**Member:** hello", forwarded.Content)

	require.Len(t, fake.reactions, 1)
	require.Equal(t, "dm-channel", fake.reactions[0].channelID)
	require.Equal(t, "dm-5", fake.reactions[0].messageID)
	require.Equal(t, "✉", fake.reactions[0].emoji)

	require.Equal(t, int64(1), metrics.RelayCount("member"))
}

func TestHandleMessage_StaffToDM(t *testing.T) {
	ctx := context.Background()
	svc, fake, repo, metrics := newRelayFixture(t)
	openTestTicket(t, repo, "user-1", "ch-1")

	require.NoError(t, svc.HandleMessage(ctx, platform.InboundMessage{
		MessageID: "g-9",
		AuthorID:  "staff-1",
		ChannelID: "ch-1",
		Content:   "hi",
		FromGuild: true,
	}))

	forwarded, ok := fake.lastDirectMessage("user-1")
	require.True(t, ok)
	require.Equal(t, "**Staff:** hi", forwarded.Content)

	require.Len(t, fake.reactions, 1)
	require.Equal(t, "ch-1", fake.reactions[0].channelID)
	require.Equal(t, int64(1), metrics.RelayCount("staff"))
}

func TestHandleMessage_NoTicketIsSilentDrop(t *testing.T) {
	ctx := context.Background()
	svc, fake, _, metrics := newRelayFixture(t)

	require.NoError(t, svc.HandleMessage(ctx, platform.InboundMessage{
		MessageID: "dm-1",
		AuthorID:  "stranger",
		ChannelID: "dm-channel",
		Content:   "anyone there?",
	}))
	require.NoError(t, svc.HandleMessage(ctx, platform.InboundMessage{
		MessageID: "g-1",
		AuthorID:  "staff-1",
		ChannelID: "random-channel",
		Content:   "hm",
		FromGuild: true,
	}))

	require.Empty(t, fake.reactions)
	require.Empty(t, fake.channelMessages)
	require.Empty(t, fake.directMessages)
	require.Equal(t, int64(0), metrics.RelayCount("member"))
	require.Equal(t, int64(0), metrics.RelayCount("staff"))
}

func TestHandleMessage_BotMessagesNeverRelayed(t *testing.T) {
	ctx := context.Background()
	svc, fake, repo, _ := newRelayFixture(t)
	openTestTicket(t, repo, "user-1", "ch-1")

	require.NoError(t, svc.HandleMessage(ctx, platform.InboundMessage{
		MessageID: "dm-2",
		AuthorID:  "user-1",
		ChannelID: "dm-channel",
		Content:   "**Staff:** echo",
		FromBot:   true,
	}))
	require.NoError(t, svc.HandleMessage(ctx, platform.InboundMessage{
		MessageID: "g-2",
		AuthorID:  "relay-bot",
		ChannelID: "ch-1",
		Content:   "**Member:** echo",
		FromGuild: true,
		FromBot:   true,
	}))

	require.Empty(t, fake.channelMessages)
	require.Empty(t, fake.directMessages)
	require.Empty(t, fake.reactions)
}

func TestHandleTyping_BothDirections(t *testing.T) {
	ctx := context.Background()
	svc, fake, repo, _ := newRelayFixture(t)
	openTestTicket(t, repo, "user-1", "ch-1")

	require.NoError(t, svc.HandleTyping(ctx, platform.TypingEvent{
		UserID:    "user-1",
		ChannelID: "dm-channel",
	}))
	require.Equal(t, []string{"ch-1"}, fake.typingChannels)

	require.NoError(t, svc.HandleTyping(ctx, platform.TypingEvent{
		UserID:    "staff-1",
		ChannelID: "ch-1",
		FromGuild: true,
	}))
	require.Equal(t, []string{"user-1"}, fake.typingUsers)
}

func TestHandleTyping_ThrottledIndicatorIsDropped(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	repo := repository.NewMemoryRepository()
	throttle := &stubThrottle{allow: false}
	svc := service.NewRelayService(service.RelayDependencies{
		TicketRepo: repo,
		Messenger:  fake,
		Throttle:   throttle,
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})
	openTestTicket(t, repo, "user-1", "ch-1")

	require.NoError(t, svc.HandleTyping(ctx, platform.TypingEvent{
		UserID:    "user-1",
		ChannelID: "dm-channel",
	}))
	require.Empty(t, fake.typingChannels)
	require.Equal(t, 1, throttle.calls)
}

func TestHandleTyping_NoTicketIsSilentDrop(t *testing.T) {
	ctx := context.Background()
	svc, fake, _, _ := newRelayFixture(t)

	require.NoError(t, svc.HandleTyping(ctx, platform.TypingEvent{
		UserID:    "stranger",
		ChannelID: "dm-channel",
	}))
	require.Empty(t, fake.typingChannels)
	require.Empty(t, fake.typingUsers)
}

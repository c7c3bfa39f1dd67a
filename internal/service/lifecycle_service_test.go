package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/platform"
	"github.com/spec-kit/ticket-relay/internal/repository"
	"github.com/spec-kit/ticket-relay/internal/service"
	"github.com/spec-kit/ticket-relay/internal/worker"
)

func newLifecycle(t *testing.T, fake *fakePlatform, repo repository.TicketRepository, archiveCategory string) *service.LifecycleService {
	t.Helper()
	cfg := config.DiscordConfig{
		GuildID:         "guild",
		SupportChannel:  "support",
		TicketCategory:  "tickets-cat",
		ArchiveCategory: archiveCategory,
		SupportRoles:    []string{"ops"},
	}
	relayCfg := config.RelayConfig{CloseDeleteDelay: 20 * time.Millisecond}
	teardown := worker.NewTeardownScheduler(fake, zap.NewNop())
	t.Cleanup(teardown.Stop)

	return service.NewLifecycleService(cfg, relayCfg, service.LifecycleDependencies{
		TicketRepo: repo,
		Messenger:  fake,
		Channels:   fake,
		Roles:      fake,
		Selector:   service.NewAssignmentSelector(),
		Dispatcher: events.NewInMemoryDispatcher(),
		Teardown:   teardown,
		Logger:     zap.NewNop(),
	})
}

func openPress(userID string, rec *ephemeralRecorder) platform.ButtonPress {
	return platform.ButtonPress{
		CustomID: platform.ButtonOpenTicket,
		UserID:   userID,
		Respond:  rec.respond,
	}
}

func closePress(channelID string, rec *ephemeralRecorder) platform.ButtonPress {
	return platform.ButtonPress{
		CustomID:  platform.ButtonCloseTicket,
		UserID:    "staff-1",
		ChannelID: channelID,
		Respond:   rec.respond,
	}
}

func TestOpenTicket_ProvisionsChannelRecordAndNotifications(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	fake.roleMembers["ops"] = []string{"s1", "s2", "s3"}
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "")

	rec := &ephemeralRecorder{}
	require.NoError(t, svc.OpenTicket(ctx, openPress("user-1", rec)))

	ticket, err := repo.FindOpenByRequester(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "1", ticket.ID)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)

	require.Len(t, fake.createdChannels, 1)
	require.Equal(t, "ticket-1", fake.createdChannels[0].name)
	require.Equal(t, "tickets-cat", fake.createdChannels[0].parentID)
	require.Equal(t, fake.createdChannels[0].id, ticket.ChannelID)

	dm, ok := fake.lastDirectMessage("user-1")
	require.True(t, ok)
	require.NotNil(t, dm.Embed)
	require.Equal(t, "Ticket #1 Opened", dm.Embed.Title)
	require.Contains(t, dm.Embed.Description, "ANONYMOUS")

	announcement, ok := fake.lastChannelMessage(ticket.ChannelID)
	require.True(t, ok)
	require.Len(t, announcement.Mentions, 2)
	require.Subset(t, []string{"s1", "s2", "s3"}, announcement.Mentions)
	require.NotNil(t, announcement.Button)
	require.Equal(t, platform.ButtonCloseTicket, announcement.Button.CustomID)
	require.Contains(t, announcement.Embed.Description, "ID: 1")

	replies := rec.all()
	require.Len(t, replies, 1)
	require.Contains(t, replies[0], "[ID: 1]")
}

func TestOpenTicket_RejectsDuplicateOpen(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	fake.roleMembers["ops"] = []string{"s1", "s2"}
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "")

	first := &ephemeralRecorder{}
	require.NoError(t, svc.OpenTicket(ctx, openPress("user-1", first)))

	second := &ephemeralRecorder{}
	require.NoError(t, svc.OpenTicket(ctx, openPress("user-1", second)))
	require.Equal(t, []string{"You already have an open ticket!"}, second.all())

	// Still exactly one channel and one open ticket.
	require.Len(t, fake.createdChannels, 1)
	tickets, err := repo.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusOpen},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
}

func TestOpenTicket_SequentialIDs(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	fake.roleMembers["ops"] = []string{"s1", "s2"}
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "")

	for i, user := range []string{"u1", "u2", "u3"} {
		rec := &ephemeralRecorder{}
		require.NoError(t, svc.OpenTicket(ctx, openPress(user, rec)))
		ticket, err := repo.FindOpenByRequester(ctx, user)
		require.NoError(t, err)
		require.Equal(t, []string{"1", "2", "3"}[i], ticket.ID)
	}
}

func TestOpenTicket_FailureDeletesProvisionedChannel(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	fake.roleMembers["ops"] = []string{"s1", "s2"}
	fake.failDirectSend = errors.New("dm closed")
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "")

	rec := &ephemeralRecorder{}
	require.Error(t, svc.OpenTicket(ctx, openPress("user-1", rec)))
	require.Equal(t, []string{"An error occurred."}, rec.all())

	// The channel was compensated away and the record is not left OPEN.
	require.Len(t, fake.createdChannels, 1)
	require.Equal(t, []string{fake.createdChannels[0].id}, fake.deletedChannelList())
	_, err := repo.FindOpenByRequester(ctx, "user-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCloseTicket_ArchivesWhenConfigured(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	fake.roleMembers["ops"] = []string{"s1", "s2"}
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "archive-cat")

	require.NoError(t, svc.OpenTicket(ctx, openPress("user-1", &ephemeralRecorder{})))
	ticket, err := repo.FindOpenByRequester(ctx, "user-1")
	require.NoError(t, err)

	rec := &ephemeralRecorder{}
	require.NoError(t, svc.CloseTicket(ctx, closePress(ticket.ChannelID, rec)))
	require.Equal(t, []string{"Ticket closed."}, rec.all())

	closed, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	require.Equal(t, "archive-cat", fake.reparented[ticket.ChannelID])
	require.Empty(t, fake.deletedChannelList())

	dm, ok := fake.lastDirectMessage("user-1")
	require.True(t, ok)
	require.Equal(t, "Ticket #1 Closed", dm.Embed.Title)
	channelMsg, ok := fake.lastChannelMessage(ticket.ChannelID)
	require.True(t, ok)
	require.Equal(t, "Ticket #1 Closed", channelMsg.Embed.Title)
}

func TestCloseTicket_SchedulesDeleteWithoutArchive(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	fake.roleMembers["ops"] = []string{"s1", "s2"}
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "")

	require.NoError(t, svc.OpenTicket(ctx, openPress("user-1", &ephemeralRecorder{})))
	ticket, err := repo.FindOpenByRequester(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.CloseTicket(ctx, closePress(ticket.ChannelID, &ephemeralRecorder{})))

	warning, ok := fake.lastChannelMessage(ticket.ChannelID)
	require.True(t, ok)
	require.Contains(t, warning.Content, "deleting channel in 30 seconds")

	require.Empty(t, fake.deletedChannelList())
	require.Eventually(t, func() bool {
		deleted := fake.deletedChannelList()
		return len(deleted) == 1 && deleted[0] == ticket.ChannelID
	}, time.Second, 5*time.Millisecond)
}

func TestCloseTicket_UnknownChannelIsSilentNoOp(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "")

	rec := &ephemeralRecorder{}
	require.NoError(t, svc.CloseTicket(ctx, closePress("no-such-channel", rec)))
	require.Empty(t, rec.all())
	require.Empty(t, fake.deletedChannelList())
}

func TestCloseTicket_LeavesOtherTicketsUntouched(t *testing.T) {
	ctx := context.Background()
	fake := newFakePlatform()
	fake.roleMembers["ops"] = []string{"s1", "s2"}
	repo := repository.NewMemoryRepository()
	svc := newLifecycle(t, fake, repo, "archive-cat")

	require.NoError(t, svc.OpenTicket(ctx, openPress("u1", &ephemeralRecorder{})))
	require.NoError(t, svc.OpenTicket(ctx, openPress("u2", &ephemeralRecorder{})))

	first, err := repo.FindOpenByRequester(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.CloseTicket(ctx, closePress(first.ChannelID, &ephemeralRecorder{})))

	second, err := repo.FindOpenByRequester(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, second.Status)
}

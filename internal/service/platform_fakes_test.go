package service_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/ticket-relay/internal/platform"
)

// fakePlatform records outbound platform calls for assertions. It implements
// Messenger, ChannelManager and RoleDirectory.
type fakePlatform struct {
	mu sync.Mutex

	channelMessages map[string][]platform.Message
	directMessages  map[string][]platform.Message
	reactions       []fakeReaction
	typingChannels  []string
	typingUsers     []string

	createdChannels []fakeChannel
	deletedChannels []string
	reparented      map[string]string

	roleMembers map[string][]string

	nextMessageID int
	nextChannelID int

	failCreateChannel error
	failChannelSend   error
	failDirectSend    error
	failDelete        error
}

type fakeReaction struct {
	channelID string
	messageID string
	emoji     string
}

type fakeChannel struct {
	id       string
	name     string
	parentID string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channelMessages: make(map[string][]platform.Message),
		directMessages:  make(map[string][]platform.Message),
		reparented:      make(map[string]string),
		roleMembers:     make(map[string][]string),
	}
}

func (f *fakePlatform) SendChannelMessage(ctx context.Context, channelID string, msg platform.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChannelSend != nil {
		return "", f.failChannelSend
	}
	f.channelMessages[channelID] = append(f.channelMessages[channelID], msg)
	f.nextMessageID++
	return fmt.Sprintf("m%d", f.nextMessageID), nil
}

func (f *fakePlatform) SendDirectMessage(ctx context.Context, userID string, msg platform.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDirectSend != nil {
		return "", f.failDirectSend
	}
	f.directMessages[userID] = append(f.directMessages[userID], msg)
	f.nextMessageID++
	return fmt.Sprintf("m%d", f.nextMessageID), nil
}

func (f *fakePlatform) ChannelTyping(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typingChannels = append(f.typingChannels, channelID)
	return nil
}

func (f *fakePlatform) UserTyping(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typingUsers = append(f.typingUsers, userID)
	return nil
}

func (f *fakePlatform) React(ctx context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, fakeReaction{channelID: channelID, messageID: messageID, emoji: emoji})
	return nil
}

func (f *fakePlatform) CreateChannel(ctx context.Context, name, parentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateChannel != nil {
		return "", f.failCreateChannel
	}
	f.nextChannelID++
	id := fmt.Sprintf("ch%d", f.nextChannelID)
	f.createdChannels = append(f.createdChannels, fakeChannel{id: id, name: name, parentID: parentID})
	return id, nil
}

func (f *fakePlatform) SetChannelParent(ctx context.Context, channelID, parentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reparented[channelID] = parentID
	return nil
}

func (f *fakePlatform) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletedChannels = append(f.deletedChannels, channelID)
	return nil
}

func (f *fakePlatform) RoleMembers(ctx context.Context, roleIDs []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pool []string
	for _, roleID := range roleIDs {
		pool = append(pool, f.roleMembers[roleID]...)
	}
	return pool, nil
}

func (f *fakePlatform) channelMessageCount(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channelMessages[channelID])
}

func (f *fakePlatform) lastChannelMessage(channelID string) (platform.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.channelMessages[channelID]
	if len(msgs) == 0 {
		return platform.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

func (f *fakePlatform) lastDirectMessage(userID string) (platform.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.directMessages[userID]
	if len(msgs) == 0 {
		return platform.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

func (f *fakePlatform) deletedChannelList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.deletedChannels...)
}

// ephemeralRecorder captures ephemeral replies to a button press.
type ephemeralRecorder struct {
	mu      sync.Mutex
	replies []string
}

func (r *ephemeralRecorder) respond(content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, content)
	return nil
}

func (r *ephemeralRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.replies...)
}

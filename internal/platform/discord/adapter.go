// Package discord adapts the bot's platform contracts onto a discordgo
// gateway session.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/platform"
)

const colorSupportEmbed = 0x7A0019

// LifecycleHandler receives button activations.
type LifecycleHandler interface {
	OpenTicket(ctx context.Context, press platform.ButtonPress) error
	CloseTicket(ctx context.Context, press platform.ButtonPress) error
}

// RelayHandler receives message and typing events.
type RelayHandler interface {
	HandleMessage(ctx context.Context, msg platform.InboundMessage) error
	HandleTyping(ctx context.Context, typing platform.TypingEvent) error
}

// Adapter owns the gateway session and translates between discordgo events
// and the platform-neutral contracts the services consume.
type Adapter struct {
	session   *discordgo.Session
	cfg       config.DiscordConfig
	logger    *zap.Logger
	lifecycle LifecycleHandler
	relay     RelayHandler
}

// New creates the adapter with the gateway intents the relay needs.
func New(cfg config.DiscordConfig, logger *zap.Logger) (*Adapter, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageTyping |
		discordgo.IntentDirectMessages |
		discordgo.IntentDirectMessageTyping |
		discordgo.IntentMessageContent

	return &Adapter{session: session, cfg: cfg, logger: logger}, nil
}

// SetHandlers wires the services that consume gateway events. Must be called
// before Start.
func (a *Adapter) SetHandlers(lifecycle LifecycleHandler, relay RelayHandler) {
	a.lifecycle = lifecycle
	a.relay = relay
}

// Start registers gateway handlers, opens the connection and mounts the
// open-ticket button in the support channel.
func (a *Adapter) Start(ctx context.Context) error {
	a.session.AddHandler(a.onInteractionCreate)
	a.session.AddHandler(a.onMessageCreate)
	a.session.AddHandler(a.onTypingStart)

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	if err := a.mountSupportChannel(ctx); err != nil {
		_ = a.session.Close()
		return fmt.Errorf("mount support channel: %w", err)
	}

	a.logger.Info("gateway connected, ready for tickets",
		zap.String("guild_id", a.cfg.GuildID),
		zap.String("support_channel", a.cfg.SupportChannel))
	return nil
}

// Stop closes the gateway connection.
func (a *Adapter) Stop() error {
	return a.session.Close()
}

// mountSupportChannel clears the support channel and posts the embed with
// the open-ticket button, matching the bot's ready-time behavior.
func (a *Adapter) mountSupportChannel(ctx context.Context) error {
	messages, err := a.session.ChannelMessages(a.cfg.SupportChannel, 100, "", "", "")
	if err != nil {
		return fmt.Errorf("fetch support channel messages: %w", err)
	}
	if len(messages) > 0 {
		ids := make([]string, 0, len(messages))
		for _, msg := range messages {
			ids = append(ids, msg.ID)
		}
		if err := a.session.ChannelMessagesBulkDelete(a.cfg.SupportChannel, ids); err != nil {
			// Messages older than two weeks cannot be bulk deleted.
			a.logger.Warn("support channel cleanup incomplete", zap.Error(err))
		}
	}

	button := discordgo.Button{
		CustomID: platform.ButtonOpenTicket,
		Label:    "Open Ticket",
		Style:    discordgo.SecondaryButton,
	}
	if a.cfg.OpenButtonEmoji != "" {
		button.Emoji = &discordgo.ComponentEmoji{Name: a.cfg.OpenButtonEmoji}
	}

	_, err = a.session.ChannelMessageSendComplex(a.cfg.SupportChannel, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "Support",
			Description: "Need to file an anonymous report or get in touch with the staff team? " +
				"Click the button below to open a support ticket and you will be put in touch " +
				"with the Operations team.",
			Color: colorSupportEmbed,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{button},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("post open-ticket button: %w", err)
	}
	return nil
}

package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/platform"
)

func (a *Adapter) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if a.lifecycle == nil || i.Type != discordgo.InteractionMessageComponent {
		return
	}

	press := platform.ButtonPress{
		CustomID:  i.MessageComponentData().CustomID,
		UserID:    interactionUserID(i),
		ChannelID: i.ChannelID,
		Respond: func(content string) error {
			return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: content,
					Flags:   discordgo.MessageFlagsEphemeral,
				},
			})
		},
	}

	ctx := context.Background()
	switch press.CustomID {
	case platform.ButtonOpenTicket:
		_ = a.lifecycle.OpenTicket(ctx, press)
	case platform.ButtonCloseTicket:
		_ = a.lifecycle.CloseTicket(ctx, press)
	}
}

func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if a.relay == nil || m.Author == nil {
		return
	}

	msg := platform.InboundMessage{
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		FromGuild: m.GuildID != "",
		FromBot:   m.Author.Bot,
	}
	if err := a.relay.HandleMessage(context.Background(), msg); err != nil {
		a.logger.Warn("message relay failed", zap.String("message_id", m.ID), zap.Error(err))
	}
}

func (a *Adapter) onTypingStart(s *discordgo.Session, t *discordgo.TypingStart) {
	if a.relay == nil {
		return
	}

	typing := platform.TypingEvent{
		UserID:    t.UserID,
		ChannelID: t.ChannelID,
		FromGuild: t.GuildID != "",
		FromBot:   a.isBotUser(s, t.GuildID, t.UserID),
	}
	if err := a.relay.HandleTyping(context.Background(), typing); err != nil {
		a.logger.Warn("typing relay failed", zap.String("user_id", t.UserID), zap.Error(err))
	}
}

// isBotUser reports whether the typing user is this bot or a known bot
// account. Typing events carry no author object, so this falls back to the
// member cache; unknown users are treated as humans.
func (a *Adapter) isBotUser(s *discordgo.Session, guildID, userID string) bool {
	if s.State != nil && s.State.User != nil && s.State.User.ID == userID {
		return true
	}
	if guildID == "" {
		return false
	}
	member, err := s.State.Member(guildID, userID)
	if err != nil || member == nil || member.User == nil {
		return false
	}
	return member.User.Bot
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

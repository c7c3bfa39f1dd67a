package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-relay/internal/platform"
)

const memberFetchPageSize = 1000

// SendChannelMessage implements platform.Messenger.
func (a *Adapter) SendChannelMessage(ctx context.Context, channelID string, msg platform.Message) (string, error) {
	sent, err := a.session.ChannelMessageSendComplex(channelID, buildMessageSend(msg))
	if err != nil {
		return "", fmt.Errorf("send channel message: %w", err)
	}
	return sent.ID, nil
}

// SendDirectMessage implements platform.Messenger.
func (a *Adapter) SendDirectMessage(ctx context.Context, userID string, msg platform.Message) (string, error) {
	dm, err := a.session.UserChannelCreate(userID)
	if err != nil {
		return "", fmt.Errorf("open dm channel: %w", err)
	}
	sent, err := a.session.ChannelMessageSendComplex(dm.ID, buildMessageSend(msg))
	if err != nil {
		return "", fmt.Errorf("send direct message: %w", err)
	}
	return sent.ID, nil
}

// ChannelTyping implements platform.Messenger.
func (a *Adapter) ChannelTyping(ctx context.Context, channelID string) error {
	return a.session.ChannelTyping(channelID)
}

// UserTyping implements platform.Messenger.
func (a *Adapter) UserTyping(ctx context.Context, userID string) error {
	dm, err := a.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	return a.session.ChannelTyping(dm.ID)
}

// React implements platform.Messenger.
func (a *Adapter) React(ctx context.Context, channelID, messageID, emoji string) error {
	return a.session.MessageReactionAdd(channelID, messageID, emoji)
}

// CreateChannel implements platform.ChannelManager.
func (a *Adapter) CreateChannel(ctx context.Context, name, parentID string) (string, error) {
	channel, err := a.session.GuildChannelCreateComplex(a.cfg.GuildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: parentID,
	})
	if err != nil {
		return "", fmt.Errorf("create guild channel: %w", err)
	}
	return channel.ID, nil
}

// SetChannelParent implements platform.ChannelManager.
func (a *Adapter) SetChannelParent(ctx context.Context, channelID, parentID string) error {
	_, err := a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{ParentID: parentID})
	return err
}

// DeleteChannel implements platform.ChannelManager.
func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := a.session.ChannelDelete(channelID)
	return err
}

// RoleMembers implements platform.RoleDirectory: the guild member list is
// paged through once, then flattened per role so cross-role duplicates are
// preserved.
func (a *Adapter) RoleMembers(ctx context.Context, roleIDs []string) ([]string, error) {
	members, err := a.fetchAllMembers()
	if err != nil {
		return nil, err
	}

	var pool []string
	for _, roleID := range roleIDs {
		for _, member := range members {
			if member.User == nil || member.User.Bot {
				continue
			}
			if containsRole(member.Roles, roleID) {
				pool = append(pool, member.User.ID)
			}
		}
	}
	return pool, nil
}

func (a *Adapter) fetchAllMembers() ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := a.session.GuildMembers(a.cfg.GuildID, after, memberFetchPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch guild members: %w", err)
		}
		all = append(all, page...)
		if len(page) < memberFetchPageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func buildMessageSend(msg platform.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: renderContent(msg)}

	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{{
			Title:       msg.Embed.Title,
			Description: msg.Embed.Description,
			Color:       msg.Embed.Color,
		}}
	}

	if msg.Button != nil {
		style := discordgo.SecondaryButton
		if msg.Button.Style == platform.ButtonStyleDanger {
			style = discordgo.DangerButton
		}
		button := discordgo.Button{
			CustomID: msg.Button.CustomID,
			Label:    msg.Button.Label,
			Style:    style,
		}
		if msg.Button.Emoji != "" {
			button.Emoji = &discordgo.ComponentEmoji{Name: msg.Button.Emoji}
		}
		send.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{button}},
		}
	}

	return send
}

func renderContent(msg platform.Message) string {
	if len(msg.Mentions) == 0 {
		return msg.Content
	}
	mentions := make([]string, 0, len(msg.Mentions))
	for _, id := range msg.Mentions {
		mentions = append(mentions, fmt.Sprintf("<@!%s>", id))
	}
	rendered := strings.Join(mentions, " ")
	if msg.Content != "" {
		rendered += " " + msg.Content
	}
	return rendered
}

func containsRole(roles []string, roleID string) bool {
	for _, role := range roles {
		if role == roleID {
			return true
		}
	}
	return false
}

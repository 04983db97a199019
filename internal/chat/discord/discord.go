// Package discord implements chat.Platform on top of a discordgo session.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/chat"
)

// Session wraps a discordgo session as a chat.Platform.
type Session struct {
	dg  *discordgo.Session
	loc *time.Location
	log zerolog.Logger
}

// New creates a closed session; call Open to connect the gateway.
// timezone selects the timestamps of exported transcripts.
func New(token, timezone string, log zerolog.Logger) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentGuildMembers |
		discordgo.IntentMessageContent
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Session{
		dg:  dg,
		loc: loc,
		log: log.With().Str("component", "chat.discord").Logger(),
	}, nil
}

// Open connects to the gateway.
func (s *Session) Open() error { return s.dg.Open() }

// Close disconnects from the gateway.
func (s *Session) Close() error { return s.dg.Close() }

func (s *Session) toUser(guildID string, u *discordgo.User, m *discordgo.Member) chat.User {
	out := chat.User{
		ID:          u.ID,
		GuildID:     guildID,
		Username:    u.Username,
		DisplayName: u.GlobalName,
		Bot:         u.Bot,
	}
	if m != nil {
		out.Nickname = m.Nick
	}
	return out
}

func (s *Session) toChannel(c *discordgo.Channel) chat.Channel {
	out := chat.Channel{
		ID:      c.ID,
		GuildID: c.GuildID,
		Name:    c.Name,
		Topic:   c.Topic,
	}
	if c.ParentID != "" {
		out.CategoryID = c.ParentID
		if parent, err := s.dg.State.Channel(c.ParentID); err == nil {
			out.CategoryName = parent.Name
		}
	}
	return out
}

func (s *Session) toMessage(m *discordgo.Message) chat.Message {
	msg := chat.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		msg.Author = s.toUser(m.GuildID, m.Author, m.Member)
	}
	return msg
}

func (s *Session) UserByID(ctx context.Context, id string) (chat.User, error) {
	for _, g := range s.dg.State.Guilds {
		if m, err := s.dg.State.Member(g.ID, id); err == nil {
			return s.toUser(g.ID, m.User, m), nil
		}
	}
	u, err := s.dg.User(id, discordgo.WithContext(ctx))
	if err != nil {
		return chat.User{}, err
	}
	return s.toUser("", u, nil), nil
}

func (s *Session) FindUser(ctx context.Context, query string) (chat.User, bool) {
	q := strings.ToLower(query)
	for _, g := range s.dg.State.Guilds {
		for _, m := range s.members(ctx, g) {
			if m.User == nil || m.User.Bot {
				continue
			}
			for _, name := range []string{m.Nick, m.User.Username, m.User.GlobalName} {
				if name != "" && strings.Contains(strings.ToLower(name), q) {
					return s.toUser(g.ID, m.User, m), true
				}
			}
		}
	}
	return chat.User{}, false
}

// members prefers the gateway-populated state and falls back to one REST
// page for small guilds that were not chunked yet.
func (s *Session) members(ctx context.Context, g *discordgo.Guild) []*discordgo.Member {
	if len(g.Members) > 0 {
		return g.Members
	}
	members, err := s.dg.GuildMembers(g.ID, "", 1000, discordgo.WithContext(ctx))
	if err != nil {
		s.log.Warn().Err(err).Str("guild", g.ID).Msg("member list failed")
		return nil
	}
	return members
}

func (s *Session) ChannelByID(ctx context.Context, id string) (chat.Channel, error) {
	if c, err := s.dg.State.Channel(id); err == nil {
		return s.toChannel(c), nil
	}
	c, err := s.dg.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return chat.Channel{}, err
	}
	return s.toChannel(c), nil
}

func (s *Session) FindChannel(_ context.Context, name string) (chat.Channel, bool) {
	for _, g := range s.dg.State.Guilds {
		for _, c := range g.Channels {
			if c.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(c.Name, name) {
				return s.toChannel(c), true
			}
		}
	}
	return chat.Channel{}, false
}

// CreateChannel creates a text channel under the named category with the
// general membership denied read access.
func (s *Session) CreateChannel(ctx context.Context, guildID, name, category, topic string) (chat.Channel, error) {
	parentID := s.categoryID(guildID, category)
	data := discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		Topic:    topic,
		ParentID: parentID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// The @everyone role shares the guild id.
				ID:   guildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionViewChannel,
			},
		},
	}
	c, err := s.dg.GuildChannelCreateComplex(guildID, data, discordgo.WithContext(ctx))
	if err != nil {
		return chat.Channel{}, err
	}
	out := s.toChannel(c)
	out.CategoryName = category
	return out, nil
}

func (s *Session) categoryID(guildID, name string) string {
	g, err := s.dg.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, c := range g.Channels {
		if c.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(c.Name, name) {
			return c.ID
		}
	}
	return ""
}

func (s *Session) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := s.dg.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (s *Session) GrantAccess(ctx context.Context, channelID, userID string) error {
	return s.dg.ChannelPermissionSet(channelID, userID,
		discordgo.PermissionOverwriteTypeMember, discordgo.PermissionViewChannel, 0,
		discordgo.WithContext(ctx))
}

func (s *Session) RevokeAccess(ctx context.Context, channelID, userID string) error {
	return s.dg.ChannelPermissionDelete(channelID, userID, discordgo.WithContext(ctx))
}

func (s *Session) GrantRoleAccess(ctx context.Context, guildID, channelID, roleName string) error {
	role, err := s.roleByName(ctx, guildID, roleName)
	if err != nil {
		return err
	}
	return s.dg.ChannelPermissionSet(channelID, role.ID,
		discordgo.PermissionOverwriteTypeRole, discordgo.PermissionViewChannel, 0,
		discordgo.WithContext(ctx))
}

func (s *Session) roleByName(ctx context.Context, guildID, name string) (*discordgo.Role, error) {
	roles, err := s.dg.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("role %q not found in guild %s", name, guildID)
}

func (s *Session) HasRole(ctx context.Context, guildID, userID, roleName string) bool {
	role, err := s.roleByName(ctx, guildID, roleName)
	if err != nil {
		return false
	}
	m, err := s.dg.State.Member(guildID, userID)
	if err != nil {
		m, err = s.dg.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return false
		}
	}
	for _, id := range m.Roles {
		if id == role.ID {
			return true
		}
	}
	return false
}

func (s *Session) AssignRole(ctx context.Context, guildID, userID, roleName string) error {
	role, err := s.roleByName(ctx, guildID, roleName)
	if err != nil {
		return err
	}
	return s.dg.GuildMemberRoleAdd(guildID, userID, role.ID, discordgo.WithContext(ctx))
}

// ChannelMembers lists the users holding an explicit read overwrite on the
// channel.
func (s *Session) ChannelMembers(ctx context.Context, channelID string) ([]chat.User, error) {
	c, err := s.dg.State.Channel(channelID)
	if err != nil {
		c, err = s.dg.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
	}
	var out []chat.User
	for _, ow := range c.PermissionOverwrites {
		if ow.Type != discordgo.PermissionOverwriteTypeMember {
			continue
		}
		if ow.Allow&discordgo.PermissionViewChannel == 0 {
			continue
		}
		u, err := s.UserByID(ctx, ow.ID)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// Purge deletes the full channel history and returns it oldest first.
func (s *Session) Purge(ctx context.Context, channelID string) ([]chat.Message, error) {
	var collected []*discordgo.Message
	before := ""
	for {
		page, err := s.dg.ChannelMessages(channelID, 100, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		collected = append(collected, page...)
		before = page[len(page)-1].ID
	}

	// Bulk deletion only covers recent messages; older ones go one by one.
	cutoff := time.Now().Add(-14 * 24 * time.Hour)
	var bulk []string
	for _, m := range collected {
		if m.Timestamp.After(cutoff) {
			bulk = append(bulk, m.ID)
		} else if err := s.dg.ChannelMessageDelete(channelID, m.ID, discordgo.WithContext(ctx)); err != nil {
			s.log.Warn().Err(err).Str("message", m.ID).Msg("message delete failed")
		}
	}
	for len(bulk) > 0 {
		n := len(bulk)
		if n > 100 {
			n = 100
		}
		if err := s.dg.ChannelMessagesBulkDelete(channelID, bulk[:n], discordgo.WithContext(ctx)); err != nil {
			s.log.Warn().Err(err).Str("channel", channelID).Msg("bulk delete failed")
		}
		bulk = bulk[n:]
	}

	// REST pages come newest first.
	out := make([]chat.Message, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		out = append(out, s.toMessage(collected[i]))
	}
	return out, nil
}

// ExportChannel renders the channel's current history without deleting it.
func (s *Session) ExportChannel(ctx context.Context, ch chat.Channel) (string, error) {
	var collected []*discordgo.Message
	before := ""
	for {
		page, err := s.dg.ChannelMessages(ch.ID, 100, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return "", err
		}
		if len(page) == 0 {
			break
		}
		collected = append(collected, page...)
		before = page[len(page)-1].ID
	}
	msgs := make([]chat.Message, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		msgs = append(msgs, s.toMessage(collected[i]))
	}
	return s.ExportTranscript(ctx, ch, msgs)
}

func (s *Session) Send(ctx context.Context, channelID, content string) error {
	_, err := s.dg.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (s *Session) SendEmbed(ctx context.Context, channelID string, e chat.Embed) error {
	_, err := s.dg.ChannelMessageSendEmbed(channelID, toDiscordEmbed(e), discordgo.WithContext(ctx))
	return err
}

func toDiscordEmbed(e chat.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Image != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.Image}
	}
	if e.Thumbnail != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}

func (s *Session) SendFile(ctx context.Context, channelID, content, filename string, data []byte) error {
	_, err := s.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files:   []*discordgo.File{{Name: filename, Reader: bytes.NewReader(data)}},
	}, discordgo.WithContext(ctx))
	return err
}

func (s *Session) SendDirect(ctx context.Context, userID, content string) error {
	ch, err := s.dg.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = s.dg.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return err
}

func (s *Session) SendDirectFile(ctx context.Context, userID, content, filename string, data []byte) error {
	ch, err := s.dg.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	return s.SendFile(ctx, ch.ID, content, filename, data)
}

func (s *Session) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return s.dg.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

var _ chat.Platform = (*Session)(nil)

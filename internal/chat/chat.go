// Package chat defines the chat-platform boundary: the value types and the
// Platform contract every component above it is written against. The
// discordgo implementation lives in chat/discord; tests use chat/chattest.
package chat

import (
	"context"
	"regexp"
	"time"
)

// User is a chat-platform member.
type User struct {
	ID          string
	GuildID     string
	Username    string
	Nickname    string
	DisplayName string
	Bot         bool
}

// Name returns the nickname when set, else the username. Local records keep
// their stored name equal to this value.
func (u User) Name() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Zero reports whether the user is the zero value.
func (u User) Zero() bool { return u.ID == "" }

// Channel is a chat-platform text channel.
type Channel struct {
	ID           string
	GuildID      string
	Name         string
	Topic        string
	CategoryID   string
	CategoryName string
}

// Zero reports whether the channel is the zero value.
func (c Channel) Zero() bool { return c.ID == "" }

// Message is an inbound or purged chat message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Author    User
	Content   string
	Timestamp time.Time
}

// Embed is a rich message. Color is a 24-bit RGB value; zero means the
// platform default.
type Embed struct {
	Title       string
	Description string
	Color       int
	Image       string
	Thumbnail   string
	Footer      string
}

// Platform is the full surface the bot needs from the chat platform.
// Implementations must be safe for concurrent use.
type Platform interface {
	// Lookups.
	UserByID(ctx context.Context, id string) (User, error)
	// FindUser matches free text case-insensitively against member
	// nickname, username and display name; first match wins.
	FindUser(ctx context.Context, query string) (User, bool)
	ChannelByID(ctx context.Context, id string) (Channel, error)
	FindChannel(ctx context.Context, name string) (Channel, bool)

	// Channel management. CreateChannel denies read access to the general
	// membership of the guild.
	CreateChannel(ctx context.Context, guildID, name, category, topic string) (Channel, error)
	RenameChannel(ctx context.Context, channelID, name string) error

	// Permission overwrites.
	GrantAccess(ctx context.Context, channelID, userID string) error
	RevokeAccess(ctx context.Context, channelID, userID string) error
	GrantRoleAccess(ctx context.Context, guildID, channelID, roleName string) error

	// Roles.
	HasRole(ctx context.Context, guildID, userID, roleName string) bool
	AssignRole(ctx context.Context, guildID, userID, roleName string) error

	// Members currently granted explicit access to a channel.
	ChannelMembers(ctx context.Context, channelID string) ([]User, error)

	// History. Purge deletes every message in the channel and returns
	// them; ExportTranscript renders messages to an HTML blob;
	// ExportChannel renders the channel's current history without
	// deleting anything.
	Purge(ctx context.Context, channelID string) ([]Message, error)
	ExportTranscript(ctx context.Context, ch Channel, msgs []Message) (string, error)
	ExportChannel(ctx context.Context, ch Channel) (string, error)

	// Delivery.
	Send(ctx context.Context, channelID, content string) error
	SendEmbed(ctx context.Context, channelID string, e Embed) error
	SendFile(ctx context.Context, channelID, content, filename string, data []byte) error
	SendDirect(ctx context.Context, userID, content string) error
	SendDirectFile(ctx context.Context, userID, content, filename string, data []byte) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

var mentionRe = regexp.MustCompile(`^<[@#][!&]?(\d+)>$`)

// ExtractID parses a structured mention token ("<@N>", "<@!N>", "<#N>")
// and returns the referenced entity id.
func ExtractID(token string) (string, bool) {
	m := mentionRe.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}

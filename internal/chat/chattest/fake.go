// Package chattest provides an in-memory chat.Platform for tests.
package chattest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/debnet/fallout-bot/internal/chat"
)

// Fake implements chat.Platform entirely in memory and records every
// mutating call for assertions.
type Fake struct {
	mu sync.Mutex

	UsersByID    map[string]chat.User
	ChannelsByID map[string]chat.Channel
	RolesByUser  map[string][]string

	// Access lists the user ids granted explicit access per channel.
	Access map[string][]string
	// History holds the purgeable messages per channel.
	History map[string][]chat.Message

	Sent        map[string][]string // channel id -> message contents
	Embeds      map[string][]chat.Embed
	Directs     map[string][]string // user id -> DM contents
	Files       map[string][]string // channel id -> filenames
	DirectFiles map[string][]string // user id -> filenames
	Renamed     map[string]string
	RoleAccess  []string // "channelID/roleName"
	Created     []chat.Channel
	Revoked     []string // "channelID/userID"
	Deleted     []string // "channelID/messageID"

	// NextChannelID seeds ids for CreateChannel.
	NextChannelID int
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		UsersByID:     map[string]chat.User{},
		ChannelsByID:  map[string]chat.Channel{},
		RolesByUser:   map[string][]string{},
		Access:        map[string][]string{},
		History:       map[string][]chat.Message{},
		Sent:          map[string][]string{},
		Embeds:        map[string][]chat.Embed{},
		Directs:       map[string][]string{},
		Files:         map[string][]string{},
		DirectFiles:   map[string][]string{},
		Renamed:       map[string]string{},
		NextChannelID: 9000,
	}
}

// AddUser registers a member.
func (f *Fake) AddUser(u chat.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UsersByID[u.ID] = u
}

// AddChannel registers a channel.
func (f *Fake) AddChannel(c chat.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChannelsByID[c.ID] = c
}

func (f *Fake) UserByID(_ context.Context, id string) (chat.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.UsersByID[id]
	if !ok {
		return chat.User{}, fmt.Errorf("chattest: no user %s", id)
	}
	return u, nil
}

func (f *Fake) FindUser(_ context.Context, query string) (chat.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	for _, u := range f.UsersByID {
		for _, name := range []string{u.Nickname, u.Username, u.DisplayName} {
			if name != "" && strings.Contains(strings.ToLower(name), q) {
				return u, true
			}
		}
	}
	return chat.User{}, false
}

func (f *Fake) ChannelByID(_ context.Context, id string) (chat.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.ChannelsByID[id]
	if !ok {
		return chat.Channel{}, fmt.Errorf("chattest: no channel %s", id)
	}
	return c, nil
}

func (f *Fake) FindChannel(_ context.Context, name string) (chat.Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.ChannelsByID {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return chat.Channel{}, false
}

func (f *Fake) CreateChannel(_ context.Context, guildID, name, category, topic string) (chat.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NextChannelID++
	c := chat.Channel{
		ID:           fmt.Sprintf("%d", f.NextChannelID),
		GuildID:      guildID,
		Name:         name,
		Topic:        topic,
		CategoryName: category,
	}
	f.ChannelsByID[c.ID] = c
	f.Created = append(f.Created, c)
	return c, nil
}

func (f *Fake) RenameChannel(_ context.Context, channelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.ChannelsByID[channelID]
	c.Name = name
	f.ChannelsByID[channelID] = c
	f.Renamed[channelID] = name
	return nil
}

func (f *Fake) GrantAccess(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.Access[channelID] {
		if id == userID {
			return nil
		}
	}
	f.Access[channelID] = append(f.Access[channelID], userID)
	return nil
}

func (f *Fake) RevokeAccess(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.Access[channelID]
	out := list[:0]
	for _, id := range list {
		if id != userID {
			out = append(out, id)
		}
	}
	f.Access[channelID] = out
	f.Revoked = append(f.Revoked, channelID+"/"+userID)
	return nil
}

func (f *Fake) GrantRoleAccess(_ context.Context, _, channelID, roleName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RoleAccess = append(f.RoleAccess, channelID+"/"+roleName)
	return nil
}

func (f *Fake) HasRole(_ context.Context, _, userID, roleName string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.RolesByUser[userID] {
		if r == roleName {
			return true
		}
	}
	return false
}

func (f *Fake) AssignRole(_ context.Context, _, userID, roleName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RolesByUser[userID] = append(f.RolesByUser[userID], roleName)
	return nil
}

func (f *Fake) ChannelMembers(_ context.Context, channelID string) ([]chat.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.User
	for _, id := range f.Access[channelID] {
		if u, ok := f.UsersByID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *Fake) Purge(_ context.Context, channelID string) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.History[channelID]
	f.History[channelID] = nil
	return msgs, nil
}

func (f *Fake) ExportTranscript(_ context.Context, ch chat.Channel, msgs []chat.Message) (string, error) {
	return fmt.Sprintf("<html>#%s: %d messages</html>", ch.Name, len(msgs)), nil
}

func (f *Fake) ExportChannel(ctx context.Context, ch chat.Channel) (string, error) {
	f.mu.Lock()
	msgs := f.History[ch.ID]
	f.mu.Unlock()
	return f.ExportTranscript(ctx, ch, msgs)
}

func (f *Fake) Send(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent[channelID] = append(f.Sent[channelID], content)
	return nil
}

func (f *Fake) SendEmbed(_ context.Context, channelID string, e chat.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Embeds[channelID] = append(f.Embeds[channelID], e)
	return nil
}

func (f *Fake) SendFile(_ context.Context, channelID, content, filename string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent[channelID] = append(f.Sent[channelID], content)
	f.Files[channelID] = append(f.Files[channelID], filename)
	return nil
}

func (f *Fake) SendDirect(_ context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Directs[userID] = append(f.Directs[userID], content)
	return nil
}

func (f *Fake) SendDirectFile(_ context.Context, userID, content, filename string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Directs[userID] = append(f.Directs[userID], content)
	f.DirectFiles[userID] = append(f.DirectFiles[userID], filename)
	return nil
}

func (f *Fake) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, channelID+"/"+messageID)
	return nil
}

var _ chat.Platform = (*Fake)(nil)

// Package sqlite implements store.Store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/store"
)

// SqliteStore implements store.Store.
type SqliteStore struct {
	db *sql.DB
}

// New opens (or creates) the database file and ensures the schema.
func New(path string) (*SqliteStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) (*SqliteStore, error) {
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

// DB exposes the underlying connection.
func (s *SqliteStore) DB() *sql.DB { return s.db }

func (s *SqliteStore) Close() error { return s.db.Close() }

func (s *SqliteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SqliteStore) Users() store.Users       { return users{s.db} }
func (s *SqliteStore) Channels() store.Channels { return channels{s.db} }

// --- Users ---

type users struct{ db *sql.DB }

const userColumns = `UserId, Name, Level, PlayerId, CharacterId, PrivateChannelId, ChannelId, CreationTime`

func (u users) GetOrCreate(ctx context.Context, id, name string) (*model.User, error) {
	_, err := u.db.ExecContext(ctx,
		`INSERT INTO Users (UserId, Name, Level, CreationTime) VALUES (?,?,0,?) ON CONFLICT(UserId) DO NOTHING`,
		id, name, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return u.Get(ctx, id)
}

func (u users) Get(ctx context.Context, id string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM Users WHERE UserId = ?`, id)
	return scanUser(row)
}

func (u users) GetByCharacterID(ctx context.Context, characterID int64) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM Users WHERE CharacterId = ?`, characterID)
	return scanUser(row)
}

func (u users) SetName(ctx context.Context, id, name string) error {
	_, err := u.db.ExecContext(ctx, `UPDATE Users SET Name = ? WHERE UserId = ?`, name, id)
	return err
}

func (u users) SetPlayerID(ctx context.Context, id string, playerID int64) error {
	_, err := u.db.ExecContext(ctx, `UPDATE Users SET PlayerId = ? WHERE UserId = ?`, playerID, id)
	return err
}

func (u users) SetCharacterID(ctx context.Context, id string, characterID int64) error {
	_, err := u.db.ExecContext(ctx, `UPDATE Users SET CharacterId = ? WHERE UserId = ?`, characterID, id)
	return err
}

func (u users) SetPrivateChannel(ctx context.Context, id, channelID string) error {
	_, err := u.db.ExecContext(ctx, `UPDATE Users SET PrivateChannelId = ? WHERE UserId = ?`, channelID, id)
	return err
}

func (u users) SetChannel(ctx context.Context, id, channelID string) error {
	var v any
	if channelID != "" {
		v = channelID
	}
	_, err := u.db.ExecContext(ctx, `UPDATE Users SET ChannelId = ? WHERE UserId = ?`, v, id)
	return err
}

func (u users) ListByChannel(ctx context.Context, channelID string) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `SELECT `+userColumns+` FROM Users WHERE ChannelId = ?`, channelID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.User
	for rows.Next() {
		usr, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, usr)
	}
	return out, rows.Err()
}

func (u users) CountByChannel(ctx context.Context, channelID string) (int, error) {
	var n int
	err := u.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Users WHERE ChannelId = ?`, channelID).Scan(&n)
	return n, err
}

func (u users) ClearChannel(ctx context.Context, channelID string) error {
	_, err := u.db.ExecContext(ctx, `UPDATE Users SET ChannelId = NULL WHERE ChannelId = ?`, channelID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var usr model.User
	var playerID, characterID sql.NullInt64
	var privChan, chanID sql.NullString
	err := row.Scan(&usr.ID, &usr.Name, &usr.Level, &playerID, &characterID, &privChan, &chanID, &usr.CreationTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	usr.PlayerID = playerID.Int64
	usr.CharacterID = characterID.Int64
	usr.PrivateChannelID = privChan.String
	usr.ChannelID = chanID.String
	return &usr, nil
}

// --- Channels ---

type channels struct{ db *sql.DB }

const channelColumns = `ChannelId, Name, Topic, CampaignId, GameDate, CreationTime`

func (c channels) GetOrCreate(ctx context.Context, id, name string, date time.Time) (*model.Channel, error) {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO Channels (ChannelId, Name, GameDate, CreationTime) VALUES (?,?,?,?) ON CONFLICT(ChannelId) DO NOTHING`,
		id, name, date.UTC(), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, id)
}

func (c channels) Get(ctx context.Context, id string) (*model.Channel, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM Channels WHERE ChannelId = ?`, id)
	return scanChannel(row)
}

func (c channels) SetCampaignID(ctx context.Context, id string, campaignID int64) error {
	_, err := c.db.ExecContext(ctx, `UPDATE Channels SET CampaignId = ? WHERE ChannelId = ?`, campaignID, id)
	return err
}

func (c channels) SetGameDate(ctx context.Context, id string, date time.Time) error {
	_, err := c.db.ExecContext(ctx, `UPDATE Channels SET GameDate = ? WHERE ChannelId = ?`, date.UTC(), id)
	return err
}

func (c channels) SetNameTopic(ctx context.Context, id, name, topic string) error {
	_, err := c.db.ExecContext(ctx, `UPDATE Channels SET Name = ?, Topic = ? WHERE ChannelId = ?`, name, topic, id)
	return err
}

func (c channels) ListWithCampaign(ctx context.Context) ([]*model.Channel, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM Channels WHERE CampaignId IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (c channels) Delete(ctx context.Context, id string) error {
	// Clear user references first so the foreign key never dangles.
	if _, err := c.db.ExecContext(ctx, `UPDATE Users SET ChannelId = NULL WHERE ChannelId = ?`, id); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM Channels WHERE ChannelId = ?`, id)
	return err
}

func scanChannel(row rowScanner) (*model.Channel, error) {
	var ch model.Channel
	var topic sql.NullString
	var campaignID sql.NullInt64
	var gameDate sql.NullTime
	err := row.Scan(&ch.ID, &ch.Name, &topic, &campaignID, &gameDate, &ch.CreationTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ch.Topic = topic.String
	ch.CampaignID = campaignID.Int64
	if gameDate.Valid {
		t := gameDate.Time
		ch.GameDate = &t
	}
	return &ch, nil
}

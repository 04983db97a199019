package sqlite

import "database/sql"

// EnsureSchema creates the local tables if they do not exist. Safe to call
// on every startup.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Channels (
            ChannelId TEXT PRIMARY KEY,
            Name TEXT NOT NULL,
            Topic TEXT,
            CampaignId INTEGER,
            GameDate TIMESTAMP,
            CreationTime TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS Users (
            UserId TEXT PRIMARY KEY,
            Name TEXT NOT NULL,
            Level INTEGER NOT NULL DEFAULT 0,
            PlayerId INTEGER,
            CharacterId INTEGER,
            PrivateChannelId TEXT,
            ChannelId TEXT REFERENCES Channels(ChannelId),
            CreationTime TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS Users_ChannelId_Idx ON Users(ChannelId);`,
		`CREATE INDEX IF NOT EXISTS Users_CharacterId_Idx ON Users(CharacterId);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

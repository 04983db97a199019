package discord

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/debnet/fallout-bot/internal/chat"
)

func TestExportTranscriptRendersMessages(t *testing.T) {
	s := &Session{loc: time.UTC, log: zerolog.Nop()}
	msgs := []chat.Message{
		{
			Author:    chat.User{ID: "1", Username: "tandi"},
			Content:   "let's <b>move</b>",
			Timestamp: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			Author:    chat.User{ID: "2", Username: "aradesh", Nickname: "Aradesh"},
			Content:   "agreed",
			Timestamp: time.Date(2026, 3, 1, 12, 31, 0, 0, time.UTC),
		},
	}
	html, err := s.ExportTranscript(context.Background(), chat.Channel{ID: "10", Name: "shady-sands"}, msgs)
	require.NoError(t, err)
	require.Contains(t, html, "#shady-sands")
	require.Contains(t, html, "tandi")
	require.Contains(t, html, "Aradesh")
	require.Contains(t, html, "2026-03-01 12:30:00")
	// Markup in message bodies must not survive as HTML.
	require.Contains(t, html, "&lt;b&gt;move&lt;/b&gt;")
}

func TestExportTranscriptUsesConfiguredTimezone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	s := &Session{loc: paris, log: zerolog.Nop()}
	msgs := []chat.Message{{
		Author:    chat.User{ID: "1", Username: "tandi"},
		Content:   "hello",
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}}
	html, err := s.ExportTranscript(context.Background(), chat.Channel{Name: "vault"}, msgs)
	require.NoError(t, err)
	require.Contains(t, html, "13:00:00")
}

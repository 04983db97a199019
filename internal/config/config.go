package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the bot configuration. Environment variables are parsed
// from the FALLOUT_ prefix, e.g. FALLOUT_DISCORD_TOKEN, FALLOUT_BACKEND_URL.
type Config struct {
	// Chat platform.
	DiscordToken   string `envconfig:"DISCORD_TOKEN"`
	CommandPrefix  string `envconfig:"COMMAND_PREFIX" default:"!"`
	AdminRole      string `envconfig:"ADMIN_ROLE" default:"GM"`
	PlayerRole     string `envconfig:"PLAYER_ROLE" default:"Player"`
	PlayerCategory string `envconfig:"PLAYER_CATEGORY" default:"Players"`
	WorldCategory  string `envconfig:"WORLD_CATEGORY" default:"World"`
	Locale         string `envconfig:"LOCALE" default:"en"`
	Timezone       string `envconfig:"TIMEZONE" default:"Europe/Paris"`

	// Rules backend.
	BackendURL        string `envconfig:"BACKEND_URL"`
	BackendToken      string `envconfig:"BACKEND_TOKEN"`
	CampaignStartDate string `envconfig:"CAMPAIGN_START_DATE" default:""`
	DefaultCampaignID int64  `envconfig:"DEFAULT_CAMPAIGN_ID" default:"0"`

	// Local state.
	DBPath string `envconfig:"DB_PATH" default:"fallout.db"`

	// Ops HTTP surface (health + metrics).
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	startDate time.Time
}

// dayfirst layouts accepted for CAMPAIGN_START_DATE and manual date
// overrides, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// ParseDate parses a user- or operator-supplied date in any accepted layout.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
}

// ResolveDefaults validates required settings and derives the campaign
// start date (now when unset).
func (c *Config) ResolveDefaults() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("FALLOUT_DISCORD_TOKEN is required")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("FALLOUT_BACKEND_URL is required")
	}
	if c.BackendToken == "" {
		return fmt.Errorf("FALLOUT_BACKEND_TOKEN is required")
	}
	if c.CampaignStartDate == "" {
		c.startDate = time.Now().UTC().Truncate(time.Second)
		return nil
	}
	t, err := ParseDate(c.CampaignStartDate)
	if err != nil {
		return fmt.Errorf("FALLOUT_CAMPAIGN_START_DATE: %w", err)
	}
	c.startDate = t
	return nil
}

// StartDate returns the configured campaign start date.
func (c *Config) StartDate() time.Time { return c.startDate }

// GetHTTPAddr returns the ops HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

// New creates a Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("FALLOUT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("prefix", cfg.CommandPrefix).
		Str("admin_role", cfg.AdminRole).
		Str("player_role", cfg.PlayerRole).
		Str("world_category", cfg.WorldCategory).
		Str("backend_url", cfg.BackendURL).
		Str("db_path", cfg.DBPath).
		Time("campaign_start", cfg.startDate).
		Int("http_port", cfg.HTTPPort).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests.
func NewForTesting() *Config {
	cfg := &Config{
		DiscordToken:   "test-token",
		CommandPrefix:  "!",
		AdminRole:      "GM",
		PlayerRole:     "Player",
		PlayerCategory: "Players",
		WorldCategory:  "World",
		Locale:         "en",
		Timezone:       "UTC",
		BackendURL:     "http://localhost:8000",
		BackendToken:   "test",
		DBPath:         ":memory:",
		HTTPPort:       8080,
		startDate:      time.Date(2287, 10, 1, 8, 0, 0, 0, time.UTC),
	}
	return cfg
}

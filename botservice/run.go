// Package botservice wires configuration, storage, the rules backend, the
// Discord gateway and the ops HTTP server into a running bot process.
package botservice

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat/discord"
	"github.com/debnet/fallout-bot/internal/commands"
	"github.com/debnet/fallout-bot/internal/config"
	"github.com/debnet/fallout-bot/internal/logger"
	"github.com/debnet/fallout-bot/internal/ops"
	"github.com/debnet/fallout-bot/internal/reconcile"
	"github.com/debnet/fallout-bot/internal/store/sqlite"
	"github.com/debnet/fallout-bot/internal/workflow"
)

// Run starts the bot and blocks until shutdown or a fatal error.
func Run() error {
	log := logger.New("fallout-bot")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	ctx, stop := newProcessContext()
	defer stop()

	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("store unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	api := backend.New(cfg.BackendURL, cfg.BackendToken, cfg.Locale, log)

	session, err := discord.New(cfg.DiscordToken, cfg.Timezone, log)
	if err != nil {
		log.Error().Err(err).Msg("discord session setup failed")
		return err
	}

	users := reconcile.NewUsers(st, api, session, log)
	channels := reconcile.NewChannels(st, api, session, cfg.StartDate(), log)
	mover := workflow.NewMover(users, channels, st, api, session, cfg.WorldCategory, cfg.AdminRole, log)
	clock := workflow.NewClock(st, api, session, log)

	dispatcher := commands.NewDispatcher(cfg.CommandPrefix, cfg.AdminRole, session, users, log)
	commands.New(cfg, api, users, channels, mover, clock, st, session, log).RegisterAll(dispatcher)

	events := discord.NewEvents(session, dispatcher, users, channels, st, api, log)
	events.Bind()

	server := ops.NewServer(ctx, cfg.GetHTTPAddr(), ops.NewRouter(st, log))
	errCh := ops.Serve(server, log)

	if err := session.Open(); err != nil {
		log.Error().Err(err).Msg("gateway connection failed")
		return err
	}
	defer func() { _ = session.Close() }()

	log.Info().
		Str("prefix", cfg.CommandPrefix).
		Str("backend_url", cfg.BackendURL).
		Str("db_path", cfg.DBPath).
		Msg("bot running")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops server forced to shut down")
			return err
		}
		log.Info().Msg("bot exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("ops server failed")
		return err
	}
}

// newProcessContext returns a context cancelled on SIGINT/SIGTERM.
func newProcessContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Package ops exposes the operational HTTP surface: liveness for the bot
// process and its local store, plus Prometheus metrics.
package ops

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/store"
)

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Time   string `json:"time"`
}

// NewRouter builds the ops router.
func NewRouter(st store.Store, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v0/health", healthHandler(st, log)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}

func healthHandler(st store.Store, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status: "ok",
			Store:  "ok",
			Time:   time.Now().UTC().Format(time.RFC3339),
		}
		code := http.StatusOK
		if err := st.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("store health check failed")
			resp.Status = "degraded"
			resp.Store = err.Error()
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// NewServer wraps the router in an http.Server bound to addr. The base
// context ties in-flight requests to the process lifetime.
func NewServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// Serve starts the server in the background and reports a fatal serve
// error on the returned channel.
func Serve(server *http.Server, log zerolog.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("ops server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

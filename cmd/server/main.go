package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/dgrieve/ironlance/internal/config"
	"github.com/dgrieve/ironlance/internal/handlers"
	"github.com/dgrieve/ironlance/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := config.Load("."); err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(config.GetString("logLevel")); err == nil {
		logger = logger.Level(level)
	}

	st, err := store.Open(config.GetString("sqlitePath"))
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	sessionHandler := &handlers.SessionHandler{
		Registry: handlers.NewRegistry(),
		Store:    st,
		Logger:   logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/sessions", sessionHandler.Create)
	mux.HandleFunc("GET /api/sessions/{id}", sessionHandler.Get)
	mux.HandleFunc("POST /api/sessions/{id}/advance", sessionHandler.Advance)
	mux.HandleFunc("POST /api/sessions/{id}/move", sessionHandler.Move)
	mux.HandleFunc("POST /api/sessions/{id}/skip-move", sessionHandler.SkipMove)
	mux.HandleFunc("POST /api/sessions/{id}/attack", sessionHandler.Attack)
	mux.HandleFunc("POST /api/sessions/{id}/end-turn", sessionHandler.EndTurn)
	mux.HandleFunc("POST /api/sessions/{id}/forfeit", sessionHandler.Forfeit)
	mux.HandleFunc("GET /api/sessions/{id}/events", sessionHandler.Events)
	mux.HandleFunc("GET /api/replays/{id}", sessionHandler.GetReplay)

	addr := config.GetString("listenAddr")
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

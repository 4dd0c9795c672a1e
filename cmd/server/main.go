package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pintlog-backend-go/internal/config"
	"pintlog-backend-go/internal/db"
	httpapi "pintlog-backend-go/internal/http"
	"pintlog-backend-go/internal/logging"
	"pintlog-backend-go/internal/migrations"
	"pintlog-backend-go/internal/services"
	"pintlog-backend-go/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, cleanupLogs, err := logging.Setup(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		logger.Warn().Err(err).Msg("log file setup failed, logging to stdout only")
	}
	defer cleanupLogs()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("timezone")
	}

	database, dialect, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db")
	}
	defer database.Close()
	if err := migrations.Apply(database, dialect); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	}

	server := httpapi.NewServer(cfg, store.NewSQL(database), services.SystemClock(loc), logger)

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("dialect", string(dialect)).Str("timezone", loc.String()).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	logger.Info().Msg("shutdown complete")
}

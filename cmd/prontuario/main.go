package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/odontocare/prontuario/internal/audit"
	"github.com/odontocare/prontuario/internal/config"
	"github.com/odontocare/prontuario/internal/remote"
	"github.com/odontocare/prontuario/internal/report"
	"github.com/odontocare/prontuario/internal/session"
	"github.com/odontocare/prontuario/internal/web"
)

func main() {
	cfg := loadConfig()

	log := newLogger(cfg.Server.Environment)
	log.Info().Str("environment", cfg.Server.Environment).Msg("starting prontuario service")

	sessions := session.NewFileStore(cfg.Session.FilePath, time.Duration(cfg.Session.FallbackTTL))

	apiClient := remote.NewClient(&remote.Config{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  time.Duration(cfg.API.Timeout),
		Sessions: sessions,
	})

	compiler := report.NewCompiler(report.Header{
		ClinicName:   cfg.Report.ClinicName,
		Registration: cfg.Report.Registration,
		Title:        cfg.Report.Title,
	})

	auditLog := audit.NewLogger(audit.Config{
		Enabled:  cfg.Audit.Enabled,
		FilePath: cfg.Audit.FilePath,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := auditLog.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start audit logger")
	}

	server := web.NewServer(cfg, apiClient, sessions, compiler, auditLog, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	auditLog.Stop()
	log.Info().Msg("stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("PRONTUARIO_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err == nil {
			return cfg
		}
		fmt.Fprintf(os.Stderr, "failed to load config from %s: %v, using env\n", configPath, err)
	}
	return config.LoadFromEnv()
}

func newLogger(environment string) zerolog.Logger {
	if environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

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
	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/adapters/chat"
	router "github.com/lolvely/blibot/internal/adapters/http"
	"github.com/lolvely/blibot/internal/adapters/riot"
	"github.com/lolvely/blibot/internal/app"
	"github.com/lolvely/blibot/internal/config"
	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	snap := store.NewSnapshot(cfg.DataDir)
	registry := app.NewRegistry(snap)
	defer registry.Close()

	client := chat.NewClient(cfg.APIBaseURL, cfg.Token)
	orch := &app.Orchestrator{
		Registry: registry,
		Roster:   core.NewRoster(cfg.Capacity, cfg.BandSize),
		Chat:     client,
		Backups:  store.NewBackups(cfg.BackupDir),
		ModRoles: cfg.ModRoleIDs,
	}
	orch.Recovery = &app.Recovery{Registry: registry, Chat: client}

	accounts := &app.AccountService{
		Store:    store.NewAccounts(cfg.DataDir),
		Verifier: riot.NewClient(cfg.RiotBaseURL, cfg.RiotAPIKey),
	}
	links := store.NewLinks(cfg.DataDir)

	// Reconcile restored sessions against live chat history before the
	// gateway starts pumping events.
	orch.Recovery.Reconcile(ctx)

	gateway := chat.NewGateway(cfg.GatewayURL, cfg.Token, cfg.ReadLimit, cfg.PingPeriod, client, orch, accounts, links)
	go gateway.Run(ctx)

	rules := make([]app.AnnounceRule, 0, len(cfg.Announce))
	for _, rule := range cfg.Announce {
		rules = append(rules, app.AnnounceRule(rule))
	}
	scheduler := &app.Scheduler{Orch: orch, Rules: rules}
	go scheduler.Run(ctx)

	r := router.SetupRouter(cfg.Mode, cfg.Secret, registry, orch)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("blibot started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

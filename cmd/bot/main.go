package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/trpg-session-engine/internal/app"
	"github.com/KirkDiggler/trpg-session-engine/internal/clients/dnd5e"
	"github.com/KirkDiggler/trpg-session-engine/internal/clients/openai"
	"github.com/KirkDiggler/trpg-session-engine/internal/config"
	"github.com/KirkDiggler/trpg-session-engine/internal/dice"
	"github.com/KirkDiggler/trpg-session-engine/internal/handlers/discord"
	"github.com/KirkDiggler/trpg-session-engine/internal/observe"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/combat"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/exploration"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/turn"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.ValidateBot(); err != nil {
		slog.Error("Invalid config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Bot stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mp, shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			logger.Warn("Failed to flush metrics", "err", err)
		}
	}()
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		return err
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warn("Failed to close stores", "err", err)
		}
	}()

	generator, err := openai.New(&openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return err
	}

	rules := cfg.Rules
	manager := turn.NewManager(&turn.ManagerConfig{
		Campaigns: stores.Campaigns,
		States:    stores.States,
		AI: ai.NewService(&ai.ServiceConfig{
			Generator: generator,
			Timeout:   cfg.AITimeout,
			Metrics:   metrics,
			Logger:    logger,
		}),
		Resolver: combat.NewResolver(&combat.ResolverConfig{
			Roller:           dice.NewRandomRoller(),
			Policy:           &rules.Critical,
			BaseTargetNumber: rules.BaseTargetNumber,
			Metrics:          metrics,
		}),
		Metrics:          metrics,
		Logger:           logger,
		MaxActionsPerDay: rules.MaxActionsPerDay,
		NPCBatch:         rules.NPCBatch,
	})

	importer, err := dnd5e.New(&dnd5e.Config{
		HttpClient: &http.Client{Timeout: 30 * time.Second},
	})
	if err != nil {
		return err
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return err
	}

	handler := discord.NewHandler(&discord.HandlerConfig{
		Manager:   manager,
		Campaigns: stores.Campaigns,
		Importer:  importer,
		Tracker:   exploration.NewTracker(rules.TrackerOptions()),
		Logger:    logger,
	})
	discord.NewAnnouncer(dg, logger).Subscribe(manager.Bus())
	dg.AddHandler(handler.HandleInteraction)

	if err := dg.Open(); err != nil {
		return err
	}
	defer func() {
		if err := dg.Close(); err != nil {
			logger.Warn("Failed to close Discord connection", "err", err)
		}
	}()

	if err := handler.RegisterCommands(dg, cfg.Discord.GuildID); err != nil {
		return err
	}
	if cfg.Discord.GuildID == "" {
		logger.Info("Registered global commands (may take up to 1 hour to propagate)")
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("Serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("Bot is now running. Press CTRL-C to exit.", "storage", stores.Backend)
	<-gctx.Done()
	logger.Info("Shutting down...")

	// Running sessions are written back so the next start resumes them
	for _, id := range manager.Sessions() {
		saveCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := manager.Save(saveCtx, id); err != nil {
			logger.Warn("Failed to save session", "session_id", id, "err", err)
		}
		cancel()
	}

	return g.Wait()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/specialist-gateway/gateway/internal/api"
	"github.com/specialist-gateway/gateway/internal/classifier"
	"github.com/specialist-gateway/gateway/internal/config"
	"github.com/specialist-gateway/gateway/internal/database"
	"github.com/specialist-gateway/gateway/internal/maintenance"
	"github.com/specialist-gateway/gateway/internal/orchestrator"
	"github.com/specialist-gateway/gateway/internal/projector"
	"github.com/specialist-gateway/gateway/internal/promptregistry"
	"github.com/specialist-gateway/gateway/internal/provider"
	"github.com/specialist-gateway/gateway/internal/specialist"
	"github.com/specialist-gateway/gateway/internal/statepipeline"
	"github.com/specialist-gateway/gateway/internal/statewriters"
	"github.com/specialist-gateway/gateway/internal/stickysession"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := cmd.Flags().GetString("config-dir")
			if err != nil {
				return &argError{err}
			}
			return runServe(configDir)
		},
	}
	return cmd
}

func runServe(configDir string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	catalog := specialist.NewCatalog(cfg.Specialists)

	domainKeys := make([]string, 0, catalog.Len())
	promptKeys := []string{"orchestrator", "classifier"}
	for _, e := range catalog.All() {
		domainKeys = append(domainKeys, string(e.Domain))
		promptKeys = append(promptKeys, e.PromptKey)
	}
	prompts := promptregistry.New(
		cfg.ResolvePath(cfg.Prompts.Directory),
		promptKeys,
		promptregistry.Builtins(domainKeys),
		cfg.Prompts.AutoReload,
		cfg.Prompts.WatchFS,
	)
	defer prompts.Close()

	router := buildProviderRouter(cfg)
	cls := classifier.New(router, catalog, cfg.Classifier.Model, cfg.Classifier.Temperature, cfg.Classifier.MaxTokens)
	sessions := stickysession.New(cfg.StickySession.HistorySize, cfg.StickySession.MaxSessions)

	var (
		dbClient    *database.Client
		coordinator *statepipeline.Coordinator
		turns       orchestrator.TurnRecorder = orchestrator.NoopTurnRecorder{}
	)

	if cfg.State.Enabled {
		dbClient, coordinator, err = wireStateSubsystem(cfg, router)
		if err != nil {
			return err
		}
		defer dbClient.Close()
		turns = statewriters.NewTurnWriter(dbClient.Pool)
	}

	orch := orchestrator.New(cls, catalog, prompts, sessions, router, turns)
	server := api.New(cfg, orch, coordinator, dbClient, catalog, prompts)

	var scheduler *maintenance.Scheduler
	if cfg.Maintenance.Enabled {
		scheduler, err = maintenance.New(cfg.Maintenance.Schedule, prompts, sessions, dbClient)
		if err != nil {
			return fmt.Errorf("starting maintenance scheduler: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if scheduler != nil {
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func buildProviderRouter(cfg *config.Config) *provider.Router {
	var openAI, gemini provider.Client

	if cfg.Providers.OpenAI != nil && cfg.Providers.OpenAI.APIKeyEnv != "" {
		if key := os.Getenv(cfg.Providers.OpenAI.APIKeyEnv); key != "" {
			openAI = provider.NewOpenAIClient(key, cfg.Providers.OpenAI.BaseURL)
		} else {
			slog.Warn("openai credentials not configured", "env", cfg.Providers.OpenAI.APIKeyEnv)
		}
	}

	geminiBaseURL := ""
	if cfg.Providers.Gemini != nil {
		geminiBaseURL = cfg.Providers.Gemini.BaseURL
		if cfg.Providers.Gemini.APIKeyEnv != "" {
			if key := os.Getenv(cfg.Providers.Gemini.APIKeyEnv); key != "" {
				if geminiCompatibleOpenAIShim(geminiBaseURL) {
					gemini = provider.NewOpenAIClient(key, geminiBaseURL)
				} else {
					gemini = provider.NewGeminiClient(key, geminiBaseURL, cfg.Providers.RequestTimeout)
				}
			} else {
				slog.Warn("gemini credentials not configured", "env", cfg.Providers.Gemini.APIKeyEnv)
			}
		}
	}

	return provider.NewRouter(openAI, gemini, geminiBaseURL)
}

func geminiCompatibleOpenAIShim(baseURL string) bool {
	return strings.Contains(baseURL, "/openai")
}

func wireStateSubsystem(cfg *config.Config, router *provider.Router) (*database.Client, *statepipeline.Coordinator, error) {
	dsn := os.Getenv(cfg.State.DSNEnv)
	if dsn == "" {
		return nil, nil, fmt.Errorf("state subsystem enabled but %s is not set", cfg.State.DSNEnv)
	}

	dbClient, err := database.NewClient(context.Background(), database.Config{
		DSN:                 dsn,
		ConnectTimeout:      cfg.State.ConnectTimeout,
		AutoMigrate:         cfg.State.AutoMigrate,
		MinSupportedVersion: cfg.State.MinSupportedVersion,
		MaxSupportedVersion: cfg.State.MaxSupportedVersion,
		MaxOpenConns:        cfg.State.MaxOpenConns,
		MaxIdleConns:        cfg.State.MaxIdleConns,
		ConnMaxLifetime:     cfg.State.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to state store: %w", err)
	}

	fetcher := statepipeline.NewContextFetcher(dbClient.Pool, cfg.State.ContextCheckinLimit, cfg.State.ContextJournalLimit)
	decider := statepipeline.NewDecisionEngine(router, cfg.State.DecisionModel, cfg.State.MaxJSONRetries)
	checkins := statewriters.NewCheckinWriter(dbClient.Pool)
	journals := statewriters.NewJournalWriter(dbClient.Pool)
	memories := statewriters.NewMemoryWriter(dbClient.Pool)

	var proj statepipeline.Projector
	if cfg.State.Projection != "" && cfg.State.Projection != string(projector.ModeOff) {
		proj = projector.New(cfg.ResolvePath(cfg.State.ProjectionRoot), projector.Mode(cfg.State.Projection))
	}

	coordinator := statepipeline.NewCoordinator(fetcher, decider, checkins, journals, memories, proj, cfg.State.OnFailure, slog.Default())
	return dbClient, coordinator, nil
}

// Command garden-advisor runs the gardening agent: an HTTP/WebSocket gateway
// in front of the reasoning loop, with persistent memory and reminders.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	chromemdb "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Aryok23/garden-advisor/advisor"
	"github.com/Aryok23/garden-advisor/config"
	"github.com/Aryok23/garden-advisor/engine"
	"github.com/Aryok23/garden-advisor/gateway"
	"github.com/Aryok23/garden-advisor/llm"
	"github.com/Aryok23/garden-advisor/memory"
	chromemstore "github.com/Aryok23/garden-advisor/memory/store/chromem"
	"github.com/Aryok23/garden-advisor/planner"
	"github.com/Aryok23/garden-advisor/rag"
	"github.com/Aryok23/garden-advisor/tools"
)

func main() {
	root := &cobra.Command{
		Use:   "garden-advisor",
		Short: "Smart garden advisor agent",
	}
	root.AddCommand(serveCmd(), indexCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func newBackend(cfg *config.Config) llm.Backend {
	if cfg.UseMockLLM {
		log.Warn().Msg("using mock model backend; answers are canned")
		return llm.NewMock(llm.TextMessage(
			"This instance runs without a model backend, so I can only give canned advice: " +
				"water when the top inch of soil is dry."))
	}
	return llm.NewAnthropicFromKey(cfg.AnthropicAPIKey)
}

func newRetriever(cfg *config.Config, embedder memory.Embedder) (*rag.Retriever, error) {
	db, err := chromemdb.NewPersistentDB(filepath.Join(cfg.DataDir, "knowledge"), false)
	if err != nil {
		return nil, err
	}
	return rag.New(db, embedder, cfg.RelevanceThreshold), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the advisor gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)

			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			backend := newBackend(cfg)
			embedder, err := newEmbedder()
			if err != nil {
				return err
			}

			store, err := chromemstore.NewPersistent(filepath.Join(cfg.DataDir, "memory"))
			if err != nil {
				return err
			}
			manager := memory.NewManager(store, embedder, memory.Config{
				Enabled:       true,
				MinSimilarity: cfg.MinSimilarity,
				RecallLimit:   3,
			})

			retriever, err := newRetriever(cfg, embedder)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := retriever.EnsureSeeded(ctx); err != nil {
				return err
			}
			if cfg.CorpusDir != "" {
				n, err := retriever.IndexDir(ctx, cfg.CorpusDir)
				if err != nil {
					return err
				}
				log.Info().Int("documents", n).Str("dir", cfg.CorpusDir).Msg("corpus indexed")
			}

			reminders, err := tools.NewReminderStore(filepath.Join(cfg.DataDir, "reminders.db"), cfg.DedupeWindow)
			if err != nil {
				return err
			}
			defer reminders.Close()

			registry := engine.NewToolRegistry()
			registry.Register(tools.NewCalculator(), reminders.Tool())

			var weather *tools.WeatherClient
			if cfg.WeatherAPIKey != "" {
				weather = tools.NewWeatherClient(tools.WeatherConfig{APIKey: cfg.WeatherAPIKey})
				registry.Register(weather.Tool())
			} else {
				log.Warn().Msg("OPENWEATHER_API_KEY not set; weather tool disabled")
			}
			if cfg.SearchEnabled {
				registry.Register(tools.NewSearchClient(tools.SearchConfig{Enabled: true}).Tool())
			}

			eng := engine.NewEngine(backend, registry,
				engine.WithModel(cfg.Model),
				engine.WithMaxSteps(cfg.MaxSteps),
				engine.WithBudget(cfg.TurnBudget),
			)
			var reflector *engine.Reflector
			if cfg.ReflectionEnabled {
				reflector = engine.NewReflector(backend, cfg.Model)
			}

			adv := advisor.New(advisor.Deps{
				Engine:    eng,
				Planner:   planner.New(backend, cfg.Model),
				Reflector: reflector,
				Memory:    manager,
				Window:    memory.NewWindow(cfg.ShortTermWindow),
				Knowledge: retriever,
				Reminders: reminders,
				Weather:   weather,
			})

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           gateway.New(adv).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Str("tools", fmt.Sprint(registry.Names())).Msg("gateway listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [dir]",
		Short: "Index a plant knowledge corpus",
		Long:  "Seeds the built-in knowledge base and indexes .txt/.md files from the given directory (or CORPUS_DIR).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)

			embedder, err := newEmbedder()
			if err != nil {
				return err
			}
			retriever, err := newRetriever(cfg, embedder)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := retriever.EnsureSeeded(ctx); err != nil {
				return err
			}

			dir := cfg.CorpusDir
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				log.Info().Msg("no corpus directory given; seeded built-in knowledge only")
				return nil
			}

			n, err := retriever.IndexDir(ctx, dir)
			if err != nil {
				return err
			}
			log.Info().Int("documents", n).Str("dir", dir).Msg("corpus indexed")
			return nil
		},
	}
}

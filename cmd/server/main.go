package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fairytale-chat/internal/api"
	"fairytale-chat/internal/assistant"
	"fairytale-chat/internal/config"
	"fairytale-chat/internal/db"
	"fairytale-chat/internal/knowledge"
	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/mailer"
	"fairytale-chat/internal/persona"
	"fairytale-chat/internal/session"
	"fairytale-chat/internal/watcher"
)

var version = "0.1.0"

var (
	port        string
	settingsDir string
	dbPath      string
	staticDir   string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "fairytale-chat",
	Short: "Fairytale Farms chat and order server",
	Long: `Serves the persona chat relay, the order email relay and the
session API used by the Fairytale Farms web client.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("fairytale-chat v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides PORT)")
	rootCmd.Flags().StringVar(&settingsDir, "settings-dir", "", "Directory holding secrets/vendors.yaml (overrides SETTINGS_DIR)")
	rootCmd.Flags().StringVar(&dbPath, "db-path", "", "SQLite database file (overrides DB_PATH)")
	rootCmd.Flags().StringVar(&staticDir, "static-dir", "", "Frontend build directory (overrides STATIC_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error) [default: info]")

	rootCmd.AddCommand(versionCmd)
}

func runServer(cmd *cobra.Command, _ []string) error {
	if settingsDir != "" {
		os.Setenv("SETTINGS_DIR", settingsDir)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg)
	logger.Configure(cfg.LogLevel)

	// Child loggers copy the root level, so none may be derived before Configure
	log := logger.With("Server")

	// Initialize database
	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database migrated successfully", "path", cfg.DBPath)

	// Chat vendors: Anthropic first, OpenAI as fallback
	primary := assistant.NewAnthropicVendor(cfg.Anthropic.APIKey,
		assistant.WithModel(cfg.Anthropic.Model),
		assistant.WithMaxTokens(cfg.Anthropic.MaxTokens),
		assistant.WithBaseURL(cfg.Anthropic.BaseURL),
		assistant.WithTimeout(cfg.VendorTimeout),
	)
	secondary := assistant.NewOpenAIVendor(cfg.OpenAI.APIKey,
		assistant.WithModel(cfg.OpenAI.Model),
		assistant.WithMaxTokens(cfg.OpenAI.MaxTokens),
		assistant.WithTemperature(*cfg.OpenAI.Temperature),
		assistant.WithBaseURL(cfg.OpenAI.BaseURL),
		assistant.WithTimeout(cfg.VendorTimeout),
	)
	relay := assistant.NewRelay(primary, secondary)
	if !relay.Configured() {
		log.Warn("No chat vendor key configured, chat requests will fail")
	}
	log.Info("Chat relay initialized", "anthropic", primary.Configured(), "openai", secondary.Configured())

	// Order email
	var resendOpts []mailer.ClientOption
	if cfg.Resend.BaseURL != "" {
		resendOpts = append(resendOpts, mailer.WithBaseURL(cfg.Resend.BaseURL))
	}
	orderMailer := mailer.New(mailer.NewClient(cfg.Resend.APIKey, resendOpts...), cfg.Resend.From, database)
	if !orderMailer.Configured() {
		log.Warn("RESEND_API_KEY not configured, order emails will fail")
	}

	// Sessions
	registry := persona.Default()
	broadcaster := api.NewEventBroadcaster()
	manager := session.NewManager(session.Deps{
		Registry:    registry,
		Injector:    knowledge.NewInjector(knowledge.Default()),
		Relay:       relay,
		Backend:     database,
		Publisher:   broadcaster,
		SwitchDelay: cfg.SwitchDelay,
	})

	// Idle sessions leave memory; they are restored from the database on demand
	sessionWatcher := watcher.NewSessionWatcher(cmd.Context(), manager, cfg.SweepInterval, cfg.SessionIdleTTL)
	sessionWatcher.Start()
	defer sessionWatcher.Stop()

	router := api.NewRouter(api.RouterDeps{
		Registry:       registry,
		Relay:          relay,
		Sender:         orderMailer,
		OrderRecipient: cfg.OrderRecipient,
		Manager:        manager,
		Broadcaster:    broadcaster,
		Orders:         database,
		StaticDir:      cfg.StaticDir,
	})

	// No WriteTimeout: SSE streams stay open
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "version", version)
		log.Info("Static files served from", "dir", cfg.StaticDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

// applyFlags lets command line flags win over environment and secrets
func applyFlags(cfg *config.Config) {
	if port != "" {
		cfg.Port = port
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if staticDir != "" {
		cfg.StaticDir = staticDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/classify"
	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/db"
	"github.com/jonathan/persona-engine/internal/engine"
	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/observability"
	"github.com/jonathan/persona-engine/internal/server"
	"github.com/jonathan/persona-engine/internal/session"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running diagnosis sessions.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file")
	rootCmd.AddCommand(serveCmd)
}

// loadConfig assembles the effective configuration: file, then environment,
// then defaults, then flags.
func loadConfig() (config.Config, error) {
	cfg := config.Config{}
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}
	defer client.Close()

	var recordOut io.Writer
	if cfg.Verbose {
		recordOut = os.Stderr
	}
	collector := observability.NewCollector(recordOut)
	defer collector.Close()

	orch := failover.New(client, collector,
		failover.WithTimeout(time.Duration(cfg.GenerationTimeoutMS)*time.Millisecond),
		failover.WithBackoff(time.Duration(cfg.GenerationBackoffMS)*time.Millisecond),
	)
	classifier := classify.New(orch,
		classify.WithTiePolicy(classify.TiePolicyByName(cfg.TiePolicy)),
		classify.WithBannedTerms(cfg.BannedTerms),
	)
	store := session.NewStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	defer store.Close()

	eng := engine.New(orch, classifier, store)

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	} else {
		log.Println("DATABASE_URL not set, running without persistence")
	}

	srv, err := server.New(server.Config{Port: cfg.Port}, eng, collector, database)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/classify"
	"github.com/jonathan/persona-engine/internal/engine"
	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/observability"
	"github.com/jonathan/persona-engine/internal/session"
)

var (
	diagnoseSeed    string
	diagnoseChoices string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run one diagnosis from the command line",
	Long: `Bootstrap a session for a seed keyword, answer the four scenes, and print
the result as JSON. Choices are given as a comma-separated list of choice ids
in scene order; omitted scenes take the first choice.`,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseSeed, "seed", "", "Seed keyword (required)")
	diagnoseCmd.Flags().StringVar(&diagnoseChoices, "choices", "", "Comma-separated choice ids in scene order")
	_ = diagnoseCmd.MarkFlagRequired("seed")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(_ *cobra.Command, _ []string) error {
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

	collector := observability.NewCollector(os.Stderr)
	defer collector.Close()

	orch := failover.New(client, collector,
		failover.WithTimeout(time.Duration(cfg.GenerationTimeoutMS)*time.Millisecond),
		failover.WithBackoff(time.Duration(cfg.GenerationBackoffMS)*time.Millisecond),
	)
	store := session.NewStore(0)
	defer store.Close()
	eng := engine.New(orch, classify.New(orch), store)

	sess := eng.Bootstrap(ctx, diagnoseSeed)

	var picked []string
	if diagnoseChoices != "" {
		picked = strings.Split(diagnoseChoices, ",")
	}
	for i, scene := range sess.Scenes {
		choiceID := scene.Choices[0].ID
		if i < len(picked) && strings.TrimSpace(picked[i]) != "" {
			choiceID = strings.TrimSpace(picked[i])
		}
		if err := eng.RecordChoice(sess.ID, i+1, choiceID); err != nil {
			return fmt.Errorf("scene %d: %w", i+1, err)
		}
	}

	result, err := eng.ComputeResult(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to compute result: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

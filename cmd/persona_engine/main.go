// Package main provides the entry point for the persona engine HTTP API
// server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "persona_engine",
	Short: "Personality diagnosis engine",
	Long:  "Persona Engine runs keyword-seeded personality diagnoses: it generates axes and scenario questions, scores answers, and names dynamic personality types, degrading to deterministic fallbacks when the generation service misbehaves.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

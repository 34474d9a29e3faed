// Package cmd contains the Lectern command-line interface.
//
// Commands:
//   - serve: ingest the docs folder and run the HTTP API
//   - ask: answer a single question from the terminal
//   - ingest: load course documents without serving
//   - version: show version and configuration
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lecternhq/lectern/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern answers questions about course materials",
	Long: `Lectern ingests course documents into a semantic store and answers
questions about them through a tool-calling AI model.

Run 'lectern serve' to start the HTTP API, or 'lectern ask' for a
one-shot answer from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.
func Execute() error {
	slog.SetDefault(initLogger())
	return rootCmd.Execute()
}

// initLogger builds the process logger. DEBUG in the environment enables
// debug level; logs go to stderr so stdout stays clean for answers.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

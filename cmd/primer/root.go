package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/config"
	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/server"
	"github.com/jackzampolin/primer/internal/svcctx"
	"github.com/jackzampolin/primer/internal/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "primer",
	Short: "Textbook catalog extraction and knowledge point segmentation",
	Long: `Primer turns the per-page text of a scanned textbook into a catalog: a
chapter/section tree whose leaves point at the physical page files holding
their content.

The pipeline:
  - Read the table of contents from the first pages with an LLM
  - Resolve the printed-to-physical page offset from the first leaf
  - Reconcile every node against the page files and record diagnostics
  - Extract knowledge points for each leaf (segment)

Books live in <home>/uploads/<name>_dir/ with their pages in text_dir/.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.primer/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", os.Getenv("PRIMER_HOME"), "primer home directory (default: ~/.primer)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadConfig reads --config, ./config.yaml or <home>/config.yaml, in that
// order, and validates the result.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	if err := mgr.Get().Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", mgr.ConfigFileUsed(), err)
	}
	return mgr, nil
}

// localServices wires the same services the server uses, for commands that
// run stages in-process.
func localServices() (*svcctx.Services, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	mgr, err := loadConfig(h)
	if err != nil {
		return nil, err
	}
	return server.NewServices(server.Config{
		Home:          h,
		ConfigManager: mgr,
		Logger:        newLogger(),
	}), nil
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dat/internal/config"
	"dat/internal/logging"
)

type app struct {
	cfgPath string
	cfg     *config.AppConfig
	logger  *slog.Logger

	minimumWords int
	store        string
	outputDir    string
	idColumn     string
	separator    string
	noHeader     bool
}

func main() {
	_ = godotenv.Load()

	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "dat",
		Short:         "Divergent Association Task scorer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "Path to YAML config file (optional; uses ./dat.yaml or ~/.config/dat/config.yaml if not provided)")
	flags.IntVar(&a.minimumWords, "minimum-words", 0, "Number of valid words scored per answer")
	flags.StringVar(&a.store, "store", "", "Vector database path")

	rootCmd.AddCommand(
		buildCmd(a),
		scoreCmd(a),
		checkCmd(a),
		tuiCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.cfgPath == "" {
		a.cfg, _, err = config.LoadDefault()
	} else {
		a.cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := os.Getenv("DAT_LOG_LEVEL"); lvl != "" {
		a.cfg.LogLevel = lvl
	}
	a.logger = logging.Configure(a.cfg.LogLevel, os.Stderr)

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("minimum-words") {
		a.cfg.Scoring.MinimumWords = a.minimumWords
	}
	if changed("store") {
		a.cfg.VectorStore.Path = a.store
	}
	if changed("output-dir") {
		a.cfg.Output.Dir = a.outputDir
	}
	if changed("id-column") {
		a.cfg.Input.IDColumn = a.idColumn
	}
	if changed("separator") {
		a.cfg.Input.Separator = a.separator
	}
	if changed("no-header") && a.noHeader {
		header := false
		a.cfg.Input.Header = &header
	}
	return a.cfg.Validate()
}

// inputFlags registers the options that describe the respondent file.
func (a *app) inputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.idColumn, "id-column", "", "Respondent id column: header name or 1-based #N (default: generated ids)")
	cmd.Flags().StringVar(&a.separator, "separator", "", "CSV separator character")
	cmd.Flags().BoolVar(&a.noHeader, "no-header", false, "Treat the first row as data")
}

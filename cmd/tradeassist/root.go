package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/tradeassist/internal/app"
	"github.com/alanyoungcy/tradeassist/internal/config"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	target     string
	digest     bool

	cfg    *config.Config
	logger *slog.Logger
	app    *app.App
}

// newRootCmd builds the command tree. The caller must call close on the
// returned options once Execute returns, whether or not it failed.
func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tradeassist",
		Short:         "Read positions, trade history and live prices for a trading agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.toml", "path to configuration file")
	flags.StringVar(&opts.target, "target", "", "database connection string (defaults to the configured database)")
	flags.BoolVar(&opts.digest, "digest", false, "print a plain-text digest instead of JSON")

	cmd.AddCommand(
		newServeCmd(opts),
		newPositionsCmd(opts),
		newHistoryCmd(opts),
		newQueryCmd(opts),
		newPriceCmd(opts),
		newSnapshotCmd(opts),
	)
	return cmd, opts
}

// setup loads and validates the configuration and builds the logger and App.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", o.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	slog.SetDefault(o.logger)
	o.app = app.New(cfg, o.logger)
	return nil
}

// close releases everything the App opened. It is a no-op before setup.
func (o *rootOptions) close() {
	if o.app != nil {
		o.app.Close()
	}
}

// resolveTarget returns the --target flag or the configured database.
func (o *rootOptions) resolveTarget(deps *app.Dependencies) string {
	if strings.TrimSpace(o.target) != "" {
		return o.target
	}
	return deps.Target
}

// newLogger builds the structured JSON logger at the configured level.
func newLogger(w io.Writer, levelName string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

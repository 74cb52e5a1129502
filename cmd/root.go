package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/victorlunam/spcheck/internal/config"
	"github.com/victorlunam/spcheck/internal/logger"
	"github.com/victorlunam/spcheck/internal/reconciler"
	"github.com/victorlunam/spcheck/internal/runner"
	"github.com/victorlunam/spcheck/internal/ui"
	"go.uber.org/zap"
)

type flags struct {
	ascii    bool
	create   bool
	update   bool
	contexts []string
	pick     bool
}

var opts flags

var rootCmd = newRootCmd(&opts)

func newRootCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spcheck",
		Short: "Compare local stored procedure files with SQL Server",
		Long: `spcheck compares every <name>.sql file under BasePath with the definition
of the stored procedure <name> on each configured server.

Examples:
  # Report differences only
  spcheck

  # Create procedures missing on the server and update the ones that differ
  spcheck --create --update

  # Only check two servers
  spcheck --context prod,test`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().BoolVar(&f.ascii, "ascii", false, "Show ASCII codes of differences")
	cmd.Flags().BoolVar(&f.create, "create", false, "Create missing elements")
	cmd.Flags().BoolVar(&f.update, "update", false, "Update existing elements")
	cmd.Flags().StringSliceVar(&f.contexts, "context", nil, "Restrict execution to one or more contexts (comma separated)")
	cmd.Flags().BoolVar(&f.pick, "select", false, "Pick the servers to check interactively, starting from --context")
	cmd.Flags().String("config", "config.json", "Path of the run configuration")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "console", "Log format (console, json)")

	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	settings, err := config.LoadSettings(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	l, err := logger.New(logger.Config{Level: settings.LogLevel, Format: settings.LogFormat})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, settings.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	include := f.contexts
	if f.pick {
		include, err = ui.SelectServers(cfg.Servers, f.contexts)
		if err != nil {
			return err
		}
		if len(include) == 0 {
			return ui.ErrSelectionCancelled
		}
	}

	l.Debug("Starting run",
		zap.String("config", settings.ConfigFile),
		zap.String("base_path", cfg.BasePath),
		zap.Bool("create", f.create),
		zap.Bool("update", f.update),
		zap.Strings("include", include),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := runner.New(cfg, runner.Options{
		Mode:    reconciler.Mode{Create: f.create, Update: f.update},
		Include: include,
	}, fs, runner.ConnectDatabase, ui.NewConsoleReporter(cmd.OutOrStdout(), f.ascii), l)

	return runner.Check(r.Run(ctx))
}

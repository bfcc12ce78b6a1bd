// Package cmd defines the CLI commands for the pdftextapi executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/config"
	"github.com/einantonio/pdf-text-api/internal/logging"
	"github.com/einantonio/pdf-text-api/internal/server"
)

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const (
	appKey    appKeyType = "app"
	loggerKey appKeyType = "logger"
)

// newApp builds the application for a command. Tests replace it with a stub factory.
var newApp = func(cfgPath string) (*server.App, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("logger init: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return server.New(cfg, logger), logger, nil
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "pdftextapi",
		Short: "Extracts plain text from documents and job postings.",
		Long: `pdftextapi extracts normalized text from PDF and DOCX documents fetched by
URL, and from job posting pages, either by scraping their static HTML or by
running a remote crawl for boards that render client-side.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Runs before every subcommand so each gets a fully wired App.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, logger, err := newApp(cfgFile)
			if err != nil {
				return err
			}
			ctx := context.WithValue(cmd.Context(), appKey, app)
			ctx = context.WithValue(ctx, loggerKey, logger)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if logger, ok := cmd.Context().Value(loggerKey).(*zap.Logger); ok && logger != nil {
				_ = logger.Sync() //nolint:errcheck // best-effort flush
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env vars use the "+config.EnvPrefix+"_ prefix")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newJobTextCmd())
	return cmd
}

func resolveApp(ctx context.Context) (*server.App, error) {
	app, ok := ctx.Value(appKey).(*server.App)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}

// Execute is the main entry point.
func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	if err := root.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/belaz/internal/config"
	"github.com/vvka-141/belaz/internal/db"
	"github.com/vvka-141/belaz/internal/extract"
	"github.com/vvka-141/belaz/internal/loader"
	"github.com/vvka-141/belaz/internal/logging"
	"github.com/vvka-141/belaz/internal/report"
	"github.com/vvka-141/belaz/internal/services"
	"github.com/vvka-141/belaz/pkg/belaz"
)

var rootFlags struct {
	configFile string
	dryRun     bool
	tables     []string
}

var rootCmd = &cobra.Command{
	Use:   "belaz --config_file=<path>",
	Short: "Load BSON dumps into PostgreSQL staging tables",
	Long: `belaz reads concatenated BSON documents (as written by mongodump) and
replaces the contents of PostgreSQL staging tables with them.

Every table flagged with dump_flag "1" in the config file is truncated and
reloaded in one transaction. A table that fails is reported and skipped;
the remaining tables are still loaded.

Examples:
  belaz --config_file=belaz.json
  belaz --config_file=belaz.yaml --table users --table orders
  belaz --config_file=belaz.json --dry-run > load.sql

Exit Codes:
  0  - Success (per-table failures are listed in the summary)
  1  - General error
  2  - CLI usage error (missing --config_file or stray arguments)
  3  - Panic or unexpected system error
  10 - Invalid configuration`,
	Args:         requireNoArgs,
	RunE:         runLoad,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.Flags().StringVar(&rootFlags.configFile, "config_file", "",
		"Path to the load descriptor (.json, .yaml or .yml)")
	rootCmd.Flags().BoolVar(&rootFlags.dryRun, "dry-run", false,
		"Print the SQL that would run instead of connecting to the database")
	rootCmd.Flags().StringSliceVar(&rootFlags.tables, "table", nil,
		"Load only the named table (repeatable; must be flagged in the config)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return fmt.Errorf("%w: %w", belaz.ErrUsage, err)
	})
}

// requireNoArgs rejects positional arguments; everything is passed by flag.
func requireNoArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		_ = cmd.Usage()
		return fmt.Errorf("unexpected argument %q (use --config_file=<path>): %w", args[0], belaz.ErrUsage)
	}
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	if rootFlags.configFile == "" {
		_ = cmd.Usage()
		return fmt.Errorf("missing required flag --config_file: %w", belaz.ErrUsage)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(rootFlags.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Select(rootFlags.tables); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)
	out := cmd.OutOrStdout()

	svc := services.NewLoadService(
		db.NewConnector,
		extract.NewBSONExtractor(),
		loader.NewPostgresLoader(cfg.BatchSize, logger),
		logger,
		out,
	)

	rep, err := svc.Run(ctx, belaz.RunOptions{
		Connection: cfg.Connection,
		Jobs:       cfg.Jobs,
		BatchSize:  cfg.BatchSize,
		DryRun:     rootFlags.dryRun,
	})
	if err != nil {
		return err
	}

	// The statements themselves go to stdout in dry-run mode.
	summaryOut := out
	if rootFlags.dryRun {
		summaryOut = cmd.ErrOrStderr()
	}
	return report.Write(summaryOut, rep, styleFor(summaryOut))
}

func styleFor(w any) report.Style {
	if f, ok := w.(*os.File); ok {
		return report.DetectStyle(f)
	}
	return report.StylePlain
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

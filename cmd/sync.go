package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"spoolsync/core/config"
	"spoolsync/core/engine"
	"spoolsync/core/logger"
	"spoolsync/core/spoolman"
	"spoolsync/core/status"
	"spoolsync/core/updater"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	outputDir      string
	slicerName     string
	spoolmanURL    string
	templateRoot   string
	runUpdates     bool
	variantList    string
	deleteAll      bool
	additiveOnly   bool
	createPerSpool string
	verbose        bool
)

// syncCmd runs the reconciliation, once or continuously.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize slicer filament configs from Spoolman",
	Long: `Fetch filaments from Spoolman and write one slicer config file per
active filament (or per spool, see --create-per-spool), rendered from
the template directory for the selected slicer.

Examples:
  # One-shot sync into SuperSlicer's filament dir
  spoolsync sync -d ~/.config/SuperSlicer/filament

  # Keep running and react to Spoolman changes
  spoolsync sync -d ~/.config/SuperSlicer/filament --updates

  # One config per printer
  spoolsync sync -d ./out --variants voron,mini

  # One config per spool
  spoolsync sync -d ./out --create-per-spool all`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&outputDir, "dir", "d", "", "the slicer's filament config dir (required)")
	syncCmd.Flags().StringVarP(&slicerName, "slicer", "s", "", "the slicer (superslicer, prusaslicer, slic3r, orcaslicer)")
	syncCmd.Flags().StringVarP(&spoolmanURL, "url", "u", "", "URL for the Spoolman installation")
	syncCmd.Flags().StringVar(&templateRoot, "template-root", "", "directory holding the templates-<slicer> dirs")
	syncCmd.Flags().BoolVarP(&runUpdates, "updates", "U", false, "keep running and re-sync on Spoolman changes")
	syncCmd.Flags().StringVarP(&variantList, "variants", "V", "", "comma-separated variant labels, one config set per label")
	syncCmd.Flags().BoolVarP(&deleteAll, "delete-all", "D", false, "delete all filament configs before adding current ones")
	syncCmd.Flags().BoolVar(&additiveOnly, "additive-only", false, "never delete stale configs, only create and update")
	syncCmd.Flags().StringVar(&createPerSpool, "create-per-spool", "", "one config per spool: all, least-left or most-recent")
	syncCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = syncCmd.MarkFlagRequired("dir")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	client := spoolman.NewClient(cfg.Spoolman, l)

	eng, err := engine.New(cfg.Sync, client, client.BaseURL(), l)
	if err != nil {
		return err
	}

	loop := updater.New(cfg.Updates, eng, updater.SpoolmanSubscriber(client), l)

	if !cfg.Updates.Continuous {
		summary, err := loop.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		reportSummary(l, summary)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := status.New(cfg.Status, loop, l)
	if srv.Enabled() {
		go func() {
			if err := srv.Listen(); err != nil {
				l.Error("Status server failed", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Shutdown() }()
	}

	loop.OnSummary(func(s *engine.SyncSummary) { reportSummary(l, s) })

	if err := loop.Run(ctx); err != nil {
		return err
	}
	l.Info("Shutting down gracefully")
	return nil
}

// applyFlags lets explicit command-line flags override env/file config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("dir") {
		cfg.Sync.OutputDir = outputDir
	}
	if cmd.Flags().Changed("slicer") {
		cfg.Sync.Slicer = slicerName
	}
	if cmd.Flags().Changed("url") {
		cfg.Spoolman.URL = spoolmanURL
	}
	if cmd.Flags().Changed("template-root") {
		cfg.Sync.TemplateRoot = templateRoot
	}
	if cmd.Flags().Changed("variants") {
		cfg.Sync.Variants = variantList
	}
	if cmd.Flags().Changed("delete-all") {
		cfg.Sync.DeleteAll = deleteAll
	}
	if cmd.Flags().Changed("additive-only") {
		cfg.Sync.AdditiveOnly = additiveOnly
	}
	if cmd.Flags().Changed("create-per-spool") {
		cfg.Sync.PerSpool = createPerSpool
	}
	if cmd.Flags().Changed("updates") {
		cfg.Updates.Continuous = runUpdates
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
}

func reportSummary(l *zap.Logger, s *engine.SyncSummary) {
	fields := []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("deleted", s.Deleted),
		zap.Int("unchanged", s.Unchanged),
	}
	if s.OK() {
		l.Info("Sync summary", fields...)
		return
	}
	l.Warn("Sync summary (with errors)", append(fields, zap.Int("errors", len(s.Errors)))...)
	for _, fe := range s.Errors {
		l.Warn("Sync error",
			zap.String("path", fe.Path),
			zap.Int("filament_id", fe.FilamentID),
			zap.String("error", fe.Message),
		)
	}
}

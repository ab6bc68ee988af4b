// Package main is the CLI entry point for diskclean.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
	"github.com/eliteGoblin/focusd/disk_clean/internal/infra"
	"github.com/eliteGoblin/focusd/disk_clean/internal/policy"
	"github.com/eliteGoblin/focusd/disk_clean/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "diskclean",
	Short: "Disk cleaner - finds and removes disposable files",
	Long: `diskclean scans the system volume for disposable artifacts (temp files,
caches, logs, crash dumps, update leftovers, ...) and removes the ones you select.

Runs are simulated unless --no-simulate is given. Live runs back up every
deleted file into a timestamped snapshot that 'diskclean backup restore' can
put back.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

// Persistent flags shared by every command.
var (
	flagSimulate      bool
	flagNoSimulate    bool
	flagBackup        bool
	flagNoBackup      bool
	flagBackupDir     string
	flagMaxBackups    int
	flagMaxBackupSize string
	flagLogFile       string
	flagVerbose       bool
	jsonOutput        bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagSimulate, "simulate", true, "Only report what would be freed")
	pf.BoolVar(&flagNoSimulate, "no-simulate", false, "Really delete files")
	pf.BoolVar(&flagBackup, "backup", true, "Back up files before deleting them")
	pf.BoolVar(&flagNoBackup, "no-backup", false, "Delete without a backup snapshot")
	pf.StringVar(&flagBackupDir, "backup-dir", "", "Backup root (default: a non-system volume, else <temp>/DiskClean_Backup)")
	pf.IntVar(&flagMaxBackups, "max-backups", domain.DefaultMaxBackups, "Snapshots to keep")
	pf.StringVar(&flagMaxBackupSize, "max-backup-size", humanize.IBytes(domain.DefaultMaxBackupSize), "Total size of all snapshots, e.g. 500MB or 2GiB")
	pf.StringVar(&flagLogFile, "log-file", "", "Structured log file (default: <data dir>/diskclean.log)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging, also on stderr")

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(diskCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// app is the wired engine plus the infrastructure commands need directly.
type app struct {
	paths   domain.ResolvedPaths
	engine  *usecase.Engine
	store   *infra.SnapshotStore
	metrics *infra.Metrics
	logger  *zap.Logger
}

// newApp wires the engine from the host environment and the persistent flags.
func newApp(cmd *cobra.Command) (*app, error) {
	paths := infra.ResolvePaths()

	logCfg := infra.DefaultLogConfig(paths.DataDir)
	if flagLogFile != "" {
		logCfg.File = flagLogFile
	}
	logCfg.Verbose = flagVerbose
	logger, _, err := infra.NewLogger(logCfg)
	if err != nil {
		// Fallback to stderr if file logging fails
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		logCfg.File = ""
		if logger, _, err = infra.NewLogger(logCfg); err != nil {
			return nil, err
		}
	}

	opts := domain.DefaultOptions(paths.DefaultBackupDir)
	base := policy.DefaultGuard(paths)
	store := infra.NewSnapshotStore(infra.BackupStoreConfig{
		Dir:        opts.BackupDir,
		VolumeRoot: paths.VolumeRoot,
		MaxBackups: opts.MaxBackups,
		MaxSize:    opts.MaxBackupSize,
	}, base, logger)
	// Scans and cleans never descend into the backup root, wherever it moves.
	guard := policy.Exclude(base, func() []string { return []string{store.Dir()} })
	registry := policy.NewRegistry(paths, guard)
	metrics := infra.NewMetrics()

	engine := usecase.NewEngine(usecase.EngineDeps{
		Paths:    paths,
		Registry: registry,
		Guard:    guard,
		Deleter:  infra.NewDeleter(paths, logger),
		Bin:      infra.NewRecycleBin(paths),
		Store:    store,
		Disk:     infra.NewDiskStats(),
		Procs:    infra.NewProcessManager(),
		Recorder: metrics,
		Scanner:  usecase.DefaultScannerConfig(),
		Cleaner:  usecase.DefaultCleanerConfig(),
	}, opts, logger)

	patch, err := optionsPatch(cmd)
	if err != nil {
		return nil, err
	}
	if err := engine.SetOptions(patch); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return &app{paths: paths, engine: engine, store: store, metrics: metrics, logger: logger}, nil
}

// Close flushes the log and releases the catalog.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing backup catalog failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// optionsPatch turns explicitly set flags into an options update.
func optionsPatch(cmd *cobra.Command) (domain.OptionsPatch, error) {
	var patch domain.OptionsPatch
	flags := cmd.Flags()

	if flags.Changed("simulate") {
		patch.Simulate = &flagSimulate
	}
	if flags.Changed("no-simulate") {
		simulate := !flagNoSimulate
		patch.Simulate = &simulate
	}
	if flags.Changed("backup") {
		patch.Backup = &flagBackup
	}
	if flags.Changed("no-backup") {
		backup := !flagNoBackup
		patch.Backup = &backup
	}
	if flags.Changed("backup-dir") {
		patch.BackupDir = &flagBackupDir
	}
	if flags.Changed("max-backups") {
		patch.MaxBackups = &flagMaxBackups
	}
	if flags.Changed("max-backup-size") {
		size, err := humanize.ParseBytes(flagMaxBackupSize)
		if err != nil {
			return patch, fmt.Errorf("--max-backup-size: %w", err)
		}
		patch.MaxBackupSize = &size
	}
	return patch, nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		out, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Println(string(out))
	} else {
		fmt.Printf("diskclean %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
	"github.com/eliteGoblin/focusd/disk_clean/internal/policy"
)

// EngineDeps bundles the collaborators the engine drives.
// Procs and Recorder are optional.
type EngineDeps struct {
	Paths    domain.ResolvedPaths
	Registry *policy.Registry
	Guard    domain.PathGuard
	Deleter  domain.Deleter
	Bin      domain.RecycleBin
	Store    domain.BackupStore
	Disk     domain.DiskStats
	Procs    domain.ProcessManager
	Recorder domain.Recorder
	Scanner  ScannerConfig
	Cleaner  CleanerConfig
}

// Engine is the surface hosts (CLI, scheduler) talk to.
type Engine struct {
	paths    domain.ResolvedPaths
	registry *policy.Registry
	scanner  *ScannerImpl
	cleaner  *CleanerImpl
	store    domain.BackupStore
	disk     domain.DiskStats
	recorder domain.Recorder
	logger   *zap.Logger

	// runMu serializes everything that reads or repoints the backup store.
	// It is taken before mu.
	runMu sync.Mutex
	mu    sync.RWMutex
	opts  domain.Options
}

// NewEngine wires a scanner and a cleaner around deps with the given options.
func NewEngine(deps EngineDeps, opts domain.Options, logger *zap.Logger) *Engine {
	recorder := recorderOrNop(deps.Recorder)
	cleaner := NewCleaner(deps.Guard, deps.Deleter, deps.Bin, deps.Store, logger).
		WithConfig(deps.Cleaner).
		WithRecorder(recorder)
	if deps.Procs != nil {
		cleaner.WithOwners(deps.Procs, deps.Registry.Owners())
	}
	deps.Store.SetLimits(opts.MaxBackups, opts.MaxBackupSize)

	return &Engine{
		paths:    deps.Paths,
		registry: deps.Registry,
		scanner:  NewScanner(deps.Registry, deps.Scanner, recorder, logger),
		cleaner:  cleaner,
		store:    deps.Store,
		disk:     deps.Disk,
		recorder: recorder,
		logger:   logger,
		opts:     opts,
	}
}

// GetDiskInfo returns statistics for the scanned volume.
func (e *Engine) GetDiskInfo() (domain.DiskInfo, error) {
	info, err := e.disk.Usage(e.paths.VolumeRoot)
	if err != nil {
		return domain.DiskInfo{}, fmt.Errorf("disk usage of %s: %w", e.paths.VolumeRoot, err)
	}
	return info, nil
}

// ScanSystem runs every rule, or only those of the given categories.
func (e *Engine) ScanSystem(ctx context.Context, categories ...domain.Category) domain.ScanResult {
	return e.scanner.ScanCategories(ctx, categories...)
}

// CleanSelected cleans the caller's selection with explicit options.
// An empty BackupDir and zero quotas fall back to the current options. The
// rest apply to this run only; the engine's options are left as they were.
// Invalid options clean nothing and are reported as the outcome's only error.
func (e *Engine) CleanSelected(ctx context.Context, findings []domain.Finding, opts domain.Options) domain.CleanOutcome {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	current := e.Options()
	run, err := current.Merge(opts.Patch())
	if err != nil {
		return e.rejected(opts, err)
	}
	if err := e.pointStore(run); err != nil {
		e.pointStoreBack(current)
		return e.rejected(opts, fmt.Errorf("switch backup dir: %w", err))
	}
	defer e.pointStoreBack(current)

	return e.cleaner.Clean(ctx, findings, run)
}

// Clean cleans the selection with the current options.
func (e *Engine) Clean(ctx context.Context, findings []domain.Finding) domain.CleanOutcome {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.cleaner.Clean(ctx, findings, e.Options())
}

// pointStore aims the store at the run's backup root and quotas. The root is
// only switched when the run will actually write backups.
func (e *Engine) pointStore(run domain.Options) error {
	if run.Backup && !run.Simulate && filepath.Clean(run.BackupDir) != e.store.Dir() {
		if err := e.store.SetDir(run.BackupDir); err != nil {
			return err
		}
	}
	e.store.SetLimits(run.MaxBackups, run.MaxBackupSize)
	return nil
}

func (e *Engine) pointStoreBack(current domain.Options) {
	if filepath.Clean(current.BackupDir) != e.store.Dir() {
		if err := e.store.SetDir(current.BackupDir); err != nil {
			e.logger.Error("failed to restore backup dir", zap.String("dir", current.BackupDir), zap.Error(err))
		}
	}
	e.store.SetLimits(current.MaxBackups, current.MaxBackupSize)
}

func (e *Engine) rejected(opts domain.Options, err error) domain.CleanOutcome {
	e.logger.Error("clean rejected", zap.Error(err))
	return domain.CleanOutcome{
		CleanedPaths: []string{},
		Errors:       []domain.CleanError{{Path: opts.BackupDir, Err: err}},
		Simulated:    opts.Simulate,
		ExecutedAt:   time.Now(),
	}
}

// GetBackupInfo lists the snapshots. Errors are logged and yield empty info.
func (e *Engine) GetBackupInfo() domain.BackupInfo {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	info, err := e.store.Info()
	if err != nil {
		e.logger.Warn("reading backups failed", zap.String("dir", e.store.Dir()), zap.Error(err))
		return domain.BackupInfo{Dir: e.store.Dir()}
	}
	return info
}

// Options returns a copy of the current options.
func (e *Engine) Options() domain.Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// SetOptions merges patch into the current options.
// A new backup directory is created when missing; on any error nothing changes.
func (e *Engine) SetOptions(patch domain.OptionsPatch) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	merged, err := e.opts.Merge(patch)
	if err != nil {
		return err
	}
	if merged.BackupDir != e.opts.BackupDir {
		if err := e.store.SetDir(merged.BackupDir); err != nil {
			return fmt.Errorf("switch backup dir: %w", err)
		}
	}
	e.store.SetLimits(merged.MaxBackups, merged.MaxBackupSize)
	e.opts = merged

	e.logger.Info("options updated",
		zap.Bool("simulate", merged.Simulate),
		zap.Bool("backup", merged.Backup),
		zap.String("backup_dir", merged.BackupDir),
		zap.Int("max_backups", merged.MaxBackups),
		zap.Uint64("max_backup_size", merged.MaxBackupSize))
	return nil
}

// CleanOldBackups enforces retention. It reports false if any snapshot could not be removed.
func (e *Engine) CleanOldBackups() bool {
	report, ok := e.PruneBackups()
	return ok && len(report.Failures) == 0
}

// PruneBackups enforces retention and returns what was removed.
func (e *Engine) PruneBackups() (domain.PruneReport, bool) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	report, err := e.store.Prune()
	if err != nil {
		e.logger.Error("backup prune failed", zap.Error(err))
		return report, false
	}
	e.recorder.BackupsPruned(len(report.Removed))
	return report, true
}

// RestoreBackup restores a snapshot by name or path.
func (e *Engine) RestoreBackup(snapshot string) bool {
	_, err := e.RestoreBackupReport(snapshot)
	return err == nil
}

// RestoreBackupReport restores a snapshot and returns the per-file counts.
func (e *Engine) RestoreBackupReport(snapshot string) (domain.RestoreReport, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	report, err := e.store.Restore(snapshot)
	if err != nil {
		e.logger.Error("restore failed", zap.String("snapshot", snapshot), zap.Error(err))
		return report, err
	}
	e.logger.Info("restore finished",
		zap.String("snapshot", report.Snapshot),
		zap.Int("restored", report.Restored),
		zap.Int("failed", report.Failed))
	return report, nil
}

// DeleteBackup removes one snapshot regardless of quotas.
func (e *Engine) DeleteBackup(snapshot string) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.store.Delete(snapshot)
}

// BackupManifest lists the catalog entries of a snapshot.
func (e *Engine) BackupManifest(snapshot string) ([]domain.CatalogEntry, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.store.Manifest(snapshot)
}

// Rules returns the registered rules in order.
func (e *Engine) Rules() []policy.ScanRule {
	return e.registry.GetAll()
}

// Paths returns the resolved locations the engine was built for.
func (e *Engine) Paths() domain.ResolvedPaths {
	return e.paths
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// CleanerConfig holds executor settings.
type CleanerConfig struct {
	Workers int // Findings processed at once
}

// DefaultCleanerConfig returns default executor settings.
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{Workers: 4}
}

// CleanerImpl implements domain.Cleaner.
type CleanerImpl struct {
	guard    domain.PathGuard
	deleter  domain.Deleter
	bin      domain.RecycleBin
	store    domain.BackupStore
	procs    domain.ProcessManager
	owners   map[domain.Category][]string
	config   CleanerConfig
	recorder domain.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewCleaner creates a clean executor. store, procs and recorder may be nil.
func NewCleaner(
	guard domain.PathGuard,
	deleter domain.Deleter,
	bin domain.RecycleBin,
	store domain.BackupStore,
	logger *zap.Logger,
) *CleanerImpl {
	return &CleanerImpl{
		guard:    guard,
		deleter:  deleter,
		bin:      bin,
		store:    store,
		config:   DefaultCleanerConfig(),
		recorder: nopRecorder{},
		logger:   logger,
		now:      time.Now,
	}
}

// WithConfig sets the worker count.
func (c *CleanerImpl) WithConfig(config CleanerConfig) *CleanerImpl {
	if config.Workers > 0 {
		c.config = config
	}
	return c
}

// WithOwners enables the running-process warning for the given categories.
func (c *CleanerImpl) WithOwners(procs domain.ProcessManager, owners map[domain.Category][]string) *CleanerImpl {
	c.procs = procs
	c.owners = owners
	return c
}

// WithRecorder sets the statistics sink.
func (c *CleanerImpl) WithRecorder(r domain.Recorder) *CleanerImpl {
	c.recorder = recorderOrNop(r)
	return c
}

// accumulator collects the outcome of concurrent items.
type accumulator struct {
	mu  sync.Mutex
	out domain.CleanOutcome
}

func (a *accumulator) cleaned(path string, freed uint64) {
	a.mu.Lock()
	a.out.CleanedPaths = append(a.out.CleanedPaths, path)
	a.out.FreedBytes += freed
	a.mu.Unlock()
}

func (a *accumulator) failed(path string, err error) {
	a.mu.Lock()
	a.out.Errors = append(a.out.Errors, domain.CleanError{Path: path, Err: err})
	a.mu.Unlock()
}

// Clean deletes (or, in simulate mode, only accounts for) the given findings.
// Options are read once; per-item failures are recorded and never stop the run.
func (c *CleanerImpl) Clean(ctx context.Context, findings []domain.Finding, opts domain.Options) domain.CleanOutcome {
	start := c.now()
	acc := &accumulator{out: domain.CleanOutcome{
		CleanedPaths: []string{},
		Errors:       []domain.CleanError{},
		Simulated:    opts.Simulate,
		ExecutedAt:   start,
	}}

	var snapshot string
	if len(findings) > 0 && !opts.Simulate {
		c.warnOwners(findings)
		if opts.Backup {
			snapshot = c.prepareSnapshot()
		}
	}
	acc.out.Snapshot = snapshot

	var g errgroup.Group
	g.SetLimit(c.config.Workers)
	for _, f := range findings {
		f := f
		g.Go(func() error {
			c.cleanItem(f, opts.Simulate, snapshot, acc)
			return nil
		})
	}
	_ = g.Wait()

	out := acc.out
	out.DurationMs = c.now().Sub(start).Milliseconds()
	c.recorder.ObserveClean(out)
	c.logger.Info("clean finished",
		zap.Bool("simulate", out.Simulated),
		zap.Int("cleaned", len(out.CleanedPaths)),
		zap.Int("errors", len(out.Errors)),
		zap.Uint64("freed_bytes", out.FreedBytes),
		zap.String("snapshot", out.Snapshot))
	return out
}

// prepareSnapshot creates the run's shared snapshot and enforces retention.
// An empty result means the run goes ahead without backup.
func (c *CleanerImpl) prepareSnapshot() string {
	if c.store == nil {
		return ""
	}
	snapshot, err := c.store.CreateSnapshot()
	if err != nil {
		c.logger.Warn("backup snapshot unavailable, cleaning without backup", zap.Error(err))
		return ""
	}
	report, err := c.store.Prune()
	if err != nil {
		c.logger.Warn("backup prune failed", zap.Error(err))
	}
	c.recorder.BackupsPruned(len(report.Removed))
	return snapshot
}

// warnOwners logs running processes that are likely to hold files open.
func (c *CleanerImpl) warnOwners(findings []domain.Finding) {
	if c.procs == nil || len(c.owners) == 0 {
		return
	}
	seen := make(map[domain.Category]bool)
	for _, f := range findings {
		if seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		for _, name := range c.owners[f.Category] {
			pids, err := c.procs.FindByName(name)
			if err != nil || len(pids) == 0 {
				continue
			}
			c.logger.Warn("process is running, its locked files will be skipped",
				zap.String("category", string(f.Category)),
				zap.String("process", name),
				zap.Ints("pids", pids))
		}
	}
}

func (c *CleanerImpl) cleanItem(f domain.Finding, simulate bool, snapshot string, acc *accumulator) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while cleaning", zap.String("path", f.Path), zap.Any("panic", r))
			acc.failed(f.Path, fmt.Errorf("%w: panic: %v", domain.ErrDeleteFailed, r))
		}
	}()

	if !c.guard.IsSafe(f.Path) {
		c.logger.Warn("refusing to clean protected path", zap.String("path", f.Path))
		acc.failed(f.Path, domain.ErrPathUnsafe)
		return
	}
	if simulate {
		acc.cleaned(f.Path, f.Size)
		return
	}

	if f.Category == domain.CategoryRecycle {
		if err := c.bin.Empty(); err != nil {
			acc.failed(f.Path, fmt.Errorf("empty recycle bin: %w", err))
			return
		}
		acc.cleaned(f.Path, f.Size)
		return
	}

	info, err := os.Lstat(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Removed since the scan; nothing left to free.
			acc.cleaned(f.Path, 0)
			return
		}
		acc.failed(f.Path, domain.Classify(err))
		return
	}

	if info.IsDir() {
		res := c.cleanDir(f.Path, snapshot)
		if res.removed == 0 && res.lastErr != nil {
			acc.failed(f.Path, fmt.Errorf("%w: nothing under %s could be removed: %w", domain.ErrDeleteFailed, f.Path, res.lastErr))
			return
		}
		acc.cleaned(f.Path, res.freed)
		return
	}

	c.backup(snapshot, f.Path)
	if err := c.deleteFile(f.Path); err != nil {
		acc.failed(f.Path, err)
		return
	}
	acc.cleaned(f.Path, uint64(info.Size()))
}

// deleteFile tries the recoverable path first.
func (c *CleanerImpl) deleteFile(path string) error {
	softErr := c.deleter.SoftDelete(path)
	if softErr == nil {
		return nil
	}
	hardErr := c.deleter.HardDelete(path)
	if hardErr == nil {
		return nil
	}
	c.logger.Debug("delete failed",
		zap.String("path", path),
		zap.NamedError("soft", softErr),
		zap.NamedError("hard", hardErr))
	return fmt.Errorf("%w: %w", domain.ErrDeleteFailed, hardErr)
}

// backup is best effort; a failed copy never blocks the delete.
func (c *CleanerImpl) backup(snapshot, path string) {
	if snapshot == "" || c.store == nil {
		return
	}
	if err := c.store.BackupFile(snapshot, path); err != nil {
		c.logger.Warn("backup failed", zap.String("path", path), zap.Error(err))
	}
}

// dirResult is what cleanDir managed to delete.
type dirResult struct {
	freed   uint64
	removed int
	lastErr error // Last per-file delete error, nil when none failed
}

// cleanDir deletes the guarded files below root and prunes the directories
// left empty. root itself is kept.
func (c *CleanerImpl) cleanDir(root, snapshot string) dirResult {
	var res dirResult
	var dirs []string

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Debug("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !c.guard.IsSafe(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		c.backup(snapshot, path)
		if err := c.deleter.HardDelete(path); err != nil {
			c.logger.Debug("file not deleted", zap.String("path", path), zap.Error(err))
			res.lastErr = err
			return nil
		}
		res.freed += uint64(info.Size())
		res.removed++
		return nil
	})

	// Deepest first; non-empty directories simply fail to go.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		_ = os.Remove(dir)
	}
	return res
}

var _ domain.Cleaner = (*CleanerImpl)(nil)

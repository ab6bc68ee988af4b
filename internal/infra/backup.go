package infra

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// SnapshotLayout names snapshot directories. Lexical order is chronological.
const SnapshotLayout = "20060102_150405"

// CatalogOpener opens the backup catalog stored in a backup root.
type CatalogOpener func(dir string) (domain.BackupCatalog, error)

// OpenEncryptedCatalog is the default CatalogOpener.
func OpenEncryptedCatalog(dir string) (domain.BackupCatalog, error) {
	return OpenCatalog(dir)
}

// BackupStoreConfig holds the initial state of a SnapshotStore.
type BackupStoreConfig struct {
	Dir        string
	VolumeRoot string // Files are stored under their path relative to this root
	MaxBackups int
	MaxSize    uint64
}

// SnapshotStore implements domain.BackupStore on the local filesystem.
// Each snapshot is a timestamp-named directory mirroring the volume layout.
type SnapshotStore struct {
	mu         sync.Mutex
	dir        string
	volumeRoot string
	maxBackups int
	maxSize    uint64

	guard  domain.PathGuard
	open   CatalogOpener
	logger *zap.Logger
	now    func() time.Time

	catalog    domain.BackupCatalog
	catalogDir string // Root the catalog handle belongs to; set even when opening failed
}

// NewSnapshotStore creates a store backed by the encrypted catalog.
func NewSnapshotStore(cfg BackupStoreConfig, guard domain.PathGuard, logger *zap.Logger) *SnapshotStore {
	return NewSnapshotStoreWithCatalog(cfg, guard, OpenEncryptedCatalog, logger)
}

// NewSnapshotStoreWithCatalog creates a store with a custom catalog opener.
// A nil opener disables the catalog.
func NewSnapshotStoreWithCatalog(cfg BackupStoreConfig, guard domain.PathGuard, open CatalogOpener, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		dir:        filepath.Clean(cfg.Dir),
		volumeRoot: cfg.VolumeRoot,
		maxBackups: cfg.MaxBackups,
		maxSize:    cfg.MaxSize,
		guard:      guard,
		open:       open,
		logger:     logger,
		now:        time.Now,
	}
}

// Dir returns the backup root.
func (s *SnapshotStore) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// SetDir switches the backup root, creating it if missing.
func (s *SnapshotStore) SetDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("backup directory is empty: %w", domain.ErrInvalidOption)
	}
	dir = filepath.Clean(dir)
	if !s.safe(dir) {
		return fmt.Errorf("backup directory %s: %w: %w", dir, domain.ErrInvalidOption, domain.ErrPathUnsafe)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create backup directory %s: %w", dir, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if dir == s.dir {
		return nil
	}
	s.closeCatalogLocked()
	s.dir = dir
	return nil
}

// SetLimits updates the retention quotas. Zero disables a quota.
func (s *SnapshotStore) SetLimits(maxBackups int, maxSize uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxBackups = maxBackups
	s.maxSize = maxSize
}

// Info lists the snapshots newest first. A missing root yields empty info.
func (s *SnapshotStore) Info() (domain.BackupInfo, error) {
	dir := s.Dir()
	info := domain.BackupInfo{Dir: dir}

	snaps, err := listSnapshots(dir)
	if err != nil {
		return info, err
	}
	info.Snapshots = snaps
	info.Count = len(snaps)
	for _, snap := range snaps {
		info.TotalSize += snap.Size
	}
	return info, nil
}

// Prune applies count retention, then size retention, oldest first.
// The newest snapshot always survives.
func (s *SnapshotStore) Prune() (domain.PruneReport, error) {
	var report domain.PruneReport

	info, err := s.Info()
	if err != nil {
		return report, err
	}
	s.mu.Lock()
	maxBackups, maxSize := s.maxBackups, s.maxSize
	s.mu.Unlock()

	// Oldest first.
	kept := make([]domain.Snapshot, len(info.Snapshots))
	for i, snap := range info.Snapshots {
		kept[len(kept)-1-i] = snap
	}

	for maxBackups > 0 && len(kept) > maxBackups && len(kept) > 1 {
		s.removeSnapshot(kept[0], &report)
		kept = kept[1:]
	}

	var total uint64
	for _, snap := range kept {
		total += snap.Size
	}
	for maxSize > 0 && total > maxSize && len(kept) > 1 {
		if s.removeSnapshot(kept[0], &report) {
			total -= kept[0].Size
		}
		kept = kept[1:]
	}

	if len(report.Removed) > 0 {
		s.logger.Info("pruned backups",
			zap.Int("removed", len(report.Removed)),
			zap.Int("kept", len(kept)),
			zap.Uint64("kept_bytes", total))
	}
	return report, nil
}

func (s *SnapshotStore) removeSnapshot(snap domain.Snapshot, report *domain.PruneReport) bool {
	if !s.safe(snap.Path) {
		s.logger.Warn("refusing to remove protected backup", zap.String("path", snap.Path))
		report.Failures = append(report.Failures, domain.CleanError{Path: snap.Path, Err: domain.ErrPathUnsafe})
		return false
	}
	if err := os.RemoveAll(snap.Path); err != nil {
		s.logger.Warn("failed to remove backup", zap.String("path", snap.Path), zap.Error(err))
		report.Failures = append(report.Failures, domain.CleanError{Path: snap.Path, Err: domain.Classify(err)})
		return false
	}
	report.Removed = append(report.Removed, snap.Name)
	s.forget(snap.Name)
	return true
}

// safe asks the guard, if any, whether path may be written or removed.
func (s *SnapshotStore) safe(path string) bool {
	return s.guard == nil || s.guard.IsSafe(path)
}

// CreateSnapshot creates a new snapshot directory and returns its path.
// A name collision within the same second gets a _001, _002, ... suffix.
func (s *SnapshotStore) CreateSnapshot() (string, error) {
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory %s: %w: %w", dir, domain.ErrBackupWriteFailed, err)
	}

	base := s.now().Format(SnapshotLayout)
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%03d", base, i)
		}
		path := filepath.Join(dir, name)
		err := os.Mkdir(path, 0755)
		if err == nil {
			s.logger.Debug("created backup snapshot", zap.String("path", path))
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create snapshot %s: %w: %w", path, domain.ErrBackupWriteFailed, err)
		}
	}
	return "", fmt.Errorf("no free snapshot name for %s: %w", base, domain.ErrBackupWriteFailed)
}

// BackupFile copies src into the snapshot under its volume-relative path and
// records the copy in the catalog.
func (s *SnapshotStore) BackupFile(snapshot, src string) error {
	rel, err := s.relativeToVolume(src)
	if err != nil {
		return fmt.Errorf("back up %s: %w: %w", src, domain.ErrBackupWriteFailed, err)
	}
	snapPath := s.resolve(snapshot)
	dst := filepath.Join(snapPath, rel)

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("back up %s: %w: %w", src, domain.ErrBackupWriteFailed, err)
	}
	sum, size, err := copyFile(src, dst, "")
	if err != nil {
		return fmt.Errorf("back up %s: %w: %w", src, domain.ErrBackupWriteFailed, err)
	}

	if cat := s.catalogHandle(); cat != nil {
		entry := domain.CatalogEntry{
			Snapshot:     filepath.Base(snapPath),
			OriginalPath: src,
			RelPath:      rel,
			Size:         size,
			SHA256:       sum,
			BackedUpAt:   s.now(),
		}
		if err := cat.Record(entry); err != nil {
			s.logger.Warn("failed to record backup in catalog", zap.String("path", src), zap.Error(err))
		}
	}
	return nil
}

// Restore copies every file of a snapshot back to the volume, overwriting
// what is there. Files whose checksum no longer matches the catalog and
// targets refused by the guard are counted as failures. The snapshot is kept.
func (s *SnapshotStore) Restore(snapshot string) (domain.RestoreReport, error) {
	snapPath := s.resolve(snapshot)
	name := filepath.Base(snapPath)
	report := domain.RestoreReport{Snapshot: name}

	info, err := os.Stat(snapPath)
	if err != nil || !info.IsDir() {
		return report, fmt.Errorf("snapshot %s: %w", snapPath, domain.ErrNotFound)
	}

	cat := s.catalogHandle()
	walkErr := filepath.WalkDir(snapPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == snapPath {
				return err
			}
			s.logger.Warn("skipping unreadable backup entry", zap.String("path", path), zap.Error(err))
			report.Failed++
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(snapPath, path)
		if err != nil {
			report.Failed++
			return nil
		}
		if err := s.restoreFile(cat, name, path, rel); err != nil {
			s.logger.Warn("failed to restore file", zap.String("path", rel), zap.Error(err))
			report.Failed++
			return nil
		}
		report.Restored++
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("read snapshot %s: %w", snapPath, domain.Classify(walkErr))
	}

	s.logger.Info("restored backup",
		zap.String("snapshot", name),
		zap.Int("restored", report.Restored),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *SnapshotStore) restoreFile(cat domain.BackupCatalog, snapshot, src, rel string) error {
	dst := filepath.Join(s.volumeRoot, rel)
	if s.guard != nil && !s.guard.IsSafe(dst) {
		return fmt.Errorf("%s: %w", dst, domain.ErrPathUnsafe)
	}

	var want string
	if cat != nil {
		if entry, err := cat.Lookup(snapshot, rel); err == nil && entry != nil {
			want = entry.SHA256
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%s: %w: %w", dst, domain.ErrRestoreFailed, err)
	}
	if _, _, err := copyFile(src, dst, want); err != nil {
		return fmt.Errorf("%s: %w: %w", dst, domain.ErrRestoreFailed, err)
	}
	return nil
}

// Delete removes one snapshot regardless of quotas.
// The path must name a snapshot directly under the backup root.
func (s *SnapshotStore) Delete(snapshot string) error {
	dir := s.Dir()
	snapPath := s.resolve(snapshot)
	if filepath.Dir(snapPath) != dir {
		return fmt.Errorf("%s is not a snapshot in %s: %w", snapPath, dir, domain.ErrNotFound)
	}
	info, err := os.Stat(snapPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("snapshot %s: %w", snapPath, domain.ErrNotFound)
	}
	if _, _, ok := snapshotTime(filepath.Base(snapPath)); !ok {
		return fmt.Errorf("%s is not a snapshot in %s: %w", snapPath, dir, domain.ErrNotFound)
	}
	if !s.safe(snapPath) {
		return fmt.Errorf("delete snapshot %s: %w", snapPath, domain.ErrPathUnsafe)
	}
	if err := os.RemoveAll(snapPath); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", snapPath, domain.Classify(err))
	}
	s.forget(filepath.Base(snapPath))
	s.logger.Info("deleted backup", zap.String("path", snapPath))
	return nil
}

// Manifest lists what the catalog recorded for one snapshot.
func (s *SnapshotStore) Manifest(snapshot string) ([]domain.CatalogEntry, error) {
	cat := s.catalogHandle()
	if cat == nil {
		return nil, fmt.Errorf("backup catalog unavailable in %s", s.Dir())
	}
	return cat.Entries(filepath.Base(s.resolve(snapshot)))
}

// Close releases the catalog.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCatalogLocked()
}

func (s *SnapshotStore) resolve(snapshot string) string {
	if filepath.IsAbs(snapshot) {
		return filepath.Clean(snapshot)
	}
	return filepath.Join(s.Dir(), snapshot)
}

func (s *SnapshotStore) relativeToVolume(path string) (string, error) {
	rel, err := filepath.Rel(s.volumeRoot, path)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside volume %s", path, s.volumeRoot)
	}
	return rel, nil
}

// catalogHandle opens the catalog of the current root once.
// Opening failures are logged and the store keeps working without it.
func (s *SnapshotStore) catalogHandle() domain.BackupCatalog {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open == nil {
		return nil
	}
	if s.catalogDir == s.dir {
		return s.catalog
	}
	s.catalogDir = s.dir
	cat, err := s.open(s.dir)
	if err != nil {
		s.logger.Warn("backup catalog unavailable", zap.String("dir", s.dir), zap.Error(err))
		return nil
	}
	s.catalog = cat
	return cat
}

func (s *SnapshotStore) forget(name string) {
	cat := s.catalogHandle()
	if cat == nil {
		return
	}
	if err := cat.Forget(name); err != nil {
		s.logger.Warn("failed to drop catalog entries", zap.String("snapshot", name), zap.Error(err))
	}
}

func (s *SnapshotStore) closeCatalogLocked() error {
	var err error
	if s.catalog != nil {
		err = s.catalog.Close()
	}
	s.catalog = nil
	s.catalogDir = ""
	return err
}

// listSnapshots reads the snapshot directories of root, newest first.
// Only directories named by CreateSnapshot count; anything else in the root
// is left alone.
func listSnapshots(root string) ([]domain.Snapshot, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory %s: %w", root, domain.Classify(err))
	}

	type keyed struct {
		snap domain.Snapshot
		seq  int
	}
	var found []keyed
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		created, seq, ok := snapshotTime(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(root, e.Name())
		found = append(found, keyed{
			snap: domain.Snapshot{Name: e.Name(), Path: path, CreatedAt: created, Size: dirSize(path)},
			seq:  seq,
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if !a.snap.CreatedAt.Equal(b.snap.CreatedAt) {
			return a.snap.CreatedAt.After(b.snap.CreatedAt)
		}
		if a.seq != b.seq {
			return a.seq > b.seq
		}
		return a.snap.Name > b.snap.Name
	})

	out := make([]domain.Snapshot, len(found))
	for i, k := range found {
		out[i] = k.snap
	}
	return out, nil
}

// snapshotTime parses "20060102_150405" with an optional "_NNN" suffix.
// ok is false for names the store did not create.
func snapshotTime(name string) (t time.Time, seq int, ok bool) {
	if len(name) < len(SnapshotLayout) {
		return time.Time{}, 0, false
	}
	t, err := time.ParseInLocation(SnapshotLayout, name[:len(SnapshotLayout)], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	rest := name[len(SnapshotLayout):]
	if rest == "" {
		return t, 0, true
	}
	if rest[0] != '_' || len(rest) == 1 || strings.ContainsAny(rest[1:], "+-") {
		return time.Time{}, 0, false
	}
	seq, err = strconv.Atoi(rest[1:])
	if err != nil || seq < 0 {
		return time.Time{}, 0, false
	}
	return t, seq, true
}

func dirSize(root string) uint64 {
	var total uint64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += uint64(info.Size())
		}
		return nil
	})
	return total
}

// copyFile copies src to dst through a synced temp file and a rename, so dst
// is either the old content or the complete new one. The copy keeps the
// source mode and mtime. When want is set, a checksum mismatch aborts the
// copy before dst is touched.
func copyFile(src, dst, want string) (sum string, size uint64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".diskclean-copy-*")
	if err != nil {
		return "", 0, err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), in)
	if err != nil {
		tmp.Close()
		return "", 0, err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return "", 0, err
	}
	if err = tmp.Close(); err != nil {
		return "", 0, err
	}

	sum = hex.EncodeToString(h.Sum(nil))
	if want != "" && !strings.EqualFold(sum, want) {
		return "", 0, fmt.Errorf("checksum mismatch for %s", src)
	}

	_ = os.Chmod(tmpPath, info.Mode().Perm())
	if err = os.Rename(tmpPath, dst); err != nil {
		return "", 0, err
	}
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())

	success = true
	return sum, uint64(n), nil
}

var _ domain.BackupStore = (*SnapshotStore)(nil)

package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// mockDeleter removes files for real unless told to fail.
type mockDeleter struct {
	mu       sync.Mutex
	softErr  error
	hardErr  error
	lockedAt string // HardDelete fails for this path only
	panicOn  string
	soft     []string
	hard     []string
}

func (m *mockDeleter) SoftDelete(path string) error {
	if path == m.panicOn {
		panic("boom")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.softErr != nil {
		return m.softErr
	}
	m.soft = append(m.soft, path)
	return os.Remove(path)
}

func (m *mockDeleter) HardDelete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hardErr != nil {
		return m.hardErr
	}
	if path == m.lockedAt {
		return errBoom
	}
	m.hard = append(m.hard, path)
	return os.Remove(path)
}

// mockRecycleBin counts Empty calls.
type mockRecycleBin struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockRecycleBin) Empty() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

// mockStore implements domain.BackupStore in memory.
type mockStore struct {
	mu          sync.Mutex
	dir         string
	maxBackups  int
	maxSize     uint64
	snapshots   []string
	backedUp    map[string][]string
	createErr   error
	backupErr   error
	setDirErr   error
	restoreErr  error
	pruneCalls  int
	prunedAt    string // Root and quota seen by the last Prune
	prunedMax   int
	pruneReport domain.PruneReport
	deleted     []string
}

func newMockStore(dir string) *mockStore {
	return &mockStore{dir: dir, backedUp: make(map[string][]string)}
}

func (m *mockStore) Dir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

func (m *mockStore) SetDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setDirErr != nil {
		return m.setDirErr
	}
	m.dir = dir
	return nil
}

func (m *mockStore) SetLimits(maxBackups int, maxSize uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxBackups, m.maxSize = maxBackups, maxSize
}

func (m *mockStore) Info() (domain.BackupInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := domain.BackupInfo{Dir: m.dir, Count: len(m.snapshots)}
	for _, s := range m.snapshots {
		info.Snapshots = append(info.Snapshots, domain.Snapshot{Name: s, Path: filepath.Join(m.dir, s)})
	}
	return info, nil
}

func (m *mockStore) Prune() (domain.PruneReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCalls++
	m.prunedAt, m.prunedMax = m.dir, m.maxBackups
	return m.pruneReport, nil
}

func (m *mockStore) CreateSnapshot() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	name := filepath.Join(m.dir, "20260101_120000")
	m.snapshots = append(m.snapshots, name)
	return name, nil
}

func (m *mockStore) BackupFile(snapshot, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backupErr != nil {
		return m.backupErr
	}
	m.backedUp[snapshot] = append(m.backedUp[snapshot], src)
	return nil
}

func (m *mockStore) Restore(snapshot string) (domain.RestoreReport, error) {
	if m.restoreErr != nil {
		return domain.RestoreReport{}, m.restoreErr
	}
	return domain.RestoreReport{Snapshot: snapshot, Restored: 1}, nil
}

func (m *mockStore) Delete(snapshot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, snapshot)
	return nil
}

func (m *mockStore) Manifest(snapshot string) ([]domain.CatalogEntry, error) {
	return nil, nil
}

func (m *mockStore) backupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, files := range m.backedUp {
		n += len(files)
	}
	return n
}

// mockProcessManager implements domain.ProcessManager for testing
type mockProcessManager struct {
	running map[string][]int
	err     error
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.running[pattern], nil
}

// mockDisk implements domain.DiskStats for testing
type mockDisk struct {
	info domain.DiskInfo
	err  error
	path string
}

func (m *mockDisk) Usage(path string) (domain.DiskInfo, error) {
	m.path = path
	return m.info, m.err
}

// mockRecorder captures statistics.
type mockRecorder struct {
	mu          sync.Mutex
	scans       int
	failedRules []string
	cleans      []domain.CleanOutcome
	pruned      int
}

func (m *mockRecorder) ObserveScan(domain.ScanResult, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
}

func (m *mockRecorder) RuleFailed(rule string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedRules = append(m.failedRules, rule)
}

func (m *mockRecorder) ObserveClean(o domain.CleanOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleans = append(m.cleans, o)
}

func (m *mockRecorder) BackupsPruned(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned += n
}

// fakeRule emits fixed findings, then optionally fails.
type fakeRule struct {
	name     string
	category domain.Category
	findings []domain.Finding
	err      error
	panics   bool
	owners   []string
}

func (r *fakeRule) Name() string              { return r.name }
func (r *fakeRule) Category() domain.Category { return r.category }
func (r *fakeRule) Targets() []string         { return nil }
func (r *fakeRule) Owners() []string          { return r.owners }

func (r *fakeRule) Run(sink domain.ResultSink) error {
	for _, f := range r.findings {
		sink.Add(f)
	}
	if r.panics {
		panic("rule exploded")
	}
	return r.err
}

var errBoom = errors.New("boom")

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

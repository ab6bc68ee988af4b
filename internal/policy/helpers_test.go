package policy

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

func testPaths(root string) domain.ResolvedPaths {
	return domain.ResolvedPaths{
		VolumeRoot:      root,
		SystemRoot:      filepath.Join(root, "Windows"),
		ProgramData:     filepath.Join(root, "ProgramData"),
		ProgramFiles:    filepath.Join(root, "Program Files"),
		ProgramFilesX86: filepath.Join(root, "Program Files (x86)"),
		UserProfile:     filepath.Join(root, "Users", "alice"),
		LocalAppData:    filepath.Join(root, "Users", "alice", "AppData", "Local"),
		AppData:         filepath.Join(root, "Users", "alice", "AppData", "Roaming"),
		Temp:            filepath.Join(root, "Users", "alice", "AppData", "Local", "Temp"),
		Downloads:       filepath.Join(root, "Users", "alice", "Downloads"),
		RecycleBin:      filepath.Join(root, "$Recycle.Bin"),
	}
}

// memorySink is a test double for domain.ResultSink.
type memorySink struct {
	mu       sync.Mutex
	findings map[domain.Category][]domain.Finding
}

func newMemorySink() *memorySink {
	return &memorySink{findings: make(map[domain.Category][]domain.Finding)}
}

func (s *memorySink) Add(f domain.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings[f.Category] = append(s.findings[f.Category], f)
}

func (s *memorySink) AddAll(c domain.Category, fs []domain.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings[c] = append(s.findings[c], fs...)
}

func (s *memorySink) paths(c domain.Category) []string {
	var out []string
	for _, f := range s.findings[c] {
		out = append(out, f.Path)
	}
	return out
}

// writeFile creates path (and parents) with size bytes of content.
func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

// age sets the modification time of path to d ago.
func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	old := time.Now().Add(-d)
	require.NoError(t, os.Chtimes(path, old, old))
}

// allowAll is a guard that permits every absolute path.
var allowAll = NewGuard(nil, nil)

package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// allowGuard is a test double for domain.PathGuard that refuses one prefix.
type allowGuard struct{ deny string }

func (g allowGuard) IsSafe(path string) bool {
	return g.deny == "" || !strings.HasPrefix(path, g.deny)
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

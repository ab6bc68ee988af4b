package policy

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

func TestNonEmpty(t *testing.T) {
	got := nonEmpty([]string{"", "relative", "/a/b/", "/a/b", "/a/./c", "/d"})
	assert.Equal(t, []string{"/a/b", "/a/c", "/d"}, got)
}

func TestDefaultRules_UnresolvedPathsFindNothing(t *testing.T) {
	rules := DefaultRules(domain.ResolvedPaths{}, allowAll, time.Now)
	require.NotEmpty(t, rules)

	sink := newMemorySink()
	for _, rule := range rules {
		require.NoError(t, rule.Run(sink), rule.Name())
	}
	assert.Empty(t, sink.findings)
}

func TestDefaultRules_TempDedupesLocalAppData(t *testing.T) {
	p := testPaths("/vol")
	rules := DefaultRules(p, allowAll, time.Now)

	for _, rule := range rules {
		if rule.Name() != "temp-files" {
			continue
		}
		// %TEMP% equals %LOCALAPPDATA%\Temp in testPaths.
		assert.Equal(t, []string{p.Temp, filepath.Join(p.SystemRoot, "Temp")}, rule.Targets())
		return
	}
	t.Fatal("temp-files rule missing")
}

func TestDefaultRules_ScanFakeVolume(t *testing.T) {
	root := t.TempDir()
	p := testPaths(root)
	guard := DefaultGuard(p)

	writeFile(t, filepath.Join(p.Temp, "x.tmp"), 11)
	writeFile(t, filepath.Join(p.LocalAppData, "Google", "Chrome", "User Data", "Default", "Cache", "data_1"), 22)
	writeFile(t, filepath.Join(p.SystemRoot, "Logs", "CBS", "CBS.log"), 33)
	writeFile(t, filepath.Join(p.SystemRoot, "System32", "spool", "PRINTERS", "job.spl"), 44)
	writeFile(t, filepath.Join(p.RecycleBin, "S-1", "$Rfile"), 55)

	sink := newMemorySink()
	for _, rule := range DefaultRules(p, guard, time.Now) {
		require.NoError(t, rule.Run(sink), rule.Name())
	}

	assert.Equal(t, []string{filepath.Join(p.Temp, "x.tmp")}, sink.paths(domain.CategoryTemp))
	assert.Len(t, sink.findings[domain.CategoryCache], 1)
	assert.Len(t, sink.findings[domain.CategoryRecycle], 1)
	assert.NotEmpty(t, sink.findings[domain.CategoryLogs])
	assert.Empty(t, sink.findings[domain.CategoryPrinterTemp], "spool lives under System32")

	for c, findings := range sink.findings {
		for _, f := range findings {
			assert.True(t, guard.IsSafe(f.Path), "%s: %s", c, f.Path)
			assert.NotZero(t, f.Size)
		}
	}
}

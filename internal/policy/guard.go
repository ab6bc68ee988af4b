package policy

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// Guard implements domain.PathGuard over a fixed set of roots.
// Matching is done on whole path segments: C:\Windows2 is not under C:\Windows.
type Guard struct {
	protected []string // Vetoed along with everything below them
	system    []string // Vetoed only on exact match
	foldCase  bool
}

// NewGuard creates a guard. Case folding follows the host filesystem.
func NewGuard(protected, system []string) *Guard {
	return newGuard(protected, system, runtime.GOOS == "windows")
}

func newGuard(protected, system []string, foldCase bool) *Guard {
	g := &Guard{foldCase: foldCase}
	g.protected = g.normalizeAll(protected)
	g.system = g.normalizeAll(system)
	return g
}

// DefaultGuard protects the system binaries and program directories of the volume.
func DefaultGuard(p domain.ResolvedPaths) *Guard {
	var protected []string
	if p.SystemRoot != "" {
		protected = append(protected,
			filepath.Join(p.SystemRoot, "System32"),
			filepath.Join(p.SystemRoot, "SysWOW64"),
		)
	}
	protected = append(protected, p.ProgramFiles, p.ProgramFilesX86)

	system := []string{p.SystemRoot, p.ProgramFiles, p.ProgramFilesX86, p.ProgramData}
	return NewGuard(protected, system)
}

// IsSafe reports whether path may be scanned or modified.
// Empty and relative paths are never safe.
func (g *Guard) IsSafe(path string) bool {
	if path == "" || !filepath.IsAbs(path) {
		return false
	}
	p := g.normalize(path)

	for _, root := range g.protected {
		if within(p, root) {
			return false
		}
	}
	for _, dir := range g.system {
		if p == dir {
			return false
		}
	}
	return true
}

// Protected returns the normalized protected roots.
func (g *Guard) Protected() []string {
	return append([]string(nil), g.protected...)
}

func (g *Guard) normalize(path string) string {
	cleaned := filepath.Clean(path)
	if g.foldCase {
		cleaned = strings.ToLower(cleaned)
	}
	return cleaned
}

func (g *Guard) normalizeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || !filepath.IsAbs(p) {
			continue
		}
		out = append(out, g.normalize(p))
	}
	return out
}

// within reports whether path equals root or lies below it.
func within(path, root string) bool {
	if path == root {
		return true
	}
	sep := string(filepath.Separator)
	if strings.HasSuffix(root, sep) {
		// Volume roots such as C:\ or / already end in a separator.
		return strings.HasPrefix(path, root)
	}
	return strings.HasPrefix(path, root+sep)
}

// exclusion vetoes a changing set of roots on top of a base guard.
type exclusion struct {
	base     domain.PathGuard
	roots    func() []string
	foldCase bool
}

// Exclude wraps base so that everything below the roots returned by roots is
// also unsafe. roots is evaluated on every check, so a backup directory moved
// at runtime stays excluded.
func Exclude(base domain.PathGuard, roots func() []string) domain.PathGuard {
	return &exclusion{base: base, roots: roots, foldCase: runtime.GOOS == "windows"}
}

func (e *exclusion) IsSafe(path string) bool {
	if !e.base.IsSafe(path) {
		return false
	}
	g := &Guard{foldCase: e.foldCase}
	p := g.normalize(path)
	for _, root := range g.normalizeAll(e.roots()) {
		if within(p, root) {
			return false
		}
	}
	return true
}

var (
	_ domain.PathGuard = (*Guard)(nil)
	_ domain.PathGuard = (*exclusion)(nil)
)

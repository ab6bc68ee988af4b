package policy

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/IGLOU-EU/go-wildcard"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

var foldNames = runtime.GOOS == "windows"

// matchName matches a base name against a wildcard pattern.
func matchName(pattern, name string) bool {
	if foldNames {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}
	return wildcard.Match(pattern, name)
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// expand resolves wildcard segments against the filesystem.
// Plain paths are returned as-is when they exist; missing paths yield nothing.
func expand(pattern string) []string {
	if pattern == "" || !filepath.IsAbs(pattern) {
		return nil
	}
	pattern = filepath.Clean(pattern)
	if !hasMeta(pattern) {
		if _, err := os.Lstat(pattern); err != nil {
			return nil
		}
		return []string{pattern}
	}

	sep := string(filepath.Separator)
	vol := filepath.VolumeName(pattern)
	rest := strings.TrimPrefix(pattern[len(vol):], sep)
	bases := []string{vol + sep}

	for _, seg := range strings.Split(rest, sep) {
		if seg == "" {
			continue
		}
		var next []string
		for _, base := range bases {
			if !hasMeta(seg) {
				p := filepath.Join(base, seg)
				if _, err := os.Lstat(p); err == nil {
					next = append(next, p)
				}
				continue
			}
			entries, err := os.ReadDir(base)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if matchName(seg, e.Name()) {
					next = append(next, filepath.Join(base, e.Name()))
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		bases = next
	}
	return bases
}

// walkFiles calls fn for every regular file under root that the guard allows.
// Unreadable entries are skipped; unsafe directories are not descended into.
func walkFiles(root string, guard domain.PathGuard, shallow bool, fn func(path string, info fs.FileInfo)) {
	if !guard.IsSafe(root) {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Missing or unreadable entry: keep enumerating the rest.
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if shallow || !guard.IsSafe(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !guard.IsSafe(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fn(path, info)
		return nil
	})
}

// aggregate sums the sizes of regular files at or under path.
func aggregate(path string, guard domain.PathGuard) (size uint64, files int) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, 0
	}
	if info.Mode().IsRegular() {
		if !guard.IsSafe(path) {
			return 0, 0
		}
		return uint64(info.Size()), 1
	}
	if !info.IsDir() {
		return 0, 0
	}
	walkFiles(path, guard, false, func(_ string, fi fs.FileInfo) {
		size += uint64(fi.Size())
		files++
	})
	return size, files
}

// extensionOf returns the lower-cased extension including the dot.
func extensionOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// hasSuffix reports whether name ends with one of the given suffixes.
// Suffixes may span several dots (".msi.cache").
func hasSuffix(name string, suffixes []string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

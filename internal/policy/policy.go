// Package policy implements the scan rules that find disposable artifacts,
// the static table that registers them, and the path guard they consult.
package policy

import (
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// ScanRule is one independent scan procedure for a single category.
// Rules are stateless between runs and tolerate missing directories.
type ScanRule interface {
	// Name returns a unique identifier (e.g., "browser-cache").
	Name() string

	// Category returns the bucket this rule reports into.
	Category() domain.Category

	// Targets returns the absolute paths or wildcard patterns the rule looks at.
	Targets() []string

	// Owners returns process names that hold files under the targets open.
	// Patterns are matched case-insensitively.
	Owners() []string

	// Run enumerates the targets and appends findings to sink.
	Run(sink domain.ResultSink) error
}

// Spec is the static description shared by every rule variant.
type Spec struct {
	Label     string
	Kind      domain.Category
	Paths     []string
	Processes []string
}

func (s Spec) Name() string              { return s.Label }
func (s Spec) Category() domain.Category { return s.Kind }
func (s Spec) Targets() []string         { return s.Paths }
func (s Spec) Owners() []string          { return s.Processes }

// DirRule reports one aggregate finding per existing target.
// A target may be a directory, a single file, or a wildcard pattern.
type DirRule struct {
	Spec
	Guard   domain.PathGuard
	Subtype string
}

// Run reports every target with a non-zero aggregate size.
func (r *DirRule) Run(sink domain.ResultSink) error {
	for _, target := range r.Paths {
		for _, path := range expand(target) {
			if !r.Guard.IsSafe(path) {
				continue
			}
			size, files := aggregate(path, r.Guard)
			if size == 0 {
				continue
			}
			sink.Add(domain.Finding{
				Path:      path,
				Size:      size,
				Category:  r.Kind,
				Subtype:   r.Subtype,
				FileCount: files,
			})
		}
	}
	return nil
}

// FileRule reports individual files that pass its filter.
//
// A file matches when NamePattern (if set) matches its base name and, if any
// of Extensions or MaxAge is set, it has one of the extensions OR it was last
// modified more than MaxAge ago.
type FileRule struct {
	Spec
	Guard       domain.PathGuard
	Extensions  []string      // Lower-case suffixes, e.g. ".log", ".msi.cache"
	NamePattern string        // Wildcard on the base name, e.g. "thumbcache_*.db"
	MaxAge      time.Duration // Zero disables the age test
	Shallow     bool          // Do not descend into subdirectories
	ExtSubtype  string        // Subtype for extension matches
	AgeSubtype  string        // Subtype for age-only matches
	Now         func() time.Time
}

// Run walks each target and reports matching non-empty files.
func (r *FileRule) Run(sink domain.ResultSink) error {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	var found []domain.Finding
	report := func(path string, info fs.FileInfo) {
		if info.Size() <= 0 {
			return
		}
		ok, subtype := r.match(info.Name(), info.ModTime(), now)
		if !ok {
			return
		}
		found = append(found, domain.Finding{
			Path:       path,
			Size:       uint64(info.Size()),
			Category:   r.Kind,
			Subtype:    subtype,
			ModifiedAt: info.ModTime(),
			Extension:  extensionOf(info.Name()),
		})
	}

	for _, target := range r.Paths {
		for _, path := range expand(target) {
			if !r.Guard.IsSafe(path) {
				continue
			}
			info, err := os.Lstat(path)
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() {
				report(path, info)
				continue
			}
			if info.IsDir() {
				walkFiles(path, r.Guard, r.Shallow, report)
			}
		}
	}

	if len(found) > 0 {
		sink.AddAll(r.Kind, found)
	}
	return nil
}

func (r *FileRule) match(name string, modified, now time.Time) (bool, string) {
	if r.NamePattern != "" && !matchName(r.NamePattern, name) {
		return false, ""
	}
	if len(r.Extensions) == 0 && r.MaxAge == 0 {
		return true, ""
	}
	if hasSuffix(name, r.Extensions) {
		return true, r.ExtSubtype
	}
	if r.MaxAge > 0 && now.Sub(modified) > r.MaxAge {
		return true, r.AgeSubtype
	}
	return false, ""
}

// RecycleRule measures the recycle bin as one aggregate.
// The executor empties it in bulk instead of deleting per file.
type RecycleRule struct {
	Spec
	Guard domain.PathGuard
}

// Run reports the summed size of each bin root.
func (r *RecycleRule) Run(sink domain.ResultSink) error {
	for _, root := range r.Paths {
		if !r.Guard.IsSafe(root) {
			continue
		}
		size, files := aggregate(root, r.Guard)
		if size == 0 {
			continue
		}
		sink.Add(domain.Finding{Path: root, Size: size, Category: r.Kind, FileCount: files})
	}
	return nil
}

// LargeFileRule reports the biggest files under its roots.
// Exclusion of system locations is left entirely to the guard.
type LargeFileRule struct {
	Spec
	Guard             domain.PathGuard
	MinSize           uint64
	Limit             int
	ExcludeExtensions []string
}

// Run collects files >= MinSize, sorted by size descending, truncated to Limit.
func (r *LargeFileRule) Run(sink domain.ResultSink) error {
	var found []domain.Finding
	for _, root := range r.Paths {
		walkFiles(root, r.Guard, false, func(path string, info fs.FileInfo) {
			if uint64(info.Size()) < r.MinSize || hasSuffix(info.Name(), r.ExcludeExtensions) {
				return
			}
			found = append(found, domain.Finding{
				Path:       path,
				Size:       uint64(info.Size()),
				Category:   r.Kind,
				ModifiedAt: info.ModTime(),
				Extension:  extensionOf(info.Name()),
			})
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Size != found[j].Size {
			return found[i].Size > found[j].Size
		}
		return found[i].Path < found[j].Path
	})
	if r.Limit > 0 && len(found) > r.Limit {
		found = found[:r.Limit]
	}
	if len(found) > 0 {
		sink.AddAll(r.Kind, found)
	}
	return nil
}

var (
	_ ScanRule = (*DirRule)(nil)
	_ ScanRule = (*FileRule)(nil)
	_ ScanRule = (*RecycleRule)(nil)
	_ ScanRule = (*LargeFileRule)(nil)
)

// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"sort"
	"time"
)

// Category identifies one family of disposable artifacts.
type Category string

const (
	CategoryTemp            Category = "temp"
	CategoryRecycle         Category = "recycle"
	CategoryCache           Category = "cache"
	CategoryLogs            Category = "logs"
	CategoryUpdates         Category = "updates"
	CategoryThumbnails      Category = "thumbnails"
	CategoryPrefetch        Category = "prefetch"
	CategoryOldWindows      Category = "old_windows"
	CategoryErrorReports    Category = "error_reports"
	CategoryServicePacks    Category = "service_packs"
	CategoryMemoryDumps     Category = "memory_dumps"
	CategoryFontCache       Category = "font_cache"
	CategoryDiskCleanup     Category = "disk_cleanup"
	CategoryAppCache        Category = "app_cache"
	CategoryMediaCache      Category = "media_cache"
	CategorySearchIndex     Category = "search_index"
	CategoryBackupTemp      Category = "backup_temp"
	CategoryUpdateTemp      Category = "update_temp"
	CategoryDriverBackup    Category = "driver_backup"
	CategoryAppCrash        Category = "app_crash"
	CategoryAppLogs         Category = "app_logs"
	CategoryRecentItems     Category = "recent_items"
	CategoryNotification    Category = "notification"
	CategoryDNSCache        Category = "dns_cache"
	CategoryPrinterTemp     Category = "printer_temp"
	CategoryDeviceTemp      Category = "device_temp"
	CategoryWindowsDefender Category = "windows_defender"
	CategoryStoreCache      Category = "store_cache"
	CategoryOneDriveCache   Category = "onedrive_cache"
	CategoryDownloads       Category = "downloads"
	CategoryInstallerCache  Category = "installer_cache"
	CategoryDeliveryOpt     Category = "delivery_opt"
	CategoryLargeFiles      Category = "large_files"
)

var categoryTitles = map[Category]string{
	CategoryTemp:            "Temporary files",
	CategoryRecycle:         "Recycle bin",
	CategoryCache:           "Browser cache",
	CategoryLogs:            "System logs",
	CategoryUpdates:         "Windows Update cache",
	CategoryThumbnails:      "Thumbnail cache",
	CategoryPrefetch:        "Prefetch files",
	CategoryOldWindows:      "Previous Windows installations",
	CategoryErrorReports:    "Error reports",
	CategoryServicePacks:    "Service pack backups",
	CategoryMemoryDumps:     "Memory dumps",
	CategoryFontCache:       "Font cache",
	CategoryDiskCleanup:     "Disk cleanup leftovers",
	CategoryAppCache:        "Application cache",
	CategoryMediaCache:      "Media player cache",
	CategorySearchIndex:     "Search index temp files",
	CategoryBackupTemp:      "Backup temp files",
	CategoryUpdateTemp:      "Update temp files",
	CategoryDriverBackup:    "Driver backups",
	CategoryAppCrash:        "Application crash dumps",
	CategoryAppLogs:         "Application logs",
	CategoryRecentItems:     "Recent items",
	CategoryNotification:    "Notification cache",
	CategoryDNSCache:        "DNS cache",
	CategoryPrinterTemp:     "Printer temp files",
	CategoryDeviceTemp:      "Device setup logs",
	CategoryWindowsDefender: "Windows Defender history",
	CategoryStoreCache:      "Microsoft Store cache",
	CategoryOneDriveCache:   "OneDrive logs",
	CategoryDownloads:       "Downloads",
	CategoryInstallerCache:  "Installer cache",
	CategoryDeliveryOpt:     "Delivery Optimization cache",
	CategoryLargeFiles:      "Large files",
}

// AllCategories returns every known category in display order.
func AllCategories() []Category {
	return []Category{
		CategoryTemp, CategoryRecycle, CategoryCache, CategoryLogs, CategoryUpdates,
		CategoryThumbnails, CategoryPrefetch, CategoryOldWindows, CategoryErrorReports,
		CategoryServicePacks, CategoryMemoryDumps, CategoryFontCache, CategoryDiskCleanup,
		CategoryAppCache, CategoryMediaCache, CategorySearchIndex, CategoryBackupTemp,
		CategoryUpdateTemp, CategoryDriverBackup, CategoryAppCrash, CategoryAppLogs,
		CategoryRecentItems, CategoryNotification, CategoryDNSCache, CategoryPrinterTemp,
		CategoryDeviceTemp, CategoryWindowsDefender, CategoryStoreCache, CategoryOneDriveCache,
		CategoryDownloads, CategoryInstallerCache, CategoryDeliveryOpt, CategoryLargeFiles,
	}
}

// Title returns the human-readable category name.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryTitles[c]
	return ok
}

// Finding is one discovered disposable artifact.
// Immutable once produced by a scan rule.
type Finding struct {
	Path       string    `json:"path"`
	Size       uint64    `json:"size"`
	Category   Category  `json:"category"`
	Subtype    string    `json:"subtype,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
	Extension  string    `json:"extension,omitempty"`
	FileCount  int       `json:"file_count,omitempty"` // Files covered by an aggregate finding
}

// ScanResult maps each category to its findings in discovery order.
type ScanResult map[Category][]Finding

// Count returns the number of findings across all categories.
func (r ScanResult) Count() int {
	n := 0
	for _, fs := range r {
		n += len(fs)
	}
	return n
}

// Total returns the summed size of all findings.
func (r ScanResult) Total() uint64 {
	var total uint64
	for _, fs := range r {
		for _, f := range fs {
			total += f.Size
		}
	}
	return total
}

// CategoryTotal returns the summed size of one category.
func (r ScanResult) CategoryTotal(c Category) uint64 {
	var total uint64
	for _, f := range r[c] {
		total += f.Size
	}
	return total
}

// Categories returns the non-empty categories in display order.
func (r ScanResult) Categories() []Category {
	out := make([]Category, 0, len(r))
	for _, c := range AllCategories() {
		if len(r[c]) > 0 {
			out = append(out, c)
		}
	}
	// Unknown categories (custom rules) go last, sorted.
	var extra []Category
	for c, fs := range r {
		if !c.Valid() && len(fs) > 0 {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// All flattens the result, grouped by category in display order.
func (r ScanResult) All() []Finding {
	out := make([]Finding, 0, r.Count())
	for _, c := range r.Categories() {
		out = append(out, r[c]...)
	}
	return out
}

// Select returns the findings of the given categories.
func (r ScanResult) Select(categories ...Category) []Finding {
	var out []Finding
	for _, c := range categories {
		out = append(out, r[c]...)
	}
	return out
}

// Snapshot is one timestamped backup directory.
type Snapshot struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Size      uint64    `json:"size"`
}

// BackupInfo summarizes the backup root.
type BackupInfo struct {
	Dir       string     `json:"backup_dir"`
	Count     int        `json:"backup_count"`
	TotalSize uint64     `json:"total_size"`
	Snapshots []Snapshot `json:"backups"` // Newest first
}

// PruneReport captures what a retention pass removed.
type PruneReport struct {
	Removed  []string
	Failures []CleanError
}

// RestoreReport captures the outcome of restoring one snapshot.
type RestoreReport struct {
	Snapshot string
	Restored int
	Failed   int
}

// CatalogEntry records one file copied into a snapshot.
type CatalogEntry struct {
	Snapshot     string
	OriginalPath string
	RelPath      string
	Size         uint64
	SHA256       string
	BackedUpAt   time.Time
}

// CleanError pairs a path with the reason it could not be cleaned.
type CleanError struct {
	Path string
	Err  error
}

func (e CleanError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e CleanError) Unwrap() error {
	return e.Err
}

// CleanOutcome is the result of one clean run. Never mutated after return.
type CleanOutcome struct {
	CleanedPaths []string
	Errors       []CleanError
	FreedBytes   uint64
	Simulated    bool
	Snapshot     string // Backup snapshot used by the run, empty if none
	ExecutedAt   time.Time
	DurationMs   int64
}

// DiskInfo holds volume statistics.
type DiskInfo struct {
	Path        string
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
}

// ResolvedPaths is produced once at startup by the host.
// Scan rules only see these absolute paths, never the process environment.
type ResolvedPaths struct {
	VolumeRoot       string // e.g. C:\
	SystemRoot       string // e.g. C:\Windows
	ProgramData      string
	ProgramFiles     string
	ProgramFilesX86  string
	UserProfile      string
	LocalAppData     string
	AppData          string
	Temp             string
	Downloads        string
	RecycleBin       string
	DataDir          string // Logs and the backup catalog live here
	DefaultBackupDir string
}

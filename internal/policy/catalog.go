package policy

import (
	"path/filepath"
	"time"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

const (
	// StaleAge is the age after which downloads, installer leftovers and app logs are disposable.
	StaleAge = 30 * 24 * time.Hour

	// LargeFileMinSize is the threshold for the large-file report (100 MiB).
	LargeFileMinSize uint64 = 100 << 20

	// LargeFileLimit caps the large-file report.
	LargeFileLimit = 100
)

var (
	LogExtensions          = []string{".log", ".etl", ".dmp"}
	PrefetchExtensions     = []string{".pf"}
	SearchIndexExtensions  = []string{".tmp", ".old", ".bak", ".log"}
	DownloadTempExtensions = []string{".tmp", ".temp", ".part", ".crdownload", ".download"}
	InstallerExtensions    = []string{".tmp", ".temp", ".msi.cache", ".exe.cache", ".log", ".old"}
	WindowsInstallerTemp   = []string{".msp.cache", ".msi.cache", ".tmp", ".temp"}
	LargeFileDenylist      = []string{".sys", ".dll", ".exe", ".msi", ".mui", ".idx", ".cat", ".db"}
)

// Installer cache subtypes.
const (
	SubtypeTempInstaller     = "temp_installer"
	SubtypeVeryOldInstaller  = "very_old_installer"
	SubtypeWindowsInstallerC = "windows_installer_cache"
)

// DefaultRules builds the static rule table for one volume.
// Paths that resolve empty (e.g. no LocalAppData on this host) simply find nothing.
func DefaultRules(p domain.ResolvedPaths, guard domain.PathGuard, now func() time.Time) []ScanRule {
	j := filepath.Join
	win := p.SystemRoot
	local := p.LocalAppData
	roaming := p.AppData
	pd := p.ProgramData

	dir := func(label string, c domain.Category, owners []string, paths ...string) ScanRule {
		return &DirRule{Spec: Spec{Label: label, Kind: c, Paths: nonEmpty(paths), Processes: owners}, Guard: guard}
	}

	rules := []ScanRule{
		&FileRule{
			Spec:  Spec{Label: "temp-files", Kind: domain.CategoryTemp, Paths: nonEmpty([]string{p.Temp, j(win, "Temp"), j(local, "Temp")})},
			Guard: guard,
			Now:   now,
		},
		&RecycleRule{
			Spec:  Spec{Label: "recycle-bin", Kind: domain.CategoryRecycle, Paths: nonEmpty([]string{p.RecycleBin})},
			Guard: guard,
		},
		dir("browser-cache", domain.CategoryCache, []string{"chrome", "msedge", "firefox"},
			j(local, "Google", "Chrome", "User Data", "Default", "Cache"),
			j(local, "Microsoft", "Edge", "User Data", "Default", "Cache"),
			j(roaming, "Mozilla", "Firefox", "Profiles", "*", "cache2"),
		),
		&FileRule{
			Spec:       Spec{Label: "system-logs", Kind: domain.CategoryLogs, Paths: nonEmpty([]string{j(win, "Logs"), j(win, "debug")})},
			Guard:      guard,
			Extensions: LogExtensions,
			Now:        now,
		},
		dir("windows-update", domain.CategoryUpdates, nil,
			j(win, "SoftwareDistribution", "Download"),
			j(win, "SoftwareDistribution", "DataStore"),
		),
		&FileRule{
			Spec:        Spec{Label: "thumbnails", Kind: domain.CategoryThumbnails, Paths: nonEmpty([]string{j(local, "Microsoft", "Windows", "Explorer")}), Processes: []string{"explorer"}},
			Guard:       guard,
			NamePattern: "thumbcache_*.db",
			Shallow:     true,
			Now:         now,
		},
		&FileRule{
			Spec:       Spec{Label: "prefetch", Kind: domain.CategoryPrefetch, Paths: nonEmpty([]string{j(win, "Prefetch")})},
			Guard:      guard,
			Extensions: PrefetchExtensions,
			Now:        now,
		},
		dir("old-windows", domain.CategoryOldWindows, nil,
			j(p.VolumeRoot, "Windows.old"),
			j(p.VolumeRoot, "$Windows.~BT"),
			j(p.VolumeRoot, "$Windows.~WS"),
		),
		dir("error-reports", domain.CategoryErrorReports, nil,
			j(pd, "Microsoft", "Windows", "WER"),
			j(local, "Microsoft", "Windows", "WER"),
		),
		dir("service-packs", domain.CategoryServicePacks, nil,
			j(win, "$NtServicePackUninstall$"),
			j(win, "$hf_mig$"),
		),
		dir("memory-dumps", domain.CategoryMemoryDumps, nil,
			j(win, "Minidump"),
			j(win, "MEMORY.DMP"),
		),
		dir("font-cache", domain.CategoryFontCache, nil,
			j(win, "ServiceProfiles", "LocalService", "AppData", "Local", "FontCache"),
			j(win, "System32", "FNTCACHE.DAT"), // vetoed by the guard, listed for completeness
		),
		dir("disk-cleanup", domain.CategoryDiskCleanup, nil,
			j(win, "Temp", "CheckSur"),
			j(win, "Logs", "CBS"),
		),
		dir("app-cache", domain.CategoryAppCache, []string{"teams", "slack", "discord"},
			j(roaming, "Adobe", "Common"),
			j(local, "Microsoft", "Office", "OTele"),
			j(local, "Microsoft", "Teams", "Cache"),
			j(roaming, "Slack", "Cache"),
			j(roaming, "discord", "Cache"),
			j(local, "Microsoft", "Windows", "INetCache", "IE"),
		),
		dir("media-cache", domain.CategoryMediaCache, []string{"spotify", "vlc"},
			j(local, "Microsoft", "Media Player"),
			j(roaming, "vlc", "art"),
			j(local, "Spotify", "Storage"),
			j(roaming, "Spotify", "cache"),
			j(local, "Microsoft", "Windows", "Explorer", "iconcache*"),
		),
		&FileRule{
			Spec: Spec{Label: "search-index", Kind: domain.CategorySearchIndex, Paths: nonEmpty([]string{
				j(pd, "Microsoft", "Search", "Data", "Temp"),
				j(pd, "Microsoft", "Search", "Data", "Applications", "Windows"),
			})},
			Guard:      guard,
			Extensions: SearchIndexExtensions,
			Now:        now,
		},
		dir("backup-temp", domain.CategoryBackupTemp, nil,
			j(win, "Temp", "WindowsBackup"),
			j(win, "Logs", "WindowsBackup"),
			j(local, "Microsoft", "Windows", "WindowsBackup"),
		),
		dir("update-temp", domain.CategoryUpdateTemp, nil,
			j(win, "SoftwareDistribution", "PostRebootEventCache"),
			j(win, "SoftwareDistribution", "Temp"),
			j(win, "WinSxS", "Temp"),
			j(win, "Temp", "TrustedInstaller"),
		),
		dir("driver-backup", domain.CategoryDriverBackup, nil,
			j(win, "inf", "OLD"),
		),
		dir("app-crash", domain.CategoryAppCrash, nil,
			j(pd, "Microsoft", "Windows", "WER", "ReportArchive"),
			j(pd, "Microsoft", "Windows", "WER", "ReportQueue"),
			j(local, "CrashDumps"),
		),
		&FileRule{
			Spec: Spec{Label: "app-logs", Kind: domain.CategoryAppLogs, Processes: []string{"teams", "slack", "discord"}, Paths: nonEmpty([]string{
				j(roaming, "Microsoft", "Teams", "logs"),
				j(local, "Microsoft", "Office", "*.log"),
				j(roaming, "Slack", "logs"),
				j(roaming, "discord", "logs"),
			})},
			Guard:      guard,
			Extensions: []string{".log"},
			MaxAge:     StaleAge,
			Now:        now,
		},
		dir("recent-items", domain.CategoryRecentItems, nil,
			j(roaming, "Microsoft", "Windows", "Recent"),
			j(roaming, "Microsoft", "Office", "Recent"),
		),
		dir("notification-cache", domain.CategoryNotification, nil,
			j(local, "Microsoft", "Windows", "Notifications"),
			j(local, "Microsoft", "Windows", "ActionCenterCache"),
		),
		dir("dns-cache", domain.CategoryDNSCache, nil,
			j(win, "System32", "dnsrslvr.log"), // vetoed by the guard, listed for completeness
		),
		dir("printer-temp", domain.CategoryPrinterTemp, nil,
			j(win, "System32", "spool", "PRINTERS"), // vetoed by the guard, listed for completeness
		),
		dir("device-temp", domain.CategoryDeviceTemp, nil,
			j(win, "INF", "setupapi.dev.log"),
			j(win, "INF", "setupapi.log"),
		),
		dir("windows-defender", domain.CategoryWindowsDefender, nil,
			j(pd, "Microsoft", "Windows Defender", "Scans", "History"),
			j(pd, "Microsoft", "Windows Defender", "Support"),
		),
		dir("store-cache", domain.CategoryStoreCache, []string{"WinStore.App"},
			j(local, "Packages", "Microsoft.WindowsStore_8wekyb3d8bbwe", "LocalCache"),
			j(local, "Packages", "Microsoft.WindowsStore_8wekyb3d8bbwe", "TempState"),
		),
		dir("onedrive-cache", domain.CategoryOneDriveCache, []string{"onedrive"},
			j(local, "Microsoft", "OneDrive", "logs"),
			j(local, "Microsoft", "OneDrive", "settings", "Personal", "logs"),
		),
		&FileRule{
			Spec:       Spec{Label: "downloads", Kind: domain.CategoryDownloads, Paths: nonEmpty([]string{p.Downloads})},
			Guard:      guard,
			Extensions: DownloadTempExtensions,
			MaxAge:     StaleAge,
			Now:        now,
		},
		&FileRule{
			Spec: Spec{Label: "installer-cache", Kind: domain.CategoryInstallerCache, Paths: nonEmpty([]string{
				j(win, "Installer", "Temp"),
				j(pd, "Package Cache", "Temp"),
				j(win, "Downloaded Program Files", "Temp"),
				j(local, "Package Cache"),
				j(local, "Temp", "Downloaded Installations"),
			})},
			Guard:      guard,
			Extensions: InstallerExtensions,
			MaxAge:     StaleAge,
			ExtSubtype: SubtypeTempInstaller,
			AgeSubtype: SubtypeVeryOldInstaller,
			Now:        now,
		},
		&FileRule{
			Spec:       Spec{Label: "windows-installer", Kind: domain.CategoryInstallerCache, Paths: nonEmpty([]string{j(win, "Installer")})},
			Guard:      guard,
			Extensions: WindowsInstallerTemp,
			ExtSubtype: SubtypeWindowsInstallerC,
			Now:        now,
		},
		dir("delivery-optimization", domain.CategoryDeliveryOpt, nil,
			j(win, "ServiceProfiles", "NetworkService", "AppData", "Local", "Microsoft", "Windows", "DeliveryOptimization", "Cache"),
			j(win, "SoftwareDistribution", "DeliveryOptimization", "Cache"),
		),
		&LargeFileRule{
			Spec:              Spec{Label: "large-files", Kind: domain.CategoryLargeFiles, Paths: nonEmpty([]string{usersDir(p), pd})},
			Guard:             guard,
			MinSize:           LargeFileMinSize,
			Limit:             LargeFileLimit,
			ExcludeExtensions: LargeFileDenylist,
		},
	}
	return rules
}

// usersDir is the parent of the profile directory (C:\Users, /home).
func usersDir(p domain.ResolvedPaths) string {
	if p.UserProfile == "" {
		return ""
	}
	return filepath.Dir(p.UserProfile)
}

// nonEmpty drops paths built from unresolved (empty) bases, and duplicates
// (%TEMP% usually equals %LOCALAPPDATA%\Temp).
func nonEmpty(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" || !filepath.IsAbs(p) {
			continue
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

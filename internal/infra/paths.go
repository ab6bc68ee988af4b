package infra

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

const (
	backupDirName = "DiskClean_Backup"
	dataDirName   = "DiskClean"
)

// ResolvePaths reads the host environment once and returns every location
// the cleaner works with. The default backup directory prefers a fixed
// volume other than the system one.
func ResolvePaths() domain.ResolvedPaths {
	p := ResolvePathsFrom(runtime.GOOS, os.Getenv, GetRealUserHome())
	if parts, err := disk.Partitions(false); err == nil {
		if dir := chooseBackupDir(runtime.GOOS, p.VolumeRoot, parts); dir != "" {
			p.DefaultBackupDir = dir
		}
	}
	return p
}

// ResolvePathsFrom builds the paths from an explicit environment (for testing).
func ResolvePathsFrom(goos string, getenv func(string) string, home string) domain.ResolvedPaths {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	var p domain.ResolvedPaths
	if goos == "windows" {
		drive := env("SystemDrive", "C:")
		p.VolumeRoot = drive + `\`
		p.SystemRoot = env("SystemRoot", filepath.Join(p.VolumeRoot, "Windows"))
		p.ProgramData = env("ProgramData", filepath.Join(p.VolumeRoot, "ProgramData"))
		p.ProgramFiles = env("ProgramFiles", filepath.Join(p.VolumeRoot, "Program Files"))
		p.ProgramFilesX86 = getenv("ProgramFiles(x86)")
		p.UserProfile = env("USERPROFILE", home)
		p.LocalAppData = env("LOCALAPPDATA", filepath.Join(p.UserProfile, "AppData", "Local"))
		p.AppData = env("APPDATA", filepath.Join(p.UserProfile, "AppData", "Roaming"))
		p.Temp = env("TEMP", filepath.Join(p.LocalAppData, "Temp"))
		p.RecycleBin = filepath.Join(p.VolumeRoot, "$Recycle.Bin")
		p.DataDir = filepath.Join(p.LocalAppData, dataDirName)
	} else {
		p.VolumeRoot = "/"
		p.UserProfile = home
		p.LocalAppData = env("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
		p.AppData = env("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
		p.Temp = env("TMPDIR", "/tmp")
		p.RecycleBin = filepath.Join(env("XDG_DATA_HOME", filepath.Join(home, ".local", "share")), "Trash")
		p.DataDir = filepath.Join(home, ".diskclean")
	}
	p.Downloads = filepath.Join(p.UserProfile, "Downloads")
	p.DefaultBackupDir = filepath.Join(p.Temp, backupDirName)
	return p
}

// chooseBackupDir returns a backup directory on the first writable fixed
// NTFS/ReFS volume that is not the system volume, or "" when there is none.
// Only Windows has more than one candidate volume layout worth probing.
func chooseBackupDir(goos, volumeRoot string, parts []disk.PartitionStat) string {
	if goos != "windows" {
		return ""
	}
	system := strings.ToUpper(strings.TrimRight(volumeRoot, `\/`))
	for _, part := range parts {
		mount := strings.ToUpper(strings.TrimRight(part.Mountpoint, `\/`))
		if mount == "" || mount == system {
			continue
		}
		switch strings.ToUpper(part.Fstype) {
		case "NTFS", "REFS":
		default:
			continue
		}
		if !hasOpt(part.Opts, "rw") {
			continue
		}
		return mount + `\` + backupDirName
	}
	return ""
}

func hasOpt(opts []string, want string) bool {
	for _, o := range opts {
		if o == want {
			return true
		}
	}
	return false
}

// GetRealUserHome returns the invoking user's home directory, even when
// running under sudo.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}

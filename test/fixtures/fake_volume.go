// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"time"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// FakeVolume lays out a Windows-like system volume under a temp root.
type FakeVolume struct {
	Root string
}

// FakeFile is one file the fixture creates.
type FakeFile struct {
	Rel  string
	Size int
	Age  time.Duration // Zero keeps the current mtime
}

// NewFakeVolume creates a new fake volume generator.
func NewFakeVolume(root string) *FakeVolume {
	return &FakeVolume{Root: root}
}

// Paths returns the resolved locations of the fake volume.
func (v *FakeVolume) Paths() domain.ResolvedPaths {
	j := filepath.Join
	profile := j(v.Root, "Users", "alice")
	local := j(profile, "AppData", "Local")
	return domain.ResolvedPaths{
		VolumeRoot:       v.Root,
		SystemRoot:       j(v.Root, "Windows"),
		ProgramData:      j(v.Root, "ProgramData"),
		ProgramFiles:     j(v.Root, "Program Files"),
		ProgramFilesX86:  j(v.Root, "Program Files (x86)"),
		UserProfile:      profile,
		LocalAppData:     local,
		AppData:          j(profile, "AppData", "Roaming"),
		Temp:             j(local, "Temp"),
		Downloads:        j(profile, "Downloads"),
		RecycleBin:       j(v.Root, "$Recycle.Bin"),
		DataDir:          j(local, "DiskClean"),
		DefaultBackupDir: j(local, "Temp", "DiskClean_Backup"),
	}
}

// Disposable lists the files the default rules are expected to find.
func (v *FakeVolume) Disposable() []FakeFile {
	return []FakeFile{
		{Rel: "Users/alice/AppData/Local/Temp/setup.tmp", Size: 4096},
		{Rel: "Users/alice/AppData/Local/Temp/nested/extract.bin", Size: 2048},
		{Rel: "Windows/Temp/cab_1234.tmp", Size: 1024},
		{Rel: "Users/alice/AppData/Local/Google/Chrome/User Data/Default/Cache/data_0", Size: 8192},
		{Rel: "Users/alice/AppData/Local/Google/Chrome/User Data/Default/Cache/Cache_Data/f_000001", Size: 16384},
		{Rel: "Windows/Logs/setup.log", Size: 512},
		{Rel: "Windows/Prefetch/APP.EXE-1A2B3C4D.pf", Size: 256},
		{Rel: "Users/alice/Downloads/movie.mkv.part", Size: 3000},
		{Rel: "$Recycle.Bin/files/old-report.docx", Size: 777},
		{Rel: "$Recycle.Bin/info/old-report.docx.trashinfo", Size: 64},
	}
}

// Protected lists files no rule may report and no clean may touch.
func (v *FakeVolume) Protected() []FakeFile {
	return []FakeFile{
		{Rel: "Windows/System32/config/SYSTEM", Size: 4096},
		{Rel: "Windows/System32/LogFiles/srt.log", Size: 128},
		{Rel: "Windows/System32/spool/PRINTERS/job.spl", Size: 64},
		{Rel: "Program Files/App/app.log", Size: 100},
	}
}

// Personal lists files that look old or large but are not disposable.
func (v *FakeVolume) Personal() []FakeFile {
	return []FakeFile{
		{Rel: "Users/alice/Downloads/thesis.pdf", Size: 1000},
		{Rel: "Users/alice/Documents/notes.txt", Size: 50, Age: 400 * 24 * time.Hour},
	}
}

// Create writes every fixture file. Contents are a repeating byte pattern
// derived from the path, so restored files can be compared byte for byte.
func (v *FakeVolume) Create() error {
	groups := [][]FakeFile{v.Disposable(), v.Protected(), v.Personal()}
	for _, group := range groups {
		for _, f := range group {
			if err := v.write(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Abs returns the absolute path of a fixture file.
func (v *FakeVolume) Abs(rel string) string {
	return filepath.Join(v.Root, filepath.FromSlash(rel))
}

// Content returns the bytes Create writes for f.
func (v *FakeVolume) Content(f FakeFile) []byte {
	data := make([]byte, f.Size)
	for i := range data {
		data[i] = f.Rel[i%len(f.Rel)]
	}
	return data
}

// Exists reports whether the fixture file is still on disk.
func (v *FakeVolume) Exists(f FakeFile) bool {
	_, err := os.Stat(v.Abs(f.Rel))
	return err == nil
}

func (v *FakeVolume) write(f FakeFile) error {
	path := v.Abs(f.Rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, v.Content(f), 0644); err != nil {
		return err
	}
	if f.Age > 0 {
		old := time.Now().Add(-f.Age)
		return os.Chtimes(path, old, old)
	}
	return nil
}

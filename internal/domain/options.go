package domain

import "fmt"

const (
	// DefaultMaxBackups is how many snapshots are kept.
	DefaultMaxBackups = 5
	// DefaultMaxBackupSize bounds the summed size of all snapshots (1 GiB).
	DefaultMaxBackupSize uint64 = 1 << 30
)

// Options is the process-wide, caller-mutable engine configuration.
type Options struct {
	Simulate      bool
	Backup        bool
	BackupDir     string
	MaxBackups    int
	MaxBackupSize uint64
}

// DefaultOptions returns safe defaults: simulate on, backup on.
func DefaultOptions(backupDir string) Options {
	return Options{
		Simulate:      true,
		Backup:        true,
		BackupDir:     backupDir,
		MaxBackups:    DefaultMaxBackups,
		MaxBackupSize: DefaultMaxBackupSize,
	}
}

// OptionsPatch carries a partial update. Nil fields are left unchanged.
type OptionsPatch struct {
	Simulate      *bool
	Backup        *bool
	BackupDir     *string
	MaxBackups    *int
	MaxBackupSize *uint64
}

// Merge applies the patch on top of o.
// Non-positive quotas are rejected and o is returned unchanged.
func (o Options) Merge(p OptionsPatch) (Options, error) {
	out := o
	if p.Simulate != nil {
		out.Simulate = *p.Simulate
	}
	if p.Backup != nil {
		out.Backup = *p.Backup
	}
	if p.BackupDir != nil && *p.BackupDir != "" {
		out.BackupDir = *p.BackupDir
	}
	if p.MaxBackups != nil {
		if *p.MaxBackups <= 0 {
			return o, fmt.Errorf("max backups must be positive, got %d: %w", *p.MaxBackups, ErrInvalidOption)
		}
		out.MaxBackups = *p.MaxBackups
	}
	if p.MaxBackupSize != nil {
		if *p.MaxBackupSize == 0 {
			return o, fmt.Errorf("max backup size must be positive: %w", ErrInvalidOption)
		}
		out.MaxBackupSize = *p.MaxBackupSize
	}
	return out, nil
}

// Patch turns o into a patch. The run-mode flags always apply; an empty
// backup dir and zero quotas keep the values the patch is merged onto.
func (o Options) Patch() OptionsPatch {
	p := OptionsPatch{Simulate: &o.Simulate, Backup: &o.Backup}
	if o.BackupDir != "" {
		p.BackupDir = &o.BackupDir
	}
	if o.MaxBackups != 0 {
		p.MaxBackups = &o.MaxBackups
	}
	if o.MaxBackupSize != 0 {
		p.MaxBackupSize = &o.MaxBackupSize
	}
	return p
}

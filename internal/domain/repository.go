package domain

import "context"

// PathGuard decides whether a path may be scanned or modified.
type PathGuard interface {
	// IsSafe returns false for protected roots, anything under them,
	// and top-level system directories.
	IsSafe(path string) bool
}

// ResultSink receives findings from scan rules.
// Implementations must be safe for concurrent use.
type ResultSink interface {
	// Add appends one finding to its category bucket.
	Add(f Finding)

	// AddAll appends findings to one category bucket, keeping their order.
	AddAll(category Category, findings []Finding)
}

// Deleter removes files from disk.
// Implementation: recycle bin on Windows, freedesktop Trash elsewhere.
type Deleter interface {
	// SoftDelete moves the path somewhere it can be recovered from.
	SoftDelete(path string) error

	// HardDelete removes the path permanently.
	HardDelete(path string) error
}

// RecycleBin empties the volume's recycle bin in one bulk operation.
type RecycleBin interface {
	// Empty is idempotent: an already empty bin is not an error.
	Empty() error
}

// DiskStats reads volume statistics.
// Implementation: uses gopsutil.
type DiskStats interface {
	// Usage returns statistics for the volume holding path.
	Usage(path string) (DiskInfo, error)
}

// ProcessManager looks up running processes.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern.
	FindByName(pattern string) ([]int, error)
}

// BackupStore manages timestamped backup snapshots.
type BackupStore interface {
	// Dir returns the backup root.
	Dir() string

	// SetDir switches the backup root, creating it if missing.
	SetDir(dir string) error

	// SetLimits updates the retention quotas.
	SetLimits(maxBackups int, maxSize uint64)

	// Info walks the backup root. A missing root yields empty info.
	Info() (BackupInfo, error)

	// Prune enforces count then size retention, oldest first.
	// The newest snapshot is never removed.
	Prune() (PruneReport, error)

	// CreateSnapshot allocates a new timestamp-named snapshot directory.
	CreateSnapshot() (string, error)

	// BackupFile copies src into the snapshot under its volume-relative path.
	BackupFile(snapshot, src string) error

	// Restore copies every file of the snapshot back to its original location.
	Restore(snapshot string) (RestoreReport, error)

	// Delete removes one snapshot, bypassing quotas.
	Delete(snapshot string) error

	// Manifest lists the catalog entries of one snapshot.
	Manifest(snapshot string) ([]CatalogEntry, error)
}

// BackupCatalog persists which files went into which snapshot.
// Implementation: SQLCipher encrypted database.
type BackupCatalog interface {
	// Record stores one backed-up file.
	Record(entry CatalogEntry) error

	// Entries returns all files recorded for a snapshot.
	Entries(snapshot string) ([]CatalogEntry, error)

	// Lookup returns the entry for a snapshot-relative path, or nil.
	Lookup(snapshot, relPath string) (*CatalogEntry, error)

	// Forget drops every entry of a snapshot.
	Forget(snapshot string) error

	// Close releases resources (e.g., database connection).
	Close() error
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// Recorder receives run statistics. Implementation: prometheus counters.
type Recorder interface {
	ObserveScan(result ScanResult, durationMs int64)
	RuleFailed(rule string)
	ObserveClean(outcome CleanOutcome)
	BackupsPruned(n int)
}

// Scanner runs every registered scan rule once.
type Scanner interface {
	// Scan blocks until all rules finished and returns the merged result.
	Scan(ctx context.Context) ScanResult
}

// Cleaner applies a clean run to a caller-selected set of findings.
type Cleaner interface {
	// Clean never fails as a whole; per-item failures land in the outcome.
	Clean(ctx context.Context, findings []Finding, opts Options) CleanOutcome
}

package infra

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

const (
	catalogDBName        = ".catalog.db"
	catalogSchemaVersion = "1"
)

// EncryptedCatalog implements domain.BackupCatalog on a SQLCipher database
// stored in the backup root. It records which original file every snapshot
// copy came from and the checksum taken while copying.
type EncryptedCatalog struct {
	db     *sql.DB
	dbPath string
}

// OpenCatalog opens the catalog in dir, creating its key on first use.
func OpenCatalog(dir string) (*EncryptedCatalog, error) {
	key, err := EnsureKey(NewFileKeyProvider(dir))
	if err != nil {
		return nil, err
	}
	return NewEncryptedCatalog(dir, key)
}

// NewEncryptedCatalog opens (or creates) the catalog database with the given key.
func NewEncryptedCatalog(dir string, key []byte) (*EncryptedCatalog, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	dbPath := filepath.Join(dir, catalogDBName)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, hex.EncodeToString(key))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// Clean workers record in parallel; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// A wrong key only shows up on the first real query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to catalog: %w", err)
	}

	c := &EncryptedCatalog{db: db, dbPath: dbPath}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return c, nil
}

func (c *EncryptedCatalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS backup_files (
		snapshot TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		original_path TEXT NOT NULL,
		size INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		backed_up_at INTEGER NOT NULL,
		PRIMARY KEY (snapshot, rel_path)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return err
	}
	_, err := c.db.Exec(`INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', ?)`, catalogSchemaVersion)
	return err
}

// Record stores one backed-up file. Re-recording the same path replaces it.
func (c *EncryptedCatalog) Record(e domain.CatalogEntry) error {
	at := e.BackedUpAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO backup_files (snapshot, rel_path, original_path, size, sha256, backed_up_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Snapshot, filepath.ToSlash(e.RelPath), e.OriginalPath, int64(e.Size), e.SHA256, at.Unix(),
	)
	return err
}

// Entries returns the files of one snapshot ordered by relative path.
func (c *EncryptedCatalog) Entries(snapshot string) ([]domain.CatalogEntry, error) {
	rows, err := c.db.Query(`
		SELECT snapshot, rel_path, original_path, size, sha256, backed_up_at
		FROM backup_files WHERE snapshot = ? ORDER BY rel_path`, snapshot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Lookup returns the entry for a snapshot-relative path, or nil when unknown.
func (c *EncryptedCatalog) Lookup(snapshot, relPath string) (*domain.CatalogEntry, error) {
	row := c.db.QueryRow(`
		SELECT snapshot, rel_path, original_path, size, sha256, backed_up_at
		FROM backup_files WHERE snapshot = ? AND rel_path = ?`, snapshot, filepath.ToSlash(relPath))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Forget drops every entry of a snapshot.
func (c *EncryptedCatalog) Forget(snapshot string) error {
	_, err := c.db.Exec(`DELETE FROM backup_files WHERE snapshot = ?`, snapshot)
	return err
}

// Path returns the database file path.
func (c *EncryptedCatalog) Path() string {
	return c.dbPath
}

// Close releases the database connection.
func (c *EncryptedCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (domain.CatalogEntry, error) {
	var (
		e    domain.CatalogEntry
		rel  string
		size int64
		at   int64
	)
	if err := r.Scan(&e.Snapshot, &rel, &e.OriginalPath, &size, &e.SHA256, &at); err != nil {
		return domain.CatalogEntry{}, err
	}
	e.RelPath = filepath.FromSlash(rel)
	e.Size = uint64(size)
	e.BackedUpAt = time.Unix(at, 0)
	return e, nil
}

var _ domain.BackupCatalog = (*EncryptedCatalog)(nil)

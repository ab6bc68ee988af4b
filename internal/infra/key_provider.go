package infra

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

const (
	catalogKeyFile = ".catalog.key"
	catalogKeySize = 32 // SQLCipher raw key, 256 bit
)

// FileKeyProvider keeps the catalog key next to the catalog, base64 encoded,
// readable by the owner only.
type FileKeyProvider struct {
	keyPath string
}

// NewFileKeyProvider creates a FileKeyProvider for the catalog in dir.
func NewFileKeyProvider(dir string) *FileKeyProvider {
	return &FileKeyProvider{keyPath: filepath.Join(dir, catalogKeyFile)}
}

// Path returns the key file location.
func (p *FileKeyProvider) Path() string {
	return p.keyPath
}

// GetKey reads and decodes the key file.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	encoded, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog key: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("decode catalog key: %w", err)
	}
	if len(key) != catalogKeySize {
		return nil, fmt.Errorf("catalog key is %d bytes, want %d", len(key), catalogKeySize)
	}
	return key, nil
}

// StoreKey writes the key with 0600 permissions, creating the directory.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if len(key) != catalogKeySize {
		return fmt.Errorf("catalog key is %d bytes, want %d", len(key), catalogKeySize)
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(p.keyPath, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("write catalog key: %w", err)
	}
	return nil
}

// KeyExists reports whether the key file is present.
func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}

// GenerateKey returns a fresh random catalog key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, catalogKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate catalog key: %w", err)
	}
	return key, nil
}

// EnsureKey loads the key, generating and storing one on first use.
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := provider.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

var _ domain.KeyProvider = (*FileKeyProvider)(nil)

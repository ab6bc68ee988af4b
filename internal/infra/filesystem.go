package infra

import (
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// FileDeleter implements domain.Deleter.
// SoftDelete goes to the Windows recycle bin or, elsewhere, the freedesktop
// Trash under trashDir.
type FileDeleter struct {
	trashDir string
	logger   *zap.Logger
}

// NewDeleter creates a deleter for the resolved host paths.
func NewDeleter(paths domain.ResolvedPaths, logger *zap.Logger) *FileDeleter {
	return &FileDeleter{trashDir: paths.RecycleBin, logger: logger}
}

// SoftDelete moves path somewhere the user can recover it from.
func (d *FileDeleter) SoftDelete(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return domain.Classify(err)
	}
	return d.softDelete(path)
}

// HardDelete removes path permanently. Read-only files are made writable
// and retried once.
func (d *FileDeleter) HardDelete(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		if chmodErr := os.Chmod(path, 0666); chmodErr == nil {
			if err = os.Remove(path); err == nil {
				return nil
			}
		}
	}
	if info, statErr := os.Lstat(path); statErr == nil && info.IsDir() {
		if err = os.RemoveAll(path); err == nil {
			return nil
		}
	}
	d.logger.Debug("hard delete failed", zap.String("path", path), zap.Error(err))
	return domain.Classify(err)
}

// RecycleBinImpl implements domain.RecycleBin for one volume.
type RecycleBinImpl struct {
	volumeRoot string
	trashDir   string
}

// NewRecycleBin creates the bin handle for the resolved host paths.
func NewRecycleBin(paths domain.ResolvedPaths) *RecycleBinImpl {
	return &RecycleBinImpl{volumeRoot: paths.VolumeRoot, trashDir: paths.RecycleBin}
}

// Empty empties the bin. An already empty bin is not an error.
func (b *RecycleBinImpl) Empty() error {
	return emptyRecycleBin(b.volumeRoot, b.trashDir)
}

var (
	_ domain.Deleter    = (*FileDeleter)(nil)
	_ domain.RecycleBin = (*RecycleBinImpl)(nil)
)

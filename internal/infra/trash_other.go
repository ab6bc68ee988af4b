//go:build !windows

package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// softDelete moves path into the freedesktop Trash: the payload goes to
// files/ and a .trashinfo record to info/. A rename across filesystems fails
// and the caller falls back to a hard delete.
func (d *FileDeleter) softDelete(path string) error {
	if d.trashDir == "" {
		return fmt.Errorf("no trash directory configured")
	}
	filesDir := filepath.Join(d.trashDir, "files")
	infoDir := filepath.Join(d.trashDir, "info")
	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return err
	}
	if err := os.MkdirAll(infoDir, 0700); err != nil {
		return err
	}

	base := filepath.Base(path)
	for i := 1; i < 10000; i++ {
		name := base
		if i > 1 {
			name = base + "." + strconv.Itoa(i)
		}
		infoPath := filepath.Join(infoDir, name+".trashinfo")
		// O_EXCL on the info file reserves the name.
		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
			(&url.URL{Path: path}).EscapedPath(), time.Now().Format("2006-01-02T15:04:05"))
		f.Close()
		if err != nil {
			os.Remove(infoPath)
			return err
		}
		if err := os.Rename(path, filepath.Join(filesDir, name)); err != nil {
			os.Remove(infoPath)
			return err
		}
		return nil
	}
	return fmt.Errorf("no free trash name for %s", base)
}

// emptyRecycleBin clears the Trash contents, keeping its directories.
func emptyRecycleBin(_ string, trashDir string) error {
	if trashDir == "" {
		return nil
	}
	var firstErr error
	for _, sub := range []string{"files", "info", "expunged"} {
		dir := filepath.Join(trashDir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

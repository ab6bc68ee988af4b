package domain

import (
	"errors"
	"io/fs"
)

// Error taxonomy. Wrap with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	// ErrPathUnsafe means the path guard vetoed the operation.
	ErrPathUnsafe = errors.New("path is protected")
	// ErrAccessDenied is a permission failure during enumeration or mutation.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound means the path does not exist (or is the wrong kind).
	ErrNotFound = errors.New("not found")
	// ErrBackupWriteFailed means a best-effort backup copy failed.
	ErrBackupWriteFailed = errors.New("backup write failed")
	// ErrDeleteFailed means both soft and hard delete failed.
	ErrDeleteFailed = errors.New("delete failed")
	// ErrRestoreFailed is a per-file restore failure.
	ErrRestoreFailed = errors.New("restore failed")
	// ErrRuleCrashed means a scan rule returned an error or panicked.
	ErrRuleCrashed = errors.New("scan rule crashed")
	// ErrInvalidOption is returned by SetOptions for non-positive quotas.
	ErrInvalidOption = errors.New("invalid option")
)

// Classify maps an OS error onto the taxonomy.
// Errors already in the taxonomy are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrPermission):
		return ErrAccessDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	}
	for _, known := range []error{
		ErrPathUnsafe, ErrAccessDenied, ErrNotFound, ErrBackupWriteFailed,
		ErrDeleteFailed, ErrRestoreFailed, ErrRuleCrashed, ErrInvalidOption,
	} {
		if errors.Is(err, known) {
			return known
		}
	}
	return err
}

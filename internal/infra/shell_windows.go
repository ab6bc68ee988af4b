//go:build windows

package infra

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modShell32           = windows.NewLazySystemDLL("shell32.dll")
	procSHFileOperationW = modShell32.NewProc("SHFileOperationW")
	procEmptyRecycleBin  = modShell32.NewProc("SHEmptyRecycleBinW")
)

const (
	foDelete = 0x0003

	fofSilent         = 0x0004
	fofNoConfirmation = 0x0010
	fofAllowUndo      = 0x0040
	fofNoErrorUI      = 0x0400

	sherbNoConfirmation = 0x00000001
	sherbNoProgressUI   = 0x00000002
	sherbNoSound        = 0x00000004

	hresultUnexpected = 0x8000FFFF // returned when the bin is already empty
)

// shFileOpStruct mirrors SHFILEOPSTRUCTW.
type shFileOpStruct struct {
	hwnd                  uintptr
	wFunc                 uint32
	pFrom                 *uint16
	pTo                   *uint16
	fFlags                uint16
	fAnyOperationsAborted int32
	hNameMappings         uintptr
	lpszProgressTitle     *uint16
}

// softDelete sends path to the recycle bin with SHFileOperationW.
func (d *FileDeleter) softDelete(path string) error {
	from, err := windows.UTF16FromString(path)
	if err != nil {
		return err
	}
	// pFrom is a double-NUL terminated list.
	from = append(from, 0)

	op := shFileOpStruct{
		wFunc:  foDelete,
		pFrom:  &from[0],
		fFlags: fofAllowUndo | fofNoConfirmation | fofSilent | fofNoErrorUI,
	}
	ret, _, _ := procSHFileOperationW.Call(uintptr(unsafe.Pointer(&op)))
	if ret != 0 {
		return fmt.Errorf("SHFileOperationW failed for %s: code 0x%x", path, ret)
	}
	if op.fAnyOperationsAborted != 0 {
		return fmt.Errorf("recycle of %s was aborted", path)
	}
	return nil
}

// emptyRecycleBin empties the bin of one drive through SHEmptyRecycleBinW.
func emptyRecycleBin(volumeRoot string, _ string) error {
	var root *uint16
	if volumeRoot != "" {
		p, err := windows.UTF16PtrFromString(volumeRoot)
		if err != nil {
			return err
		}
		root = p
	}
	flags := uintptr(sherbNoConfirmation | sherbNoProgressUI | sherbNoSound)
	ret, _, _ := procEmptyRecycleBin.Call(0, uintptr(unsafe.Pointer(root)), flags)

	hr := uint32(ret)
	if hr != 0 && hr != hresultUnexpected {
		return fmt.Errorf("SHEmptyRecycleBinW failed: HRESULT 0x%08x", hr)
	}
	return nil
}

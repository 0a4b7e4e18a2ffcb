//go:build windows

package fs

import (
	"syscall"
	"unsafe"
)

var (
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	getLogicalDrives = kernel32.NewProc("GetLogicalDrives")
	getDriveTypeW    = kernel32.NewProc("GetDriveTypeW")
)

const (
	driveUnknown   = 0
	driveNoRootDir = 1
)

// ListRoots returns the logical drives. Volume labels are not read since
// that can block on disconnected drives.
func ListRoots() []Root {
	var roots []Root

	mask, _, _ := getLogicalDrives.Call()
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A' + i))
		path := letter + ":\\"

		pathPtr, _ := syscall.UTF16PtrFromString(path)
		driveType, _, _ := getDriveTypeW.Call(uintptr(unsafe.Pointer(pathPtr)))
		if driveType == driveUnknown || driveType == driveNoRootDir {
			continue
		}
		roots = append(roots, Root{Title: letter + ":", Path: path})
	}
	return roots
}

//go:build windows

package diskspace

import "golang.org/x/sys/windows"

// availableSpace returns the bytes available to the current user on the
// volume holding dir, or 0 if the filesystem cannot be queried.
func availableSpace(dir string) int64 {
	pathPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0
	}
	return int64(freeBytesAvailable)
}

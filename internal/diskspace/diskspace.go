// Package diskspace checks available disk space before downloads are
// scheduled, so a full volume surfaces as one clear error instead of a
// cascade of failed writes.
package diskspace

import (
	"errors"
	"fmt"
)

// InsufficientSpaceError indicates that the target volume cannot hold the
// pending downloads.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// CheckAvailableSpace verifies the volume holding dir has room for
// requiredBytes times safetyMargin. If the filesystem cannot be queried
// (network mounts, virtual filesystems) it returns nil and lets the
// operation fail naturally.
func CheckAvailableSpace(dir string, requiredBytes int64, safetyMargin float64) error {
	availableBytes := availableSpace(dir)
	if availableBytes == 0 {
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * safetyMargin)
	if availableBytes < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           dir,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: availableBytes,
		}
	}
	return nil
}

// IsInsufficientSpaceError reports whether err is an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}

package diskspace

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestCheckAvailableSpaceSmallRequirement(t *testing.T) {
	// A temp dir always has room for one byte.
	if err := CheckAvailableSpace(t.TempDir(), 1, 1.1); err != nil {
		t.Errorf("expected nil for tiny requirement, got %v", err)
	}
}

func TestCheckAvailableSpaceImpossibleRequirement(t *testing.T) {
	dir := t.TempDir()
	if availableSpace(dir) == 0 {
		t.Skip("filesystem does not report free space")
	}

	err := CheckAvailableSpace(dir, math.MaxInt64/2, 1.0)
	if err == nil {
		t.Fatal("expected InsufficientSpaceError for absurd requirement")
	}
	if !IsInsufficientSpaceError(err) {
		t.Errorf("expected InsufficientSpaceError, got %T", err)
	}
	if !strings.Contains(err.Error(), "insufficient disk space") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestIsInsufficientSpaceErrorWrapped(t *testing.T) {
	inner := &InsufficientSpaceError{Path: "/x", RequiredBytes: 10, AvailableBytes: 1}
	wrapped := fmt.Errorf("sync failed: %w", inner)
	if !IsInsufficientSpaceError(wrapped) {
		t.Error("wrapped InsufficientSpaceError not detected")
	}
	if IsInsufficientSpaceError(errors.New("other")) {
		t.Error("unrelated error misdetected")
	}
}

package tree

import (
	"errors"
	"testing"
)

func TestRunLockIsExclusivePerRoot(t *testing.T) {
	dir := t.TempDir()

	release, err := AcquireRunLock(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := AcquireRunLock(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire err = %v, want ErrLocked", err)
	}

	other := t.TempDir()
	otherRelease, err := AcquireRunLock(other)
	if err != nil {
		t.Fatalf("different root must lock independently: %v", err)
	}
	otherRelease()

	release()
	release2, err := AcquireRunLock(dir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

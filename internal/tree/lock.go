package tree

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrLocked means another process is already operating on the same root.
var ErrLocked = errors.New("another sync is already running for this directory")

// AcquireRunLock takes an exclusive lock for the given mirror root so two
// processes cannot interleave downloads into the same tree. The returned
// release function removes the lock and is safe to call once.
func AcquireRunLock(rootDir string) (release func(), err error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	key := sha256.Sum256([]byte(abs))
	path := filepath.Join(os.TempDir(), fmt.Sprintf("coursemirror-%x.lock", key[:8]))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
		}
		return nil, err
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() { os.Remove(path) }, nil
}

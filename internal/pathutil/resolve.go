// Package pathutil provides path resolution shared by the CLI commands.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve expands a leading ~ to the user's home directory and converts the
// result to an absolute path. Configured directories like "~/Courses" go
// through here so every command and the run lock see the same form.
func Resolve(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Abs(path)
}

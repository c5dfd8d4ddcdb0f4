package util

import (
	"errors"
	"os"
	"path/filepath"
)

// MakeTempWorkdir creates a unique temp directory under $TMPDIR/webmc.
func MakeTempWorkdir(prefix string) (string, error) {
	base := filepath.Join(os.TempDir(), "webmc")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(base, prefix+"-")
}

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

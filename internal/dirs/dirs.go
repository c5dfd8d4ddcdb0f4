package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "webmc"

// ConfigDir returns the directory holding config.{yaml,toml,json}.
// - Linux: $XDG_CONFIG_HOME/webmc or ~/.config/webmc
// - macOS: ~/Library/Application Support/webmc
// - Windows: %AppData%/webmc
func ConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, appName), nil
}

// StateDir returns the directory for logs written while the queue view owns
// the terminal.
// - Linux: $XDG_STATE_HOME/webmc or ~/.local/state/webmc
// - macOS: ~/Library/Application Support/webmc/state
// - Windows: %LocalAppData%/webmc/state (fallback to ConfigDir/state)
func StateDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	case "windows":
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			return filepath.Join(la, appName, "state"), nil
		}
	}
	cfg, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "state"), nil
}

func xdgDir(env, homeRel string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// DefaultLogFile returns the log file used by the interactive view.
func DefaultLogFile() (string, error) {
	d, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, appName+".log"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures the config and state dirs exist.
func EnsureAll() error {
	for _, fn := range []func() (string, error){ConfigDir, StateDir} {
		p, err := fn()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}

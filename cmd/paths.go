package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "assess"

// getCacheDir returns the directory vulnerability lookups are cached in,
// following the XDG Base Directory specification on Linux/Unix.
// The directory is created lazily by the cache itself.
func getCacheDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir = os.Getenv("APPDATA")
		}
		if baseDir == "" {
			return "", fmt.Errorf("could not determine Windows cache directory")
		}
		baseDir = filepath.Join(baseDir, appDirName, "cache")

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, "Library", "Caches", appDirName)

	default:
		// $XDG_CACHE_HOME/assess > ~/.cache/assess
		if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
			baseDir = filepath.Join(xdgCacheHome, appDirName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".cache", appDirName)
		}
	}

	return filepath.Join(baseDir, "osv"), nil
}

// configSearchPaths lists the files consulted when --config is not given,
// lowest precedence first.
func configSearchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, configFileName+".yaml"))
	}
	return append(paths, filepath.Join(".", configFileName+".yaml"))
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "virtex"

// windows: %APPDATA%\virtex
// macOS: ~/Library/Application Support/virtex
// linux: $XDG_CONFIG_HOME/virtex or ~/.config/virtex
func GetConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", appName)
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(homeDir(), ".config", appName)
	}
}

// windows: %LOCALAPPDATA%\virtex
// macOS: ~/Library/Caches/virtex
// linux: $XDG_CACHE_HOME/virtex or ~/.cache/virtex
func GetCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName)
		}
		return filepath.Join(homeDir(), "AppData", "Local", appName)
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches", appName)
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(homeDir(), ".cache", appName)
	}
}

// GetRunsDir is the default parent of experiment serialization dirs.
func GetRunsDir() string {
	return filepath.Join(GetCacheDir(), "runs")
}

// FindConfigFile returns the first config file found in the usual places,
// or "" to run on schema defaults.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
		filepath.Join(GetConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if DebugLog != nil {
				DebugLog("found config file at %s", path)
			}
			return path
		}
	}

	return ""
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

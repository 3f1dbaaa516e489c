package app

import (
    "path/filepath"

    "github.com/adrg/xdg"

    "github.com/hyperifyio/readscroll/internal/prefs"
)

// AppName names the per-user data, cache and config directories.
const AppName = "readscroll"

// DefaultPrefsPath returns where the given preferences backend keeps its data.
// The memory backend needs no path.
func DefaultPrefsPath(backend string) string {
    switch backend {
    case prefs.BackendMemory:
        return ""
    case prefs.BackendFile:
        return filepath.Join(xdg.DataHome, AppName, "prefs.json")
    }
    return filepath.Join(xdg.DataHome, AppName, "prefs.db")
}

// DefaultCacheDir returns the page cache directory.
func DefaultCacheDir() string {
    return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultConfigPath returns the config file read when none is given.
func DefaultConfigPath() string {
    return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

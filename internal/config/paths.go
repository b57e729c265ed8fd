package config

import (
	"os"
	"path/filepath"
	"strings"
)

// CleanTarget represents a category of files that can be cleaned.
type CleanTarget struct {
	// Name is the unique identifier for this target.
	Name string

	// Paths are filesystem paths or glob patterns to clean.
	Paths []string

	// Description is a human-readable description.
	Description string

	// RequiresAdmin indicates whether elevated privileges are needed.
	RequiresAdmin bool

	// Category groups related targets ("user" or "system").
	Category string
}

// homeDir returns the user's home directory, falling back to $HOME.
func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.Getenv("HOME")
}

// xdgDir returns $env when set to an absolute path, otherwise ~/fallback.
func xdgDir(env, fallback string) string {
	if d := os.Getenv(env); filepath.IsAbs(d) {
		return d
	}
	return filepath.Join(homeDir(), fallback)
}

// ConfigFileName is the configuration file's name under $XDG_CONFIG_HOME.
const ConfigFileName = "arch_cleaner.json"

// DefaultConfigPath returns the per-user configuration file. ARCHMOLE_CONFIG
// overrides it; otherwise it lives in $XDG_CONFIG_HOME (~/.config).
func DefaultConfigPath() string {
	if p := os.Getenv("ARCHMOLE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), ConfigFileName)
}

// DefaultLogPath returns the operation log file under $XDG_STATE_HOME.
func DefaultLogPath() string {
	return filepath.Join(xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")), "archmole", "archmole.log")
}

// GetCleanTargets returns all file cleanup targets with paths expanded.
func GetCleanTargets() []CleanTarget {
	home := homeDir()

	return []CleanTarget{
		// ── User Cache ──────────────────────────────────────────
		{
			Name:        "UserCache",
			Paths:       []string{filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), "*")},
			Description: "Application caches under ~/.cache",
			Category:    "user",
		},
		{
			Name:        "Thumbnails",
			Paths:       []string{filepath.Join(home, ".thumbnails")},
			Description: "Legacy thumbnail cache",
			Category:    "user",
		},
		{
			Name:        "Trash",
			Paths:       []string{filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "Trash")},
			Description: "Desktop trash",
			Category:    "user",
		},

		// ── System Temp ─────────────────────────────────────────
		{
			Name:          "SystemTemp",
			Paths:         []string{"/tmp/*"},
			Description:   "System temporary files",
			RequiresAdmin: true,
			Category:      "system",
		},
	}
}

// GetTargetsByCategory returns clean targets filtered by category.
func GetTargetsByCategory(category string) []CleanTarget {
	var result []CleanTarget
	for _, t := range GetCleanTargets() {
		if t.Category == category {
			result = append(result, t)
		}
	}
	return result
}

// GetNeverDeletePaths returns paths that must never be removed, whatever a
// target or a custom path says.
func GetNeverDeletePaths() []string {
	home := homeDir()
	return []string{
		"/",
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/home",
		"/lib",
		"/lib64",
		"/opt",
		"/proc",
		"/root",
		"/run",
		"/sbin",
		"/srv",
		"/sys",
		"/tmp",
		"/usr",
		"/var",
		home,
		filepath.Join(home, ".cache"),
		filepath.Join(home, ".config"),
		filepath.Join(home, ".local"),
		filepath.Join(home, ".local", "share"),
	}
}

// IsProtected reports whether path is exactly one of the never-delete paths.
// Children of a protected directory are not protected by this check.
func IsProtected(path string) bool {
	clean := filepath.Clean(path)
	for _, p := range GetNeverDeletePaths() {
		if p != "" && clean == filepath.Clean(p) {
			return true
		}
	}
	return false
}

// LargeFileSkipPaths are pseudo or package-owned trees never scanned for
// large files.
func LargeFileSkipPaths() []string {
	return []string{"/proc", "/sys", "/run", "/usr/lib"}
}

// IsExcluded reports whether path lies inside one of dirs.
func IsExcluded(path string, dirs []string) bool {
	clean := filepath.Clean(path)
	for _, d := range dirs {
		d = filepath.Clean(d)
		if clean == d || strings.HasPrefix(clean, d+string(filepath.Separator)) || d == "/" {
			return true
		}
	}
	return false
}

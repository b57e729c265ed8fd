package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrPersist wraps every failure to write the configuration file.
var ErrPersist = errors.New("persist config")

// Config holds the user-tunable settings.
type Config struct {
	// KeepVersions is how many package versions paccache keeps (>= 1).
	KeepVersions int `json:"keep_versions"`

	// MaxLogSize is the journal vacuum target and log rotation size, in MB.
	MaxLogSize int `json:"max_log_size"`

	// ExcludeDirs are skipped by the large-file search.
	ExcludeDirs []string `json:"exclude_dirs"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		KeepVersions: 2,
		MaxLogSize:   100,
		ExcludeDirs:  []string{"/home", "/etc"},
	}
}

// Keys lists the persisted keys in display order.
var Keys = []string{"keep_versions", "max_log_size", "exclude_dirs"}

// Store loads and saves a Config at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the defaults overlaid with the keys present in the file.
// Unknown keys are ignored. A missing or unreadable file, or one that does
// not parse, yields the defaults; Load never fails.
func (s *Store) Load() Config {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Defaults()
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Defaults()
	}

	cfg := Defaults()
	if v, ok := raw["keep_versions"]; ok {
		var n int
		if json.Unmarshal(v, &n) == nil && n >= 1 {
			cfg.KeepVersions = n
		}
	}
	if v, ok := raw["max_log_size"]; ok {
		var n int
		if json.Unmarshal(v, &n) == nil && n >= 1 {
			cfg.MaxLogSize = n
		}
	}
	if v, ok := raw["exclude_dirs"]; ok {
		var dirs []string
		if json.Unmarshal(v, &dirs) == nil {
			cfg.ExcludeDirs = dirs
		}
	}
	return cfg
}

// Save writes cfg, creating the parent directory when needed. The file is
// replaced atomically.
func (s *Store) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrPersist, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".arch_cleaner-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrPersist, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.KeepVersions < 1 {
		return fmt.Errorf("keep_versions must be at least 1, got %d", c.KeepVersions)
	}
	if c.MaxLogSize < 1 {
		return fmt.Errorf("max_log_size must be at least 1, got %d", c.MaxLogSize)
	}
	return nil
}

// Set parses value for key and returns the updated copy.
// exclude_dirs takes a comma-separated list.
func (c Config) Set(key, value string) (Config, error) {
	switch key {
	case "keep_versions":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return c, fmt.Errorf("keep_versions: %w", err)
		}
		c.KeepVersions = n
	case "max_log_size":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return c, fmt.Errorf("max_log_size: %w", err)
		}
		c.MaxLogSize = n
	case "exclude_dirs":
		var dirs []string
		for _, d := range strings.Split(value, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		c.ExcludeDirs = dirs
	default:
		return c, fmt.Errorf("unknown config key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	return c, c.Validate()
}

// Get renders the value of key for display.
func (c Config) Get(key string) (string, error) {
	switch key {
	case "keep_versions":
		return strconv.Itoa(c.KeepVersions), nil
	case "max_log_size":
		return strconv.Itoa(c.MaxLogSize), nil
	case "exclude_dirs":
		return strings.Join(c.ExcludeDirs, ","), nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

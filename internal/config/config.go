package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/mimefilter"
	"github.com/justyntemme/docview/internal/model"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Display    DisplayConfig     `json:"display"`
	Thumbnails ThumbnailConfig   `json:"thumbnails"`
	Search     SearchConfig      `json:"search"`
	Watch      WatchConfig       `json:"watch"`
	Store      StoreConfig       `json:"store"`
	Metrics    MetricsConfig     `json:"metrics"`
	Trash      TrashConfig       `json:"trash"`
	Aliases    map[string]string `json:"aliases"` // shell shortcut -> command line
}

// DisplayConfig holds directory view settings
type DisplayConfig struct {
	DefaultMode   string   `json:"defaultMode"` // "list" | "grid"
	DefaultSort   string   `json:"defaultSort"` // "name" | "date" | "size"
	ShowSize      bool     `json:"showSize"`
	ShowHidden    bool     `json:"showHidden"`
	AllowMultiple bool     `json:"allowMultiple"`
	AcceptMimes   []string `json:"acceptMimes"`
}

// ThumbnailConfig holds thumbnail cache and sizing settings
type ThumbnailConfig struct {
	CacheEntries int      `json:"cacheEntries"`
	GridSize     int      `json:"gridSize"` // pixels
	ListSize     int      `json:"listSize"` // pixels
	ListMimes    []string `json:"listMimes"`
}

// SearchConfig holds search-related settings
type SearchConfig struct {
	DefaultDepth int `json:"defaultDepth"`
	MaxResults   int `json:"maxResults"`
}

// WatchConfig controls reloads on directory changes
type WatchConfig struct {
	Enabled    bool `json:"enabled"`
	DebounceMs int  `json:"debounceMs"`
}

type StoreConfig struct {
	Path string `json:"path"` // empty means next to config.json
}

type TrashConfig struct {
	Permanent bool   `json:"permanent"` // delete instead of moving to the trash
	Dir       string `json:"dir"`       // override the platform trash location
}

type MetricsConfig struct {
	Addr string `json:"addr"` // empty disables the endpoint
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // parse or validation error; defaults are in effect
}

func NewManager() *Manager {
	return &Manager{config: DefaultConfig()}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			DefaultMode:   "list",
			DefaultSort:   "name",
			ShowSize:      true,
			ShowHidden:    false,
			AllowMultiple: true,
			AcceptMimes:   []string{"*/*"},
		},
		Thumbnails: ThumbnailConfig{
			CacheEntries: 256,
			GridSize:     128,
			ListSize:     48,
			ListMimes:    append([]string(nil), mimefilter.ListThumbnailMimes...),
		},
		Search: SearchConfig{
			DefaultDepth: 2,
			MaxResults:   1000,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
		Aliases: map[string]string{
			"g": "mode grid",
			"l": "mode list",
			"r": "refresh",
			"q": "quit",
		},
	}
}

// ConfigPath returns ~/.config/docview/config.json on every platform.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "docview", "config.json")
}

// Load reads the configuration from path, or ConfigPath when path is empty.
// A missing file is created with defaults. A file that fails to parse or
// validate leaves defaults in effect and is reported by ParseError.
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path == "" {
		path = ConfigPath()
	}
	m.path = path
	m.parseErr = nil

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		debug.Log(debug.APP, "Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		return m.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", m.path, err)
	}

	// Unmarshal over defaults so omitted keys keep their default values
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		debug.Warn(debug.APP, "Config: JSON parse error in %s: %v", m.path, err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}
	if err := cfg.Validate(); err != nil {
		debug.Warn(debug.APP, "Config: invalid values in %s: %v", m.path, err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}

	debug.Log(debug.APP, "Config: loaded from %s", m.path)
	m.config = cfg
	return nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var err error
	if _, e := model.ParseMode(c.Display.DefaultMode); e != nil {
		err = multierr.Append(err, fmt.Errorf("display.defaultMode: %w", e))
	}
	if _, e := model.ParseSortOrder(c.Display.DefaultSort); e != nil {
		err = multierr.Append(err, fmt.Errorf("display.defaultSort: %w", e))
	}
	if len(c.Display.AcceptMimes) == 0 {
		err = multierr.Append(err, fmt.Errorf("display.acceptMimes: must not be empty"))
	}
	if c.Thumbnails.CacheEntries <= 0 {
		err = multierr.Append(err, fmt.Errorf("thumbnails.cacheEntries: must be positive, got %d", c.Thumbnails.CacheEntries))
	}
	if c.Thumbnails.GridSize <= 0 || c.Thumbnails.ListSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("thumbnails: sizes must be positive"))
	}
	if c.Search.DefaultDepth < 1 {
		err = multierr.Append(err, fmt.Errorf("search.defaultDepth: must be at least 1, got %d", c.Search.DefaultDepth))
	}
	if c.Watch.DebounceMs < 0 {
		err = multierr.Append(err, fmt.Errorf("watch.debounceMs: must not be negative"))
	}
	return err
}

// Mode is the parsed default mode. Call on validated configs.
func (c *Config) Mode() model.Mode {
	mode, _ := model.ParseMode(c.Display.DefaultMode)
	return mode
}

// SortOrder is the parsed default sort order. Call on validated configs.
func (c *Config) SortOrder() model.SortOrder {
	order, _ := model.ParseSortOrder(c.Display.DefaultSort)
	return order
}

// Debounce is the watch debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// StorePath resolves the sqlite path relative to the config file.
func (m *Manager) StorePath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config.Store.Path != "" {
		return m.config.Store.Path
	}
	dir := filepath.Dir(ConfigPath())
	if m.path != "" {
		dir = filepath.Dir(m.path)
	}
	return filepath.Join(dir, "docview.db")
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// Path is the file the manager loaded from.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetDefaultMode records the mode new views start in.
func (m *Manager) SetDefaultMode(mode model.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Display.DefaultMode = mode.String()
	return m.saveUnlocked()
}

// GenerateConfig backs up an existing config at path and writes fresh
// defaults. It returns the backup path, or "" when there was nothing to
// back up.
func GenerateConfig(path string) (backupPath string, err error) {
	if path == "" {
		path = ConfigPath()
	}

	if data, err := os.ReadFile(path); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(path), "config.backup."+timestamp+".json")
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}
	return backupPath, nil
}

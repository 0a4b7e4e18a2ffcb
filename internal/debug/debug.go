// Package debug provides a centralized, categorized debug logging system
// backed by zap. Build with -tags debug to enable every category by default.
package debug

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a debug logging category
type Category string

const (
	APP    Category = "APP"    // View-model orchestration, event loop
	FS     Category = "FS"     // Directory query source
	SEARCH Category = "SEARCH" // Search query parsing and matching
	STORE  Category = "STORE"  // Preference store
	THUMB  Category = "THUMB"  // Thumbnail cache and fetches
	UI     Category = "UI"     // Terminal rendering

	// Verbose, disabled unless asked for
	FS_ENTRY Category = "FS_ENTRY"
)

var (
	categoryMu        sync.RWMutex
	enabledCategories = map[Category]bool{
		APP:      Enabled,
		FS:       Enabled,
		SEARCH:   Enabled,
		STORE:    Enabled,
		THUMB:    Enabled,
		UI:       Enabled,
		FS_ENTRY: false,
	}

	loggerMu sync.RWMutex
	logger   = newLogger(os.Stderr)
)

func init() {
	// Format: DOCVIEW_DEBUG=APP,FS or DOCVIEW_DEBUG=all or DOCVIEW_DEBUG=none
	if env := os.Getenv("DOCVIEW_DEBUG"); env != "" {
		applySpec(env)
	}
}

func newLogger(w zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(w), zapcore.DebugLevel)
	return zap.New(core).Sugar()
}

func applySpec(spec string) {
	categoryMu.Lock()
	defer categoryMu.Unlock()

	spec = strings.ToUpper(strings.TrimSpace(spec))
	switch spec {
	case "ALL":
		for cat := range enabledCategories {
			enabledCategories[cat] = true
		}
	case "NONE":
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
	default:
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
		for _, cat := range strings.Split(spec, ",") {
			enabledCategories[Category(strings.TrimSpace(cat))] = true
		}
	}
}

func current() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetOutput redirects all log output. Used by tests and the CLI.
func SetOutput(w zapcore.WriteSyncer) {
	l := newLogger(w)
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	if !IsEnabled(cat) {
		return
	}
	current().With("cat", string(cat)).Debugf(format, args...)
}

// Warn logs regardless of category state. Non-fatal faults that degrade
// gracefully (thumbnail failures, persistence failures) go here.
func Warn(cat Category, format string, args ...interface{}) {
	current().With("cat", string(cat)).Warnf(format, args...)
}

// Configure applies a category spec in the DOCVIEW_DEBUG format.
func Configure(spec string) {
	applySpec(spec)
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}

// ListEnabled returns a slice of currently enabled categories
func ListEnabled() []Category {
	categoryMu.RLock()
	defer categoryMu.RUnlock()

	var enabled []Category
	for cat, on := range enabledCategories {
		if on {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}

// Sync flushes buffered log output.
func Sync() {
	_ = current().Sync()
}

// Package config provides configuration management for the dual-role key daemon.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Display is the X display name; empty means $DISPLAY
	Display string `mapstructure:"display" json:"display"`

	// Threshold is the longest press that still counts as a tap
	Threshold time.Duration `mapstructure:"threshold" json:"threshold"`

	// Modifiers lists keysym names of the keys that turn a press into a chord
	Modifiers []string `mapstructure:"modifiers" json:"modifiers"`

	// Keys contains the dual-role key bindings
	Keys []KeyConfig `mapstructure:"keys" json:"keys"`

	// PrimeSubstitutes taps every substitute once at startup
	PrimeSubstitutes bool `mapstructure:"prime_substitutes" json:"prime_substitutes"`

	// Tray shows a system tray icon
	Tray bool `mapstructure:"tray" json:"tray"`

	Log LogConfig `mapstructure:"log" json:"log"`
}

// KeyConfig binds one monitored key to the key emitted when it is tapped.
// Key and Substitute accept a decimal keycode or a keysym name.
type KeyConfig struct {
	Name       string `mapstructure:"name" json:"name"`
	Key        string `mapstructure:"key" json:"key"`
	Substitute string `mapstructure:"substitute" json:"substitute"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// DefaultThreshold is the tap threshold used when none is configured.
const DefaultThreshold = 300 * time.Millisecond

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Modifiers: []string{"Control_L", "Control_R"},
		Keys: []KeyConfig{
			{Name: "quote", Key: "48", Substitute: "255"},
			{Name: "caps", Key: "66", Substitute: "254"},
		},
		PrimeSubstitutes: true,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("threshold must be positive, got %s", c.Threshold))
	}
	if len(c.Keys) == 0 {
		errs = append(errs, errors.New("at least one key binding is required"))
	}
	seen := make(map[string]bool)
	for i, k := range c.Keys {
		label := k.Name
		if label == "" {
			label = fmt.Sprintf("keys[%d]", i)
		}
		key := strings.TrimSpace(k.Key)
		if key == "" {
			errs = append(errs, fmt.Errorf("%s: key is empty", label))
		} else if seen[key] {
			errs = append(errs, fmt.Errorf("%s: key %q bound twice", label, key))
		}
		seen[key] = true
		if strings.TrimSpace(k.Substitute) == "" {
			errs = append(errs, fmt.Errorf("%s: substitute is empty", label))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Manager handles loading, watching and reloading configuration
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	path      string
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new configuration manager. An empty path selects the
// default location under the user config directory.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("DUALKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{v: v, path: path, config: DefaultConfig()}
	m.setDefaults()
	return m, nil
}

// DefaultPath returns the path to the configuration file
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine config directory: %w", err)
	}
	return filepath.Join(dir, "dualkey", "config.json"), nil
}

func (m *Manager) setDefaults() {
	d := DefaultConfig()
	m.v.SetDefault("display", d.Display)
	m.v.SetDefault("threshold", d.Threshold.String())
	m.v.SetDefault("modifiers", d.Modifiers)
	keys := make([]map[string]any, 0, len(d.Keys))
	for _, k := range d.Keys {
		keys = append(keys, map[string]any{"name": k.Name, "key": k.Key, "substitute": k.Substitute})
	}
	m.v.SetDefault("keys", keys)
	m.v.SetDefault("prime_substitutes", d.PrimeSubstitutes)
	m.v.SetDefault("tray", d.Tray)
	m.v.SetDefault("log.level", d.Log.Level)
	m.v.SetDefault("log.format", d.Log.Format)
}

// Viper exposes the underlying viper instance for flag binding.
func (m *Manager) Viper() *viper.Viper {
	return m.v
}

// Path returns the configuration file path.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the configuration from disk, environment and bound flags.
// A missing file is not an error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config %s: %w", m.path, err)
		}
	}

	cfg, err := m.decode()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

func (m *Manager) decode() (*Config, error) {
	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		millisecondsHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := m.v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// millisecondsHook reads bare numbers given for a duration as milliseconds.
func millisecondsHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case float64:
			return time.Duration(v * float64(time.Millisecond)), nil
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return time.Duration(n) * time.Millisecond, nil
			}
		}
		return data, nil
	}
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnChange registers a function called with the new configuration after a
// successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Reload re-reads the file and notifies callbacks. On error the previous
// configuration stays in effect.
func (m *Manager) Reload() error {
	m.mu.Lock()
	if err := m.v.ReadInConfig(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("read config %s: %w", m.path, err)
	}
	cfg, err := m.decode()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.config = cfg
	callbacks := append([]func(*Config){}, m.callbacks...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
	return nil
}

// Watch reloads the configuration whenever the file changes, until ctx is
// done. The parent directory is watched so that editors replacing the file
// are seen too. Every reload goes through Reload, so file events and explicit
// reloads never touch viper concurrently. Reload errors are passed to onError.
func (m *Manager) Watch(ctx context.Context, onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	dir := filepath.Dir(m.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		target := filepath.Clean(m.path)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != target {
					continue
				}
				if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
					continue
				}
				if err := m.Reload(); err != nil && onError != nil {
					onError(err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("config watcher: %w", err))
				}
			}
		}
	}()
	return nil
}

// WriteDefault writes the default configuration to the config path. It
// refuses to overwrite an existing file.
func (m *Manager) WriteDefault() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	if err := m.v.SafeWriteConfigAs(m.path); err != nil {
		return fmt.Errorf("write config %s: %w", m.path, err)
	}
	return nil
}

// MarshalJSON writes the threshold in its string form so the output can be
// read back as configuration.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(struct {
		plain
		Threshold string `json:"threshold"`
	}{plain: plain(c), Threshold: c.Threshold.String()})
}

// Package config loads the CLI configuration. The embedded default file is
// the single source of defaults; a user file is decoded on top of it so that
// only the keys it sets override anything.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/propinspect/pkg/session"
	"github.com/oakwood-commons/propinspect/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// Config is the merged configuration.
type Config struct {
	App     App     `yaml:"app" json:"app"`
	Display Display `yaml:"display" json:"display"`
	Output  Output  `yaml:"output" json:"output"`
	Log     Log     `yaml:"log" json:"log"`
	Theme   Theme   `yaml:"theme" json:"theme"`
	Watch   Watch   `yaml:"watch" json:"watch"`
}

// App describes the tool.
type App struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Display holds the initial session filters.
type Display struct {
	ShowAdvanced           bool   `yaml:"showAdvanced" json:"showAdvanced"`
	ShowHidden             bool   `yaml:"showHidden" json:"showHidden"`
	ShowOnlyModified       bool   `yaml:"showOnlyModified" json:"showOnlyModified"`
	ShowOnlyModifiedGroups bool   `yaml:"showOnlyModifiedGroups" json:"showOnlyModifiedGroups"`
	SearchMode             string `yaml:"searchMode" json:"searchMode"`
}

// Output selects the renderer.
type Output struct {
	Format string `yaml:"format" json:"format"`
	Color  string `yaml:"color" json:"color"`
}

// Log configures pkg/logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Theme holds lipgloss colors.
type Theme struct {
	Header   string `yaml:"header" json:"header"`
	Modified string `yaml:"modified" json:"modified"`
	ReadOnly string `yaml:"readOnly" json:"readOnly"`
	Muted    string `yaml:"muted" json:"muted"`
}

// Watch configures the watch command.
type Watch struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// DefaultYAML returns a copy of the embedded default file.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default decodes the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if len(embeddedDefaultConfig) == 0 {
		return cfg, errors.New("embedded default config is empty")
	}
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults merged with the file at path. An empty path
// loads the defaults only.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ResolvePath returns explicit when set, otherwise the XDG location
// ($XDG_CONFIG_HOME/propinspect/config.yaml, falling back to
// ~/.config/propinspect/config.yaml) when that file exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	var errs []error
	if _, err := session.ParseSearchMode(c.Display.SearchMode); err != nil {
		errs = append(errs, fmt.Errorf("display.searchMode: %w", err))
	}
	switch c.Output.Format {
	case "tree", "table", "yaml", "json", "html":
	default:
		errs = append(errs, fmt.Errorf("output.format: invalid value %q", c.Output.Format))
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("output.color: invalid value %q", c.Output.Color))
	}
	if _, err := settings.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case settings.LogFormatConsole, settings.LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format: invalid value %q", c.Log.Format))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("watch.debounce: must not be negative"))
	}
	return errors.Join(errs...)
}

// DisplayMode converts the display section into session flags.
func (c Config) DisplayMode() session.DisplayMode {
	return session.DisplayMode{
		ShowAdvanced:           c.Display.ShowAdvanced,
		ShowHidden:             c.Display.ShowHidden,
		ShowOnlyModified:       c.Display.ShowOnlyModified,
		ShowOnlyModifiedGroups: c.Display.ShowOnlyModifiedGroups,
	}
}

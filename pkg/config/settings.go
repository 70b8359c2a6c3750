package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the optional daemon configuration file. Every field has a
// working default so the binary runs without one.
type Settings struct {
	// AssetsDir is where step payloads, wheels and interpreter environments
	// live, one subdirectory per step id.
	AssetsDir string `yaml:"assets_dir"`

	// UIDMin and UIDMax bound the manageable account range.
	UIDMin int `yaml:"uid_min"`
	UIDMax int `yaml:"uid_max"`

	// SudoersPath is the sudoer file owned by provisd.
	SudoersPath string `yaml:"sudoers_path"`

	// JournalPath is the sqlite run journal. Empty disables journaling.
	JournalPath string `yaml:"journal_path"`

	Logging LoggingSettings `yaml:"logging"`
	Metrics MetricsSettings `yaml:"metrics"`
	Tracing TracingSettings `yaml:"tracing"`
}

// LoggingSettings configures structured logging.
type LoggingSettings struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is console or json.
	Format string `yaml:"format"`
}

// MetricsSettings configures the Prometheus registry.
type MetricsSettings struct {
	Enabled bool `yaml:"enabled"`

	// ListenAddress serves the scrape endpoint in watch mode.
	ListenAddress string `yaml:"listen_address"`
}

// TracingSettings configures span export.
type TracingSettings struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		AssetsDir:   filepath.Join(os.TempDir(), "provisd"),
		UIDMin:      1000,
		UIDMax:      2000,
		SudoersPath: "/etc/sudoers.d/provisd",
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsSettings{
			ListenAddress: ":9272",
		},
	}
}

// LoadSettings reads the YAML settings file at path, layered over the
// defaults. An empty path returns the defaults unchanged.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if s.UIDMin > s.UIDMax {
		return Settings{}, fmt.Errorf("invalid settings %s: uid_min %d above uid_max %d", path, s.UIDMin, s.UIDMax)
	}
	return s, nil
}

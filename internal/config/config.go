package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML schema. Validate() checks the hard requirements;
// ValidateDetailed() adds friendlier advice for the CLI.
type Config struct {
	Version   int       `yaml:"version"`
	General   General   `yaml:"general"`
	Installer Installer `yaml:"installer"`
	Logging   Logging   `yaml:"logging"`
	Metrics   Metrics   `yaml:"metrics"`
	UI        UIOptions `yaml:"ui"`
}

type General struct {
	// DataRoot holds state.db (stored install settings, run history) and
	// the instance lock.
	DataRoot string `yaml:"data_root"`
}

type Installer struct {
	// DownloadsDirName is appended to the install folder to suggest a
	// download folder when none is set.
	DownloadsDirName string `yaml:"downloads_dir_name"`
	// CheckpointSeconds controls how often the settings save signal fires
	// while the app is running. 0 disables periodic checkpoints.
	CheckpointSeconds int `yaml:"checkpoint_seconds"`
}

type Logging struct {
	Level  string  `yaml:"level"`  // debug|info|warn|error
	Format string  `yaml:"format"` // human|json
	File   LogFile `yaml:"file"`
}

type LogFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type UIOptions struct {
	// RefreshHz controls the TUI refresh frequency (ticks per second). If 0, defaults to 4.
	// Values above 10 are clamped to 10 to avoid excessive CPU usage.
	RefreshHz int `yaml:"refresh_hz"`
}

const DefaultDownloadsDirName = "downloads"

// Default returns the configuration used when no config file exists.
func Default() *Config {
	c := &Config{
		Version: 1,
		General: General{DataRoot: "~/.local/share/modinstall"},
		Installer: Installer{
			DownloadsDirName:  DefaultDownloadsDirName,
			CheckpointSeconds: 60,
		},
		Logging: Logging{Level: "info", Format: "human"},
		UI:      UIOptions{RefreshHz: 4},
	}
	_ = c.expandPaths()
	return c
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DownloadsDirName returns the configured folder name or the default.
func (c *Config) DownloadsDirName() string {
	if c == nil || strings.TrimSpace(c.Installer.DownloadsDirName) == "" {
		return DefaultDownloadsDirName
	}
	return c.Installer.DownloadsDirName
}

func (c *Config) expandPaths() error {
	var err error
	if c.General.DataRoot, err = expandTilde(c.General.DataRoot); err != nil {
		return err
	}
	if c.Logging.File.Path, err = expandTilde(c.Logging.File.Path); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.General.DataRoot == "" {
		return errors.New("general.data_root is required")
	}
	if name := c.Installer.DownloadsDirName; strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("installer.downloads_dir_name must be a single folder name: %s", name)
	}
	if c.Installer.CheckpointSeconds < 0 {
		return errors.New("installer.checkpoint_seconds must be >= 0")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
		// ok
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return errors.New("logging.file.path is required when logging.file.enabled")
	}
	if c.Metrics.PrometheusTextfile.Enabled && c.Metrics.PrometheusTextfile.Path == "" {
		return errors.New("metrics.prometheus_textfile.path is required when enabled")
	}
	if c.UI.RefreshHz < 0 {
		return fmt.Errorf("ui.refresh_hz must be >= 0")
	}
	return nil
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// EnsureDir creates path if it is set.
func EnsureDir(path string, perm fs.FileMode) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, perm)
}

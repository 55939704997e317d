package config

import (
	"fmt"
	"strings"

	friendlyerrors "github.com/jxwalker/modinstall/internal/errors"
)

// ValidationError represents a detailed config validation error
type ValidationError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Config validation error in '%s': %s", e.Field, e.Message)
}

// ValidateDetailed performs comprehensive validation with friendly error messages
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError

	if c.Version != 1 {
		errs = append(errs, ValidationError{
			Field:      "version",
			Value:      c.Version,
			Message:    fmt.Sprintf("Unsupported version: %d", c.Version),
			Suggestion: "Use version: 1",
		})
	}

	if c.General.DataRoot == "" {
		errs = append(errs, ValidationError{
			Field:      "general.data_root",
			Message:    "Required field missing",
			Suggestion: "Set to a directory for modinstall data:\n  data_root: ~/.local/share/modinstall",
		})
	}

	if name := c.Installer.DownloadsDirName; strings.ContainsAny(name, `/\`) {
		errs = append(errs, ValidationError{
			Field:      "installer.downloads_dir_name",
			Value:      name,
			Message:    "Must be a single folder name",
			Suggestion: "Use a plain name such as: downloads",
		})
	}

	if c.Installer.CheckpointSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:      "installer.checkpoint_seconds",
			Value:      c.Installer.CheckpointSeconds,
			Message:    "Must be >= 0",
			Suggestion: "Use 0 to disable periodic checkpoints, or 30-300 seconds",
		})
	} else if c.Installer.CheckpointSeconds > 0 && c.Installer.CheckpointSeconds < 5 {
		errs = append(errs, ValidationError{
			Field:      "installer.checkpoint_seconds",
			Value:      c.Installer.CheckpointSeconds,
			Message:    "Very frequent checkpoints (<5s)",
			Suggestion: "Settings are also saved on exit; 30-300 seconds is plenty",
		})
	}

	lvl := strings.ToLower(c.Logging.Level)
	validLevels := []string{"", "debug", "info", "warn", "error"}
	found := false
	for _, valid := range validLevels {
		if lvl == valid {
			found = true
			break
		}
	}
	if !found {
		errs = append(errs, ValidationError{
			Field:      "logging.level",
			Value:      c.Logging.Level,
			Message:    "Invalid log level",
			Suggestion: "Use one of: debug, info, warn, error",
		})
	}

	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		errs = append(errs, ValidationError{
			Field:      "logging.file.path",
			Message:    "Log file enabled without a path",
			Suggestion: "Set a path such as:\n  path: ~/.local/share/modinstall/modinstall.log",
		})
	}

	if c.Metrics.PrometheusTextfile.Enabled && c.Metrics.PrometheusTextfile.Path == "" {
		errs = append(errs, ValidationError{
			Field:      "metrics.prometheus_textfile.path",
			Message:    "Metrics textfile enabled without a path",
			Suggestion: "Point it at your node_exporter textfile directory, e.g.\n  path: /var/lib/node_exporter/modinstall.prom",
		})
	}

	if c.UI.RefreshHz > 10 {
		errs = append(errs, ValidationError{
			Field:      "ui.refresh_hz",
			Value:      c.UI.RefreshHz,
			Message:    "Clamped to 10",
			Suggestion: "Values above 10 only cost CPU",
		})
	}

	return errs
}

// ValidateWithFriendlyErrors returns a user-friendly validation error
func (c *Config) ValidateWithFriendlyErrors() error {
	if err := c.Validate(); err != nil {
		return err
	}

	errs := c.ValidateDetailed()
	if len(errs) == 0 {
		return nil
	}

	var msg strings.Builder
	msg.WriteString("Configuration validation failed:\n\n")

	for i, err := range errs {
		msg.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
		if err.Value != nil {
			msg.WriteString(fmt.Sprintf("   Current value: %v\n", err.Value))
		}
		if err.Suggestion != "" {
			for _, line := range strings.Split(err.Suggestion, "\n") {
				msg.WriteString(fmt.Sprintf("   → %s\n", line))
			}
		}
		msg.WriteString("\n")
	}

	return friendlyerrors.NewFriendlyError(
		"Config validation failed",
		msg.String(),
	).WithDocs("https://github.com/jxwalker/modinstall#configuration")
}

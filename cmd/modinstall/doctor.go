package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jxwalker/modinstall/internal/config"
	"github.com/jxwalker/modinstall/internal/lockfile"
	"github.com/jxwalker/modinstall/internal/logging"
	"github.com/jxwalker/modinstall/internal/settings"
	"github.com/jxwalker/modinstall/internal/state"
)

// Check represents a single diagnostic check
type Check struct {
	Name     string
	Run      func(ctx context.Context) CheckResult
	Critical bool // If true, failure means installs will not work
}

// CheckResult represents the result of a diagnostic check
type CheckResult struct {
	Passed     bool
	Warning    bool // Passed but with warnings
	Message    string
	Suggestion string
}

func handleDoctor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	verbose := fs.Bool("verbose", false, "Show detailed output for each check")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, cfgErr := loadConfig(*cfgPath)
	fmt.Print("Running modinstall diagnostics...\n\n")
	checks := doctorChecks(cfg, cfgErr)

	passed, warnings, failed, criticalFailed := 0, 0, 0, false
	for _, check := range checks {
		start := time.Now()
		result := check.Run(ctx)
		duration := time.Since(start)

		symbol := "✓"
		switch {
		case !result.Passed:
			symbol = "✗"
			failed++
			criticalFailed = criticalFailed || check.Critical
		case result.Warning:
			symbol = "⚠"
			warnings++
			passed++
		default:
			passed++
		}

		fmt.Printf("%s %s", symbol, check.Name)
		if *verbose {
			fmt.Printf(" (%.2fs)", duration.Seconds())
		}
		fmt.Println()
		if result.Message != "" {
			fmt.Printf("  %s\n", result.Message)
		}
		if result.Suggestion != "" {
			for _, line := range strings.Split(result.Suggestion, "\n") {
				fmt.Printf("  → %s\n", line)
			}
		}
		if *verbose || !result.Passed || result.Warning {
			fmt.Println()
		}
	}

	fmt.Printf("\nDiagnostic Summary:\n")
	fmt.Printf("  Total checks: %d\n", len(checks))
	fmt.Printf("  Passed:       %d\n", passed)
	fmt.Printf("  Warnings:     %d\n", warnings)
	fmt.Printf("  Failed:       %d\n", failed)
	if criticalFailed {
		return fmt.Errorf("%d critical check(s) failed", failed)
	}
	return nil
}

// doctorChecks builds the checks for cfg. When the config did not load,
// only the config check runs.
func doctorChecks(cfg *config.Config, cfgErr error) []Check {
	checks := []Check{{
		Name:     "Config is valid",
		Critical: true,
		Run: func(ctx context.Context) CheckResult {
			if cfgErr != nil {
				return CheckResult{Message: cfgErr.Error(), Suggestion: "Fix the config file or remove it to use defaults"}
			}
			if issues := cfg.ValidateDetailed(); len(issues) > 0 {
				msgs := make([]string, 0, len(issues))
				for _, v := range issues {
					msgs = append(msgs, v.Error())
				}
				return CheckResult{Passed: true, Warning: true, Message: strings.Join(msgs, "\n  ")}
			}
			return CheckResult{Passed: true}
		},
	}}
	if cfgErr != nil {
		return checks
	}

	root := cfg.General.DataRoot
	checks = append(checks,
		Check{
			Name:     "Data root is writable",
			Critical: true,
			Run: func(ctx context.Context) CheckResult {
				if err := config.EnsureDir(root, 0o755); err != nil {
					return CheckResult{Message: err.Error(), Suggestion: "Set general.data_root to a folder you can write to"}
				}
				if err := tryWrite(root); err != nil {
					return CheckResult{Message: fmt.Sprintf("cannot write to %s: %v", root, err), Suggestion: "chmod u+w " + root}
				}
				return CheckResult{Passed: true, Message: root}
			},
		},
		Check{
			Name:     "Settings database",
			Critical: true,
			Run: func(ctx context.Context) CheckResult {
				st, err := state.Open(cfg)
				if err != nil {
					return CheckResult{Message: err.Error(), Suggestion: "Check that state.db in the data root is readable"}
				}
				defer func() { _ = st.Close() }()
				if err := st.CheckIntegrity(); err != nil {
					return CheckResult{Message: err.Error(), Suggestion: "Move state.db aside; remembered install folders will be forgotten"}
				}
				fi, err := os.Stat(st.Path)
				if err != nil {
					return CheckResult{Passed: true}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("%s (%s)", st.Path, humanize.Bytes(uint64(fi.Size())))}
			},
		},
		Check{
			Name: "No other instance running",
			Run: func(ctx context.Context) CheckResult {
				pid, err := lockfile.Held(root)
				if err != nil {
					return CheckResult{Passed: true, Warning: true, Message: err.Error(),
						Suggestion: "Remove " + filepath.Join(root, lockfile.Name) + " if no modinstall is running"}
				}
				if pid != 0 {
					return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("modinstall is running as PID %d", pid)}
				}
				return CheckResult{Passed: true}
			},
		},
		Check{
			Name: "Remembered modlists still exist",
			Run: func(ctx context.Context) CheckResult {
				return checkRememberedModlists(cfg)
			},
		},
	)
	if cfg.Logging.File.Enabled {
		checks = append(checks, Check{
			Name: "Log file is writable",
			Run: func(ctx context.Context) CheckResult {
				dir := filepath.Dir(cfg.Logging.File.Path)
				if err := config.EnsureDir(dir, 0o755); err != nil {
					return CheckResult{Message: err.Error()}
				}
				if err := tryWrite(dir); err != nil {
					return CheckResult{Message: err.Error(), Suggestion: "Point logging.file.path somewhere writable"}
				}
				return CheckResult{Passed: true}
			},
		})
	}
	return checks
}

func checkRememberedModlists(cfg *config.Config) CheckResult {
	st, err := state.Open(cfg)
	if err != nil {
		return CheckResult{Passed: true, Warning: true, Message: err.Error()}
	}
	defer func() { _ = st.Close() }()
	store, err := settings.Open(st)
	if err != nil {
		return CheckResult{Passed: true, Warning: true, Message: err.Error()}
	}
	var missing []string
	paths := store.ModlistPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, logging.SanitizeSource(p))
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Passed:     true,
			Warning:    true,
			Message:    fmt.Sprintf("%d of %d modlist(s) are gone: %s", len(missing), len(paths), strings.Join(missing, ", ")),
			Suggestion: "modinstall settings forget PATH",
		}
	}
	return CheckResult{Passed: true, Message: fmt.Sprintf("%d modlist(s) remembered", len(paths))}
}

func tryWrite(dir string) error {
	f, err := os.CreateTemp(dir, ".mi-wr-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jxwalker/modinstall/internal/config"
	errs "github.com/jxwalker/modinstall/internal/errors"
	"github.com/jxwalker/modinstall/internal/install"
	"github.com/jxwalker/modinstall/internal/installer"
	"github.com/jxwalker/modinstall/internal/lockfile"
	"github.com/jxwalker/modinstall/internal/logging"
	"github.com/jxwalker/modinstall/internal/metrics"
	"github.com/jxwalker/modinstall/internal/settings"
	"github.com/jxwalker/modinstall/internal/state"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command provided")
	}

	cmd := args[0]
	switch cmd {
	case "install":
		return handleInstall(ctx, args[1:])
	case "tui":
		return handleTUI(ctx, args[1:])
	case "settings":
		return handleSettings(ctx, args[1:])
	case "history":
		return handleHistory(ctx, args[1:])
	case "config":
		return handleConfig(ctx, args[1:])
	case "doctor":
		return handleDoctor(ctx, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(strings.TrimSpace(`modinstall - modlist installer

Usage:
  modinstall <command> [flags]

Commands:
  install           Install a modlist without the terminal UI
  tui               Open the interactive installer
  settings list     Show remembered install folders per modlist (--filter Q)
  settings forget   Forget the install folders of a modlist
  history           Show past installations (table or JSON)
  config validate   Validate a YAML config file
  config print      Print the loaded config as JSON
  doctor            Check the config, data root and settings database
  version           Print version
  help              Show this help

Flags:
  --config PATH     Path to YAML config file (or MODINSTALL_CONFIG env var; default: ~/.config/modinstall/config.yml)
  --log-level L     Log level: debug|info|warn|error (per command)
  --json            JSON output (per command)
`))
}

// commonFlags registers the flags every subcommand takes.
type commonFlags struct {
	cfgPath  *string
	logLevel *string
	jsonOut  *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		cfgPath:  fs.String("config", "", "Path to YAML config file"),
		logLevel: fs.String("log-level", "", "log level (default from config)"),
		jsonOut:  fs.Bool("json", false, "json output"),
	}
}

// loadConfig resolves the config path from the flag, MODINSTALL_CONFIG or
// the default location. A missing file at the default location means
// defaults; a missing file that was asked for is an error.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if path == "" {
		if env := os.Getenv("MODINSTALL_CONFIG"); env != "" {
			path, explicit = env, true
		} else if h, err := os.UserHomeDir(); err == nil && h != "" {
			path = filepath.Join(h, ".config", "modinstall", "config.yml")
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, errs.PathError(path, fmt.Errorf("config file not found: %w", err))
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, errs.ConfigError(path, err)
	}
	return c, nil
}

// newLogger builds the command's logger. Flags win over the config; extra
// receives a copy of every line (the TUI log pane).
func newLogger(c *config.Config, level string, jsonOut bool, extra io.Writer) (*logging.Logger, func(), error) {
	if level == "" {
		level = c.Logging.Level
	}
	jsonOut = jsonOut || c.Logging.Format == "json"
	var out []io.Writer
	if extra != nil {
		out = append(out, extra)
	} else if jsonOut {
		out = append(out, os.Stdout)
	} else {
		out = append(out, os.Stderr)
	}
	closer := func() {}
	if c.Logging.File.Enabled && c.Logging.File.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.Logging.File.Path), 0o755); err != nil {
			return nil, nil, errs.PathError(c.Logging.File.Path, err)
		}
		f, err := os.OpenFile(c.Logging.File.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errs.PathError(c.Logging.File.Path, err)
		}
		out = append(out, f)
		closer = func() { _ = f.Close() }
	}
	return logging.NewWithWriter(level, jsonOut, io.MultiWriter(out...)), closer, nil
}

// appEnv is what the install commands share: the settings database, the
// store over it, the instance lock and the metrics sink.
type appEnv struct {
	cfg     *config.Config
	log     *logging.Logger
	st      *state.DB
	store   *settings.Store
	lock    *lockfile.Lock
	metrics *metrics.Manager
}

func openEnv(c *config.Config, log *logging.Logger, lock bool) (*appEnv, error) {
	if err := config.EnsureDir(c.General.DataRoot, 0o755); err != nil {
		return nil, errs.PathError(c.General.DataRoot, err)
	}
	e := &appEnv{cfg: c, log: log, metrics: metrics.New(c)}
	if lock {
		l, err := lockfile.Acquire(c.General.DataRoot)
		if err != nil {
			return nil, err
		}
		e.lock = l
	}
	st, err := state.Open(c)
	if err != nil {
		e.Close()
		return nil, errs.DatabaseError(err)
	}
	e.st = st
	if lock {
		if n, err := st.MarkInterruptedRuns(); err != nil {
			log.Warnf("mark interrupted runs: %v", err)
		} else if n > 0 {
			log.Warnf("%d earlier installation(s) did not finish and were marked failed", n)
		}
	}
	store, err := settings.Open(st)
	if err != nil {
		e.Close()
		return nil, errs.DatabaseError(err)
	}
	e.store = store
	return e, nil
}

func (e *appEnv) Close() {
	if e.st != nil {
		_ = e.st.Close()
	}
	if err := e.lock.Release(); err != nil {
		e.log.Warnf("%v", err)
	}
}

// orchestratorOptions wires logging, metrics and run history into every
// orchestrator the commands create.
func (e *appEnv) orchestratorOptions(m install.Metrics) []install.Option {
	if m == nil {
		m = e.metrics
	}
	return []install.Option{
		install.WithLogger(e.log),
		install.WithMetrics(m),
		install.WithHistory(e.st),
		install.WithTracker(trackJob(e.metrics)),
	}
}

// trackJob keeps the active gauge up while a job runs and adds the bytes
// it wrote once it stops.
func trackJob(m *metrics.Manager) install.Tracker {
	return func(job installer.Job) func() {
		release := m.Track()
		return func() {
			if r, ok := job.(installer.Reporter); ok {
				m.AddBytes(r.Progress().BytesWritten)
			}
			release()
		}
	}
}

func handleConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config subcommand required: validate | print")
	}
	sub := args[0]
	switch sub {
	case "validate":
		return configOp(args[1:], func(c *config.Config, log *logging.Logger) error {
			if err := c.ValidateWithFriendlyErrors(); err != nil {
				return err
			}
			log.Infof("config: valid")
			return nil
		})
	case "print":
		return configOp(args[1:], func(c *config.Config, log *logging.Logger) error {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		})
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

func configOp(args []string, fn func(*config.Config, *logging.Logger) error) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := loadConfig(*cf.cfgPath)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(c, *cf.logLevel, *cf.jsonOut, nil)
	if err != nil {
		return err
	}
	defer closeLog()
	return fn(c, log)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	errs "github.com/jxwalker/modinstall/internal/errors"
	"github.com/jxwalker/modinstall/internal/install"
	"github.com/jxwalker/modinstall/internal/installer"
	"github.com/jxwalker/modinstall/internal/logging"
	"github.com/jxwalker/modinstall/internal/metrics"
)

// outcome records how the last job ended so the command can set its exit
// status. Failures are reported by the orchestrator; this only remembers
// that one happened.
type outcome struct {
	*metrics.Manager
	failed    atomic.Bool
	cancelled atomic.Bool
}

func (o *outcome) IncFailed()    { o.failed.Store(true); o.Manager.IncFailed() }
func (o *outcome) IncCancelled() { o.cancelled.Store(true); o.Manager.IncCancelled() }

var errInstallFailed = errors.New("installation failed, see the log above")

func handleInstall(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	modlistPath := fs.String("modlist", "", "modlist archive to install (default: the last one used)")
	installDir := fs.String("install-dir", "", "install folder (default: remembered for this modlist)")
	downloadDir := fs.String("download-dir", "", "download folder (default: remembered, or <install-dir>/downloads)")
	quiet := fs.Bool("quiet", false, "suppress progress and info logs (errors only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := loadConfig(*cf.cfgPath)
	if err != nil {
		return err
	}
	if *quiet && !*cf.jsonOut {
		*cf.logLevel = "error"
	}
	log, closeLog, err := newLogger(c, *cf.logLevel, *cf.jsonOut, nil)
	if err != nil {
		return err
	}
	defer closeLog()
	env, err := openEnv(c, log, true)
	if err != nil {
		return err
	}
	defer env.Close()

	path := strings.TrimSpace(*modlistPath)
	if path == "" {
		path = env.store.LastInstalledListLocation()
	}
	if path == "" {
		return errs.NewFriendlyError("No modlist given", "Pass --modlist /path/to/list.modlist")
	}
	if path, err = filepath.Abs(path); err != nil {
		return err
	}

	out := &outcome{Manager: env.metrics}
	session := install.NewSession(install.NewModlistSource(), env.store, install.NewInstaller, install.SessionOptions{
		DownloadsDirName: c.DownloadsDirName(),
		Orchestrator:     env.orchestratorOptions(out),
	})
	defer func() {
		session.Unload()
		if err := env.store.SaveAll(); err != nil {
			log.Warnf("save install settings: %v", err)
		}
	}()

	if err := session.Source.Open(path); err != nil {
		return errs.PathError(path, err)
	}
	if err := setDir(session.Location, *installDir); err != nil {
		return err
	}
	if err := setDir(session.DownloadLocation, *downloadDir); err != nil {
		return err
	}
	if err := session.Begin(ctx); err != nil {
		if errors.Is(err, install.ErrBlocked) {
			return blockedError(session)
		}
		return err
	}

	started := time.Now()
	if err := waitInstall(ctx, session, env, log, !*quiet && !*cf.jsonOut); err != nil {
		return err
	}
	switch {
	case out.cancelled.Load():
		return context.Canceled
	case out.failed.Load():
		return errInstallFailed
	}
	log.Infof("installed %s into %s in %s", session.Source.Data().Name, session.Location.Get(),
		time.Since(started).Round(time.Millisecond))
	return nil
}

func setDir(f *install.PathField, dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	f.Set(abs)
	return nil
}

func blockedError(s *install.Session) error {
	var problems []string
	for _, f := range []struct {
		name string
		err  string
	}{
		{"modlist", s.Source.Field.Err.Get()},
		{"install folder", s.Location.Err.Get()},
		{"download folder", s.DownloadLocation.Err.Get()},
	} {
		if f.err != "" {
			problems = append(problems, f.name+": "+f.err)
		}
	}
	return errs.NewFriendlyError("Cannot start the installation:\n  "+strings.Join(problems, "\n  "),
		"Pass --install-dir and --download-dir, or fix the folders remembered for this modlist")
}

// waitInstall blocks until the job ends. Alongside it, settings are
// checkpointed every installer.checkpoint_seconds and progress is logged.
func waitInstall(ctx context.Context, s *install.Session, env *appEnv, log *logging.Logger, showProgress bool) error {
	done := s.Orchestrator.Done()
	g, gctx := errgroup.WithContext(ctx)

	if every := time.Duration(env.cfg.Installer.CheckpointSeconds) * time.Second; every > 0 {
		g.Go(func() error {
			t := time.NewTicker(every)
			defer t.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-t.C:
					if err := env.store.SaveAll(); err != nil {
						log.Warnf("checkpoint install settings: %v", err)
					}
				}
			}
		})
	}
	if showProgress {
		g.Go(func() error {
			t := time.NewTicker(time.Second)
			defer t.Stop()
			last := ""
			for {
				select {
				case <-done:
					return nil
				case <-t.C:
					if line := progressLine(s.Orchestrator.Active().Get()); line != "" && line != last {
						log.Infof("%s", line)
						last = line
					}
				}
			}
		})
	}
	g.Go(func() error {
		select {
		case <-done:
		case <-gctx.Done():
			// the job's context derives from ctx, so it is stopping too
			<-done
		}
		return nil
	})
	return g.Wait()
}

func progressLine(job installer.Job) string {
	r, ok := job.(installer.Reporter)
	if !ok {
		return ""
	}
	p := r.Progress()
	return fmt.Sprintf("%3.0f%% %s (%s/%s)", p.Fraction()*100, p.Step,
		humanize.Bytes(uint64(p.BytesWritten)), humanize.Bytes(uint64(p.BytesTotal)))
}

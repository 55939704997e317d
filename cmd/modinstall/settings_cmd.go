package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jxwalker/modinstall/internal/settings"
)

func handleSettings(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("settings subcommand required: list | forget")
	}
	switch args[0] {
	case "list":
		return handleSettingsList(args[1:])
	case "forget":
		return handleSettingsForget(args[1:])
	default:
		return fmt.Errorf("unknown settings subcommand: %s", args[0])
	}
}

type settingsEntry struct {
	ModlistPath          string `json:"modlist_path"`
	InstallationLocation string `json:"installation_location"`
	DownloadLocation     string `json:"download_location"`
	Last                 bool   `json:"last_used"`
}

func handleSettingsList(args []string) error {
	fs := flag.NewFlagSet("settings list", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	filter := fs.String("filter", "", "fuzzy filter on the modlist path")
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
	env, err := openEnv(c, log, false)
	if err != nil {
		return err
	}
	defer env.Close()

	entries := listSettings(env.store, *filter)
	if *cf.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No install settings stored.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODLIST\tINSTALL\tDOWNLOADS\t")
	for _, e := range entries {
		mark := ""
		if e.Last {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t\n", mark, e.ModlistPath, orDash(e.InstallationLocation), orDash(e.DownloadLocation))
	}
	return tw.Flush()
}

// listSettings returns the stored records, ranked by fuzzy match when a
// filter is given and by path otherwise.
func listSettings(store *settings.Store, filter string) []settingsEntry {
	last := store.LastInstalledListLocation()
	byPath := map[string]*settings.Record{}
	for _, r := range store.Records() {
		byPath[r.ModlistPath()] = r
	}
	paths := store.ModlistPaths()
	if filter = strings.TrimSpace(filter); filter != "" {
		ranks := fuzzy.RankFindNormalizedFold(filter, paths)
		sort.Sort(ranks)
		paths = paths[:0:0]
		for _, r := range ranks {
			paths = append(paths, r.Target)
		}
	}
	out := make([]settingsEntry, 0, len(paths))
	for _, p := range paths {
		inst, dl := byPath[p].Paths()
		out = append(out, settingsEntry{ModlistPath: p, InstallationLocation: inst, DownloadLocation: dl, Last: p == last})
	}
	return out
}

func handleSettingsForget(args []string) error {
	fs := flag.NewFlagSet("settings forget", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: modinstall settings forget PATH")
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
	env, err := openEnv(c, log, true)
	if err != nil {
		return err
	}
	defer env.Close()

	path := fs.Arg(0)
	if _, ok := env.store.Lookup(path); !ok {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	if _, ok := env.store.Lookup(path); !ok {
		return fmt.Errorf("no install settings stored for %s", path)
	}
	if err := env.store.Forget(path); err != nil {
		return err
	}
	log.Infof("forgot install settings for %s", path)
	return nil
}

func handleHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "number of runs to show (0 for all)")
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
	env, err := openEnv(c, log, false)
	if err != nil {
		return err
	}
	defer env.Close()

	runs, err := env.st.ListRuns(*limit)
	if err != nil {
		return err
	}
	if *cf.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No installations recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tDURATION\tMODLIST\tINSTALL\t")
	for _, r := range runs {
		dur := "-"
		if d := r.Duration(); d > 0 {
			dur = d.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			humanize.Time(time.Unix(r.StartedAt, 0)), r.Status, dur, filepath.Base(r.ModlistPath), r.OutputPath)
		if r.LastError != "" {
			fmt.Fprintf(tw, "\t  %s\t\t\t\t\n", r.LastError)
		}
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package installer

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jxwalker/modinstall/internal/modlist"
	"github.com/jxwalker/modinstall/internal/system"
	"github.com/jxwalker/modinstall/internal/util"
)

var (
	ErrNoModList       = errors.New("no modlist loaded")
	ErrNoOutput        = errors.New("install folder is required")
	ErrNoDownload      = errors.New("download folder is required")
	ErrSameFolders     = errors.New("install and download folders must differ")
	ErrMissingArchives = errors.New("archives missing from download folder")
)

// MissingArchivesError names the downloads that are absent or have the
// wrong size. It matches ErrMissingArchives.
type MissingArchivesError struct {
	Names []string
}

func (e *MissingArchivesError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingArchives, strings.Join(e.Names, ", "))
}

func (e *MissingArchivesError) Is(target error) bool { return target == ErrMissingArchives }

// Installer is the reference Job. It prepares the install and download
// folders, checks the downloads the list needs are present, and writes
// the inline files carried inside the modlist archive. Directives that
// pull from downloaded archives are counted as skipped.
type Installer struct {
	archive  string
	modList  *modlist.ModList
	output   string
	download string

	mu       sync.Mutex
	progress Progress
}

// New checks the target and returns a job ready to Begin.
func New(archive string, modList *modlist.ModList, outputFolder, downloadFolder string) (*Installer, error) {
	if modList == nil {
		return nil, ErrNoModList
	}
	if strings.TrimSpace(outputFolder) == "" {
		return nil, ErrNoOutput
	}
	if strings.TrimSpace(downloadFolder) == "" {
		return nil, ErrNoDownload
	}
	if filepath.Clean(outputFolder) == filepath.Clean(downloadFolder) {
		return nil, ErrSameFolders
	}
	fi, err := os.Stat(archive)
	if err != nil {
		return nil, fmt.Errorf("modlist archive: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("modlist archive is not a file: %s", archive)
	}
	if err := modList.Validate(); err != nil {
		return nil, fmt.Errorf("modlist %s: %w", modList.Name, err)
	}
	return &Installer{
		archive:  archive,
		modList:  modList,
		output:   outputFolder,
		download: downloadFolder,
		progress: Progress{
			Step:       "queued",
			StepsTotal: 2 + len(modList.Directives),
			BytesTotal: modList.TotalSize(),
		},
	}, nil
}

func (in *Installer) Describe() string {
	return fmt.Sprintf("%s → %s", in.modList.Name, in.output)
}

func (in *Installer) Progress() Progress {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.progress
}

func (in *Installer) step(label string) {
	in.mu.Lock()
	in.progress.Step = label
	in.mu.Unlock()
}

func (in *Installer) advance(written int64, skipped bool) {
	in.mu.Lock()
	in.progress.StepsDone++
	in.progress.BytesWritten += written
	if skipped {
		in.progress.Skipped++
	}
	in.mu.Unlock()
}

func (in *Installer) Begin(ctx context.Context) error {
	in.step("preparing folders")
	for _, dir := range []string{in.output, in.download} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := system.EnsureFreeSpace(in.output, uint64(in.modList.TotalSize())); err != nil {
		return err
	}
	in.advance(0, false)
	if err := ctx.Err(); err != nil {
		return err
	}

	in.step("checking downloads")
	missing, err := in.missingArchives(ctx)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &MissingArchivesError{Names: missing}
	}
	in.advance(0, false)

	zr, err := zip.OpenReader(in.archive)
	if err != nil {
		return fmt.Errorf("open modlist archive: %w", err)
	}
	defer func() { _ = zr.Close() }()
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	for _, d := range in.modList.Directives {
		if err := ctx.Err(); err != nil {
			return err
		}
		in.step("installing " + d.To)
		if d.Type != modlist.DirectiveInlineFile {
			in.advance(0, true)
			continue
		}
		src, ok := entries[d.SourceDataID]
		if !ok {
			return fmt.Errorf("inline data %s for %s not found in archive", d.SourceDataID, d.To)
		}
		n, err := in.writeInline(src, d.To)
		if err != nil {
			return err
		}
		in.advance(n, false)
	}
	in.step("done")
	return nil
}

// missingArchives lists downloads that are absent, have the wrong size or,
// when the list gives a SHA-256, the wrong content.
func (in *Installer) missingArchives(ctx context.Context) ([]string, error) {
	var missing []string
	for _, a := range in.modList.Archives {
		p := filepath.Join(in.download, a.Name)
		fi, err := os.Stat(p)
		if err != nil || (a.Size > 0 && fi.Size() != a.Size) {
			missing = append(missing, a.Name)
			continue
		}
		if a.Hash == "" {
			continue
		}
		ok, err := util.MatchesSHA256(ctx, p, a.Hash)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", a.Name, err)
		}
		if !ok {
			missing = append(missing, a.Name)
		}
	}
	return missing, nil
}

func (in *Installer) writeInline(src *zip.File, to string) (int64, error) {
	if !modlist.SafeRelative(to) {
		return 0, fmt.Errorf("destination escapes install folder: %s", to)
	}
	dest := filepath.Join(in.output, filepath.FromSlash(strings.ReplaceAll(to, `\`, "/")))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	rc, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, rc)
	if err != nil {
		_ = f.Close()
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return n, err
	}
	return n, f.Close()
}

// Package modlist reads modlist archives: zip files whose "modlist" entry
// describes the archives a list needs and the directives that build the
// install folder from them.
package modlist

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// EntryName is the zip entry holding the modlist definition.
const EntryName = "modlist"

// Directive types understood by the reference installer.
const (
	DirectiveInlineFile  = "InlineFile"
	DirectiveFromArchive = "FromArchive"
)

type ModList struct {
	Name        string      `json:"Name"`
	Author      string      `json:"Author"`
	Description string      `json:"Description"`
	Version     string      `json:"Version"`
	GameType    string      `json:"GameType"`
	Archives    []Archive   `json:"Archives"`
	Directives  []Directive `json:"Directives"`
}

// Archive is a download the list depends on.
type Archive struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size int64  `json:"Size"`
}

// Directive places one file at To inside the install folder.
type Directive struct {
	Type string `json:"$type"`
	To   string `json:"To"`
	// SourceDataID names the zip entry holding the bytes of an inline file.
	SourceDataID string `json:"SourceDataID,omitempty"`
	Size         int64  `json:"Size"`
}

var (
	ErrNoDefinition = errors.New("archive has no modlist entry")
	ErrEmptyName    = errors.New("modlist has no name")
)

// Load opens a modlist archive and parses its definition.
func Load(archivePath string) (*ModList, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open modlist archive %s: %w", archivePath, err)
	}
	defer func() { _ = zr.Close() }()
	return Read(&zr.Reader)
}

// Read parses the definition from an already opened archive.
func Read(zr *zip.Reader) (*ModList, error) {
	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == EntryName {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, ErrNoDefinition
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s entry: %w", EntryName, err)
	}
	defer func() { _ = rc.Close() }()
	var ml ModList
	if err := json.NewDecoder(rc).Decode(&ml); err != nil {
		return nil, fmt.Errorf("parse %s entry: %w", EntryName, err)
	}
	if err := ml.Validate(); err != nil {
		return nil, err
	}
	return &ml, nil
}

// Validate checks the definition is usable by an installer.
func (m *ModList) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	for i, d := range m.Directives {
		if d.To == "" {
			return fmt.Errorf("directive %d: empty destination", i)
		}
		if !SafeRelative(d.To) {
			return fmt.Errorf("directive %d: destination escapes install folder: %s", i, d.To)
		}
		if d.Type == DirectiveInlineFile && d.SourceDataID == "" {
			return fmt.Errorf("directive %d: inline file without source data", i)
		}
	}
	return nil
}

// TotalSize is the number of bytes the directives write.
func (m *ModList) TotalSize() int64 {
	var n int64
	for _, d := range m.Directives {
		n += d.Size
	}
	return n
}

// SafeRelative reports whether p stays inside the folder it is joined to.
// Both separators are accepted since lists are authored on Windows.
func SafeRelative(p string) bool {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" || strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// Write stores ml as the definition entry of a new archive written to w,
// followed by the given inline payloads keyed by source data id.
func Write(w io.Writer, ml *ModList, inline map[string][]byte) error {
	zw := zip.NewWriter(w)
	def, err := zw.Create(EntryName)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(def).Encode(ml); err != nil {
		return err
	}
	for id, data := range inline {
		f, err := zw.Create(id)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Create writes a modlist archive to archivePath.
func Create(archivePath string, ml *ModList, inline map[string][]byte) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	if err := Write(f, ml, inline); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

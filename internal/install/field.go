package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jxwalker/modinstall/internal/reactive"
)

// Validator returns nil when path is acceptable.
type Validator func(path string) error

// PathField is a user-editable path together with the error computed for
// it. Err and InError are recomputed synchronously on every change.
type PathField struct {
	Path    *reactive.Value[string]
	Err     *reactive.Value[string]
	InError *reactive.Value[bool]

	validate Validator
	scope    reactive.Scope
}

func NewPathField(initial string, validate Validator) *PathField {
	f := &PathField{
		Path:     reactive.NewValue(initial),
		Err:      reactive.NewValue(""),
		validate: validate,
	}
	inError, sub := reactive.Map(f.Err, func(msg string) bool { return msg != "" })
	f.InError = inError
	f.scope.Add(sub)
	f.scope.Add(f.Path.Subscribe(f.check))
	return f
}

func (f *PathField) Get() string  { return f.Path.Get() }
func (f *PathField) Set(p string) { f.Path.Set(p) }

// Revalidate reruns the validator against the current path, for when the
// file system changed underneath an unchanged path.
func (f *PathField) Revalidate() { f.check(f.Path.Get()) }

func (f *PathField) Close() { f.scope.Close() }

func (f *PathField) check(p string) {
	msg := ""
	if f.validate != nil {
		if err := f.validate(p); err != nil {
			msg = err.Error()
		}
	}
	f.Err.Set(msg)
}

var (
	errEmptyPath    = errors.New("path is empty")
	errRelativePath = errors.New("path must be absolute")
	errBadChars     = errors.New("path contains invalid characters")
)

// ValidateDirectory accepts absolute paths that are either missing (they
// will be created) or existing directories.
func ValidateDirectory(p string) error {
	if err := validateSyntax(p); err != nil {
		return err
	}
	fi, err := os.Stat(p)
	switch {
	case err == nil && !fi.IsDir():
		return fmt.Errorf("not a directory: %s", p)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return err
	}
	return nil
}

// ValidateModlistFile accepts an absolute path to an existing regular file.
func ValidateModlistFile(p string) error {
	if err := validateSyntax(p); err != nil {
		return err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("modlist file does not exist: %s", p)
		}
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("not a file: %s", p)
	}
	return nil
}

func validateSyntax(p string) error {
	if strings.TrimSpace(p) == "" {
		return errEmptyPath
	}
	if strings.ContainsRune(p, 0) {
		return errBadChars
	}
	if !filepath.IsAbs(p) {
		return errRelativePath
	}
	return nil
}

package install

import (
	"errors"
	"sync"

	"github.com/jxwalker/modinstall/internal/modlist"
	"github.com/jxwalker/modinstall/internal/reactive"
)

var errNotLoaded = errors.New("modlist not loaded")

// ModlistSource is the modlist archive picker. Its path is the identity
// install settings are keyed by; it is in error when the file is missing
// or does not parse.
type ModlistSource struct {
	Field *PathField
	data  *reactive.Value[*modlist.ModList]
	load  func(string) (*modlist.ModList, error)

	mu      sync.Mutex
	loaded  string
	loadErr error
}

func NewModlistSource() *ModlistSource {
	return newModlistSource(modlist.Load)
}

func newModlistSource(load func(string) (*modlist.ModList, error)) *ModlistSource {
	s := &ModlistSource{data: reactive.NewValue[*modlist.ModList](nil), load: load}
	s.Field = NewPathField("", s.validate)
	return s
}

// Open selects path and parses the modlist it points to. The parse error,
// if any, is returned and also surfaces through InError.
func (s *ModlistSource) Open(path string) error {
	var (
		ml  *modlist.ModList
		err error
	)
	if err = ValidateModlistFile(path); err == nil {
		ml, err = s.load(path)
	}
	s.mu.Lock()
	s.loaded, s.loadErr = path, err
	s.mu.Unlock()
	s.data.Set(ml)
	if s.Field.Get() == path {
		s.Field.Revalidate()
	} else {
		s.Field.Set(path)
	}
	return err
}

func (s *ModlistSource) Path() *reactive.Value[string]  { return s.Field.Path }
func (s *ModlistSource) InError() *reactive.Value[bool] { return s.Field.InError }
func (s *ModlistSource) Data() *modlist.ModList         { return s.data.Get() }

func (s *ModlistSource) Close() { s.Field.Close() }

func (s *ModlistSource) validate(p string) error {
	if err := ValidateModlistFile(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p != s.loaded {
		return errNotLoaded
	}
	return s.loadErr
}

// Package prompt loads named instruction templates from disk.
//
// Templates are flat text files (<name>.txt) containing literal {{key}}
// placeholders. The raw file body is read once per name and cached; the
// placeholder substitution happens on every Load call because the values
// vary per caller.
package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when no template file exists for the given name.
var ErrNotFound = errors.New("prompt template not found")

// LoadOptions configure a single Load call.
type LoadOptions struct {
	// Refresh bypasses the body cache for this name and re-reads the file.
	Refresh bool
}

// WithRefresh forces a re-read of the template file, replacing the cached body.
func WithRefresh() func(o *LoadOptions) {
	return func(o *LoadOptions) { o.Refresh = true }
}

// Store caches prompt template bodies keyed by name. Safe for concurrent use.
type Store struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]string
}

// NewStore creates a Store reading templates from dir/<name>.txt.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		cache: make(map[string]string),
	}
}

// Load returns the template body for name with every literal {{key}}
// occurrence replaced by values[key]. Placeholders without a matching key are
// left untouched. Returns an error wrapping ErrNotFound when the template
// file does not exist.
func (s *Store) Load(name string, values map[string]string, optFns ...func(o *LoadOptions)) (string, error) {
	var opts LoadOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	raw, err := s.raw(name, opts.Refresh)
	if err != nil {
		return "", err
	}

	for k, v := range values {
		raw = strings.ReplaceAll(raw, "{{"+k+"}}", v)
	}

	return raw, nil
}

// Clear drops cached bodies for the given names, or all names when none are
// given. Subsequent Load calls re-read the files.
func (s *Store) Clear(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(names) == 0 {
		s.cache = make(map[string]string)
		return
	}

	for _, n := range names {
		delete(s.cache, n)
	}
}

func (s *Store) raw(name string, refresh bool) (string, error) {
	if !refresh {
		s.mu.RLock()
		body, ok := s.cache[name]
		s.mu.RUnlock()

		if ok {
			return body, nil
		}
	}

	path := filepath.Join(s.dir, name+".txt")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return "", fmt.Errorf("read prompt template %q: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = string(data)
	s.mu.Unlock()

	return string(data), nil
}

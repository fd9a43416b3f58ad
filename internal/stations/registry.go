// Package stations keeps the list of known measurement station codes and
// answers membership queries against it.
package stations

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownStation is returned by Check for codes the registry lacks.
var ErrUnknownStation = errors.New("unknown station")

// Source produces the full list of station codes.
type Source interface {
	Stations(ctx context.Context) ([]string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]string, error)

// Stations implements Source.
func (f SourceFunc) Stations(ctx context.Context) ([]string, error) { return f(ctx) }

// Registry loads its source once, on first use, and serves lookups from
// memory until Refresh or Invalidate. It is safe for concurrent use.
type Registry struct {
	src Source

	mu     sync.Mutex
	loaded bool
	codes  map[string]struct{}
}

// NewRegistry creates a registry over src. Nothing is loaded yet.
func NewRegistry(src Source) *Registry {
	return &Registry{src: src}
}

// Contains reports whether code is a known station, loading the list on
// first call.
func (r *Registry) Contains(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLocked(ctx); err != nil {
		return false, err
	}
	_, ok := r.codes[normalize(code)]
	return ok, nil
}

// Check returns ErrUnknownStation when code is not in the registry.
func (r *Registry) Check(ctx context.Context, code string) error {
	ok, err := r.Contains(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStation, code)
	}
	return nil
}

// Codes returns every known code, sorted.
func (r *Registry) Codes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(r.codes))
	for c := range r.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Refresh reloads the list from the source now. On failure the previous
// list is kept.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

// Invalidate drops the cached list; the next lookup reloads it.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.codes = nil
}

func (r *Registry) ensureLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	return r.loadLocked(ctx)
}

func (r *Registry) loadLocked(ctx context.Context) error {
	codes, err := r.src.Stations(ctx)
	if err != nil {
		return fmt.Errorf("loading stations: %w", err)
	}
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = normalize(c); c != "" {
			set[c] = struct{}{}
		}
	}
	r.codes = set
	r.loaded = true
	return nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FileSource reads one station code per line. Blank lines and lines
// starting with '#' are skipped; only the first field of a line separated
// by ';', ',', tab or space is used, so exported station tables work as is.
type FileSource struct {
	Path string
}

// Stations implements Source.
func (f FileSource) Stations(ctx context.Context) ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening station list: %w", err)
	}
	defer file.Close()
	return ReadCodes(file)
}

// ReadCodes parses a station list in the FileSource format.
func ReadCodes(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexAny(line, ";,\t "); i >= 0 {
			line = line[:i]
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading station list: %w", err)
	}
	return out, nil
}

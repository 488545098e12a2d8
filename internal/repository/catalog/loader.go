package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kailas-cloud/civica/internal/domain"
	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	"github.com/kailas-cloud/civica/internal/domain/theme"
)

//go:embed data/*.yaml
var builtin embed.FS

// DefaultPattern selects catalog files inside the catalog directory.
const DefaultPattern = "**/*.yaml"

// Builtin returns the embedded catalog files rooted at their directory.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		panic(err) // embedded layout is fixed at build time
	}
	return sub
}

// Source is a set of catalog files.
type Source struct {
	FS      fs.FS
	Pattern string
}

// Loader reads catalogs from an ordered list of sources. A later source
// overrides catalogs of the same name from an earlier one.
type Loader struct {
	sources []Source
	theme   theme.Theme
}

// NewLoader creates a loader that validates accents against th.
func NewLoader(th theme.Theme, sources ...Source) *Loader {
	return &Loader{sources: sources, theme: th}
}

// DirSource returns a source for a directory on disk. An empty dir yields no source.
func DirSource(dir, pattern string) (Source, bool) {
	if dir == "" {
		return Source{}, false
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	return Source{FS: os.DirFS(dir), Pattern: pattern}, true
}

// Load reads every source and returns catalogs keyed by name.
func (l *Loader) Load() (map[string]domcat.Catalog, error) {
	out := make(map[string]domcat.Catalog)
	for _, src := range l.sources {
		loaded, err := l.loadSource(src)
		if err != nil {
			return nil, err
		}
		for name, c := range loaded {
			out[name] = c
		}
	}
	return out, nil
}

func (l *Loader) loadSource(src Source) (map[string]domcat.Catalog, error) {
	pattern := src.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	paths, err := doublestar.Glob(src.FS, pattern, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(paths)

	out := make(map[string]domcat.Catalog, len(paths))
	origin := make(map[string]string, len(paths))
	for _, p := range paths {
		c, err := l.loadFile(src.FS, p)
		if err != nil {
			return nil, err
		}
		if prev, dup := origin[c.Name()]; dup {
			return nil, fmt.Errorf("%w: catalog %q defined in both %s and %s",
				domain.ErrInvalidCatalog, c.Name(), prev, p)
		}
		origin[c.Name()] = p
		out[c.Name()] = c
	}
	return out, nil
}

func (l *Loader) loadFile(fsys fs.FS, path string) (domcat.Catalog, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return domcat.Catalog{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := decode(data)
	if err != nil {
		return domcat.Catalog{}, fmt.Errorf("%s: %w: %w", path, domain.ErrInvalidCatalog, err)
	}
	c, err := doc.toDomain()
	if err != nil {
		return domcat.Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	if c.Accent() != "" && !l.theme.Has(c.Accent()) {
		return domcat.Catalog{}, fmt.Errorf("%s: %w: unknown accent token %q",
			path, domain.ErrInvalidCatalog, c.Accent())
	}
	return c, nil
}

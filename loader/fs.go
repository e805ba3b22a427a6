package loader

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/wippyai/script-host/errors"
)

// FS serves modules from a directory tree. Canonical module names are
// slash-separated paths relative to the root, so the same graph loads
// identically on every platform.
type FS struct {
	root      string
	importMap *ImportMap
}

// FSOptions configures an FS loader.
type FSOptions struct {
	// ImportMap rewrites bare specifiers before resolution. Optional.
	ImportMap *ImportMap
}

// NewFS creates a filesystem loader rooted at dir.
func NewFS(dir string) *FS {
	return NewFSWithOptions(dir, FSOptions{})
}

// NewFSWithOptions creates a filesystem loader with custom options.
func NewFSWithOptions(dir string, opts FSOptions) *FS {
	return &FS{root: dir, importMap: opts.ImportMap}
}

// Resolve maps a specifier to a root-relative module name.
// Relative specifiers ("./x", "../x") resolve against the referrer's
// directory. Rooted specifiers ("/x") resolve against the loader root.
// Bare specifiers must be rewritten by the import map.
func (f *FS) Resolve(specifier, referrer string, kind ResolutionKind) (string, error) {
	spec := specifier
	if f.importMap != nil {
		spec, _ = f.importMap.Rewrite(spec)
	}

	var name string
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		base := path.Dir(referrer)
		if referrer == "" || kind == KindMain {
			base = "."
		}
		name = path.Join(base, spec)
	case strings.HasPrefix(spec, "/"):
		name = path.Clean(spec[1:])
	case kind == KindMain:
		// The entry specifier may be given as a plain path.
		name = path.Clean(spec)
	default:
		return "", errors.New(errors.PhaseResolve, errors.KindResolution).
			Specifier(specifier).
			Referrer(referrer).
			Detail("bare specifier has no import-map entry").
			Build()
	}

	if name == ".." || strings.HasPrefix(name, "../") {
		return "", errors.New(errors.PhaseResolve, errors.KindResolution).
			Specifier(specifier).
			Referrer(referrer).
			Detail("specifier escapes the loader root").
			Build()
	}
	return name, nil
}

func (f *FS) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Fetch(name, err)
	}
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, errors.Fetch(name, err)
	}
	return data, nil
}

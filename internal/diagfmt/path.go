package diagfmt

import (
	"path/filepath"

	"flux/internal/source"
)

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeRelative:
		return fs.DisplayPath(id)
	case PathModeBasename:
		return filepath.Base(f.Path)
	}
	// короткий или относительный путь как есть, иначе basename
	if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
		return f.Path
	}
	return filepath.Base(f.Path)
}

// located reports whether span points into a file of fs.
func located(fs *source.FileSet, span source.Span) bool {
	return fs != nil && !span.IsZero() && fs.Get(span.File) != nil
}

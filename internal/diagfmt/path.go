package diagfmt

import (
	"os"
	"path/filepath"
	"strings"

	"xclower/internal/source"
)

// autoPathLimit is the length above which auto mode falls back to the
// basename of an absolute path.
const autoPathLimit = 40

func displayPath(f *source.File, mode PathMode, base string) string {
	if f == nil {
		return "<input>"
	}
	p := f.Path
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(p); err == nil && f.Flags&source.FileVirtual == 0 {
			return filepath.ToSlash(abs)
		}
		return p
	case PathModeRelative:
		return relative(p, base)
	case PathModeBasename:
		return filepath.Base(p)
	default:
		if !filepath.IsAbs(p) {
			return p
		}
		if rel := relative(p, base); !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel) {
			return rel
		}
		if len(p) > autoPathLimit {
			return filepath.Base(p)
		}
		return p
	}
}

func relative(p, base string) string {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return p
		}
		base = wd
	}
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

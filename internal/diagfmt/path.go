package diagfmt

import (
	"os"
	"path/filepath"
	"strings"

	"shadec/internal/diag"
)

// FormatPath renders path according to mode. Relative modes resolve against
// base, or the working directory when base is empty.
func FormatPath(path string, mode PathMode, base string) string {
	if path == "" {
		return path
	}
	switch mode {
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}

	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return path
		}
		base = wd
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return path
	}
	if mode == PathModeAuto && (rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return path
	}
	return rel
}

func formatLocation(loc diag.Location, mode PathMode, base string) string {
	loc.File = FormatPath(loc.File, mode, base)
	return loc.String()
}

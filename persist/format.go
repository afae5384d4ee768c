package persist

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SaxonRah/Linen/errors"
)

// Format selects the on-disk encoding for a save stream
type Format int

const (
	// FormatBinary is the compact length-prefixed encoding
	FormatBinary Format = iota
	// FormatText is the human-readable key=value encoding
	FormatText
)

// String returns the format name used in configuration and metrics labels
func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatText:
		return "text"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// Extension returns the canonical file extension for the format
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return ".sav"
}

// ParseFormat converts a configuration string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary", "bin", "sav":
		return FormatBinary, nil
	case "text", "txt":
		return FormatText, nil
	default:
		msg := fmt.Errorf("%w: unknown format %q", errors.ErrInvalidConfig, s)
		return FormatBinary, errors.WrapInvalid(msg, "Manager", "ParseFormat", "format parsing")
	}
}

// EnsureExtension normalizes a save path to carry the format's canonical
// extension, replacing a known save extension if one is present.
func EnsureExtension(path string, format Format) string {
	ext := filepath.Ext(path)
	if ext == ".sav" || ext == ".txt" {
		path = strings.TrimSuffix(path, ext)
	}
	return path + format.Extension()
}

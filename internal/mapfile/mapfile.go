package mapfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/petervdpas/isoedit/internal/util"
)

//go:embed template/blank.mpr
var blankTemplate []byte

// Parse reads and decodes the map at path. The format is chosen by extension:
// .mpr (any case) is structured, everything else legacy.
func Parse(path string) (*MapData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(path, f)
}

// Decode is Parse over an already open reader; path selects the format and
// names the document in errors.
func Decode(path string, r io.Reader) (*MapData, error) {
	if IsStructured(path) {
		return decodeStructured(path, r)
	}
	return decodeLegacy(path, r)
}

// Save writes m to path as an indented .mpr document, replacing any existing
// file atomically. Legacy paths are refused.
func Save(path string, m *MapData) error {
	if !IsStructured(path) {
		return fmt.Errorf("%s: %w", path, ErrReadOnlyFormat)
	}
	b, err := Encode(m)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(path, b)
}

// Encode renders m as an indented .mpr document.
func Encode(m *MapData) ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil map")
	}
	c := m.Clone()
	c.normalize()
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func decodeStructured(path string, r io.Reader) (*MapData, error) {
	m := &MapData{Theater: Temperate}
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMalformed, path, err)
	}
	if err := m.checkSize(path); err != nil {
		return nil, err
	}
	m.normalize()
	m.EnsureElevations()
	return m, nil
}

// DefaultTemplate returns the bundled blank document used when scaffolding a
// project, or a 64x64 blank map if the bundled copy cannot be decoded.
func DefaultTemplate() *MapData {
	m, err := decodeStructured("template/blank.mpr", bytes.NewReader(blankTemplate))
	if err != nil {
		return Blank(64, 64)
	}
	return m
}

// IsStructured reports whether path names a .mpr document.
func IsStructured(path string) bool {
	return strings.EqualFold(filepath.Ext(path), StructuredExt)
}

// IsMapPath reports whether path has one of exts (case-insensitive). With no
// exts, both map formats are accepted.
func IsMapPath(path string, exts ...string) bool {
	if len(exts) == 0 {
		exts = []string{LegacyExt, StructuredExt}
	}
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

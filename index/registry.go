package index

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// MagicSize is the number of leading bytes inspected to pick a format.
const MagicSize = 4

// Format describes a serialized index layout.
type Format struct {
	// Name is the stable format name, e.g. "faiss".
	Name string

	// Match reports whether a file starting with header belongs to this
	// format. Nil means the format cannot be sniffed.
	Match func(header []byte) bool

	// Extensions lists file extensions (with dot) used when sniffing fails.
	Extensions []string

	// Read decodes an index from r, positioned at the start of the file.
	Read func(r io.Reader) (Index, error)
}

var (
	formatsMu sync.RWMutex
	formats   []Format
)

// Register makes a format available to Open. Registering a name twice
// replaces the earlier entry.
//
// Format implementations should typically call this from an init() function.
func Register(f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	for i := range formats {
		if formats[i].Name == f.Name {
			formats[i] = f
			return
		}
	}
	formats = append(formats, f)
}

// Formats returns the names of the registered formats, sorted.
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	slices.Sort(names)
	return names
}

// Open reads an index from r, picking the format from its magic bytes.
func Open(r io.Reader) (Index, error) {
	return OpenNamed(r, "")
}

// OpenNamed is Open with a file name used as a fallback hint when no magic
// matches.
func OpenNamed(r io.Reader, name string) (Index, error) {
	var header [MagicSize]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	f, ok := lookup(header[:n], name)
	if !ok {
		return nil, fmt.Errorf("%w: magic %q", ErrUnknownFormat, printable(header[:n]))
	}

	return f.Read(io.MultiReader(bytes.NewReader(header[:n]), r))
}

// OpenFormat reads r with the named format, skipping detection.
func OpenFormat(r io.Reader, name string) (Index, error) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	for _, f := range formats {
		if f.Name == name {
			return f.Read(r)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

func lookup(header []byte, name string) (Format, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	for _, f := range formats {
		if f.Match != nil && f.Match(header) {
			return f, true
		}
	}

	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		for _, f := range formats {
			if slices.Contains(f.Extensions, ext) {
				return f, true
			}
		}
	}

	return Format{}, false
}

func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		out[i] = c
	}
	return string(out)
}

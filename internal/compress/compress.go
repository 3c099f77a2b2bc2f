// Package compress detects and applies the stream compressions accepted for
// inputs and produced for outputs: gzip, zstd and lz4 frames.
package compress

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies a stream compression.
type Format uint8

const (
	// None leaves the stream untouched.
	None Format = iota
	// Gzip is RFC 1952.
	Gzip
	// Zstd is the Zstandard frame format.
	Zstd
	// LZ4 is the LZ4 frame format.
	LZ4
)

var (
	// ID1, ID2 and CM=deflate, the only method RFC 1952 defines.
	gzipMagic = []byte{0x1f, 0x8b, 0x08}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (f Format) String() string {
	switch f {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Ext returns the conventional file extension, including the dot.
func (f Format) Ext() string {
	switch f {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	default:
		return ""
	}
}

// Level trades speed for ratio. The zero value is each codec's default.
type Level int

const (
	LevelDefault Level = iota
	LevelFastest
	LevelBest
)

// ParseLevel maps "default", "fastest" and "best" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return LevelDefault, nil
	case "fastest", "fast":
		return LevelFastest, nil
	case "best":
		return LevelBest, nil
	default:
		return LevelDefault, fmt.Errorf("compress: unknown level %q", s)
	}
}

// gzipReservedFlags must be zero in a gzip member header.
const gzipReservedFlags = 0xe0

// Detect inspects the leading bytes of a stream. A gzip member is only
// recognized from its first four bytes, so binary data that merely starts
// with 1f 8b is passed through.
func Detect(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, lz4Magic):
		return LZ4
	case len(header) >= 4 && bytes.HasPrefix(header, gzipMagic) && header[3]&gzipReservedFlags == 0:
		return Gzip
	default:
		return None
	}
}

// FromName picks a format from a file name's extension.
func FromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// NewReader sniffs r and returns a reader yielding the decompressed stream.
// Uncompressed input is passed through.
func NewReader(r io.Reader) (io.ReadCloser, Format, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, None, err
	}

	switch f := Detect(header); f {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, f, fmt.Errorf("compress: gzip: %w", err)
		}
		return zr, f, nil
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, f, fmt.Errorf("compress: zstd: %w", err)
		}
		return dec.IOReadCloser(), f, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(br)), f, nil
	default:
		return io.NopCloser(br), None, nil
	}
}

// NewWriter wraps w with the given format. Closing the returned writer
// flushes the compressor but leaves w open.
func NewWriter(w io.Writer, f Format, level Level) (io.WriteCloser, error) {
	switch f {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		lvl := gzip.DefaultCompression
		switch level {
		case LevelFastest:
			lvl = gzip.BestSpeed
		case LevelBest:
			lvl = gzip.BestCompression
		}
		return gzip.NewWriterLevel(w, lvl)
	case Zstd:
		lvl := zstd.SpeedDefault
		switch level {
		case LevelFastest:
			lvl = zstd.SpeedFastest
		case LevelBest:
			lvl = zstd.SpeedBestCompression
		}
		return zstd.NewWriter(w, zstd.WithEncoderLevel(lvl))
	case LZ4:
		lvl := lz4.Fast
		if level == LevelBest {
			lvl = lz4.Level9
		}
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lvl)); err != nil {
			return nil, fmt.Errorf("compress: lz4: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("compress: unsupported format %s", f)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

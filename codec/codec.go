// Package codec selects the JSON implementation used to parse metadata and
// to encode output documents.
//
// Both built-in codecs produce the same document for the same input; they
// differ only in speed. Encoders never escape HTML characters and keep
// non-ASCII text literal, because the output is read by people as well as by
// the web application.
package codec

import (
	"fmt"
	"io"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// NewEncoder returns a streaming encoder writing to w.
	NewEncoder(w io.Writer) Encoder
	Name() string
}

// Encoder is the streaming subset shared by encoding/json and go-json.
type Encoder interface {
	SetIndent(prefix, indent string)
	SetEscapeHTML(on bool)
	Encode(v any) error
}

// Default is the codec used when none is configured.
var Default Codec = JSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "", "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Names lists the built-in codec names.
func Names() []string {
	return []string{"json", "go-json"}
}

// Encode writes v to w as a single document using c. An empty indent
// produces compact output.
func Encode(c Codec, w io.Writer, v any, indent string) error {
	if c == nil {
		c = Default
	}
	enc := c.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	return nil
}

package faiss

import (
	"errors"
	"fmt"
)

// ErrCorrupt is returned when a file is structurally inconsistent.
var ErrCorrupt = errors.New("faiss: corrupt index")

// ErrUnsupported is returned for index variants this package cannot decode.
type ErrUnsupported struct {
	// Fourcc is the four-character type code found in the file.
	Fourcc string
	// Detail narrows down what is unsupported, if known.
	Detail string
}

func (e *ErrUnsupported) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("faiss: unsupported index %q: %s", e.Fourcc, e.Detail)
	}
	return fmt.Sprintf("faiss: unsupported index %q", e.Fourcc)
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

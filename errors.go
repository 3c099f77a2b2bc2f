package vecexport

import (
	"errors"
	"fmt"
)

// Kind classifies a conversion failure. Every error returned by Convert
// carries exactly one Kind.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from Convert.
	KindUnknown Kind = iota
	// MissingInputFile means the index or the metadata does not exist.
	MissingInputFile
	// IndexLoadError means the index could not be read or reconstructed.
	IndexLoadError
	// MetadataParseError means the metadata could not be read or is not JSON.
	MetadataParseError
	// MetadataMismatch means strict checking found a metadata array whose
	// length differs from the vector count.
	MetadataMismatch
	// WriteError means the output could not be encoded or written.
	WriteError
)

func (k Kind) String() string {
	switch k {
	case MissingInputFile:
		return "MissingInputFile"
	case IndexLoadError:
		return "IndexLoadError"
	case MetadataParseError:
		return "MetadataParseError"
	case MetadataMismatch:
		return "MetadataMismatch"
	case WriteError:
		return "WriteError"
	default:
		return "Unknown"
	}
}

var (
	// ErrMissingInputFile matches errors of kind MissingInputFile.
	ErrMissingInputFile = errors.New("missing input file")
	// ErrIndexLoad matches errors of kind IndexLoadError.
	ErrIndexLoad = errors.New("index load failed")
	// ErrMetadataParse matches errors of kind MetadataParseError.
	ErrMetadataParse = errors.New("metadata parse failed")
	// ErrMetadataMismatch matches errors of kind MetadataMismatch.
	ErrMetadataMismatch = errors.New("metadata does not match index")
	// ErrWrite matches errors of kind WriteError.
	ErrWrite = errors.New("write failed")
)

func (k Kind) sentinel() error {
	switch k {
	case MissingInputFile:
		return ErrMissingInputFile
	case IndexLoadError:
		return ErrIndexLoad
	case MetadataParseError:
		return ErrMetadataParse
	case MetadataMismatch:
		return ErrMetadataMismatch
	case WriteError:
		return ErrWrite
	default:
		return nil
	}
}

// Error is returned by Convert.
//
// errors.Is matches both the Kind's sentinel and the underlying cause, so
// callers can test for ErrMissingInputFile as well as os.ErrNotExist.
type Error struct {
	Kind Kind
	// Path is the location the failure relates to.
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind.sentinel(), e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind.sentinel(), e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrMismatch details a MetadataMismatch.
type ErrMismatch struct {
	Vectors int
	Entries int
}

func (e *ErrMismatch) Error() string {
	return fmt.Sprintf("%d metadata entries for %d vectors", e.Entries, e.Vectors)
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Package index defines the contract the converter needs from a stored
// vector collection and dispatches serialized files to format readers.
//
// A reader only has to report the vector count N, the dimensionality D and a
// human-readable type name, and be able to reconstruct any contiguous range
// of vectors as float32 rows:
//
//	idx, err := index.Open(r)
//	if err != nil { ... }
//	rows, err := idx.Reconstruct(0, idx.Len())
//
// Formats register themselves from an init function, keyed by the magic
// bytes at the start of their files. Formats without a magic (such as raw
// .fvecs dumps) are selected by file extension through OpenNamed.
package index

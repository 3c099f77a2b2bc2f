// Package mmap maps input files read-only so index bytes can be decoded
// without an intermediate copy through kernel buffers.
//
// Unix platforms use mmap(2) with madvise(2) hints. Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not touch a slice returned by Bytes after Close returns.
package mmap

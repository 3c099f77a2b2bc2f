// Package conv converts integers read from or written to binary files
// between Go's platform-sized int and fixed-width types.
//
// Counts in index files are 64-bit. On 32-bit platforms they may not fit an
// int, and dimensions written back must fit the int32 header field. Every
// conversion reports ErrOverflow instead of wrapping silently.
package conv

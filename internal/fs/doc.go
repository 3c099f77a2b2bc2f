// Package fs abstracts the file system operations behind local outputs so
// that write failures can be injected in tests.
//
//   - [LocalFS]: the os package, exposed as [Default]
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs, closes
//     or renames of matching files
//
// Usage:
//
//	f, err := fs.CreateTemp(fs.Default, dir, ".out.json.tmp-")
//
// Tests swap in a FaultyFS:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: 16})
//
// Reads are not covered; local inputs are memory-mapped directly.
package fs

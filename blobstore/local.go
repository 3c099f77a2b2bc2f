package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/vecexport/internal/fs"
	"github.com/hupe1980/vecexport/internal/mmap"
)

// LocalStore implements Store using the local file system.
type LocalStore struct {
	root string
	perm os.FileMode
	fs   fs.FileSystem
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
// An empty root resolves names against the working directory, and
// absolute names are used as is.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root, perm: 0o644, fs: fs.Default}
}

func (s *LocalStore) path(name string) string {
	if s.root == "" || filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(s.root, name)
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AccessSequential)
	return &localBlob{m: m}, nil
}

// Stat returns the size of a regular file.
func (s *LocalStore) Stat(_ context.Context, name string) (int64, error) {
	fi, err := s.fs.Stat(s.path(name))
	if err != nil {
		return 0, err
	}
	if fi.IsDir() {
		return 0, &os.PathError{Op: "stat", Path: s.path(name), Err: errors.New("is a directory")}
	}
	return fi.Size(), nil
}

// Create writes to a temporary file next to name and renames it into
// place on Close. Missing parent directories are created.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	path := s.path(name)
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := fs.CreateTemp(s.fs, dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fs: s.fs, f: f, path: path, perm: s.perm}, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(p []byte, off int64) (int, error) {
	return b.m.ReadAt(p, off)
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return b.m.Size()
}

func (b *localBlob) Bytes() ([]byte, error) {
	return b.m.Bytes(), nil
}

type localWritableBlob struct {
	fs   fs.FileSystem
	f    fs.File
	path string
	perm os.FileMode
	done bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, os.ErrClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Close() error {
	if w.done {
		return os.ErrClosed
	}
	w.done = true

	tmp := w.f.Name()
	err := w.f.Sync()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = w.fs.Chmod(tmp, w.perm)
	}
	if err == nil {
		err = w.fs.Rename(tmp, w.path)
	}
	if err != nil {
		_ = w.fs.Remove(tmp)
	}
	return err
}

func (w *localWritableBlob) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	_ = w.f.Close()
	if err := w.fs.Remove(w.f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

var _ io.WriteCloser = (*localWritableBlob)(nil)

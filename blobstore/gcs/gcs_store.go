package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/hupe1980/vecexport/blobstore"
)

// Store implements blobstore.Store for one GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewStore returns a store for bucket. Every name is joined to rootPrefix.
func NewStore(client *storage.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// Config holds connection settings for Opener.
type Config struct {
	// Endpoint overrides the JSON API endpoint.
	Endpoint string `yaml:"endpoint"`
	// Anonymous skips credential lookup, for public buckets and emulators.
	Anonymous bool   `yaml:"anonymous"`
	Prefix    string `yaml:"prefix"`
}

// NewClient creates a storage client for cfg.
func NewClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating client: %w", err)
	}
	return client, nil
}

// Opener returns a blobstore.BucketOpener sharing one client across buckets.
func Opener(cfg Config) blobstore.BucketOpener {
	var (
		once   sync.Once
		client *storage.Client
		err    error
	)
	return func(ctx context.Context, bucket string) (blobstore.Store, error) {
		once.Do(func() { client, err = NewClient(context.WithoutCancel(ctx), cfg) })
		if err != nil {
			return nil, err
		}
		return NewStore(client, bucket, cfg.Prefix), nil
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(key)
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist)
}

func (s *Store) stat(ctx context.Context, key string) (int64, error) {
	attrs, err := s.object(key).Attrs(ctx)
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("gs://%s/%s: %w", s.bucket, key, blobstore.ErrNotFound)
		}
		return 0, err
	}
	return attrs.Size, nil
}

// Open opens an existing blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	size, err := s.stat(ctx, key)
	if err != nil {
		return nil, err
	}
	return &gcsBlob{ctx: ctx, obj: s.object(key), size: size}, nil
}

// Stat returns the size of a blob.
func (s *Store) Stat(ctx context.Context, name string) (int64, error) {
	return s.stat(ctx, s.key(name))
}

// Create starts a resumable upload. The object appears only when Close
// succeeds; Abort cancels the upload.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	wctx, cancel := context.WithCancel(ctx)
	w := s.object(s.key(name)).NewWriter(wctx)
	w.ContentType = blobstore.ContentType(name)
	return &gcsWritableBlob{w: w, cancel: cancel}, nil
}

// gcsBlob implements blobstore.Blob with ranged reads.
type gcsBlob struct {
	ctx  context.Context
	obj  *storage.ObjectHandle
	size int64
}

func (b *gcsBlob) Size() int64 {
	return b.size
}

func (b *gcsBlob) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= b.size {
		return 0, io.EOF
	}

	want := min(int64(len(p)), b.size-off)
	r, err := b.obj.NewRangeReader(b.ctx, off, want)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	n, err := io.ReadFull(r, p[:want])
	if err != nil {
		return n, err
	}
	if int(want) < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *gcsBlob) Close() error {
	return nil
}

// gcsWritableBlob implements blobstore.WritableBlob.
type gcsWritableBlob struct {
	w      *storage.Writer
	cancel context.CancelFunc

	mu       sync.Mutex
	finished bool
	closeErr error
}

func (b *gcsWritableBlob) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

func (b *gcsWritableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return b.closeErr
	}
	b.finished = true

	b.closeErr = b.w.Close()
	b.cancel()
	return b.closeErr
}

func (b *gcsWritableBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return nil
	}
	b.finished = true

	// Canceling the writer's context discards the upload.
	b.cancel()
	_ = b.w.Close()
	return nil
}

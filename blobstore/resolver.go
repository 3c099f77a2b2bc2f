package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownScheme is returned for locations whose scheme has no opener.
var ErrUnknownScheme = errors.New("blobstore: unknown location scheme")

// Location is a parsed blob location. Local paths have an empty Scheme and
// keep the path in Key.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseLocation splits "scheme://bucket/key". Anything without "://", and
// any "file://" URI, is a local path.
func ParseLocation(s string) (Location, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		if s == "" {
			return Location{}, errors.New("blobstore: empty location")
		}
		return Location{Key: s}, nil
	}
	if strings.EqualFold(scheme, "file") {
		return Location{Key: rest}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if scheme == "" || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("blobstore: location %q: want scheme://bucket/key", s)
	}
	return Location{Scheme: strings.ToLower(scheme), Bucket: bucket, Key: key}, nil
}

func (l Location) String() string {
	if l.Scheme == "" {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// IsLocal reports whether l names a local file.
func (l Location) IsLocal() bool { return l.Scheme == "" }

// BucketOpener returns the Store for one bucket of an object store.
type BucketOpener func(ctx context.Context, bucket string) (Store, error)

// Resolver maps location strings to stores. Bucket stores are opened on
// first use and cached.
type Resolver struct {
	local Store

	mu      sync.Mutex
	openers map[string]BucketOpener
	buckets map[string]Store
}

// NewResolver returns a resolver that serves local paths from local, or
// from a LocalStore on the working directory if local is nil.
func NewResolver(local Store) *Resolver {
	if local == nil {
		local = NewLocalStore("")
	}
	return &Resolver{
		local:   local,
		openers: make(map[string]BucketOpener),
		buckets: make(map[string]Store),
	}
}

// Register binds a scheme such as "s3" to an opener.
func (r *Resolver) Register(scheme string, open BucketOpener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.openers[strings.ToLower(scheme)] = open
}

// Resolve returns the store holding location and the blob name inside it.
func (r *Resolver) Resolve(ctx context.Context, location string) (Store, string, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, "", err
	}
	if loc.IsLocal() {
		return r.local, loc.Key, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cacheKey := loc.Scheme + "://" + loc.Bucket
	if s, ok := r.buckets[cacheKey]; ok {
		return s, loc.Key, nil
	}
	open, ok := r.openers[loc.Scheme]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownScheme, loc.Scheme)
	}
	s, err := open(ctx, loc.Bucket)
	if err != nil {
		return nil, "", fmt.Errorf("blobstore: opening %s: %w", cacheKey, err)
	}
	r.buckets[cacheKey] = s
	return s, loc.Key, nil
}

package vecexport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hupe1980/vecexport/blobstore"
	"github.com/hupe1980/vecexport/codec"
	"github.com/hupe1980/vecexport/index"
	"github.com/hupe1980/vecexport/internal/compress"
	"github.com/hupe1980/vecexport/internal/resource"

	// Index formats readable by Convert.
	_ "github.com/hupe1980/vecexport/index/faiss"
	_ "github.com/hupe1980/vecexport/index/fvecs"
)

// Config names the three locations of one conversion. Each is a local path
// or an object store URI such as "s3://bucket/key".
type Config struct {
	IndexPath    string `yaml:"index"`
	MetadataPath string `yaml:"metadata"`
	OutputPath   string `yaml:"output"`
}

// Result summarizes a successful conversion.
type Result struct {
	Output       string
	TotalVectors int
	Dimension    int
	IndexType    string
	// BytesWritten counts bytes stored, after compression.
	BytesWritten int64
	Duration     time.Duration
}

// Converter runs conversions with a fixed set of options. It is safe for
// concurrent use as long as concurrent conversions write distinct outputs.
type Converter struct {
	opts options
	res  *resource.Controller
}

// NewConverter returns a Converter configured by optFns.
func NewConverter(optFns ...Option) *Converter {
	opts := applyOptions(optFns)
	return &Converter{
		opts: opts,
		res: resource.NewController(resource.Config{
			MemoryLimitBytes: opts.memoryLimit,
			WriteBytesPerSec: opts.writeRate,
		}),
	}
}

// Convert is a shorthand for NewConverter(optFns...).Convert(ctx, cfg).
func Convert(ctx context.Context, cfg Config, optFns ...Option) (*Result, error) {
	return NewConverter(optFns...).Convert(ctx, cfg)
}

// Convert reads the index and the metadata named by cfg and writes the
// combined document to cfg.OutputPath.
//
// The output is written only after the whole document has been encoded, so
// a failed conversion never leaves a partial file behind and never touches
// an existing one. Every error is an *Error.
func (c *Converter) Convert(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()

	res, err := c.convert(ctx, cfg)
	if res != nil {
		res.Duration = time.Since(start)
	}

	if err != nil {
		c.opts.metricsCollector.RecordConvert(0, 0, time.Since(start), err)
	} else {
		c.opts.metricsCollector.RecordConvert(res.TotalVectors, res.BytesWritten, res.Duration, nil)
	}
	c.opts.logger.LogConvert(ctx, res, err)

	return res, err
}

func (c *Converter) convert(ctx context.Context, cfg Config) (*Result, error) {
	log := c.opts.logger

	indexStore, indexName, err := c.checkInput(ctx, cfg.IndexPath, IndexLoadError)
	if err != nil {
		return nil, err
	}
	metaStore, metaName, err := c.checkInput(ctx, cfg.MetadataPath, MetadataParseError)
	if err != nil {
		return nil, err
	}

	idx, err := loadIndex(ctx, indexStore, indexName)
	if err != nil {
		log.LogLoad(ctx, cfg.IndexPath, 0, 0, "", err)
		return nil, newError(IndexLoadError, cfg.IndexPath, err)
	}
	log.LogLoad(ctx, cfg.IndexPath, idx.Len(), idx.Dimension(), idx.Type(), nil)

	size := index.SizeBytes(idx)
	if err := c.res.AcquireMemory(ctx, size); err != nil {
		return nil, newError(IndexLoadError, cfg.IndexPath, err)
	}
	defer c.res.ReleaseMemory(size)

	reconstructStart := time.Now()
	vectors, err := index.ReconstructAll(idx)
	log.LogReconstruct(ctx, idx.Len(), time.Since(reconstructStart), err)
	if err != nil {
		return nil, newError(IndexLoadError, cfg.IndexPath, err)
	}
	if vectors == nil {
		vectors = [][]float32{}
	}

	meta, err := c.loadMetadata(ctx, metaStore, metaName)
	log.LogMetadata(ctx, cfg.MetadataPath, len(meta), err)
	if err != nil {
		return nil, newError(MetadataParseError, cfg.MetadataPath, err)
	}

	if c.opts.strict {
		if err := c.checkMetadata(meta, idx.Len()); err != nil {
			return nil, newError(MetadataMismatch, cfg.MetadataPath, err)
		}
	}

	rec := Record{
		Vectors:  vectors,
		Metadata: meta,
		IndexInfo: IndexInfo{
			TotalVectors:    idx.Len(),
			VectorDimension: idx.Dimension(),
			IndexType:       idx.Type(),
		},
	}
	if m, ok := idx.(index.IDMapper); ok {
		rec.IDs = m.IDs()
		log.LogIDs(ctx, cfg.IndexPath, len(rec.IDs), m.DistinctIDs())
	}

	var doc bytes.Buffer
	if err := encodeRecord(c.opts, &doc, &rec); err != nil {
		return nil, newError(WriteError, cfg.OutputPath, err)
	}

	n, err := c.write(ctx, cfg.OutputPath, doc.Bytes())
	log.LogWrite(ctx, cfg.OutputPath, n, err)
	if err != nil {
		return nil, newError(WriteError, cfg.OutputPath, err)
	}

	return &Result{
		Output:       cfg.OutputPath,
		TotalVectors: rec.IndexInfo.TotalVectors,
		Dimension:    rec.IndexInfo.VectorDimension,
		IndexType:    rec.IndexInfo.IndexType,
		BytesWritten: n,
	}, nil
}

// checkInput resolves location and verifies it exists. A missing blob is a
// MissingInputFile error; anything else is reported with failKind.
func (c *Converter) checkInput(ctx context.Context, location string, failKind Kind) (blobstore.Store, string, error) {
	if location == "" {
		return nil, "", newError(MissingInputFile, location, errors.New("no location given"))
	}
	store, name, err := c.opts.stores.Resolve(ctx, location)
	if err != nil {
		return nil, "", newError(failKind, location, err)
	}
	if _, err := store.Stat(ctx, name); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, "", newError(MissingInputFile, location, err)
		}
		return nil, "", newError(failKind, location, err)
	}
	return store, name, nil
}

func loadIndex(ctx context.Context, store blobstore.Store, name string) (index.Index, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	r, _, err := compress.NewReader(blobstore.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return index.OpenNamed(r, formatHint(name))
}

// formatHint drops a compression extension so "base.fvecs.gz" is
// recognized as fvecs.
func formatHint(name string) string {
	if f := compress.FromName(name); f != compress.None {
		return name[:strings.LastIndexByte(name, '.')]
	}
	return name
}

func (c *Converter) loadMetadata(ctx context.Context, store blobstore.Store, name string) (json.RawMessage, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}

	if compress.Detect(data) != compress.None {
		r, _, err := compress.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		data, err = io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return nil, err
		}
	}

	var meta json.RawMessage
	if err := c.opts.codec.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (c *Converter) checkMetadata(meta json.RawMessage, n int) error {
	trimmed := bytes.TrimLeft(meta, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var entries []json.RawMessage
	if err := c.opts.codec.Unmarshal(meta, &entries); err != nil {
		return err
	}
	if len(entries) != n {
		return &ErrMismatch{Vectors: n, Entries: len(entries)}
	}
	return nil
}

// write stores doc at location, compressed according to its extension.
// On any failure the partially written blob is discarded.
func (c *Converter) write(ctx context.Context, location string, doc []byte) (int64, error) {
	if location == "" {
		return 0, errors.New("no output location given")
	}
	store, name, err := c.opts.stores.Resolve(ctx, location)
	if err != nil {
		return 0, err
	}

	blob, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	counter := &countingWriter{w: resource.NewRateLimitedWriter(ctx, blob, c.res)}
	cw, err := compress.NewWriter(counter, compress.FromName(name), c.opts.compression.level())
	if err != nil {
		_ = blob.Abort()
		return 0, err
	}

	if _, err := io.Copy(cw, bytes.NewReader(doc)); err != nil {
		_ = cw.Close()
		_ = blob.Abort()
		return 0, err
	}
	if err := cw.Close(); err != nil {
		_ = blob.Abort()
		return 0, err
	}
	if err := blob.Close(); err != nil {
		_ = blob.Abort()
		return 0, err
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Encode writes rec the way Convert does.
func (c *Converter) Encode(w io.Writer, rec *Record) error {
	return encodeRecord(c.opts, w, rec)
}

func encodeRecord(opts options, w io.Writer, rec *Record) error {
	if rec.Metadata == nil {
		return errors.New("record has no metadata")
	}
	out := *rec
	if out.Vectors == nil {
		out.Vectors = [][]float32{}
	}
	if err := codec.Encode(opts.codec, w, &out, opts.indent); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

// Inspect loads the index at location and describes it without
// reconstructing any vectors.
func (c *Converter) Inspect(ctx context.Context, location string) (*IndexInfo, error) {
	store, name, err := c.checkInput(ctx, location, IndexLoadError)
	if err != nil {
		return nil, err
	}
	idx, err := loadIndex(ctx, store, name)
	if err != nil {
		return nil, newError(IndexLoadError, location, err)
	}
	return &IndexInfo{
		TotalVectors:    idx.Len(),
		VectorDimension: idx.Dimension(),
		IndexType:       idx.Type(),
	}, nil
}

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecexport"
	"github.com/hupe1980/vecexport/blobstore"
	"github.com/hupe1980/vecexport/blobstore/gcs"
	"github.com/hupe1980/vecexport/blobstore/minio"
	"github.com/hupe1980/vecexport/blobstore/s3"
	"github.com/hupe1980/vecexport/codec"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	root        string
	codec       string
	indent      int
	strict      bool
	logLevel    string
	logFormat   string
	compression string
	memoryLimit int64
	writeRate   int64

	s3Region    string
	s3Endpoint  string
	s3PathStyle bool

	gcs   gcs.Config
	minio minio.Config
}

func (g *globalFlags) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&g.root, "root", "", "directory relative local paths resolve against (default: working directory)")
	f.StringVar(&g.codec, "codec", codec.Default.Name(), "JSON codec: "+strings.Join(codec.Names(), ", "))
	f.IntVar(&g.indent, "indent", len(vecexport.DefaultIndent), "spaces per indentation level, 0 for compact output")
	f.BoolVar(&g.strict, "strict", false, "require a metadata array to hold one entry per vector")
	f.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&g.logFormat, "log-format", "text", "log format: text, json")
	f.StringVar(&g.compression, "compression-level", "default", "output compression level: default, fastest, best")
	f.Int64Var(&g.memoryLimit, "memory-limit", 0, "bytes of reconstructed vectors held at once, 0 for no limit")
	f.Int64Var(&g.writeRate, "write-rate", 0, "output bytes per second, 0 for no limit")

	f.StringVar(&g.s3Region, "s3-region", "", "AWS region for s3:// locations (default: AWS config chain)")
	f.StringVar(&g.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint for s3:// locations")
	f.BoolVar(&g.s3PathStyle, "s3-path-style", false, "use path-style addressing for s3:// locations")

	f.StringVar(&g.gcs.Endpoint, "gcs-endpoint", "", "GCS JSON API endpoint for gs:// locations")
	f.BoolVar(&g.gcs.Anonymous, "gcs-anonymous", false, "access gs:// locations without credentials")

	f.StringVar(&g.minio.Endpoint, "minio-endpoint", os.Getenv("MINIO_ENDPOINT"), "MinIO endpoint for minio:// locations [$MINIO_ENDPOINT]")
	f.StringVar(&g.minio.AccessKey, "minio-access-key", os.Getenv("MINIO_ACCESS_KEY"), "MinIO access key [$MINIO_ACCESS_KEY]")
	f.StringVar(&g.minio.SecretKey, "minio-secret-key", os.Getenv("MINIO_SECRET_KEY"), "MinIO secret key [$MINIO_SECRET_KEY]")
	f.StringVar(&g.minio.Region, "minio-region", "", "MinIO region")
	f.BoolVar(&g.minio.Secure, "minio-secure", false, "use TLS for the MinIO endpoint")
}

// resolve makes a relative local path relative to --root. Object URIs and
// absolute paths are returned unchanged.
func (g *globalFlags) resolve(location string) string {
	if location == "" || g.root == "" {
		return location
	}
	loc, err := blobstore.ParseLocation(location)
	if err != nil || !loc.IsLocal() || filepath.IsAbs(loc.Key) {
		return location
	}
	return filepath.Join(g.root, loc.Key)
}

func (g *globalFlags) logger(w io.Writer) (*vecexport.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", g.logLevel, err)
	}
	switch strings.ToLower(g.logFormat) {
	case "text":
		return vecexport.NewTextLogger(w, level), nil
	case "json":
		return vecexport.NewJSONLogger(w, level), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", g.logFormat)
	}
}

func (g *globalFlags) compressionLevel() (vecexport.CompressionLevel, error) {
	switch strings.ToLower(g.compression) {
	case "", "default":
		return vecexport.CompressionDefault, nil
	case "fastest":
		return vecexport.CompressionFastest, nil
	case "best":
		return vecexport.CompressionBest, nil
	default:
		return 0, fmt.Errorf("invalid compression level %q (want default, fastest or best)", g.compression)
	}
}

// resolver knows local paths plus the s3://, gs:// and minio:// schemes. Object
// store clients are created on first use, so flags for a store that is
// never referenced are not validated.
func (g *globalFlags) resolver() *blobstore.Resolver {
	r := blobstore.NewResolver(nil)

	var s3Opts []s3.Option
	if g.s3Region != "" {
		s3Opts = append(s3Opts, s3.WithRegion(g.s3Region))
	}
	if g.s3Endpoint != "" {
		s3Opts = append(s3Opts, s3.WithEndpoint(g.s3Endpoint, g.s3PathStyle))
	}
	r.Register("s3", s3.Opener(s3Opts...))
	r.Register("gs", gcs.Opener(g.gcs))
	r.Register("minio", minio.Opener(g.minio))

	return r
}

// options turns the flags into converter options. Logs go to logOut.
func (g *globalFlags) options(logOut io.Writer) ([]vecexport.Option, error) {
	c, ok := codec.ByName(g.codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (want one of %s)", g.codec, strings.Join(codec.Names(), ", "))
	}
	if g.indent < 0 {
		return nil, fmt.Errorf("invalid indent %d", g.indent)
	}
	logger, err := g.logger(logOut)
	if err != nil {
		return nil, err
	}
	level, err := g.compressionLevel()
	if err != nil {
		return nil, err
	}

	return []vecexport.Option{
		vecexport.WithLogger(logger),
		vecexport.WithCodec(c),
		vecexport.WithIndent(strings.Repeat(" ", g.indent)),
		vecexport.WithStrictMetadata(g.strict),
		vecexport.WithStores(g.resolver()),
		vecexport.WithMemoryLimit(g.memoryLimit),
		vecexport.WithWriteRateLimit(g.writeRate),
		vecexport.WithCompressionLevel(level),
	}, nil
}

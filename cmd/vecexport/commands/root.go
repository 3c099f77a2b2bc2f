package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Default locations of the professor dataset, relative to --root.
const (
	DefaultIndex    = "professor_index.faiss"
	DefaultMetadata = "professor_metadata.json"
	DefaultOutput   = "data/vectors_with_metadata.json"
)

// NewRootCommand builds the vecexport command tree. Without a subcommand
// it behaves like "vecexport convert".
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "vecexport",
		Short: "Export a vector index and its metadata as one JSON document",
		Long: `vecexport - turn a similarity-search index into JSON for web clients.

It reconstructs every vector stored in a FAISS index (flat, scalar
quantized, HNSW or id-mapped) or an .fvecs file, pairs them with a JSON
metadata file and writes a single document:

  {"vectors": [...], "metadata": ..., "index_info": {...}}

Locations are local paths or object URIs (s3://bucket/key,
gs://bucket/key, minio://bucket/key). Inputs may be gzip, zstd or lz4 compressed; the
output is compressed when its name ends in .gz, .zst or .lz4.

Examples:
  # Convert the professor dataset in the current directory
  vecexport

  # Convert explicit files into a compressed document
  vecexport convert --index docs.faiss --metadata docs.json --output out/docs.json.zst

  # Run every job of a batch file, four at a time
  vecexport batch -f jobs.yaml --parallelism 4

  # Show what an index holds
  vecexport inspect s3://models/docs.faiss`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, g)
		},
	}

	g.register(rootCmd)
	addConvertFlags(rootCmd)

	rootCmd.AddCommand(newConvertCmd(g))
	rootCmd.AddCommand(newBatchCmd(g))
	rootCmd.AddCommand(newInspectCmd(g))

	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

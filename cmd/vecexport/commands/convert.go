package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecexport"
)

func newConvertCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert one index and its metadata into a JSON document",
		Long: `Convert one index and its metadata into a JSON document.

Both inputs must exist before anything is read. The output is written only
after the whole document has been built, so a failed run leaves any
existing output untouched.

Examples:
  vecexport convert
  vecexport convert --root /srv/data
  vecexport convert --index s3://models/docs.faiss --metadata s3://models/docs.json --output docs.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, g)
		},
	}
	addConvertFlags(cmd)
	return cmd
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().String("index", DefaultIndex, "index file or object URI")
	cmd.Flags().String("metadata", DefaultMetadata, "metadata JSON file or object URI")
	cmd.Flags().String("output", DefaultOutput, "output file or object URI")
}

func readConfig(cmd *cobra.Command, g *globalFlags) (vecexport.Config, error) {
	var cfg vecexport.Config
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"index", &cfg.IndexPath},
		{"metadata", &cfg.MetadataPath},
		{"output", &cfg.OutputPath},
	} {
		v, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return cfg, fmt.Errorf("failed to read '%s' flag: %w", f.name, err)
		}
		*f.dst = g.resolve(v)
	}
	return cfg, nil
}

func runConvert(cmd *cobra.Command, g *globalFlags) error {
	cfg, err := readConfig(cmd, g)
	if err != nil {
		return err
	}
	opts, err := g.options(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	res, err := vecexport.Convert(cmd.Context(), cfg, opts...)
	if err != nil {
		printGuidance(cmd.ErrOrStderr(), err)
		return err
	}

	printResult(cmd.OutOrStdout(), res)
	return nil
}

// printGuidance tells the user where a missing input was expected.
func printGuidance(w io.Writer, err error) {
	var verr *vecexport.Error
	if !errors.As(err, &verr) || verr.Kind != vecexport.MissingInputFile {
		return
	}
	if verr.Path == "" {
		fmt.Fprintln(w, "An input location is empty. Pass it with --index or --metadata.")
		return
	}
	fmt.Fprintf(w, "Input not found. Place the file at %s and run again.\n", verr.Path)
}

func printResult(w io.Writer, res *vecexport.Result) {
	fmt.Fprintf(w, "Exported %d vectors of dimension %d (%s)\n", res.TotalVectors, res.Dimension, res.IndexType)
	fmt.Fprintf(w, "  Output:   %s\n", res.Output)
	fmt.Fprintf(w, "  Size:     %d bytes\n", res.BytesWritten)
	fmt.Fprintf(w, "  Duration: %s\n", res.Duration.Round(time.Millisecond))
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecexport"
	"github.com/hupe1980/vecexport/codec"
)

func newInspectCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <index>",
		Short: "Show the size, dimension and type of an index",
		Long: `Show the size, dimension and type of an index without reconstructing
any vectors.

Examples:
  vecexport inspect professor_index.faiss
  vecexport inspect --json s3://models/docs.faiss`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, args[0])
		},
	}
	cmd.Flags().Bool("json", false, "print the index_info object as JSON")
	return cmd
}

func runInspect(cmd *cobra.Command, g *globalFlags, location string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read 'json' flag: %w", err)
	}
	opts, err := g.options(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	info, err := vecexport.NewConverter(opts...).Inspect(cmd.Context(), g.resolve(location))
	if err != nil {
		printGuidance(cmd.ErrOrStderr(), err)
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return codec.Encode(codec.Default, out, info, vecexport.DefaultIndent)
	}
	fmt.Fprintf(out, "Type:      %s\n", info.IndexType)
	fmt.Fprintf(out, "Vectors:   %d\n", info.TotalVectors)
	fmt.Fprintf(out, "Dimension: %d\n", info.VectorDimension)
	return nil
}

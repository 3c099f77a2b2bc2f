package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vecexport"
)

// jobFile is the layout of a batch file:
//
//	parallelism: 4
//	fail_fast: false
//	jobs:
//	  - name: professors
//	    index: professor_index.faiss
//	    metadata: professor_metadata.json
//	    output: data/professors.json
type jobFile struct {
	Parallelism int             `yaml:"parallelism"`
	FailFast    bool            `yaml:"fail_fast"`
	Jobs        []vecexport.Job `yaml:"jobs"`
}

func newBatchCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the conversions listed in a YAML job file",
		Long: `Run the conversions listed in a YAML job file.

Jobs run concurrently and independently: a failed job does not stop the
others unless --fail-fast is set. Every job must write a distinct output.
Relative local paths in the file resolve against --root.

Example jobs.yaml:

  parallelism: 2
  jobs:
    - name: professors
      index: professor_index.faiss
      metadata: professor_metadata.json
      output: data/professors.json
    - name: courses
      index: s3://models/courses.faiss
      metadata: s3://models/courses.json
      output: data/courses.json.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g)
		},
	}

	cmd.Flags().StringP("file", "f", "", "job file (YAML)")
	cmd.Flags().Int("parallelism", 0, "jobs run at once (default: file value, else GOMAXPROCS)")
	cmd.Flags().Bool("fail-fast", false, "cancel remaining jobs after the first failure")

	return cmd
}

// loadJobs parses a job file. Unknown keys are rejected so that a typo
// such as "ouput" does not silently fall back to an empty location.
func loadJobs(path string) (*jobFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var jf jobFile
	if err := dec.Decode(&jf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("job file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("job file %s lists no jobs", path)
	}
	return &jf, nil
}

func runBatch(cmd *cobra.Command, g *globalFlags) error {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("failed to read 'file' flag: %w", err)
	}
	if path == "" {
		return errors.New("job file is required, use -f flag")
	}

	jf, err := loadJobs(path)
	if err != nil {
		return err
	}

	parallelism, failFast := jf.Parallelism, jf.FailFast
	if cmd.Flags().Changed("parallelism") {
		if parallelism, err = cmd.Flags().GetInt("parallelism"); err != nil {
			return fmt.Errorf("failed to read 'parallelism' flag: %w", err)
		}
	}
	if cmd.Flags().Changed("fail-fast") {
		if failFast, err = cmd.Flags().GetBool("fail-fast"); err != nil {
			return fmt.Errorf("failed to read 'fail-fast' flag: %w", err)
		}
	}

	jobs := make([]vecexport.Job, len(jf.Jobs))
	for i, j := range jf.Jobs {
		j.IndexPath = g.resolve(j.IndexPath)
		j.MetadataPath = g.resolve(j.MetadataPath)
		j.OutputPath = g.resolve(j.OutputPath)
		jobs[i] = j
	}

	opts, err := g.options(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	opts = append(opts, vecexport.WithParallelism(parallelism), vecexport.WithFailFast(failFast))

	results, err := vecexport.RunBatch(cmd.Context(), jobs, opts...)
	if results == nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", r.Job.Name, r.Err)
			printGuidance(cmd.ErrOrStderr(), r.Err)
			continue
		}
		fmt.Fprintf(out, "ok    %s: %d vectors of dimension %d -> %s\n",
			r.Job.Name, r.Result.TotalVectors, r.Result.Dimension, r.Result.Output)
	}
	fmt.Fprintf(out, "Completed %d jobs, %d failed\n", len(results), failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}
	return nil
}

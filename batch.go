package vecexport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDuplicateOutput is returned by RunBatch when two jobs share an output.
var ErrDuplicateOutput = errors.New("duplicate output location")

// Job is one conversion of a batch.
type Job struct {
	// Name labels the job in logs. Defaults to the output location.
	Name   string `yaml:"name"`
	Config `yaml:",inline"`
}

// JobResult is the outcome of one Job. Exactly one of Result and Err is set.
type JobResult struct {
	Job    Job
	Result *Result
	Err    error
}

// RunBatch is a shorthand for NewConverter(optFns...).RunBatch(ctx, jobs).
func RunBatch(ctx context.Context, jobs []Job, optFns ...Option) ([]JobResult, error) {
	return NewConverter(optFns...).RunBatch(ctx, jobs)
}

// RunBatch runs independent conversions concurrently, at most
// WithParallelism at a time. Each job is all-or-nothing on its own. The
// returned slice is in job order; the error joins every job failure.
func (c *Converter) RunBatch(ctx context.Context, jobs []Job) ([]JobResult, error) {
	seen := make(map[string]int, len(jobs))
	for i, j := range jobs {
		if prev, ok := seen[j.OutputPath]; ok {
			return nil, fmt.Errorf("%w: jobs %d and %d write %q", ErrDuplicateOutput, prev, i, j.OutputPath)
		}
		seen[j.OutputPath] = i
	}

	start := time.Now()
	results := make([]JobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.parallelism)

	for i, j := range jobs {
		if j.Name == "" {
			j.Name = j.OutputPath
		}
		results[i].Job = j

		g.Go(func() error {
			jc := c.withLogger(c.opts.logger.WithJob(j.Name))

			runCtx := ctx
			if c.opts.failFast {
				runCtx = gctx
			}
			if err := runCtx.Err(); err != nil {
				results[i].Err = err
				return err
			}

			res, err := jc.Convert(runCtx, j.Config)
			results[i].Result, results[i].Err = res, err
			if err != nil && c.opts.failFast {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", r.Job.Name, r.Err))
		}
	}

	c.opts.metricsCollector.RecordBatch(len(jobs), len(errs), time.Since(start))
	c.opts.logger.LogBatch(ctx, len(jobs), len(errs), time.Since(start))

	return results, errors.Join(errs...)
}

// withLogger returns a shallow copy sharing the resource controller.
func (c *Converter) withLogger(l *Logger) *Converter {
	cp := *c
	cp.opts.logger = l
	return &cp
}

// Package batch runs the pipeline over many logs with a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
)

// DefaultPattern selects log files inside a directory.
const DefaultPattern = "*.log"

// Processor runs the pipeline for one log. *pipeline.Runner satisfies it.
type Processor interface {
	Run(ctx context.Context, path string) (*pipeline.Result, error)
}

// Outcome is the result of processing one path. Exactly one of Result and
// Err is set.
type Outcome struct {
	Path   string
	Result *pipeline.Result
	Err    error
}

// Runner processes logs concurrently. Outcomes are returned in input order.
type Runner struct {
	proc     Processor
	workers  int
	failFast bool

	active    atomic.Int32
	processed atomic.Uint64
	failed    atomic.Uint64
}

// Option configures a Runner.
type Option func(*Runner)

// WithFailFast cancels the remaining logs after the first failure.
func WithFailFast(on bool) Option {
	return func(r *Runner) { r.failFast = on }
}

// New returns a Runner that keeps at most workers logs in flight.
// workers below 1 is treated as 1.
func New(proc Processor, workers int, opts ...Option) *Runner {
	if workers < 1 {
		workers = 1
	}
	r := &Runner{proc: proc, workers: workers}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Active returns the number of logs currently being processed.
func (r *Runner) Active() int { return int(r.active.Load()) }

// Processed returns the number of logs finished so far, failed or not.
func (r *Runner) Processed() uint64 { return r.processed.Load() }

// Failed returns the number of logs whose processing returned an error.
func (r *Runner) Failed() uint64 { return r.failed.Load() }

// Run processes paths. Each outcome records its own error. With fail-fast
// set, the first failure cancels the logs not yet started, whose outcomes
// carry the cancellation error, and that failure is also returned.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Outcome, error) {
	out := make([]Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, p := range paths {
		out[i].Path = p
		if err := gctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			r.active.Add(1)
			res, err := r.proc.Run(gctx, p)
			r.active.Add(-1)
			r.processed.Add(1)

			if err != nil {
				r.failed.Add(1)
				out[i].Err = err
				monitoring.Opsf("batch: %s: %v", p, err)
				if r.failFast {
					return fmt.Errorf("%s: %w", p, err)
				}
				return nil
			}
			out[i].Result = res
			monitoring.Diagf("batch: %s done (%d frames)", p, len(res.Frames))
			return nil
		})
	}
	err := g.Wait()
	monitoring.Diagf("batch: %d logs processed, %d failed", r.Processed(), r.Failed())
	if err == nil {
		err = ctx.Err()
	}
	return out, err
}

// Errors joins the errors of all failed outcomes, or returns nil.
func Errors(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Glob expands dir into the sorted log paths matching pattern. An empty
// pattern uses DefaultPattern.
func Glob(fsys fsutil.FileSystem, dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	paths, err := fsys.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return paths, nil
}

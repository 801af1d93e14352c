package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/scenevec/internal/config"
	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/denoise"
	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/simlog/frames"
	"github.com/banshee-data/scenevec/internal/simlog/loader"
	"github.com/banshee-data/scenevec/internal/timeutil"
)

// Runner executes the pipeline. A Runner holds no per-run state and may be
// shared by concurrent callers.
type Runner struct {
	cfg        *config.PipelineConfig
	loader     *loader.Loader
	clock      timeutil.Clock
	newID      func() uuid.UUID
	assemblers []features.Assembler
}

// Option configures a Runner.
type Option func(*Runner)

// WithFileSystem reads logs through fsys instead of the OS filesystem.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(r *Runner) { r.loader = loader.New(fsys) }
}

// WithClock sets the clock used for run timestamps and stage timings.
func WithClock(c timeutil.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithIDGenerator sets the run id source.
func WithIDGenerator(f func() uuid.UUID) Option {
	return func(r *Runner) { r.newID = f }
}

// NewRunner returns a Runner using cfg. A nil cfg uses defaults.
func NewRunner(cfg *config.PipelineConfig, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.EmptyPipelineConfig()
	}
	r := &Runner{
		cfg:        cfg,
		loader:     loader.New(nil),
		clock:      timeutil.RealClock{},
		newID:      uuid.New,
		assemblers: features.All(features.ParamsFromConfig(cfg)),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Config returns the runner's configuration.
func (r *Runner) Config() *config.PipelineConfig { return r.cfg }

// Parse loads and builds the log at path without assembling vectors.
func (r *Runner) Parse(path string) (*frames.Log, loader.Encoding, error) {
	text, enc, err := r.loader.Load(path)
	if err != nil {
		return nil, "", err
	}
	log, err := frames.Build(text, r.frameOptions())
	if err != nil {
		return nil, enc, fmt.Errorf("%s: %w", path, err)
	}
	return log, enc, nil
}

// Run processes the log at path. Load errors are returned as
// loader.MissingFileError or loader.DecodeError; structural errors are
// wrapped with the path. ctx is checked between stages.
func (r *Runner) Run(ctx context.Context, path string) (*Result, error) {
	res := &Result{RunID: r.newID(), SourcePath: path, StartedAt: r.clock.Now(), Window: r.cfg.GetDenoiseWindow()}

	t := r.clock.Now()
	text, enc, err := r.loader.Load(path)
	if err != nil {
		return nil, err
	}
	res.Encoding = enc
	res.Timings.Load = r.clock.Since(t)

	if err := r.process(ctx, res, text); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	monitoring.Diagf("pipeline: %s run %s: %d frames, load %v build %v assemble %v denoise %v",
		path, res.RunID, len(res.Frames),
		res.Timings.Load, res.Timings.Build, res.Timings.Assemble, res.Timings.Denoise)
	return res, nil
}

// RunText processes log text that has already been loaded. source is
// recorded as the result's SourcePath.
func (r *Runner) RunText(ctx context.Context, source, text string) (*Result, error) {
	res := &Result{
		RunID:      r.newID(),
		SourcePath: source,
		Encoding:   loader.EncodingUTF8,
		StartedAt:  r.clock.Now(),
		Window:     r.cfg.GetDenoiseWindow(),
	}
	if err := r.process(ctx, res, text); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return res, nil
}

func (r *Runner) process(ctx context.Context, res *Result, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := r.clock.Now()
	log, err := frames.Build(text, r.frameOptions())
	if err != nil {
		return err
	}
	res.Timings.Build = r.clock.Since(t)
	res.Map, res.Frames = summarise(log)
	res.Mismatches = log.Mismatches

	if err := ctx.Err(); err != nil {
		return err
	}
	t = r.clock.Now()
	res.Raw, err = features.AssembleAll(r.assemblers, log.Frames, log.Map)
	if err != nil {
		return err
	}
	res.Timings.Assemble = r.clock.Since(t)

	if err := ctx.Err(); err != nil {
		return err
	}
	t = r.clock.Now()
	res.Denoised = make([]features.Matrix, 0, len(res.Raw))
	for _, m := range res.Raw {
		d, err := denoise.Matrix(m, res.Window)
		if err != nil {
			return err
		}
		res.Denoised = append(res.Denoised, d)
	}
	res.Timings.Denoise = r.clock.Since(t)
	return nil
}

func (r *Runner) frameOptions() frames.Options {
	return frames.Options{PedestrianEgoDistance: r.cfg.GetPedestrianEgoDistance()}
}

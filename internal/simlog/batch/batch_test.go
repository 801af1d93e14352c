package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/simlog/loader"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
	"github.com/banshee-data/scenevec/internal/testutil"
)

// gatedProcessor blocks every call until release is closed.
type gatedProcessor struct {
	started chan string
	release chan struct{}
	fail    map[string]bool

	mu    sync.Mutex
	calls []string
}

func newGated(fail ...string) *gatedProcessor {
	g := &gatedProcessor{
		started: make(chan string, 16),
		release: make(chan struct{}),
		fail:    map[string]bool{},
	}
	for _, f := range fail {
		g.fail[f] = true
	}
	return g
}

func (g *gatedProcessor) Run(ctx context.Context, path string) (*pipeline.Result, error) {
	g.mu.Lock()
	g.calls = append(g.calls, path)
	g.mu.Unlock()
	g.started <- path
	<-g.release
	if g.fail[path] {
		return nil, errors.New("boom")
	}
	return &pipeline.Result{SourcePath: path}, nil
}

func TestRunBoundsConcurrency(t *testing.T) {
	proc := newGated()
	r := New(proc, 2)
	paths := []string{"a", "b", "c", "d", "e"}

	done := make(chan []Outcome)
	go func() {
		out, err := r.Run(context.Background(), paths)
		assert.NoError(t, err)
		done <- out
	}()

	<-proc.started
	<-proc.started
	select {
	case p := <-proc.started:
		t.Fatalf("third log %q started while two were in flight", p)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, r.Active())

	close(proc.release)
	out := <-done

	require.Len(t, out, len(paths))
	for i, o := range out {
		assert.Equal(t, paths[i], o.Path)
		require.NotNil(t, o.Result)
		assert.Equal(t, paths[i], o.Result.SourcePath)
	}
	assert.Equal(t, 0, r.Active())
	assert.Equal(t, uint64(5), r.Processed())
}

func TestRunIsolatesFailures(t *testing.T) {
	proc := newGated("b")
	close(proc.release)
	r := New(proc, 3)

	out, err := r.Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.NoError(t, out[0].Err)
	assert.EqualError(t, out[1].Err, "boom")
	assert.Nil(t, out[1].Result)
	assert.NoError(t, out[2].Err)
	assert.Equal(t, uint64(3), r.Processed())
	assert.Equal(t, uint64(1), r.Failed())
	assert.EqualError(t, Errors(out), "boom")
}

func TestRunFailFast(t *testing.T) {
	proc := newGated("b")
	close(proc.release)
	r := New(proc, 1, WithFailFast(true))

	out, err := r.Run(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: boom")

	assert.NoError(t, out[0].Err)
	assert.Error(t, out[1].Err)
	assert.ErrorIs(t, out[2].Err, context.Canceled)
	assert.Equal(t, uint64(2), r.Processed())
	assert.Equal(t, []string{"a", "b"}, proc.calls)
}

func TestRunCancelledContext(t *testing.T) {
	proc := newGated()
	close(proc.release)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New(proc, 2).Run(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
	for _, o := range out {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Empty(t, proc.calls)
}

func TestNewClampsWorkers(t *testing.T) {
	assert.Equal(t, 1, New(newGated(), 0).workers)
}

func TestRunWithPipeline(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	for _, name := range []string{"/logs/a.log", "/logs/b.log"} {
		lb := testutil.NewLogBuilder().Map("Town01", nil, nil)
		for i := 0; i < 4; i++ {
			lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{{Hero: true, TypeID: "vehicle.tesla.model3", FX: 1}}})
		}
		require.NoError(t, mem.WriteFile(name, lb.Bytes(), 0644))
	}
	require.NoError(t, mem.WriteFile("/logs/notes.txt", []byte("skip"), 0644))

	paths, err := Glob(mem, "/logs", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/logs/a.log", "/logs/b.log"}, paths)

	paths = append(paths, "/logs/missing.log")
	out, err := New(pipeline.NewRunner(nil, pipeline.WithFileSystem(mem)), 2).Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Len(t, out[0].Result.Frames, 4)
	assert.Len(t, out[1].Result.Frames, 4)
	var mf *loader.MissingFileError
	assert.True(t, errors.As(out[2].Err, &mf))
}

func TestGlobRejectsFile(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("/logs/a.log", []byte("x"), 0644))

	_, err := Glob(mem, "/logs/a.log", "")
	assert.Error(t, err)
	_, err = Glob(mem, "/nowhere", "")
	assert.Error(t, err)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/scenevec/internal/export"
	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/security"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
	"github.com/banshee-data/scenevec/internal/store"
)

// outputs selects where a result goes after a run.
type outputs struct {
	csvDir  string
	jsonDir string
	dbPath  string
	raw     bool
}

func (o *outputs) validate() error {
	for _, p := range []string{o.csvDir, o.jsonDir, o.dbPath} {
		if p == "" {
			continue
		}
		if err := security.ValidateExportPath(p); err != nil {
			return err
		}
	}
	return nil
}

func (o *outputs) openStore() (*store.Store, error) {
	if o.dbPath == "" {
		return nil, nil
	}
	s, err := store.Open(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dbPath, err)
	}
	return s, nil
}

// write sends res to every configured output. s may be nil.
func (o *outputs) write(ctx context.Context, s *store.Store, res *pipeline.Result) error {
	fsys := fsutil.OSFileSystem{}
	stem := security.StemFor(res.SourcePath)
	if o.csvDir != "" {
		if _, err := export.WriteCSV(fsys, o.csvDir, stem, res); err != nil {
			return err
		}
	}
	if o.jsonDir != "" {
		if err := fsys.MkdirAll(o.jsonDir, 0755); err != nil {
			return err
		}
		path, err := security.JoinWithin(o.jsonDir, stem+".json")
		if err != nil {
			return err
		}
		if err := export.WriteJSON(fsys, path, res); err != nil {
			return err
		}
	}
	if s != nil {
		if err := s.SaveResult(ctx, res); err != nil {
			return fmt.Errorf("save %s: %w", res.SourcePath, err)
		}
	}
	return nil
}

// printSummary writes a short description of res to w.
func printSummary(w io.Writer, res *pipeline.Result, raw bool) {
	fmt.Fprintf(w, "%s: run %s, map %q, %d frames, window %d, %v\n",
		filepath.Base(res.SourcePath), res.RunID, res.Map.Name, len(res.Frames), res.Window, res.Timings.Total())
	set := res.Denoised
	if raw {
		set = res.Raw
	}
	for _, m := range set {
		fmt.Fprintf(w, "  %-10s %4d x %d\n", m.Kind, m.Len(), m.Width())
	}
}

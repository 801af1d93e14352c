// Package export writes pipeline results as CSV and JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/security"
	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
)

// jsonKeys are the top-level keys of the vector document, indexed by kind.
var jsonKeys = map[features.Kind]string{
	features.KindScene:     "scene_vec",
	features.KindActor:     "actor_vec",
	features.KindEgoAction: "ego_action_vec",
	features.KindObstacle:  "obs_action_vec",
}

// CSVName returns the file name WriteCSV uses for one matrix.
func CSVName(prefix string, kind features.Kind, denoised bool) string {
	name := security.SanitizeFilename(prefix) + "_" + string(kind)
	if !denoised {
		name += "_raw"
	}
	return name + ".csv"
}

// WriteCSV writes every raw and denoised matrix of res into dir, one file
// per matrix named by CSVName. Each file starts with a header row of
// frame_index followed by the matrix columns. It returns the paths written.
func WriteCSV(fsys fsutil.FileSystem, dir, prefix string, res *pipeline.Result) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	var written []string
	for _, set := range []struct {
		denoised bool
		ms       []features.Matrix
	}{{true, res.Denoised}, {false, res.Raw}} {
		for _, m := range set.ms {
			path, err := security.JoinWithin(dir, CSVName(prefix, m.Kind, set.denoised))
			if err != nil {
				return written, err
			}
			if err := writeMatrixCSV(fsys, path, m); err != nil {
				return written, fmt.Errorf("write %s: %w", path, err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeMatrixCSV(fsys fsutil.FileSystem, path string, m features.Matrix) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"frame_index"}, m.Columns...)); err != nil {
		return err
	}
	record := make([]string, 1+m.Width())
	for r, row := range m.Rows {
		record[0] = strconv.Itoa(m.FrameIndex[r])
		for c, v := range row {
			record[1+c] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Document is the JSON form of a result. The vector keys hold the
// denoised rows of each kind.
type Document struct {
	RunID      string              `json:"run_id"`
	Source     string              `json:"source"`
	Window     int                 `json:"window"`
	Columns    map[string][]string `json:"columns"`
	FrameIndex map[string][]int    `json:"frame_index"`

	SceneVec     [][]float64 `json:"scene_vec"`
	ActorVec     [][]float64 `json:"actor_vec"`
	EgoActionVec [][]float64 `json:"ego_action_vec"`
	ObsActionVec [][]float64 `json:"obs_action_vec"`
}

// NewDocument builds the JSON document for res.
func NewDocument(res *pipeline.Result) Document {
	doc := Document{
		RunID:      res.RunID.String(),
		Source:     res.SourcePath,
		Window:     res.Window,
		Columns:    make(map[string][]string),
		FrameIndex: make(map[string][]int),
	}
	for _, m := range res.Denoised {
		key, ok := jsonKeys[m.Kind]
		if !ok {
			continue
		}
		rows := m.Rows
		if rows == nil {
			rows = [][]float64{}
		}
		doc.Columns[key] = m.Columns
		doc.FrameIndex[key] = m.FrameIndex
		switch m.Kind {
		case features.KindScene:
			doc.SceneVec = rows
		case features.KindActor:
			doc.ActorVec = rows
		case features.KindEgoAction:
			doc.EgoActionVec = rows
		case features.KindObstacle:
			doc.ObsActionVec = rows
		}
	}
	return doc
}

// WriteJSON writes the JSON document for res to path.
func WriteJSON(fsys fsutil.FileSystem, path string, res *pipeline.Result) error {
	data, err := json.MarshalIndent(NewDocument(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", res.SourcePath, err)
	}
	if err := fsys.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

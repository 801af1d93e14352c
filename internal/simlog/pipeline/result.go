package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/simlog/frames"
	"github.com/banshee-data/scenevec/internal/simlog/loader"
)

// StageTimings records how long each stage of a run took.
type StageTimings struct {
	Load     time.Duration
	Build    time.Duration
	Assemble time.Duration
	Denoise  time.Duration
}

// Total returns the sum of all stage durations.
func (s StageTimings) Total() time.Duration {
	return s.Load + s.Build + s.Assemble + s.Denoise
}

// MapSummary describes the map header of a log.
type MapSummary struct {
	Name       string
	Crosswalks int
	Junctions  int
}

// FrameSummary describes one built frame.
type FrameSummary struct {
	Index         int
	Timestamp     time.Time
	Elapsed       *time.Duration
	Egos          int
	Vehicles      int
	TrafficLights int
	TrafficSigns  int
	Pedestrians   int
}

// Result is the output of one pipeline run.
type Result struct {
	RunID      uuid.UUID
	SourcePath string
	Encoding   loader.Encoding
	StartedAt  time.Time
	Timings    StageTimings
	Window     int

	Map        MapSummary
	Frames     []FrameSummary
	Mismatches int

	// Raw holds one matrix per kind with a row per frame; Denoised holds
	// the smoothed matrices. Both are in features.Kinds order.
	Raw      []features.Matrix
	Denoised []features.Matrix
}

// Matrix returns the raw or denoised matrix of the given kind.
func (r *Result) Matrix(kind features.Kind, denoised bool) (features.Matrix, bool) {
	set := r.Raw
	if denoised {
		set = r.Denoised
	}
	for _, m := range set {
		if m.Kind == kind {
			return m, true
		}
	}
	return features.Matrix{}, false
}

func summarise(log *frames.Log) (MapSummary, []FrameSummary) {
	ms := MapSummary{
		Name:       log.Map.Name(),
		Crosswalks: len(log.Map.Crosswalks),
		Junctions:  len(log.Map.Junctions),
	}
	fs := make([]FrameSummary, 0, len(log.Frames))
	for _, f := range log.Frames {
		fs = append(fs, FrameSummary{
			Index:         f.Index,
			Timestamp:     f.Timestamp,
			Elapsed:       f.Elapsed,
			Egos:          len(f.Egos),
			Vehicles:      len(f.Vehicles),
			TrafficLights: len(f.TrafficLights),
			TrafficSigns:  len(f.TrafficSigns),
			Pedestrians:   len(f.Pedestrians),
		})
	}
	return ms, fs
}

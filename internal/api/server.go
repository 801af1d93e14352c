// Package api serves stored runs and their feature matrices as JSON.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scenevec/internal/config"
	"github.com/banshee-data/scenevec/internal/httputil"
	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/store"
)

// ANSI escape codes for request log lines.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server exposes a results store over HTTP.
type Server struct {
	store *store.Store
	cfg   *config.PipelineConfig
}

// NewServer returns a Server over s. cfg is reported by /api/config; nil
// reports the defaults.
func NewServer(s *store.Store, cfg *config.PipelineConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyPipelineConfig()
	}
	return &Server{store: s, cfg: cfg}
}

// ServeMux returns a mux with the API routes registered.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// Register adds the API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}/{kind}", s.showMatrix)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)
	mux.HandleFunc("GET /api/config", s.showConfig)
}

// RunAPI is the JSON form of a stored run.
type RunAPI struct {
	ID         string  `json:"id"`
	SourcePath string  `json:"source_path"`
	Encoding   string  `json:"encoding"`
	StartedAt  string  `json:"started_at"`
	MapName    string  `json:"map_name"`
	Frames     int     `json:"frames"`
	Mismatches int     `json:"mismatches"`
	Window     int     `json:"window"`
	TotalMs    float64 `json:"total_ms"`
}

// MatrixAPI is the JSON form of one feature matrix.
type MatrixAPI struct {
	RunID      string      `json:"run_id"`
	Kind       string      `json:"kind"`
	Denoised   bool        `json:"denoised"`
	Columns    []string    `json:"columns"`
	FrameIndex []int       `json:"frame_index"`
	Rows       [][]float64 `json:"rows"`
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	out := make([]RunAPI, len(runs))
	for i, run := range runs {
		out[i] = RunAPI{
			ID:         run.ID.String(),
			SourcePath: run.SourcePath,
			Encoding:   run.Encoding,
			StartedAt:  run.StartedAt.Format(time.RFC3339Nano),
			MapName:    run.MapName,
			Frames:     run.Frames,
			Mismatches: run.Mismatches,
			Window:     run.Window,
			TotalMs:    float64(run.Total.Nanoseconds()) / 1e6,
		}
	}
	httputil.WriteJSON(w, r, http.StatusOK, out)
}

func (s *Server) showMatrix(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid run id: %v", err))
		return
	}
	kind, err := features.ParseKind(r.PathValue("kind"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	denoised := true
	if v := r.URL.Query().Get("raw"); v != "" {
		raw, err := strconv.ParseBool(v)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid raw parameter %q", v))
			return
		}
		denoised = !raw
	}

	m, err := s.store.LoadMatrix(r.Context(), id, kind, denoised)
	if errors.Is(err, store.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load matrix: %v", err))
		return
	}
	httputil.WriteJSON(w, r, http.StatusOK, MatrixAPI{
		RunID:      id.String(),
		Kind:       string(kind),
		Denoised:   denoised,
		Columns:    m.Columns,
		FrameIndex: m.FrameIndex,
		Rows:       m.Rows,
	})
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid run id: %v", err))
		return
	}
	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to delete run: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// configAPI reports every effective pipeline setting.
type configAPI struct {
	NearDistance          float64 `json:"near_distance"`
	CrosswalkRadius       float64 `json:"crosswalk_radius"`
	JunctionRadius        float64 `json:"junction_radius"`
	OnCrosswalkRadius     float64 `json:"on_crosswalk_radius"`
	OpposingAngleDeg      float64 `json:"opposing_angle_deg"`
	CrossingAngleDeg      float64 `json:"crossing_angle_deg"`
	BicycleTypeID         string  `json:"bicycle_type_id"`
	CountBucketSize       int     `json:"count_bucket_size"`
	PedestrianEgoDistance bool    `json:"pedestrian_ego_distance"`
	DenoiseWindow         int     `json:"denoise_window"`
	Workers               int     `json:"workers"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	c := s.cfg
	httputil.WriteJSON(w, r, http.StatusOK, configAPI{
		NearDistance:          c.GetNearDistance(),
		CrosswalkRadius:       c.GetCrosswalkRadius(),
		JunctionRadius:        c.GetJunctionRadius(),
		OnCrosswalkRadius:     c.GetOnCrosswalkRadius(),
		OpposingAngleDeg:      c.GetOpposingAngleDeg(),
		CrossingAngleDeg:      c.GetCrossingAngleDeg(),
		BicycleTypeID:         c.GetBicycleTypeID(),
		CountBucketSize:       c.GetCountBucketSize(),
		PedestrianEgoDistance: c.GetPedestrianEgoDistance(),
		DenoiseWindow:         c.GetDenoiseWindow(),
		Workers:               c.GetWorkers(),
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status and duration on the diag
// stream.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Diagf("[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

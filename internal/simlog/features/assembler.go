package features

import (
	"fmt"

	"github.com/banshee-data/scenevec/internal/config"
	"github.com/banshee-data/scenevec/internal/simlog/frames"
)

// Assembler turns a frame sequence into one feature matrix.
type Assembler interface {
	Kind() Kind
	Assemble(seq []frames.Frame, m *frames.Map) (Matrix, error)
}

// Params are the thresholds shared by the assemblers.
type Params struct {
	NearDistance      float64
	CrosswalkRadius   float64
	JunctionRadius    float64
	OnCrosswalkRadius float64
	OpposingAngleDeg  float64
	CrossingAngleDeg  float64
	BicycleTypeID     string
	CountBucketSize   int
}

// DefaultParams returns the built-in thresholds.
func DefaultParams() Params {
	return ParamsFromConfig(config.EmptyPipelineConfig())
}

// ParamsFromConfig reads the assembler thresholds from cfg.
func ParamsFromConfig(cfg *config.PipelineConfig) Params {
	return Params{
		NearDistance:      cfg.GetNearDistance(),
		CrosswalkRadius:   cfg.GetCrosswalkRadius(),
		JunctionRadius:    cfg.GetJunctionRadius(),
		OnCrosswalkRadius: cfg.GetOnCrosswalkRadius(),
		OpposingAngleDeg:  cfg.GetOpposingAngleDeg(),
		CrossingAngleDeg:  cfg.GetCrossingAngleDeg(),
		BicycleTypeID:     cfg.GetBicycleTypeID(),
		CountBucketSize:   cfg.GetCountBucketSize(),
	}
}

// All returns the four assemblers in Kinds order.
func All(p Params) []Assembler {
	return []Assembler{
		SceneAssembler{Params: p},
		ActorAssembler{Params: p},
		EgoActionAssembler{},
		ObstacleAssembler{Params: p},
	}
}

// AssembleAll runs every assembler over the same frames.
func AssembleAll(assemblers []Assembler, seq []frames.Frame, m *frames.Map) ([]Matrix, error) {
	out := make([]Matrix, 0, len(assemblers))
	for _, a := range assemblers {
		mx, err := a.Assemble(seq, m)
		if err != nil {
			return nil, fmt.Errorf("assemble %s vectors: %w", a.Kind(), err)
		}
		out = append(out, mx)
	}
	return out, nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

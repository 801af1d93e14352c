package features

import (
	"github.com/banshee-data/scenevec/internal/simlog/frames"
)

// SceneColumns are the scene matrix columns in order.
var SceneColumns = []string{
	"signal_red", "signal_yellow", "signal_green", "signal_off", "signal_unknown",
	"signal_type", "subsignal_type",
	"near_crosswalk", "has_stop_sign", "near_junction",
}

// signalColumn maps a traffic_light_state value to its one-hot column.
var signalColumn = map[string]int{
	"Red":     0,
	"Yellow":  1,
	"Green":   2,
	"Off":     3,
	"Unknown": 4,
}

// SceneAssembler encodes the ego's traffic context. An unrecognised or
// missing light state leaves all five colour columns zero. signal_type,
// subsignal_type and has_stop_sign are always zero.
type SceneAssembler struct {
	Params Params
}

func (SceneAssembler) Kind() Kind { return KindScene }

func (a SceneAssembler) Assemble(seq []frames.Frame, m *frames.Map) (Matrix, error) {
	out := newMatrix(KindScene, SceneColumns, len(seq))
	for i := range seq {
		f := &seq[i]
		ego, err := f.Ego()
		if err != nil {
			return Matrix{}, err
		}
		row := make([]float64, len(SceneColumns))
		if state, ok := ego.TrafficLightState(); ok {
			if c, known := signalColumn[state]; known {
				row[c] = 1
			}
		}
		row[7] = flag(m.NearCrosswalk(ego.Location, a.Params.CrosswalkRadius))
		row[9] = flag(m.NearJunction(ego.Location, a.Params.JunctionRadius))
		out.append(f.Index, row)
	}
	return out, nil
}

package frames

import (
	"time"

	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/geometry"
)

// Frame is the decoded state of one simulation tick. Frames are built once
// and read by every downstream stage; nothing mutates them after Build.
type Frame struct {
	Index     int
	Timestamp time.Time // first record line of the frame block
	// Elapsed is the producer's "Time: <s>s" value, nil when absent.
	Elapsed *time.Duration

	Vehicles      []Actor
	Egos          []Actor
	TrafficLights []Actor
	TrafficSigns  []Actor
	Pedestrians   []Actor
}

// Ego returns the frame's ego vehicle. When several hero vehicles are
// present the first is used.
func (f *Frame) Ego() (*Actor, error) {
	if len(f.Egos) == 0 {
		return nil, &MissingEgoError{Frame: f.Index}
	}
	return &f.Egos[0], nil
}

// ActorCount returns the number of non-ego actors in the frame.
func (f *Frame) ActorCount() int {
	return len(f.Vehicles) + len(f.TrafficLights) + len(f.TrafficSigns) + len(f.Pedestrians)
}

// Obstacles returns every non-ego actor in category order: vehicles,
// traffic lights, traffic signs, pedestrians.
func (f *Frame) Obstacles() []*Actor {
	out := make([]*Actor, 0, f.ActorCount())
	for _, group := range [][]Actor{f.Vehicles, f.TrafficLights, f.TrafficSigns, f.Pedestrians} {
		for i := range group {
			out = append(out, &group[i])
		}
	}
	return out
}

// deriveEgoDistances sets EgoDistance on every actor whose location and
// the ego's location are both known.
func (f *Frame) deriveEgoDistances(includePedestrians bool) {
	ego, err := f.Ego()
	if err != nil {
		return
	}
	if len(f.Egos) > 1 {
		monitoring.Diagf("frames: frame %d has %d ego vehicles, using the first", f.Index, len(f.Egos))
	}
	if ego.Location == nil {
		monitoring.Tracef("frames: frame %d ego has no location", f.Index)
		return
	}

	groups := [][]Actor{f.Vehicles, f.TrafficLights, f.TrafficSigns}
	if includePedestrians {
		groups = append(groups, f.Pedestrians)
	}
	for _, group := range groups {
		for i := range group {
			a := &group[i]
			if a.Location == nil {
				continue
			}
			d := geometry.PlanarDistance(*ego.Location, *a.Location)
			a.EgoDistance = &d
		}
	}
}

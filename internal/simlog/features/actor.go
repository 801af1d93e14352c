package features

import (
	"github.com/banshee-data/scenevec/internal/simlog/frames"
	"github.com/banshee-data/scenevec/internal/simlog/geometry"
)

// ActorColumns are the actor matrix columns in order.
var ActorColumns = []string{
	"has_vehicle", "has_bicycle", "has_pedestrian", "has_other",
	"has_on_road_pedestrian", "has_on_crosswalk_pedestrian",
	"has_opposing_vehicle", "has_crossing_vehicle",
}

// ActorAssembler flags the kinds of actors near the ego. Nearby means an
// ego distance strictly below Params.NearDistance. Bicycles are vehicles
// whose type id equals Params.BicycleTypeID and do not count toward
// has_vehicle. Relative headings are classified for every nearby vehicle
// with a forward vector; a zero-length vector is not classified.
type ActorAssembler struct {
	Params Params
}

func (ActorAssembler) Kind() Kind { return KindActor }

func (a ActorAssembler) Assemble(seq []frames.Frame, m *frames.Map) (Matrix, error) {
	p := a.Params
	out := newMatrix(KindActor, ActorColumns, len(seq))
	for i := range seq {
		f := &seq[i]
		ego, err := f.Ego()
		if err != nil {
			return Matrix{}, err
		}

		var vehicles, bicycles, opposing, crossing int
		for j := range f.Vehicles {
			v := &f.Vehicles[j]
			if !v.Within(p.NearDistance) {
				continue
			}
			if typeID, _ := v.TypeID(); typeID == p.BicycleTypeID {
				bicycles++
			} else {
				vehicles++
			}
			if ego.Forward == nil || v.Forward == nil {
				continue
			}
			angle, err := geometry.HeadingAngle(*ego.Forward, *v.Forward)
			if err != nil {
				continue
			}
			switch geometry.Classify(angle, p.CrossingAngleDeg, p.OpposingAngleDeg) {
			case geometry.Opposing:
				opposing++
			case geometry.Crossing:
				crossing++
			}
		}

		var pedestrians, onRoad, onCrosswalk int
		for j := range f.Pedestrians {
			ped := &f.Pedestrians[j]
			if !ped.Within(p.NearDistance) {
				continue
			}
			pedestrians++
			if road, ok := ped.OnRoad(); ok && road {
				onRoad++
			}
			if m.NearCrosswalk(ped.Location, p.OnCrosswalkRadius) {
				onCrosswalk++
			}
		}

		out.append(f.Index, []float64{
			flag(vehicles > 0),
			flag(bicycles > 0),
			flag(pedestrians > 0),
			0,
			flag(onRoad > 0),
			flag(onCrosswalk > 0),
			flag(opposing > 0),
			flag(crossing > 0),
		})
	}
	return out, nil
}

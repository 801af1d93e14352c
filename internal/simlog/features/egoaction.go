package features

import (
	"github.com/banshee-data/scenevec/internal/simlog/frames"
)

// EgoActionColumns are the ego-action matrix columns in order.
var EgoActionColumns = []string{
	"steer_left", "steer_right", "steer_straight",
	"speed_equal", "speed_up", "speed_down",
}

// EgoActionAssembler one-hot encodes the ego's steering sign and its
// speed trend against the previous frame. A missing steering angle counts
// as straight. The first frame, and any frame without a speed, counts as
// equal; a missing speed does not replace the previous one.
type EgoActionAssembler struct{}

func (EgoActionAssembler) Kind() Kind { return KindEgoAction }

func (EgoActionAssembler) Assemble(seq []frames.Frame, _ *frames.Map) (Matrix, error) {
	out := newMatrix(KindEgoAction, EgoActionColumns, len(seq))
	var prev *float64
	for i := range seq {
		f := &seq[i]
		ego, err := f.Ego()
		if err != nil {
			return Matrix{}, err
		}
		row := make([]float64, len(EgoActionColumns))

		steer, _ := ego.SteeringAngle()
		switch {
		case steer < 0:
			row[0] = 1
		case steer > 0:
			row[1] = 1
		default:
			row[2] = 1
		}

		speed, ok := ego.Speed()
		switch {
		case !ok || prev == nil:
			row[3] = 1
		case speed > *prev:
			row[4] = 1
		case speed < *prev:
			row[5] = 1
		default:
			row[3] = 1
		}
		if ok {
			prev = &speed
		}

		out.append(f.Index, row)
	}
	return out, nil
}

package features

import (
	"github.com/banshee-data/scenevec/internal/simlog/frames"
)

// ObstacleAssembler encodes which actor type ids are near the ego in each
// frame and how many. The type universe is gathered over the whole
// sequence in first-seen order, so every row has the same width: a
// "present:<type>" column per type, then a "count:<type>" column per type.
// Counts are bucketed as floor(count/CountBucketSize)+1, or 0 when absent.
// Actors without a type id are skipped.
type ObstacleAssembler struct {
	Params Params
}

func (ObstacleAssembler) Kind() Kind { return KindObstacle }

func (a ObstacleAssembler) Assemble(seq []frames.Frame, _ *frames.Map) (Matrix, error) {
	var types []string
	column := make(map[string]int)
	counts := make([]map[string]int, len(seq))

	for i := range seq {
		counts[i] = make(map[string]int)
		for _, o := range seq[i].Obstacles() {
			if !o.Within(a.Params.NearDistance) {
				continue
			}
			typeID, ok := o.TypeID()
			if !ok {
				continue
			}
			if _, seen := column[typeID]; !seen {
				column[typeID] = len(types)
				types = append(types, typeID)
			}
			counts[i][typeID]++
		}
	}

	n := len(types)
	columns := make([]string, 0, 2*n)
	for _, t := range types {
		columns = append(columns, "present:"+t)
	}
	for _, t := range types {
		columns = append(columns, "count:"+t)
	}

	out := newMatrix(KindObstacle, columns, len(seq))
	for i := range seq {
		row := make([]float64, 2*n)
		for t, c := range counts[i] {
			row[column[t]] = 1
			row[n+column[t]] = float64(Bucket(c, a.Params.CountBucketSize))
		}
		out.append(seq[i].Index, row)
	}
	return out, nil
}

// Bucket maps a count to floor(count/size)+1, or 0 for count <= 0.
func Bucket(count, size int) int {
	if count <= 0 {
		return 0
	}
	if size < 1 {
		size = 1
	}
	return count/size + 1
}

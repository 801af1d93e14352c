package testutil

import (
	"fmt"
	"strings"
	"time"
)

// LogStart is the timestamp of the first line written by a LogBuilder.
var LogStart = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// Vehicle describes one vehicle block written by LogBuilder.Frame.
type Vehicle struct {
	Hero       bool
	TypeID     string
	X, Y, Z    float64
	FX, FY, FZ float64 // forward vector; all zero omits the field
	Speed      *float64
	Steer      *float64
	LightState string // traffic_light_state; empty omits the field
}

// Light describes one traffic light block.
type Light struct {
	X, Y, Z float64
	State   string
}

// Sign describes one traffic sign block.
type Sign struct {
	TypeID  string
	X, Y, Z float64
}

// Pedestrian describes one walker block.
type Pedestrian struct {
	TypeID  string
	X, Y, Z float64
	OnRoad  bool
}

// Frame describes one simulation tick.
type Frame struct {
	Elapsed     float64
	Vehicles    []Vehicle
	Lights      []Light
	Signs       []Sign
	Pedestrians []Pedestrian
}

// LogBuilder writes telemetry log text in the producer's format. Each line
// advances the timestamp by one millisecond.
type LogBuilder struct {
	b    strings.Builder
	ts   time.Time
	step time.Duration
}

// NewLogBuilder returns a builder starting at LogStart.
func NewLogBuilder() *LogBuilder {
	return &LogBuilder{ts: LogStart, step: time.Millisecond}
}

// Float returns a pointer to v, for optional Vehicle fields.
func Float(v float64) *float64 { return &v }

func (lb *LogBuilder) line(msg string) *LogBuilder {
	fmt.Fprintf(&lb.b, "%s,%03d - DEBUG - %s\n",
		lb.ts.Format("2006-01-02 15:04:05"), lb.ts.Nanosecond()/int(time.Millisecond), msg)
	lb.ts = lb.ts.Add(lb.step)
	return lb
}

// Record writes a "field: value" line.
func (lb *LogBuilder) Record(field, value string) *LogBuilder {
	return lb.line(field + ": " + value)
}

// Delim writes a delimiter line of width repeats of c.
func (lb *LogBuilder) Delim(c byte, width int) *LogBuilder {
	return lb.line(strings.Repeat(string(c), width))
}

// Raw writes s verbatim followed by a newline.
func (lb *LogBuilder) Raw(s string) *LogBuilder {
	lb.b.WriteString(s)
	lb.b.WriteByte('\n')
	return lb
}

// Location formats a producer Location literal.
func Location(x, y, z float64) string {
	return fmt.Sprintf("Location(x=%.6f, y=%.6f, z=%.6f)", x, y, z)
}

// Vector3D formats a producer Vector3D literal.
func Vector3D(x, y, z float64) string {
	return fmt.Sprintf("Vector3D(x=%.6f, y=%.6f, z=%.6f)", x, y, z)
}

// Map writes a map header with the given crosswalk points and junction
// points, followed by the map boundary.
func (lb *LogBuilder) Map(name string, crosswalks, junctions [][3]float64) *LogBuilder {
	lb.Raw(fmt.Sprintf("%s,000 - DEBUG - telemetry log start", LogStart.Format("2006-01-02 15:04:05")))
	lb.Record("name", name)
	lb.Record("get_crosswalks", "<bound method PyCapsule.get_crosswalks>")
	lb.Record("map_crosswalks_length", fmt.Sprint(len(crosswalks)))
	lb.Delim('+', 70)
	for _, c := range crosswalks {
		lb.Record("x", fmt.Sprintf("%.6f", c[0]))
		lb.Record("y", fmt.Sprintf("%.6f", c[1]))
		lb.Record("z", fmt.Sprintf("%.6f", c[2]))
		lb.Record("distance", "<bound method PyCapsule.distance>")
		lb.Delim('+', 60)
	}
	lb.Delim('+', 70)
	for i, j := range junctions {
		lb.Record("id", fmt.Sprint(1000+i))
		lb.Record("is_junction", "True")
		lb.Record("transform", fmt.Sprintf("Transform(%s, Rotation(pitch=0.000000, yaw=90.000000, roll=0.000000))",
			Location(j[0], j[1], j[2])))
		lb.Delim('+', 60)
	}
	return lb.Delim('*', 90)
}

// Frame writes one frame section, followed by the frame boundary.
func (lb *LogBuilder) Frame(f Frame) *LogBuilder {
	lb.Record("Time", fmt.Sprintf("%.2fs", f.Elapsed))
	for i, v := range f.Vehicles {
		lb.Record("Vehicle_ID", fmt.Sprint(20+i))
		lb.Record("Vehicle_Type", v.TypeID)
		lb.Record("Vehicle_Location", Location(v.X, v.Y, v.Z))
		if v.LightState != "" {
			lb.Record("traffic_light_state", v.LightState)
		}
		if v.FX != 0 || v.FY != 0 || v.FZ != 0 {
			lb.Record("forward_vector", Vector3D(v.FX, v.FY, v.FZ))
		}
		if v.Speed != nil {
			lb.Record("Vehicle_Velocity_value", fmt.Sprint(*v.Speed))
		}
		if v.Steer != nil {
			lb.Record("Vehicle_steering_angle", fmt.Sprint(*v.Steer))
		}
		lb.Delim('-', 40)
		role := "autopilot"
		if v.Hero {
			role = "hero"
		}
		lb.Record("attributes", fmt.Sprintf("{'role_name': '%s', 'sticky_control': 'True'}", role))
		lb.Record("type_id", v.TypeID)
		lb.Record("get_location", "<bound method Actor.get_location>")
		lb.Delim('-', 60)
	}
	lb.Delim('*', 70)
	for _, l := range f.Lights {
		lb.Record("Location", Location(l.X, l.Y, l.Z))
		lb.Record("state", l.State)
		lb.Record("type_id", "traffic.traffic_light")
		lb.Delim('+', 40)
	}
	lb.Delim('*', 70)
	for _, s := range f.Signs {
		lb.Record("Location", Location(s.X, s.Y, s.Z))
		lb.Record("type_id", s.TypeID)
		lb.Delim('+', 50)
	}
	lb.Delim('*', 70)
	for _, p := range f.Pedestrians {
		lb.Record("Location", Location(p.X, p.Y, p.Z))
		if p.OnRoad {
			lb.Record("is_walker_on_road", "True")
		} else {
			lb.Record("is_walker_on_road", "False")
		}
		lb.Record("type_id", p.TypeID)
		lb.Delim('+', 40)
	}
	return lb.Delim('*', 80)
}

// String returns the log text written so far.
func (lb *LogBuilder) String() string {
	return lb.b.String()
}

// Bytes returns the log text as bytes.
func (lb *LogBuilder) Bytes() []byte {
	return []byte(lb.b.String())
}

package features

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scenevec/internal/simlog/frames"
	"github.com/banshee-data/scenevec/internal/testutil"
)

func build(t *testing.T, lb *testutil.LogBuilder) *frames.Log {
	t.Helper()
	log, err := frames.Build(lb.String(), frames.DefaultOptions())
	require.NoError(t, err)
	return log
}

func ego(x, y float64) testutil.Vehicle {
	return testutil.Vehicle{Hero: true, TypeID: "vehicle.tesla.model3", X: x, Y: y, FX: 1}
}

// threeFrameLog has one ego at the origin, one vehicle four units away in
// frames 0 and 2 and eight units away in frame 1, and one crosswalk two
// units from the ego.
func threeFrameLog() *testutil.LogBuilder {
	lb := testutil.NewLogBuilder().Map("Town10HD", [][3]float64{{2, 0, 0}}, nil)
	for i, dx := range []float64{4, 8, 4} {
		lb.Frame(testutil.Frame{
			Elapsed: float64(i) * 0.5,
			Vehicles: []testutil.Vehicle{
				ego(0, 0),
				{TypeID: "vehicle.audi.tt", X: dx, FX: 1},
			},
		})
	}
	return lb
}

func TestEndToEndThreeFrames(t *testing.T) {
	log := build(t, threeFrameLog())
	require.Len(t, log.Frames, 3)

	scene, err := SceneAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)
	require.Equal(t, 3, scene.Len())
	for r := 0; r < 3; r++ {
		assert.Equal(t, 1.0, scene.Value(r, "near_crosswalk"), "row %d", r)
		assert.Equal(t, 0.0, scene.Value(r, "near_junction"), "row %d", r)
	}

	actor, err := ActorAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)
	require.Equal(t, 3, actor.Len())
	assert.Equal(t, []float64{1, 0, 1}, []float64{
		actor.Value(0, "has_vehicle"),
		actor.Value(1, "has_vehicle"),
		actor.Value(2, "has_vehicle"),
	})
	assert.Equal(t, []int{0, 1, 2}, actor.FrameIndex)
}

func TestSceneSignalOneHot(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", nil, nil)
	states := []string{"Red", "Yellow", "Green", "Off", "Unknown", "Blinking", ""}
	for _, s := range states {
		v := ego(0, 0)
		v.LightState = s
		lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{v}})
	}
	log := build(t, lb)

	m, err := SceneAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, 10, m.Width())

	want := [][]float64{
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 1, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	if diff := cmp.Diff(want, m.Rows); diff != "" {
		t.Errorf("scene rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSceneJunctionFlag(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", nil, [][3]float64{{0, 3, 0}})
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{ego(0, 0)}})
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{ego(0, -0.0001)}})
	log := build(t, lb)

	m, err := SceneAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Value(0, "near_junction"))
	assert.Equal(t, 0.0, m.Value(1, "near_junction"))
}

func TestActorFlags(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", [][3]float64{{0, 2, 0}}, nil)
	// Frame 0: a nearby opposing bicycle, a far vehicle, a walker on the
	// crosswalk and a far walker.
	lb.Frame(testutil.Frame{
		Vehicles: []testutil.Vehicle{
			ego(0, 0),
			{TypeID: "vehicle.bh.crossbike", X: 1, FX: -1},
			{TypeID: "vehicle.audi.tt", X: 20, FX: -1},
		},
		Pedestrians: []testutil.Pedestrian{
			{TypeID: "walker.pedestrian.0001", X: 0, Y: 2.5, OnRoad: true},
			{TypeID: "walker.pedestrian.0002", X: 30, OnRoad: true},
		},
	})
	// Frame 1: a crossing vehicle, a vehicle without a forward vector and
	// an off-road walker away from the crosswalk.
	lb.Frame(testutil.Frame{
		Vehicles: []testutil.Vehicle{
			ego(0, 0),
			{TypeID: "vehicle.audi.tt", X: 2, FY: 1},
			{TypeID: "vehicle.mini.cooper", X: -2},
		},
		Pedestrians: []testutil.Pedestrian{
			{TypeID: "walker.pedestrian.0001", X: 4, OnRoad: false},
		},
	})
	log := build(t, lb)

	m, err := ActorAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)

	want := [][]float64{
		{0, 1, 1, 0, 1, 1, 1, 0},
		{1, 0, 1, 0, 0, 0, 0, 1},
	}
	if diff := cmp.Diff(want, m.Rows); diff != "" {
		t.Errorf("actor rows mismatch (-want +got):\n%s", diff)
	}
}

func TestActorSameDirectionIsNeither(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", nil, nil)
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{
		ego(0, 0),
		{TypeID: "vehicle.audi.tt", X: 1, FX: 1, FY: 0.5},
	}})
	log := build(t, lb)

	m, err := ActorAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Value(0, "has_vehicle"))
	assert.Equal(t, 0.0, m.Value(0, "has_opposing_vehicle"))
	assert.Equal(t, 0.0, m.Value(0, "has_crossing_vehicle"))
}

func TestEgoAction(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", nil, nil)
	// Speeds 5, 6, 4, 4, missing, 3 give equal, up, down, equal, equal
	// and down; the missing speed keeps 4 as the reference.
	steps := []struct {
		steer, speed *float64
	}{
		{testutil.Float(-0.2), testutil.Float(5)},
		{testutil.Float(0.3), testutil.Float(6)},
		{testutil.Float(0), testutil.Float(4)},
		{nil, testutil.Float(4)},
		{testutil.Float(0.1), nil},
		{testutil.Float(-0.1), testutil.Float(3)},
	}
	for _, st := range steps {
		v := ego(0, 0)
		v.Steer, v.Speed = st.steer, st.speed
		lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{v}})
	}
	log := build(t, lb)

	m, err := EgoActionAssembler{}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)

	want := [][]float64{
		{1, 0, 0, 1, 0, 0},
		{0, 1, 0, 0, 1, 0},
		{0, 0, 1, 0, 0, 1},
		{0, 0, 1, 1, 0, 0},
		{0, 1, 0, 1, 0, 0},
		{1, 0, 0, 0, 0, 1},
	}
	if diff := cmp.Diff(want, m.Rows); diff != "" {
		t.Errorf("ego action rows mismatch (-want +got):\n%s", diff)
	}
}

func TestObstacleColumnsStable(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", nil, nil)
	// Frame 0: two audis near. Frame 1: nothing near. Frame 2: one stop
	// sign and seven walkers near, one audi far.
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{
		ego(0, 0),
		{TypeID: "vehicle.audi.tt", X: 1},
		{TypeID: "vehicle.audi.tt", X: 2},
	}})
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{ego(0, 0)}})
	walkers := make([]testutil.Pedestrian, 7)
	for i := range walkers {
		walkers[i] = testutil.Pedestrian{TypeID: "walker.pedestrian.0001", X: 0.5}
	}
	lb.Frame(testutil.Frame{
		Vehicles:    []testutil.Vehicle{ego(0, 0), {TypeID: "vehicle.audi.tt", X: 50}},
		Signs:       []testutil.Sign{{TypeID: "traffic.stop", Y: 1}},
		Pedestrians: walkers,
	})
	log := build(t, lb)

	m, err := ObstacleAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	wantColumns := []string{
		"present:vehicle.audi.tt", "present:traffic.stop", "present:walker.pedestrian.0001",
		"count:vehicle.audi.tt", "count:traffic.stop", "count:walker.pedestrian.0001",
	}
	assert.Equal(t, wantColumns, m.Columns)
	for i, row := range m.Rows {
		assert.Len(t, row, 6, "row %d", i)
	}

	want := [][]float64{
		{1, 0, 0, 1, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 1, 2},
	}
	if diff := cmp.Diff(want, m.Rows); diff != "" {
		t.Errorf("obstacle rows mismatch (-want +got):\n%s", diff)
	}
}

func TestObstacleEmptyUniverse(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", nil, nil)
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{ego(0, 0)}})
	log := build(t, lb)

	m, err := ObstacleAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.Width())
	assert.Nil(t, m.Dense())
}

func TestBucket(t *testing.T) {
	tests := []struct{ count, want int }{
		{-1, 0}, {0, 0}, {1, 1}, {4, 1}, {5, 2}, {9, 2}, {10, 3},
	}
	for _, tt := range tests {
		if got := Bucket(tt.count, 5); got != tt.want {
			t.Errorf("Bucket(%d, 5) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestAssemblersRequireEgo(t *testing.T) {
	lb := testutil.NewLogBuilder().Map("Town01", nil, nil)
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{ego(0, 0)}})
	lb.Frame(testutil.Frame{Vehicles: []testutil.Vehicle{{TypeID: "vehicle.audi.tt"}}})
	log := build(t, lb)

	for _, a := range []Assembler{
		SceneAssembler{Params: DefaultParams()},
		ActorAssembler{Params: DefaultParams()},
		EgoActionAssembler{},
	} {
		_, err := a.Assemble(log.Frames, log.Map)
		var me *frames.MissingEgoError
		if assert.True(t, errors.As(err, &me), "%s: want MissingEgoError, got %v", a.Kind(), err) {
			assert.Equal(t, 1, me.Frame)
		}
	}

	_, err := ObstacleAssembler{Params: DefaultParams()}.Assemble(log.Frames, log.Map)
	assert.NoError(t, err, "obstacle vectors do not need the ego")

	_, err = AssembleAll(All(DefaultParams()), log.Frames, log.Map)
	assert.ErrorContains(t, err, "assemble scene vectors")
}

func TestAssembleAllOrder(t *testing.T) {
	log := build(t, threeFrameLog())
	ms, err := AssembleAll(All(DefaultParams()), log.Frames, log.Map)
	require.NoError(t, err)
	require.Len(t, ms, 4)
	for i, k := range Kinds() {
		assert.Equal(t, k, ms[i].Kind)
		assert.Equal(t, 3, ms[i].Len())
	}
}

func TestMatrixDenseAndActivity(t *testing.T) {
	m := Matrix{
		Kind:       KindActor,
		Columns:    []string{"a", "b"},
		Rows:       [][]float64{{1, 0}, {1, 1}, {0, 0}, {1, 0}},
		FrameIndex: []int{0, 1, 2, 3},
	}
	d := m.Dense()
	require.NotNil(t, d)
	r, c := d.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.0, d.At(1, 1))

	assert.InDeltaSlice(t, []float64{0.75, 0.25}, m.Activity(), 1e-12)
	assert.Equal(t, 1, m.Column("b"))
	assert.Equal(t, -1, m.Column("missing"))
	assert.Panics(t, func() { m.Value(0, "missing") })
}

func TestMatrixValidate(t *testing.T) {
	bad := Matrix{Kind: KindScene, Columns: []string{"a"}, Rows: [][]float64{{1, 2}}, FrameIndex: []int{0}}
	assert.Error(t, bad.Validate())
	short := Matrix{Kind: KindScene, Columns: []string{"a"}, Rows: [][]float64{{1}}}
	assert.Error(t, short.Validate())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("ego_action")
	require.NoError(t, err)
	assert.Equal(t, KindEgoAction, k)
	_, err = ParseKind("lidar")
	assert.Error(t, err)
}

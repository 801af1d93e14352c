package frames

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scenevec/internal/simlog/grammar"
)

// Kind is the category an actor was logged under.
type Kind int

const (
	KindVehicle Kind = iota
	KindTrafficLight
	KindTrafficSign
	KindPedestrian
)

func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return "vehicle"
	case KindTrafficLight:
		return "traffic_light"
	case KindTrafficSign:
		return "traffic_sign"
	case KindPedestrian:
		return "pedestrian"
	}
	return "unknown"
}

// HeroRole is the role_name attribute that marks the ego vehicle.
const HeroRole = "hero"

// Field names read from actor blocks.
const (
	fieldVehicleLocation = "vehicle_location"
	fieldLocation        = "location"
	fieldForwardVector   = "forward_vector"
	fieldRoleName        = "role_name"
	fieldVehicleType     = "vehicle_type"
	fieldTypeID          = "type_id"
	fieldSteeringAngle   = "vehicle_steering_angle"
	fieldSpeed           = "vehicle_velocity_value"
	fieldLightState      = "traffic_light_state"
	fieldWalkerOnRoad    = "is_walker_on_road"
)

// Actor is one logged entity. Fields holds every tokenized value, known or
// not; the typed members are parsed from it at build time.
type Actor struct {
	Kind   Kind
	Fields grammar.Fields

	// Location is nil when the location field is absent or malformed.
	Location *r3.Vec
	// Forward is nil when forward_vector is absent or malformed.
	Forward *r3.Vec
	// EgoDistance is the planar distance to the frame's ego, nil when
	// either location is unknown.
	EgoDistance *float64
}

// RoleName returns the flattened role_name attribute.
func (a *Actor) RoleName() (string, bool) {
	return a.Fields.Get(fieldRoleName)
}

// IsEgo reports whether a is the controlled vehicle.
func (a *Actor) IsEgo() bool {
	role, ok := a.RoleName()
	return ok && role == HeroRole
}

// TypeID returns the blueprint id of the actor. Vehicles prefer the
// Vehicle_Type line and fall back to the type_id member.
func (a *Actor) TypeID() (string, bool) {
	if a.Kind == KindVehicle {
		if v, ok := a.Fields.Get(fieldVehicleType); ok && v != "" {
			return v, true
		}
	}
	v, ok := a.Fields.Get(fieldTypeID)
	return v, ok && v != ""
}

// SteeringAngle returns the control steer value.
func (a *Actor) SteeringAngle() (float64, bool) {
	return a.Fields.Float(fieldSteeringAngle)
}

// Speed returns the velocity magnitude.
func (a *Actor) Speed() (float64, bool) {
	return a.Fields.Float(fieldSpeed)
}

// TrafficLightState returns the state of the light affecting a vehicle.
func (a *Actor) TrafficLightState() (string, bool) {
	return a.Fields.Get(fieldLightState)
}

// OnRoad returns the is_walker_on_road flag. Unparseable values are absent.
func (a *Actor) OnRoad() (bool, bool) {
	return a.Fields.Bool(fieldWalkerOnRoad)
}

// Within reports whether the actor's ego distance is known and strictly
// below threshold.
func (a *Actor) Within(threshold float64) bool {
	return a.EgoDistance != nil && *a.EgoDistance < threshold
}

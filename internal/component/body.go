package component

import "github.com/schedulemc/vehiclesim/internal/core/ecs"

// BodySpec describes the chassis. Model and Texture are for rendering only;
// the remaining fields are read by MovementSystem.
type BodySpec struct {
	ID               string  `yaml:"id"`
	Model            string  `yaml:"model"`
	Texture          string  `yaml:"texture"`
	MaxPassengers    int     `yaml:"max_passengers"`
	Mass             float64 `yaml:"mass"`
	MaxSpeed         float64 `yaml:"max_speed"`         // units per tick
	MaxReverseSpeed  float64 `yaml:"max_reverse_speed"` // units per tick
	RotationModifier float64 `yaml:"rotation_modifier"`
	MinRotationSpeed float64 `yaml:"min_rotation_speed"` // degrees per tick
	MaxRotationSpeed float64 `yaml:"max_rotation_speed"`
}

// Body has no mutable state.
type Body struct {
	Spec *BodySpec
}

func NewBody(spec *BodySpec) *Body {
	return &Body{Spec: spec}
}

func (b *Body) Type() ecs.ComponentType { return ecs.Body }

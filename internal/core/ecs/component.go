package ecs

import (
	"fmt"
	"strings"
)

// ComponentType is the closed set of component tags a vehicle can carry.
type ComponentType uint8

const (
	Engine ComponentType = iota
	FuelTank
	Wheel
	Body
	Battery

	componentTypeCount
)

var componentTypeNames = [componentTypeCount]string{
	Engine:   "engine",
	FuelTank: "fuel_tank",
	Wheel:    "wheel",
	Body:     "body",
	Battery:  "battery",
}

func (t ComponentType) String() string {
	if t < componentTypeCount {
		return componentTypeNames[t]
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

func (t ComponentType) Valid() bool { return t < componentTypeCount }

// ComponentTypes lists every tag in declaration order.
func ComponentTypes() []ComponentType {
	out := make([]ComponentType, 0, componentTypeCount)
	for t := ComponentType(0); t < componentTypeCount; t++ {
		out = append(out, t)
	}
	return out
}

// ParseComponentType maps a persisted name back to its tag.
func ParseComponentType(name string) (ComponentType, bool) {
	for t, n := range componentTypeNames {
		if n == name {
			return ComponentType(t), true
		}
	}
	return 0, false
}

// Component is implemented by every piece of per-entity data.
type Component interface {
	Type() ComponentType
}

// ComponentSet is a bitmask of component tags.
type ComponentSet uint32

func SetOf(types ...ComponentType) ComponentSet {
	var s ComponentSet
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

func (s ComponentSet) With(t ComponentType) ComponentSet    { return s | 1<<t }
func (s ComponentSet) Without(t ComponentType) ComponentSet { return s &^ (1 << t) }
func (s ComponentSet) Has(t ComponentType) bool             { return s&(1<<t) != 0 }

// Contains reports whether every tag in required is present in s.
func (s ComponentSet) Contains(required ComponentSet) bool {
	return s&required == required
}

func (s ComponentSet) String() string {
	var names []string
	for t := ComponentType(0); t < componentTypeCount; t++ {
		if s.Has(t) {
			names = append(names, t.String())
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

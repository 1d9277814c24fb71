package component

import (
	"encoding/json"
	"fmt"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// Tag keys. Floats are written as float64 so a decoded record carries the
// exact values that were saved; float32/int32 values of older records are
// still accepted on read.
const (
	KeyComponentType = "ComponentType"

	KeyEngineType   = "EngineType"
	KeyCurrentRPM   = "CurrentRpm"
	KeyEngineHealth = "EngineHealth"
	KeyRunning      = "Running"
	KeyTemperature  = "Temperature"
	KeyWear         = "Wear"

	KeyTankType = "TankType"
	KeyFluid    = "Fluid"
	KeyAmount   = "Amount"

	KeyWheelType       = "WheelType"
	KeyCurrentRotation = "CurrentRotation"
	KeyRotationSpeed   = "RotationSpeed"
	KeyTraction        = "Traction"
	KeyCount           = "Count"

	KeyBodyType = "BodyType"

	KeyBatteryLevel = "BatteryLevel"
)

// Tag is a flat NBT-style compound: one record per component.
type Tag map[string]any

func (t Tag) Contains(key string) bool {
	_, ok := t[key]
	return ok
}

func (t Tag) PutString(key, v string)       { t[key] = v }
func (t Tag) PutBool(key string, v bool)     { t[key] = v }
func (t Tag) PutFloat(key string, v float64) { t[key] = v }
func (t Tag) PutInt(key string, v int)       { t[key] = int32(v) }

func (t Tag) String(key string) string {
	s, _ := t[key].(string)
	return s
}

func (t Tag) Bool(key string) bool {
	b, _ := t[key].(bool)
	return b
}

func (t Tag) Float(key string) float64 {
	switch v := t[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func (t Tag) Int(key string) int {
	return int(t.Float(key))
}

// SpecResolver looks up specifications by id, returning the documented
// default for unknown or empty ids. It never returns nil.
type SpecResolver interface {
	EngineSpec(id string) *EngineSpec
	TankSpec(id string) *TankSpec
	WheelSpec(id string) *WheelSpec
	BodySpec(id string) *BodySpec
}

// Encode writes c as a tag record.
func Encode(c ecs.Component) Tag {
	t := Tag{KeyComponentType: c.Type().String()}
	switch c := c.(type) {
	case *Engine:
		t.PutString(KeyEngineType, c.Spec.ID)
		t.PutFloat(KeyCurrentRPM, c.currentRPM)
		t.PutFloat(KeyEngineHealth, c.health)
		t.PutBool(KeyRunning, c.running)
		t.PutFloat(KeyTemperature, c.temperature)
		t.PutFloat(KeyWear, c.wear)
	case *FuelTank:
		t.PutString(KeyTankType, c.Spec.ID)
		if !c.Empty() {
			t.PutString(KeyFluid, string(c.fluid))
		}
		t.PutFloat(KeyAmount, c.amount)
	case *Wheel:
		t.PutString(KeyWheelType, c.Spec.ID)
		t.PutFloat(KeyCurrentRotation, c.rotation)
		t.PutFloat(KeyRotationSpeed, c.rotationSpeed)
		t.PutFloat(KeyWear, c.wear)
		t.PutFloat(KeyTraction, c.traction)
		t.PutInt(KeyCount, c.Count)
	case *Body:
		t.PutString(KeyBodyType, c.Spec.ID)
	case *Battery:
		t.PutFloat(KeyBatteryLevel, c.level)
	}
	return t
}

// Decode rebuilds a component from its tag. Unknown spec ids fall back to the
// resolver's default; only an unknown ComponentType is an error.
func Decode(t Tag, specs SpecResolver) (ecs.Component, error) {
	ct, ok := ecs.ParseComponentType(t.String(KeyComponentType))
	if !ok {
		return nil, fmt.Errorf("unknown component type %q", t.String(KeyComponentType))
	}
	switch ct {
	case ecs.Engine:
		e := NewEngine(specs.EngineSpec(t.String(KeyEngineType)))
		if t.Contains(KeyEngineHealth) {
			e.SetHealth(t.Float(KeyEngineHealth))
		}
		e.SetWear(t.Float(KeyWear))
		if t.Contains(KeyTemperature) {
			e.SetTemperature(t.Float(KeyTemperature))
		}
		if t.Bool(KeyRunning) {
			e.Start()
		}
		e.SetRPM(t.Float(KeyCurrentRPM))
		return e, nil
	case ecs.FuelTank:
		ft := NewFuelTank(specs.TankSpec(t.String(KeyTankType)))
		ft.Set(Fluid(t.String(KeyFluid)), t.Float(KeyAmount))
		return ft, nil
	case ecs.Wheel:
		w := NewWheel(specs.WheelSpec(t.String(KeyWheelType)), t.Int(KeyCount))
		w.SetRotation(t.Float(KeyCurrentRotation))
		w.SetRotationSpeed(t.Float(KeyRotationSpeed))
		w.SetWear(t.Float(KeyWear))
		if t.Contains(KeyTraction) {
			w.SetTraction(t.Float(KeyTraction))
		}
		return w, nil
	case ecs.Body:
		return NewBody(specs.BodySpec(t.String(KeyBodyType))), nil
	case ecs.Battery:
		b := NewBattery()
		if t.Contains(KeyBatteryLevel) {
			b.SetLevel(t.Float(KeyBatteryLevel))
		}
		return b, nil
	}
	return nil, fmt.Errorf("unhandled component type %s", ct)
}

package data

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/schedulemc/vehiclesim/internal/component"
	"gopkg.in/yaml.v3"
)

// DefaultSpecID is the catalog id every lookup falls back to.
const DefaultSpecID = "default"

// ErrDuplicateSpec is returned when a catalog lists the same id twice.
var ErrDuplicateSpec = errors.New("duplicate spec id")

// Built-in fallbacks used when the YAML does not define a "default" entry.
var (
	builtinEngine = &component.EngineSpec{
		ID: DefaultSpecID, MaxPower: 90000, MaxRPM: 5500,
		BaseFuelConsumption: 0.8, CylinderCount: 4, OptimalTemperature: 90,
	}
	builtinTank  = &component.TankSpec{ID: DefaultSpecID, Capacity: 50}
	builtinWheel = &component.WheelSpec{
		ID: DefaultSpecID, Diameter: 0.8, BaseTraction: 1, GripMultiplier: 1, WearRate: 1e-6,
	}
	builtinBody = &component.BodySpec{
		ID: DefaultSpecID, Model: "sedan", MaxPassengers: 4, Mass: 1200,
		MaxSpeed: 1.5, MaxReverseSpeed: 0.4, RotationModifier: 0.5,
		MinRotationSpeed: 2, MaxRotationSpeed: 5,
	}
)

// FluidSpec is a pumpable fluid. PriceFactor scales the station price.
type FluidSpec struct {
	ID          component.Fluid `yaml:"id"`
	Name        string          `yaml:"name"`
	PriceFactor float64         `yaml:"price_factor"`
}

// VehicleModel is a purchasable vehicle: the parts the dealer assembles.
type VehicleModel struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Price      int64           `yaml:"price"` // minor currency units
	Engine     string          `yaml:"engine"`
	Tank       string          `yaml:"tank"`
	Wheel      string          `yaml:"wheel"`
	WheelCount int             `yaml:"wheel_count"`
	Body       string          `yaml:"body"`
	StartFluid component.Fluid `yaml:"start_fluid"`
	StartFuel  float64         `yaml:"start_fuel"`
}

// Registry is the read-only spec catalog. All lookups fall back to the
// default entry, so component decoding never fails on an unknown id.
type Registry struct {
	engines map[string]*component.EngineSpec
	tanks   map[string]*component.TankSpec
	wheels  map[string]*component.WheelSpec
	bodies  map[string]*component.BodySpec
	fluids  map[component.Fluid]*FluidSpec
	models  map[string]*VehicleModel
}

var _ component.SpecResolver = (*Registry)(nil)

type registryFile struct {
	Engines []component.EngineSpec `yaml:"engines"`
	Tanks   []component.TankSpec   `yaml:"tanks"`
	Wheels  []component.WheelSpec  `yaml:"wheels"`
	Bodies  []component.BodySpec   `yaml:"bodies"`
	Fluids  []FluidSpec            `yaml:"fluids"`
	Models  []VehicleModel         `yaml:"models"`
}

// LoadRegistry loads vehicles.yaml.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vehicle catalog: %w", err)
	}
	return ParseRegistry(raw)
}

// ParseRegistry builds a registry from YAML bytes.
func ParseRegistry(raw []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse vehicle catalog: %w", err)
	}

	r := NewRegistry()
	for i := range f.Engines {
		if err := addSpec(r.engines, f.Engines[i].ID, &f.Engines[i], "engine"); err != nil {
			return nil, err
		}
	}
	for i := range f.Tanks {
		if err := addSpec(r.tanks, f.Tanks[i].ID, &f.Tanks[i], "tank"); err != nil {
			return nil, err
		}
	}
	for i := range f.Wheels {
		if err := addSpec(r.wheels, f.Wheels[i].ID, &f.Wheels[i], "wheel"); err != nil {
			return nil, err
		}
	}
	for i := range f.Bodies {
		if err := addSpec(r.bodies, f.Bodies[i].ID, &f.Bodies[i], "body"); err != nil {
			return nil, err
		}
	}
	for i := range f.Fluids {
		fl := &f.Fluids[i]
		if fl.PriceFactor <= 0 {
			fl.PriceFactor = 1
		}
		if err := addSpec(r.fluids, fl.ID, fl, "fluid"); err != nil {
			return nil, err
		}
	}
	for i := range f.Models {
		m := &f.Models[i]
		if m.WheelCount <= 0 {
			m.WheelCount = component.DefaultWheelCount
		}
		if err := addSpec(r.models, m.ID, m, "model"); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewRegistry returns a registry holding only the built-in defaults.
func NewRegistry() *Registry {
	return &Registry{
		engines: map[string]*component.EngineSpec{DefaultSpecID: builtinEngine},
		tanks:   map[string]*component.TankSpec{DefaultSpecID: builtinTank},
		wheels:  map[string]*component.WheelSpec{DefaultSpecID: builtinWheel},
		bodies:  map[string]*component.BodySpec{DefaultSpecID: builtinBody},
		fluids:  make(map[component.Fluid]*FluidSpec),
		models:  make(map[string]*VehicleModel),
	}
}

// addSpec inserts v under id. A YAML "default" entry replaces the built-in
// one; any other repeated id is an error.
func addSpec[K comparable, V any](m map[K]*V, id K, v *V, kind string) error {
	var zero K
	if id == zero {
		return fmt.Errorf("%s entry without id", kind)
	}
	if _, exists := m[id]; exists && fmt.Sprint(id) != DefaultSpecID {
		return fmt.Errorf("%s %v: %w", kind, id, ErrDuplicateSpec)
	}
	m[id] = v
	return nil
}

func (r *Registry) EngineSpec(id string) *component.EngineSpec {
	if s, ok := r.engines[id]; ok {
		return s
	}
	return r.engines[DefaultSpecID]
}

func (r *Registry) TankSpec(id string) *component.TankSpec {
	if s, ok := r.tanks[id]; ok {
		return s
	}
	return r.tanks[DefaultSpecID]
}

func (r *Registry) WheelSpec(id string) *component.WheelSpec {
	if s, ok := r.wheels[id]; ok {
		return s
	}
	return r.wheels[DefaultSpecID]
}

func (r *Registry) BodySpec(id string) *component.BodySpec {
	if s, ok := r.bodies[id]; ok {
		return s
	}
	return r.bodies[DefaultSpecID]
}

// Fluid returns the fluid spec, or nil if the fluid is not sold anywhere.
func (r *Registry) Fluid(id component.Fluid) *FluidSpec {
	return r.fluids[id]
}

// Model returns a vehicle model by id, or nil if not found.
func (r *Registry) Model(id string) *VehicleModel {
	return r.models[id]
}

// Models returns all vehicle models sorted by price, then id.
func (r *Registry) Models() []*VehicleModel {
	out := make([]*VehicleModel, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of loaded entries per catalog, defaults included.
func (r *Registry) Count() (engines, tanks, wheels, bodies, models int) {
	return len(r.engines), len(r.tanks), len(r.wheels), len(r.bodies), len(r.models)
}

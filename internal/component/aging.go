package component

// Aging lowers the health a repair can restore as the odometer grows.
// MaxHealth[0] applies below Distances[0], MaxHealth[i] from Distances[i-1]
// on. An empty table means no aging.
type Aging struct {
	Distances []float64
	MaxHealth []float64
}

// MaxHealthAt returns the repair ceiling for a vehicle that has driven
// odometer units.
func (a Aging) MaxHealthAt(odometer float64) float64 {
	if len(a.MaxHealth) == 0 {
		return 1
	}
	i := 0
	for i < len(a.Distances) && odometer >= a.Distances[i] {
		i++
	}
	if i >= len(a.MaxHealth) {
		i = len(a.MaxHealth) - 1
	}
	return clamp(a.MaxHealth[i], 0, 1)
}

package system

import (
	"sort"
	"time"
)

// Runner executes world-level systems in phase order each tick.
type Runner struct {
	systems []PhaseSystem
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]PhaseSystem, 0, 8),
	}
}

func (r *Runner) Register(s PhaseSystem) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

func (r *Runner) Len() int { return len(r.systems) }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}

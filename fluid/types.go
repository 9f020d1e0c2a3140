// Package fluid implements the diffuse-particle engine: the multi-pass
// per-frame reductions, seeding, advection/reclassification, and
// retirement that turn a fluid snapshot into spray, foam, and bubble
// particles. It replaces the teacher's PCISPH primary-fluid solver
// (fluid/sphfluid.go, fluid/particle.go) entirely — this package never
// advances the underlying fluid; it only consumes one frame of it at a
// time.
package fluid

import "diesel.com/diffuse/vector"

// FluidParticle is one sampled point of a precomputed SPH fluid
// snapshot: dense id within the frame, position, velocity, and rest
// density.
type FluidParticle struct {
	ID       int
	Position vector.Vec3
	Velocity vector.Vec3
	Density  float64
}

// ParticleType classifies a diffuse particle by its local fluid
// neighbor density at the moment of classification.
type ParticleType int

const (
	Spray ParticleType = iota
	Foam
	Bubble
)

func (t ParticleType) String() string {
	switch t {
	case Spray:
		return "spray"
	case Foam:
		return "foam"
	case Bubble:
		return "bubble"
	default:
		return "unknown"
	}
}

// DiffuseParticle is a secondary particle carried across frames: a
// globally unique id, a kinematic state, a foam time-to-live counter,
// its most recently computed fluid-neighbor count, and its current
// classification.
type DiffuseParticle struct {
	ID       int64
	Position vector.Vec3
	Velocity vector.Vec3
	TTL      int
	Density  float64
	Type     ParticleType
}

// TimestepEntry is one row of the timestep schedule: from frame NStep
// onward the physical timestep length is Tout.
type TimestepEntry struct {
	NStep int
	Tout  float64
}

// Schedule is an ordered, nstep-ascending timestep table plus a cursor
// that advances with the off-by-one semantics the source preserves:
// the cursor only moves to k+1 once the current frame number is
// strictly greater than timesteps[k+1].NStep, not merely equal to it.
type Schedule struct {
	entries []TimestepEntry
	cursor  int
}

// NewSchedule validates and wraps a timestep table. It fails if the
// table is empty or not sorted ascending by NStep.
func NewSchedule(entries []TimestepEntry) (*Schedule, error) {
	if len(entries) == 0 {
		return nil, errEmptySchedule
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].NStep <= entries[i-1].NStep {
			return nil, errUnsortedSchedule
		}
	}
	return &Schedule{entries: entries}, nil
}

// Advance moves the cursor forward if nstep has passed the next
// entry's boundary, and returns the timestep length in effect for
// nstep.
func (s *Schedule) Advance(nstep int) float64 {
	for s.cursor+1 < len(s.entries) && nstep > s.entries[s.cursor+1].NStep {
		s.cursor++
	}
	return s.entries[s.cursor].Tout
}

// Params is the fixed-for-the-run parameter bundle: smoothing length,
// particle mass, the domain box, the three clamp ranges, the seeding
// coefficients, the density thresholds, foam lifetime, and the bubble
// drag/buoyancy coefficients.
type Params struct {
	H    float64
	Mass float64

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	MinTA, MaxTA float64
	MinWC, MaxWC float64
	MinK, MaxK   float64

	KTA, KWC float64

	Spray, Bubbles float64
	Lifetime       int

	KB, KD float64
}

const gravity = 9.81

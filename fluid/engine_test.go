package fluid

import (
	"math/rand"
	"testing"

	"diesel.com/diffuse/grid"
	"diesel.com/diffuse/vector"
)

func testParams() *Params {
	return &Params{
		H:        1.0,
		Mass:     1.0,
		MinX:     -10, MaxX: 10,
		MinY:     -10, MaxY: 10,
		MinZ:     -10, MaxZ: 10,
		MinTA:    0, MaxTA: 10,
		MinWC:    0, MaxWC: 10,
		MinK:     0, MaxK: 10,
		KTA:      1, KWC: 1,
		Spray:    6, Bubbles: 20,
		Lifetime: 4,
		KB:       1, KD: 0.5,
	}
}

func TestPhiDeterministicClamp(t *testing.T) {
	cases := []struct{ i, want float64 }{
		{3, 0.25},
		{5, 0.75},
		{10, 1.0},
	}
	for _, c := range cases {
		got := phi(c.i, 2, 6)
		if diff := got - c.want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("phi(%v,2,6) = %v, want %v", c.i, got, c.want)
		}
	}
}

func TestPhiIdempotent(t *testing.T) {
	a, b := 2.0, 6.0
	for _, x := range []float64{-5, 0, 2, 4, 6, 9} {
		once := phi(x, a, b)
		twice := phi(once*(b-a)+a, a, b)
		if diff := once - twice; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("phi not idempotent at x=%v: once=%v twice=%v", x, once, twice)
		}
	}
}

func TestEmptyFrameIsNoOp(t *testing.T) {
	e := NewEngine(testParams(), rand.NewSource(1))
	result := e.RunFrame(nil, 0.1)

	if result.NPDiffuse != 0 {
		t.Errorf("NPDiffuse = %v, want 0", result.NPDiffuse)
	}
	if len(e.Persistent) != 0 {
		t.Errorf("Persistent = %v, want empty", e.Persistent)
	}
}

func TestSingleStationaryParticleSeedsNothing(t *testing.T) {
	particles := []FluidParticle{
		{ID: 0, Position: vector.Vec3{0, 0, 0}, Velocity: vector.Vec3{0, 0, 0}, Density: 1000},
	}
	e := NewEngine(testParams(), rand.NewSource(1))
	result := e.RunFrame(particles, 0.1)

	if result.NDiffuse[0] != 0 {
		t.Errorf("ndiffuse[0] = %v, want 0", result.NDiffuse[0])
	}
	if result.NPDiffuse != 0 {
		t.Errorf("NPDiffuse = %v, want 0", result.NPDiffuse)
	}
	if len(e.Persistent) != 0 {
		t.Errorf("Persistent = %v, want empty", e.Persistent)
	}
}

func TestSprayBallisticAdvection(t *testing.T) {
	e := NewEngine(testParams(), rand.NewSource(1))
	e.Persistent = []DiffuseParticle{
		{ID: 0, Position: vector.Vec3{0, 0, 0}, Velocity: vector.Vec3{1, 0, 0}, Type: Spray},
	}
	// A single far-away fluid particle keeps local density at 0 (< SPRAY).
	particles := []FluidParticle{
		{ID: 0, Position: vector.Vec3{100, 100, 100}, Velocity: vector.Vec3{0, 0, 0}, Density: 1000},
	}
	e.RunFrame(particles, 0.1)

	got := e.Persistent[0]
	wantVel := vector.Vec3{1, 0, -0.981}
	wantPos := vector.Vec3{0.1, 0, -0.0981}
	for i := 0; i < 3; i++ {
		if diff := got.Velocity[i] - wantVel[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Velocity[%d] = %v, want %v", i, got.Velocity[i], wantVel[i])
		}
		if diff := got.Position[i] - wantPos[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Position[%d] = %v, want %v", i, got.Position[i], wantPos[i])
		}
	}
}

func TestFoamAdvectionInUniformFlow(t *testing.T) {
	params := testParams()
	e := NewEngine(params, rand.NewSource(1))
	e.Persistent = []DiffuseParticle{
		{ID: 0, Position: vector.Vec3{0, 0, 0}, Velocity: vector.Vec3{0, 0, 0}, TTL: 5, Type: Foam},
	}

	// Enough nearby fluid particles, all moving at v=(2,0,0), to land the
	// persistent particle's density in the foam band (SPRAY < d < BUBBLES)
	// and make the weighted-average neighbor velocity exactly (2,0,0).
	var particles []FluidParticle
	for i := 0; i < 10; i++ {
		particles = append(particles, FluidParticle{
			ID:       i,
			Position: vector.Vec3{0.01 * float64(i), 0, 0},
			Velocity: vector.Vec3{2, 0, 0},
			Density:  1000,
		})
	}

	e.RunFrame(particles, 0.1)

	got := e.Persistent[0]
	if diff := got.Velocity[0] - 2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Velocity.x = %v, want 2", got.Velocity[0])
	}
	if diff := got.Position[0] - 0.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Position.x = %v, want 0.2", got.Position[0])
	}
	if got.TTL != 4 {
		t.Errorf("TTL = %v, want 4 (decremented once)", got.TTL)
	}
}

func TestRetirementDeletesNegativeTTLFoam(t *testing.T) {
	params := testParams()
	e := NewEngine(params, rand.NewSource(1))
	e.Persistent = []DiffuseParticle{
		{ID: 0, Position: vector.Vec3{0, 0, 0}, Velocity: vector.Vec3{0, 0, 0}, TTL: 0, Type: Foam},
	}
	var particles []FluidParticle
	for i := 0; i < 10; i++ {
		particles = append(particles, FluidParticle{
			ID:       i,
			Position: vector.Vec3{0.01 * float64(i), 0, 0},
			Velocity: vector.Vec3{0, 0, 0},
			Density:  1000,
		})
	}
	e.RunFrame(particles, 0.1)

	if len(e.Persistent) != 0 {
		t.Fatalf("Persistent = %v, want empty after TTL expiry", e.Persistent)
	}
}

func TestOutOfDomainParticleIsDeleted(t *testing.T) {
	params := testParams()
	e := NewEngine(params, rand.NewSource(1))
	e.Persistent = []DiffuseParticle{
		{ID: 0, Position: vector.Vec3{9.999, 0, 0}, Velocity: vector.Vec3{1000, 0, 0}, Type: Spray},
	}
	e.RunFrame(nil, 0.1)

	if len(e.Persistent) != 0 {
		t.Fatalf("Persistent = %v, want empty after leaving the domain box", e.Persistent)
	}
}

func TestScheduleOffByOneAdvance(t *testing.T) {
	sched, err := NewSchedule([]TimestepEntry{
		{NStep: 0, Tout: 0.1},
		{NStep: 10, Tout: 0.2},
	})
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	if got := sched.Advance(10); got != 0.1 {
		t.Errorf("Advance(10) = %v, want 0.1 (advance happens strictly after the boundary)", got)
	}
	if got := sched.Advance(11); got != 0.2 {
		t.Errorf("Advance(11) = %v, want 0.2", got)
	}
}

func TestNewScheduleRejectsUnsorted(t *testing.T) {
	_, err := NewSchedule([]TimestepEntry{{NStep: 5, Tout: 0.1}, {NStep: 1, Tout: 0.2}})
	if err == nil {
		t.Fatal("expected error for unsorted schedule")
	}
}

func TestNewScheduleRejectsEmpty(t *testing.T) {
	_, err := NewSchedule(nil)
	if err == nil {
		t.Fatal("expected error for empty schedule")
	}
}

// TestExcludedParticleDoesNotSeedOrReportDiagnostics guards against the
// exclusion zone being honored only for neighbor lookups: a particle
// strictly inside the exclusion box still sits at index i in the
// particles slice and must be skipped by every per-particle pass, even
// though a non-excluded particle just outside the box remains a valid
// neighbor for its own computations.
func TestExcludedParticleDoesNotSeedOrReportDiagnostics(t *testing.T) {
	params := testParams()
	e := NewEngine(params, rand.NewSource(1))
	e.Exclusion = &grid.Box{
		Min: vector.Vec3{-2, -2, -2},
		Max: vector.Vec3{2, 2, 2},
	}

	particles := []FluidParticle{
		// Strictly inside the exclusion box: must be ignored throughout.
		{ID: 0, Position: vector.Vec3{1.9, 0, 0}, Velocity: vector.Vec3{5, 0, 0}, Density: 1000},
		// Just outside the box, close enough to be a grid neighbor of
		// particle 0's cell, with an opposing velocity that would have
		// driven a large trapped-air contribution into particle 0 if
		// its pass were not skipped.
		{ID: 1, Position: vector.Vec3{2.1, 0, 0}, Velocity: vector.Vec3{-5, 0, 0}, Density: 1000},
	}

	result := e.RunFrame(particles, 0.1)

	if !result.Excluded[0] {
		t.Fatalf("Excluded[0] = false, want true")
	}
	if result.TrappedAir[0] != 0 {
		t.Errorf("TrappedAir[0] = %v, want 0 (excluded particles are skipped)", result.TrappedAir[0])
	}
	if result.Energy[0] != 0 {
		t.Errorf("Energy[0] = %v, want 0 (excluded particles are skipped)", result.Energy[0])
	}
	if result.NDiffuse[0] != 0 {
		t.Errorf("NDiffuse[0] = %v, want 0 (excluded particles never seed)", result.NDiffuse[0])
	}
	if len(e.Persistent) != 0 {
		t.Errorf("Persistent = %v, want empty (nothing should have seeded from the excluded particle)", e.Persistent)
	}
}

// TestFoamTTLDoesNotDecrementAtExactThresholds pins pass 9's TTL
// decrement to the strict SPRAY < density < BUBBLES band. classify
// treats density == SPRAY (and density == BUBBLES) as foam for
// advection purposes, but the original only decrements TTL strictly
// inside the band.
func TestFoamTTLDoesNotDecrementAtExactThresholds(t *testing.T) {
	params := testParams() // Spray: 6, Bubbles: 20

	e := NewEngine(params, rand.NewSource(1))
	e.Persistent = []DiffuseParticle{
		{ID: 0, Position: vector.Vec3{0, 0, 0}, Velocity: vector.Vec3{0, 0, 0}, TTL: 5},
	}

	// Exactly 6 fluid neighbors within h puts density exactly at SPRAY.
	var particles []FluidParticle
	for i := 0; i < 6; i++ {
		particles = append(particles, FluidParticle{
			ID:       i,
			Position: vector.Vec3{0.01 * float64(i), 0, 0},
			Velocity: vector.Vec3{1, 0, 0},
			Density:  1000,
		})
	}

	e.RunFrame(particles, 0.1)

	got := e.Persistent[0]
	if got.Density != 6 {
		t.Fatalf("Density = %v, want 6 (exactly SPRAY)", got.Density)
	}
	if got.Type != Foam {
		t.Fatalf("Type = %v, want Foam (classify's default branch at density == SPRAY)", got.Type)
	}
	if got.TTL != 5 {
		t.Errorf("TTL = %v, want 5 (unchanged: density == SPRAY is not strictly inside the foam band)", got.TTL)
	}
}

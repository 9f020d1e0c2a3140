package fluid

import (
	"math"
	"math/rand"

	"diesel.com/diffuse/grid"
	"diesel.com/diffuse/kernel"
	"diesel.com/diffuse/vector"
)

const surfaceThreshold = 0.75

// Engine carries the diffuse-particle state across frames and drives
// passes 1-10 of the pipeline over each new fluid snapshot; writing the
// output files (pass 11) is left to the caller.
type Engine struct {
	Params    *Params
	Exclusion *grid.Box

	rng    *rand.Rand
	nextID int64

	Persistent []DiffuseParticle
}

// NewEngine builds an engine over params, drawing pass-6 samples from
// source, which NewEngine wraps with rand.New. Pass an *rng.MT19937 for
// production runs, or a seeded source for reproducible tests.
func NewEngine(params *Params, source rand.Source) *Engine {
	return &Engine{
		Params: params,
		rng:    rand.New(source),
	}
}

// FrameResult carries the per-fluid-particle diagnostic arrays (already
// clamped by pass 4) and the run's aggregate diffuse-particle counts, for
// the fluid-diagnostics writer and the run log.
type FrameResult struct {
	TrappedAir []float64
	WaveCrest  []float64
	Energy     []float64
	NDiffuse   []int
	Excluded   []bool

	NPDiffuse                            int
	SprayCount, FoamCount, BubbleCount   int
	DeletedCount                         int
}

// RunFrame advances the engine by one frame given the fluid snapshot and
// the current timestep length, mutating e.Persistent in place and
// returning the fluid diagnostics for that frame.
func (e *Engine) RunFrame(particles []FluidParticle, dt float64) *FrameResult {
	p := e.Params
	n := len(particles)

	domain := grid.Box{
		Min: vector.Vec3{p.MinX, p.MinY, p.MinZ},
		Max: vector.Vec3{p.MaxX, p.MaxY, p.MaxZ},
	}

	positions := make([]vector.Vec3, n)
	for i, fp := range particles {
		positions[i] = fp.Position
	}
	g := grid.Build(domain, p.H, positions, e.Exclusion)

	ita := make([]float64, n)
	colorField := make([]float64, n)
	waveCrest := make([]float64, n)
	energy := make([]float64, n)
	gradient := make([]vector.Vec3, n)
	ndiffuse := make([]int, n)

	// Pass 1: trapped-air potential, color field, energy.
	parallelFor(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if g.Excluded(i) {
				continue
			}
			pi := particles[i]
			for _, j := range g.Neighbors(pi.Position) {
				if j == i {
					continue
				}
				pj := particles[j]
				sep := vector.Sub(pi.Position, pj.Position)
				mp := vector.Length(sep)
				q := mp / p.H

				if mp <= p.H {
					velDiff := vector.Sub(pi.Velocity, pj.Velocity)
					mv := vector.Length(velDiff)
					dv := vector.Scale(velDiff, 1/mv)
					dp := vector.Scale(sep, 1/mp)
					align := 1 - vector.Dot(dv, dp)
					w := 1 - q
					ita[i] += mv * align * w
				}
				if q >= 0 && q <= 2 {
					colorField[i] += (p.Mass / pj.Density) * kernel.Wendland(mp, p.H)
				}
			}
			energy[i] = 0.5 * p.Mass * vector.Dot(pi.Velocity, pi.Velocity)
		}
	})

	// Pass 2: gradient of the color field (self-inclusion is intentional).
	parallelFor(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if g.Excluded(i) {
				continue
			}
			pi := particles[i]
			for _, j := range g.Neighbors(pi.Position) {
				pj := particles[j]
				xij := vector.Sub(pi.Position, pj.Position)
				mxij := vector.Length(xij)
				q := mxij / p.H
				if q >= 0 && q <= 2 {
					wv := kernel.Wendland(mxij, p.H)
					gradient[i].Add(vector.Scale(xij, wv*colorField[j]))
				}
			}
		}
	})

	// Pass 3: wave-crest curvature, surface particles only.
	parallelFor(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if g.Excluded(i) || colorField[i] >= surfaceThreshold {
				continue
			}
			pi := particles[i]
			nni := vector.Normalize(gradient[i])
			nvi := vector.Normalize(pi.Velocity)
			for _, j := range g.Neighbors(pi.Position) {
				pj := particles[j]
				xji := vector.Sub(pj.Position, pi.Position)
				if vector.Dot(xji, nni) < 0 && vector.Dot(nvi, nni) >= 0.6 {
					nnj := vector.Normalize(gradient[j])
					e1 := 1 - vector.Dot(nni, nnj)
					e2 := kernel.Spike(vector.Distance(pi.Position, pj.Position), p.H)
					waveCrest[i] += e1 * e2
				}
			}
		}
	})

	// Pass 4: clamp raw magnitudes into [0,1] band-pass responses.
	excluded := make([]bool, n)
	for i := 0; i < n; i++ {
		excluded[i] = g.Excluded(i)
		if excluded[i] {
			continue
		}
		waveCrest[i] = phi(waveCrest[i], p.MinWC, p.MaxWC)
		ita[i] = phi(ita[i], p.MinTA, p.MaxTA)
		energy[i] = phi(energy[i], p.MinK, p.MaxK)
	}

	// Pass 5: diffuse particle counts. Excluded particles never seed.
	npdiffuse := 0
	prefix := make([]int, n+1)
	for i := 0; i < n; i++ {
		if !excluded[i] {
			ndiffuse[i] = int(math.Floor(energy[i] * (p.KTA*ita[i] + p.KWC*waveCrest[i]) * dt))
			if ndiffuse[i] < 0 {
				ndiffuse[i] = 0
			}
		}
		npdiffuse += ndiffuse[i]
		prefix[i+1] = prefix[i] + ndiffuse[i]
	}

	// Pass 6: seed new diffuse particles. Samples are drawn serially,
	// before the parallel emission loop below, because the generator
	// is not safe for concurrent use.
	samples := make([]float64, npdiffuse*3)
	for i := range samples {
		samples[i] = e.rng.Float64()
	}

	newParticles := make([]DiffuseParticle, npdiffuse)
	baseID := e.nextID

	parallelFor(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if excluded[i] || ndiffuse[i] < 1 {
				continue
			}
			pos := particles[i].Position
			vel := particles[i].Velocity

			e1 := seedFrameE1(pos, vel)
			e2 := vector.Normalize(vector.Vec3{
				e1[1]*vel[2] - vel[1]*e1[2],
				e1[0]*vel[2] - vel[0]*e1[2],
				e1[0]*vel[1] - vel[0]*e1[1],
			})
			nvel := vector.Normalize(vel)
			speed := vector.Length(vel)

			off := prefix[i]
			for k := 0; k < ndiffuse[i]; k++ {
				s := (off + k) * 3
				u1, u2, u3 := samples[s], samples[s+1], samples[s+2]

				height := u1 * speed * dt * 0.5
				r := p.H * math.Sqrt(u2)
				theta := u3 * 2 * math.Pi
				cosT, sinT := math.Cos(theta), math.Sin(theta)

				radial := vector.Add(vector.Scale(e1, r*cosT), vector.Scale(e2, r*sinT))

				idx := off + k
				newParticles[idx] = DiffuseParticle{
					ID:       baseID + int64(idx),
					Position: vector.Add(pos, vector.Add(radial, vector.Scale(nvel, height))),
					Velocity: vector.Add(radial, vel),
					TTL:      ndiffuse[i] * p.Lifetime,
				}
			}
		}
	})
	e.nextID += int64(npdiffuse)

	// Pass 7: initial density (and classification) for the new particles.
	parallelFor(len(newParticles), func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			np := &newParticles[idx]
			count := 0.0
			for _, j := range g.Neighbors(np.Position) {
				if vector.Distance(np.Position, particles[j].Position) <= p.H {
					count++
				}
			}
			np.Density = count
			np.Type = classify(count, p.Spray, p.Bubbles)
		}
	})

	// Pass 8: advect and reclassify persistent particles.
	parallelFor(len(e.Persistent), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			pp := &e.Persistent[i]

			neighbors := g.Neighbors(pp.Position)
			density := 0.0
			for _, j := range neighbors {
				if vector.Distance(pp.Position, particles[j].Position) <= p.H {
					density++
				}
			}
			pp.Density = density
			pp.Type = classify(density, p.Spray, p.Bubbles)

			var num vector.Vec3
			den := 0.0
			if density >= p.Spray {
				for _, j := range neighbors {
					w := kernel.Wendland(vector.Distance(pp.Position, particles[j].Position), p.H)
					num.Add(vector.Scale(particles[j].Velocity, w))
					den += w
				}
			}

			switch pp.Type {
			case Spray:
				pp.Velocity[2] += -gravity * dt
				pp.Position = vector.Add(pp.Position, vector.Scale(pp.Velocity, dt))
			case Bubble:
				avg := vector.Scale(num, 1/den)
				drag := vector.Sub(avg, pp.Velocity)
				pp.Velocity[0] += p.KD * drag[0]
				pp.Velocity[1] += p.KD * drag[1]
				pp.Velocity[2] += p.KD*drag[2] + dt*p.KB*gravity
				pp.Position = vector.Add(pp.Position, vector.Scale(pp.Velocity, dt))
			default: // Foam
				avg := vector.Scale(num, 1/den)
				pp.Velocity = avg
				pp.Position = vector.Add(pp.Position, vector.Scale(avg, dt))
			}
		}
	})

	// Pass 9: retirement — decrement foam TTL, then compact-delete. The
	// decrement gates on the strict density band, not the Foam
	// classification, since classify treats density == Spray or
	// density == Bubbles as foam too.
	deleted := 0
	kept := e.Persistent[:0]
	for _, pp := range e.Persistent {
		if pp.Density > p.Spray && pp.Density < p.Bubbles {
			pp.TTL--
		}
		if pp.TTL < 0 || outOfDomain(pp.Position, p) {
			deleted++
			continue
		}
		kept = append(kept, pp)
	}
	e.Persistent = kept

	// Pass 10: append newly seeded particles.
	e.Persistent = append(e.Persistent, newParticles...)

	result := &FrameResult{
		TrappedAir:    ita,
		WaveCrest:     waveCrest,
		Energy:        energy,
		NDiffuse:      ndiffuse,
		Excluded:      excluded,
		NPDiffuse:     npdiffuse,
		DeletedCount:  deleted,
	}
	for _, pp := range e.Persistent {
		switch pp.Type {
		case Spray:
			result.SprayCount++
		case Foam:
			result.FoamCount++
		case Bubble:
			result.BubbleCount++
		}
	}
	return result
}

// phi is the clamping response: a band-pass mapping raw magnitudes in
// [tmin,tmax] to [0,1].
func phi(v, tmin, tmax float64) float64 {
	return (math.Min(v, tmax) - math.Min(v, tmin)) / (tmax - tmin)
}

func classify(density, spray, bubbles float64) ParticleType {
	switch {
	case density < spray:
		return Spray
	case density > bubbles:
		return Bubble
	default:
		return Foam
	}
}

func outOfDomain(pos vector.Vec3, p *Params) bool {
	return pos[0] <= p.MinX || pos[1] <= p.MinY || pos[2] <= p.MinZ ||
		pos[0] >= p.MaxX || pos[1] >= p.MaxY || pos[2] >= p.MaxZ
}

// solveEq solves the plane equation v . (q - p) = 0 for the missing
// in-plane coordinate of q, given two of q's coordinates fixed at x
// and y. Used only through seedFrameE1's priority ordering, which
// guarantees vz is never zero at the call site.
func solveEq(px, py, pz, vx, vy, vz, x, y float64) float64 {
	return ((-(x-px)*vx - (y-py)*vy) / vz) + pz
}

// seedFrameE1 builds the first basis vector of pass 6's local frame,
// picking the first non-zero velocity component in x, y, z priority
// order to avoid the division by zero in solveEq.
func seedFrameE1(pos, vel vector.Vec3) vector.Vec3 {
	switch {
	case vel[0] != 0:
		return vector.Normalize(vector.Vec3{
			solveEq(pos[2], pos[1], pos[0], vel[2], vel[1], vel[0], 0, 1),
			1, 0,
		})
	case vel[1] != 0:
		return vector.Normalize(vector.Vec3{
			1,
			solveEq(pos[0], pos[2], pos[1], vel[0], vel[2], vel[1], 1, 0),
			0,
		})
	default:
		return vector.Normalize(vector.Vec3{
			1, 0,
			solveEq(pos[0], pos[1], pos[2], vel[0], vel[1], vel[2], 1, 0),
		})
	}
}

// Package grid implements the uniform-bucket spatial index the diffuse
// particle engine queries every fluid neighborhood through. It replaces
// the teacher's linked-list SpatialHashGrid and its sibling VoxelArray:
// both assumed a fixed, power-of-two voxel count sized ahead of time and
// wrapped queries toroidally at the domain edges, which does not match
// this engine's requirement of an up-to-27 face/edge/corner neighborhood
// clipped at the true domain boundary. The map-of-buckets shape below is
// the array-bucket idea those two teacher types share, generalized to an
// unbounded, non-wrapping domain.
package grid

import (
	"math"

	"diesel.com/diffuse/vector"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min vector.Vec3
	Max vector.Vec3
}

// Contains reports whether p lies inside the closed box.
func (b Box) Contains(p vector.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// StrictlyInside reports whether p lies strictly inside the open box,
// used for exclusion-zone masking.
func (b Box) StrictlyInside(p vector.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] <= b.Min[i] || p[i] >= b.Max[i] {
			return false
		}
	}
	return true
}

// cellIndex is the integer (x,y,z) cell coordinate used as a map key.
type cellIndex struct {
	x, y, z int
}

// Grid is a uniform-bucket spatial index over a set of fluid particle
// positions, built fresh once per frame.
type Grid struct {
	domain    Box
	h         float64
	exclusion *Box
	buckets   map[cellIndex][]int
	excluded  []bool
}

// Build indexes positions into cells of side h inside domain, optionally
// suppressing any particle strictly inside exclusion. The returned Grid
// borrows nothing from positions after Build returns.
func Build(domain Box, h float64, positions []vector.Vec3, exclusion *Box) *Grid {
	g := &Grid{
		domain:    domain,
		h:         h,
		exclusion: exclusion,
		buckets:   make(map[cellIndex][]int, len(positions)),
		excluded:  make([]bool, len(positions)),
	}

	for i, p := range positions {
		if exclusion != nil && exclusion.StrictlyInside(p) {
			g.excluded[i] = true
			continue
		}
		c := g.cellOf(p)
		g.buckets[c] = append(g.buckets[c], i)
	}

	return g
}

// Excluded reports whether particle i was suppressed by the exclusion
// zone at Build time.
func (g *Grid) Excluded(i int) bool {
	return g.excluded[i]
}

func (g *Grid) cellOf(p vector.Vec3) cellIndex {
	return cellIndex{
		x: int(math.Floor((p[0] - g.domain.Min[0]) / g.h)),
		y: int(math.Floor((p[1] - g.domain.Min[1]) / g.h)),
		z: int(math.Floor((p[2] - g.domain.Min[2]) / g.h)),
	}
}

// Bucket is one non-empty cell and the particle indices it holds.
type Bucket struct {
	Index     [3]int
	Particles []int
}

// Buckets returns every non-empty cell, in a deterministic order
// (ascending x, then y, then z).
func (g *Grid) Buckets() []Bucket {
	out := make([]Bucket, 0, len(g.buckets))
	for c, p := range g.buckets {
		out = append(out, Bucket{Index: [3]int{c.x, c.y, c.z}, Particles: p})
	}
	sortBuckets(out)
	return out
}

func sortBuckets(b []Bucket) {
	less := func(i, j int) bool {
		a, c := b[i].Index, b[j].Index
		if a[0] != c[0] {
			return a[0] < c[0]
		}
		if a[1] != c[1] {
			return a[1] < c[1]
		}
		return a[2] < c[2]
	}
	// insertion sort: bucket counts are small enough per frame that this
	// avoids pulling in sort.Slice's reflection overhead for a call made
	// once per frame.
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			b[j], b[j-1] = b[j-1], b[j]
		}
	}
}

// Neighbors returns the particle indices found in the up-to-27 cells
// neighboring the cell containing p (including that cell itself).
func (g *Grid) Neighbors(p vector.Vec3) []int {
	return g.neighborsOf(g.cellOf(p))
}

// NeighborsOfBucket returns the same neighborhood as Neighbors, addressed
// by a bucket's own cell index rather than by re-hashing a position.
func (g *Grid) NeighborsOfBucket(index [3]int) []int {
	return g.neighborsOf(cellIndex{index[0], index[1], index[2]})
}

func (g *Grid) neighborsOf(c cellIndex) []int {
	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				n := cellIndex{c.x + dx, c.y + dy, c.z + dz}
				if bucket, ok := g.buckets[n]; ok {
					out = append(out, bucket...)
				}
			}
		}
	}
	return out
}

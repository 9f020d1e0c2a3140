package grid

import (
	"testing"

	"diesel.com/diffuse/vector"
)

func domain() Box {
	return Box{Min: vector.Vec3{0, 0, 0}, Max: vector.Vec3{10, 10, 10}}
}

func TestBuildEmpty(t *testing.T) {
	g := Build(domain(), 1, nil, nil)
	if len(g.Buckets()) != 0 {
		t.Fatalf("expected no buckets for empty input")
	}
}

func TestSingleParticleIsItsOwnNeighbor(t *testing.T) {
	positions := []vector.Vec3{{5, 5, 5}}
	g := Build(domain(), 1, positions, nil)

	n := g.Neighbors(positions[0])
	if len(n) != 1 || n[0] != 0 {
		t.Fatalf("Neighbors = %v, want [0]", n)
	}
}

func TestNeighborsIncludeAdjacentCellsOnly(t *testing.T) {
	positions := []vector.Vec3{
		{5.1, 5.1, 5.1}, // cell (5,5,5)
		{5.9, 5.1, 5.1}, // same cell
		{6.1, 5.1, 5.1}, // neighboring cell
		{9.1, 5.1, 5.1}, // far cell, not a neighbor
	}
	g := Build(domain(), 1, positions, nil)

	n := g.Neighbors(positions[0])
	found := map[int]bool{}
	for _, i := range n {
		found[i] = true
	}
	if !found[0] || !found[1] || !found[2] {
		t.Fatalf("expected indices 0,1,2 in neighborhood, got %v", n)
	}
	if found[3] {
		t.Fatalf("index 3 should not be in neighborhood, got %v", n)
	}
}

func TestExclusionZoneSuppressesInsertion(t *testing.T) {
	excl := Box{Min: vector.Vec3{4, 4, 4}, Max: vector.Vec3{6, 6, 6}}
	positions := []vector.Vec3{
		{5, 5, 5}, // inside exclusion
		{1, 1, 1}, // outside
	}
	g := Build(domain(), 1, positions, &excl)

	if !g.Excluded(0) {
		t.Errorf("particle 0 should be excluded")
	}
	if g.Excluded(1) {
		t.Errorf("particle 1 should not be excluded")
	}

	n := g.Neighbors(positions[1])
	for _, i := range n {
		if i == 0 {
			t.Errorf("excluded particle 0 should not appear in any neighborhood")
		}
	}
}

func TestBucketsDeterministicOrder(t *testing.T) {
	positions := []vector.Vec3{{1, 1, 1}, {8, 8, 8}, {1, 8, 1}}
	g := Build(domain(), 1, positions, nil)

	b1 := g.Buckets()
	b2 := g.Buckets()
	if len(b1) != len(b2) {
		t.Fatalf("bucket count differs between calls")
	}
	for i := range b1 {
		if b1[i].Index != b2[i].Index {
			t.Fatalf("bucket order is not deterministic: %v != %v", b1[i].Index, b2[i].Index)
		}
	}
}

package pointcloud

import (
	"bufio"
	"fmt"
	"os"

	"diesel.com/diffuse/fluid"
)

// WriteText emits one line per persistent diffuse particle:
// "x y z t" in scientific notation, t in {0=spray,1=foam,2=bubble}.
func WriteText(path string, particles []fluid.DiffuseParticle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pointcloud: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range particles {
		fmt.Fprintf(w, "%e %e %e %d\n", p.Position[0], p.Position[1], p.Position[2], int(p.Type))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("pointcloud: writing %s: %w", path, err)
	}
	return nil
}

// WritePositionsVTK emits a legacy-ASCII VTK polydata file with only
// positions and velocities — the plain "…vtk" output.
func WritePositionsVTK(path string, particles []fluid.DiffuseParticle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pointcloud: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	n := len(particles)
	fmt.Fprintln(w, "# vtk DataFile Version 3.0")
	fmt.Fprintln(w, "diffuse particles")
	fmt.Fprintln(w, "ASCII")
	fmt.Fprintln(w, "DATASET POLYDATA")
	fmt.Fprintf(w, "POINTS %d float\n", n)
	for _, p := range particles {
		fmt.Fprintf(w, "%g %g %g\n", p.Position[0], p.Position[1], p.Position[2])
	}
	fmt.Fprintf(w, "POINT_DATA %d\n", n)
	fmt.Fprintln(w, "VECTORS Velocity float")
	for _, p := range particles {
		fmt.Fprintf(w, "%g %g %g\n", p.Velocity[0], p.Velocity[1], p.Velocity[2])
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("pointcloud: writing %s: %w", path, err)
	}
	return nil
}

// WriteDiffuseVTK emits the full diffuse-particle attribute file: id,
// ParticleType, Velocity, Density per point.
func WriteDiffuseVTK(path string, particles []fluid.DiffuseParticle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pointcloud: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	n := len(particles)
	fmt.Fprintln(w, "# vtk DataFile Version 3.0")
	fmt.Fprintln(w, "diffuse particles (full)")
	fmt.Fprintln(w, "ASCII")
	fmt.Fprintln(w, "DATASET POLYDATA")
	fmt.Fprintf(w, "POINTS %d float\n", n)
	for _, p := range particles {
		fmt.Fprintf(w, "%g %g %g\n", p.Position[0], p.Position[1], p.Position[2])
	}
	fmt.Fprintf(w, "POINT_DATA %d\n", n)

	fmt.Fprintln(w, "SCALARS id int 1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")
	for _, p := range particles {
		fmt.Fprintf(w, "%d\n", p.ID)
	}

	fmt.Fprintln(w, "SCALARS ParticleType int 1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")
	for _, p := range particles {
		fmt.Fprintf(w, "%d\n", int(p.Type))
	}

	fmt.Fprintln(w, "VECTORS Velocity float")
	for _, p := range particles {
		fmt.Fprintf(w, "%g %g %g\n", p.Velocity[0], p.Velocity[1], p.Velocity[2])
	}

	fmt.Fprintln(w, "SCALARS Density float 1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")
	for _, p := range particles {
		fmt.Fprintf(w, "%g\n", p.Density)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("pointcloud: writing %s: %w", path, err)
	}
	return nil
}

// WriteFluidVTK emits the fluid-diagnostics file: fluid positions (those
// not masked by the exclusion zone) with the per-pass scalars TrappedAir,
// WaveCrests, Energy, DiffuseParticles.
func WriteFluidVTK(path string, fluidParticles []fluid.FluidParticle, result *fluid.FrameResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pointcloud: creating %s: %w", path, err)
	}
	defer f.Close()

	included := make([]int, 0, len(fluidParticles))
	for i := range fluidParticles {
		if i < len(result.Excluded) && result.Excluded[i] {
			continue
		}
		included = append(included, i)
	}

	w := bufio.NewWriter(f)
	n := len(included)
	fmt.Fprintln(w, "# vtk DataFile Version 3.0")
	fmt.Fprintln(w, "fluid diagnostics")
	fmt.Fprintln(w, "ASCII")
	fmt.Fprintln(w, "DATASET POLYDATA")
	fmt.Fprintf(w, "POINTS %d float\n", n)
	for _, i := range included {
		p := fluidParticles[i]
		fmt.Fprintf(w, "%g %g %g\n", p.Position[0], p.Position[1], p.Position[2])
	}
	fmt.Fprintf(w, "POINT_DATA %d\n", n)

	fmt.Fprintln(w, "SCALARS TrappedAir float 1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")
	for _, i := range included {
		fmt.Fprintf(w, "%g\n", result.TrappedAir[i])
	}

	fmt.Fprintln(w, "SCALARS WaveCrests float 1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")
	for _, i := range included {
		fmt.Fprintf(w, "%g\n", result.WaveCrest[i])
	}

	fmt.Fprintln(w, "SCALARS Energy float 1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")
	for _, i := range included {
		fmt.Fprintf(w, "%g\n", result.Energy[i])
	}

	fmt.Fprintln(w, "SCALARS DiffuseParticles int 1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")
	for _, i := range included {
		fmt.Fprintf(w, "%d\n", result.NDiffuse[i])
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("pointcloud: writing %s: %w", path, err)
	}
	return nil
}

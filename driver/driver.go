// Package driver runs the frame-range loop that ties configuration,
// snapshot loading, the diffuse-particle engine, and output writing
// together — the part of the original batch tool that corresponds to
// the reference corpus's top-level simulation loop (app/sphfluid.go's
// Update/Render cadence), rehomed here since this tool has no render
// step of its own.
package driver

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"diesel.com/diffuse/config"
	"diesel.com/diffuse/fluid"
	"diesel.com/diffuse/logging"
	"diesel.com/diffuse/pointcloud"
	"diesel.com/diffuse/rng"
)

// Driver owns the engine, schedule, and run log for one invocation and
// walks the configured frame range.
type Driver struct {
	cfg      *config.Config
	engine   *fluid.Engine
	schedule *fluid.Schedule
	runLog   *pointcloud.RunLog
}

// New builds a Driver from a validated config. Callers must call
// cfg.Validate before New; New does not re-check it.
func New(cfg *config.Config) (*Driver, error) {
	exclusion, err := pointcloud.LoadExclusionZone(cfg.ExclusionZoneFile)
	if err != nil {
		return nil, err
	}

	var source rand.Source
	if cfg.Seed != 0 {
		source = rng.NewSeeded(cfg.Seed)
	} else {
		source = rng.New()
	}

	engine := fluid.NewEngine(cfg.ToParams(), source)
	engine.Exclusion = exclusion

	schedule, err := cfg.ToSchedule()
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	runLog, err := pointcloud.NewRunLog(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	return &Driver{cfg: cfg, engine: engine, schedule: schedule, runLog: runLog}, nil
}

// Close releases the driver's open resources. Safe to call after a
// failed Run.
func (d *Driver) Close() error {
	return d.runLog.Close()
}

// Run walks [cfg.NStart, cfg.NEnd] inclusive, loading one snapshot per
// frame and running it through the engine. A missing snapshot file
// ends the run cleanly (nil error) — it marks the end of the recorded
// fluid sequence, not a failure. Any other read/parse/write failure is
// returned wrapped.
func (d *Driver) Run() error {
	for nstep := d.cfg.NStart; nstep <= d.cfg.NEnd; nstep++ {
		dt := d.schedule.Advance(nstep)

		snapPath := d.snapshotPath(nstep)
		snap, err := pointcloud.LoadSnapshot(snapPath)
		if err != nil {
			if os.IsNotExist(err) {
				logging.Logf("driver: snapshot %s not found, ending run at frame %d", snapPath, nstep)
				return nil
			}
			return fmt.Errorf("driver: loading frame %d: %w", nstep, err)
		}

		start := time.Now()
		particles := toFluidParticles(snap)
		result := d.engine.RunFrame(particles, dt)
		elapsed := time.Since(start)

		logging.Logf("frame %d: %d fluid particles, %d new diffuse (spray=%d foam=%d bubble=%d, %d retired)",
			nstep, len(particles), result.NPDiffuse, result.SprayCount, result.FoamCount, result.BubbleCount, result.DeletedCount)

		if err := d.writeOutputs(nstep, particles, result); err != nil {
			return fmt.Errorf("driver: writing frame %d outputs: %w", nstep, err)
		}

		if err := d.runLog.Write(pointcloud.RunLogRow{
			NStep:           nstep,
			Tout:            dt,
			FluidCount:      len(particles),
			NPDiffuse:       result.NPDiffuse,
			SprayCount:      result.SprayCount,
			FoamCount:       result.FoamCount,
			BubbleCount:     result.BubbleCount,
			PersistentCount: len(d.engine.Persistent),
			DeletedCount:    result.DeletedCount,
			ElapsedMillis:   elapsed.Milliseconds(),
		}); err != nil {
			return fmt.Errorf("driver: writing run log for frame %d: %w", nstep, err)
		}
	}
	return nil
}

func (d *Driver) snapshotPath(nstep int) string {
	seq := zeroPad(nstep, d.cfg.NZeros)
	return filepath.Join(d.cfg.DataPath, d.cfg.FilePrefix+seq+".vtk")
}

// writeOutputs fires the four independent output sinks concurrently —
// each one only reads the frame's already-computed state, so there is
// nothing to synchronize beyond the barrier at the end.
func (d *Driver) writeOutputs(nstep int, particles []fluid.FluidParticle, result *fluid.FrameResult) error {
	seq := zeroPad(nstep, d.cfg.NZeros)
	base := filepath.Join(d.cfg.OutputPath, d.cfg.OutputPrefix+seq)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	out := d.cfg.Output
	if out.TextFiles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail(pointcloud.WriteText(base+".txt", d.engine.Persistent))
		}()
	}
	if out.VTKFiles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail(pointcloud.WritePositionsVTK(base+".vtk", d.engine.Persistent))
		}()
	}
	if out.VTKDiffuseData {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail(pointcloud.WriteDiffuseVTK(base+"_diffuse.vtk", d.engine.Persistent))
		}()
	}
	if out.VTKFluidData {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail(pointcloud.WriteFluidVTK(base+"_fluid.vtk", particles, result))
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func toFluidParticles(snap *pointcloud.Snapshot) []fluid.FluidParticle {
	out := make([]fluid.FluidParticle, len(snap.Positions))
	for i := range snap.Positions {
		out[i] = fluid.FluidParticle{
			ID:       i,
			Position: snap.Positions[i],
			Velocity: snap.Velocities[i],
			Density:  snap.Density[i],
		}
	}
	return out
}

func zeroPad(n, width int) string {
	s := fmt.Sprintf("%d", n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

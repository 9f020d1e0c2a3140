package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
data_path: ./frames
file_prefix: PART_
output_path: ./out
output_prefix: diffuse_
nstart: 0
nend: 10
nzeros: 4
output:
  text_files: true
  vtk_files: true
params:
  h: 0.02
  mass: 0.001
  minx: -1
  maxx: 1
  miny: -1
  maxy: 1
  minz: -1
  maxz: 1
  minta: 0
  maxta: 1
  minwc: 0
  maxwc: 1
  mink: 0
  maxk: 1
  kta: 1
  kwc: 1
  spray: 6
  bubbles: 20
  lifetime: 4
  kb: 1
  kd: 0.5
timesteps:
  - nstep: 0
    tout: 0.001
`

func writeConfig(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Params.H != 0.02 {
		t.Errorf("Params.H = %v, want 0.02", cfg.Params.H)
	}
}

func TestValidateRejectsUnsortedTimesteps(t *testing.T) {
	path := writeConfig(t, validYAML+"\n  - nstep: 0\n    tout: 0.002\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-ascending timesteps")
	}
}

func TestValidateRejectsBackwardsRange(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.NStart, cfg.NEnd = 10, 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for nstart > nend")
	}
}

func TestValidateRejectsSprayBelowOne(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Params.Spray = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for spray < 1")
	}
}

func TestToParamsAndSchedule(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	params := cfg.ToParams()
	if params.H != cfg.Params.H {
		t.Errorf("ToParams H = %v, want %v", params.H, cfg.Params.H)
	}

	sched, err := cfg.ToSchedule()
	if err != nil {
		t.Fatalf("ToSchedule: %v", err)
	}
	if got := sched.Advance(0); got != 0.001 {
		t.Errorf("Advance(0) = %v, want 0.001", got)
	}
}

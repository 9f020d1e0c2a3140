package pointcloud

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// RunLogRow is one frame's worth of diagnostics, appended to runlog.csv.
// This is a supplement over the original source, which only prints the
// equivalent counts to stderr/stdout per frame (cout/cerr stage
// announcements) rather than persisting them — useful for an unattended
// batch run that nobody is watching a terminal for.
type RunLogRow struct {
	NStep           int     `csv:"nstep"`
	Tout            float64 `csv:"tout"`
	FluidCount      int     `csv:"fluid_count"`
	NPDiffuse       int     `csv:"npdiffuse"`
	SprayCount      int     `csv:"spray_count"`
	FoamCount       int     `csv:"foam_count"`
	BubbleCount     int     `csv:"bubble_count"`
	PersistentCount int     `csv:"persistent_count"`
	DeletedCount    int     `csv:"deleted_count"`
	ElapsedMillis   int64   `csv:"elapsed_millis"`
}

// RunLog appends one CSV row per frame to outputPath/runlog.csv,
// writing the header on the first row only, mirroring the reference
// corpus's OutputManager CSV telemetry convention.
type RunLog struct {
	file          *os.File
	headerWritten bool
}

// NewRunLog opens (creating if needed) runlog.csv inside outputPath.
func NewRunLog(outputPath string) (*RunLog, error) {
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return nil, fmt.Errorf("pointcloud: creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(outputPath, "runlog.csv"))
	if err != nil {
		return nil, fmt.Errorf("pointcloud: creating runlog.csv: %w", err)
	}
	return &RunLog{file: f}, nil
}

// Write appends one row to the run log.
func (r *RunLog) Write(row RunLogRow) error {
	records := []RunLogRow{row}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("pointcloud: writing runlog row: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
		return fmt.Errorf("pointcloud: writing runlog row: %w", err)
	}
	return nil
}

// Close flushes and closes the run log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

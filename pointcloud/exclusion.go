package pointcloud

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"diesel.com/diffuse/grid"
	"diesel.com/diffuse/vector"
)

// exclusionRow is the one-row CSV schema gocsv marshals the exclusion
// zone descriptor through.
type exclusionRow struct {
	MinX float64 `csv:"minx"`
	MinY float64 `csv:"miny"`
	MinZ float64 `csv:"minz"`
	MaxX float64 `csv:"maxx"`
	MaxY float64 `csv:"maxy"`
	MaxZ float64 `csv:"maxz"`
}

// LoadExclusionZone reads a single-row CSV axis-aligned box descriptor.
// An empty path disables the exclusion zone and returns (nil, nil).
func LoadExclusionZone(path string) (*grid.Box, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pointcloud: opening exclusion zone file: %w", err)
	}
	defer f.Close()

	var rows []exclusionRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("pointcloud: parsing exclusion zone file: %w", err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("pointcloud: exclusion zone file must have exactly one row, got %d", len(rows))
	}

	row := rows[0]
	return &grid.Box{
		Min: vector.Vec3{row.MinX, row.MinY, row.MinZ},
		Max: vector.Vec3{row.MaxX, row.MaxY, row.MaxZ},
	}, nil
}

package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"pv-battery-sizing/internal/model"
)

// HourlySeries is the raw content of a boundary-condition file: one column
// per series, one row per hour of the year.
type HourlySeries struct {
	Load             []float64
	PVCapacityFactor []float64
	GridImportPrice  []float64
	// GridExportPrice is nil when the column is absent (no export revenue).
	GridExportPrice []float64
}

// Column names recognized in boundary-condition CSVs.
const (
	colLoad        = "load"
	colPVFactor    = "pv_capacity_factor"
	colImportPrice = "grid_import_price"
	colExportPrice = "grid_export_price"
)

// LoadHourlyCSV reads a boundary-condition CSV. The file must have a header
// row naming the columns and exactly one row per hour of the year; anything
// else is a structural error, never a silent default.
func LoadHourlyCSV(path string) (*HourlySeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, required := range []string{colLoad, colPVFactor, colImportPrice} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, required)
		}
	}

	rows := records[1:]
	if len(rows) != model.HoursPerYear {
		return nil, fmt.Errorf("%s: has %d data rows, want %d", path, len(rows), model.HoursPerYear)
	}

	s := &HourlySeries{
		Load:             make([]float64, len(rows)),
		PVCapacityFactor: make([]float64, len(rows)),
		GridImportPrice:  make([]float64, len(rows)),
	}
	_, hasExport := cols[colExportPrice]
	if hasExport {
		s.GridExportPrice = make([]float64, len(rows))
	}

	parse := func(row []string, col string, line int) (float64, error) {
		i := cols[col]
		if i >= len(row) {
			return 0, fmt.Errorf("%s: line %d: missing value for %q", path, line, col)
		}
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return 0, fmt.Errorf("%s: line %d: column %q: %w", path, line, col, err)
		}
		return v, nil
	}

	for n, row := range rows {
		line := n + 2
		if s.Load[n], err = parse(row, colLoad, line); err != nil {
			return nil, err
		}
		if s.PVCapacityFactor[n], err = parse(row, colPVFactor, line); err != nil {
			return nil, err
		}
		if s.GridImportPrice[n], err = parse(row, colImportPrice, line); err != nil {
			return nil, err
		}
		if hasExport {
			if s.GridExportPrice[n], err = parse(row, colExportPrice, line); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// ToInputContext combines the series with scalar parameters into the record
// consumed by the optimization core.
func (s *HourlySeries) ToInputContext(p model.TechnoEconomicParams) *model.InputContext {
	return &model.InputContext{
		Load:             s.Load,
		PVCapacityFactor: s.PVCapacityFactor,
		GridImportPrice:  s.GridImportPrice,
		GridExportPrice:  s.GridExportPrice,
		Params:           p,
	}
}

package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv-battery-sizing/internal/model"
)

func writeCSV(t *testing.T, header string, rows int, row func(i int) string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 0; i < rows; i++ {
		b.WriteString(row(i) + "\n")
	}
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestLoadHourlyCSV(t *testing.T) {
	path := writeCSV(t, "load,pv_capacity_factor,grid_import_price,grid_export_price",
		model.HoursPerYear, func(i int) string {
			return fmt.Sprintf("%d,0.25,0.3,0.05", i)
		})

	s, err := LoadHourlyCSV(path)
	require.NoError(t, err)

	require.Len(t, s.Load, model.HoursPerYear)
	assert.Equal(t, 0.0, s.Load[0])
	assert.Equal(t, 42.0, s.Load[42])
	assert.Equal(t, 0.25, s.PVCapacityFactor[100])
	assert.Equal(t, 0.3, s.GridImportPrice[100])
	require.NotNil(t, s.GridExportPrice)
	assert.Equal(t, 0.05, s.GridExportPrice[100])
}

func TestLoadHourlyCSVWithoutExportColumn(t *testing.T) {
	path := writeCSV(t, "load,pv_capacity_factor,grid_import_price",
		model.HoursPerYear, func(i int) string {
			return "1,0.2,0.3"
		})

	s, err := LoadHourlyCSV(path)
	require.NoError(t, err)
	assert.Nil(t, s.GridExportPrice)

	in := s.ToInputContext(model.TechnoEconomicParams{})
	assert.Equal(t, 0.0, in.ExportPriceAt(0))
	assert.Len(t, in.Load, model.HoursPerYear)
}

func TestLoadHourlyCSVErrors(t *testing.T) {
	t.Run("missing required column", func(t *testing.T) {
		path := writeCSV(t, "load,grid_import_price", 1, func(i int) string { return "1,0.3" })
		_, err := LoadHourlyCSV(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pv_capacity_factor")
	})

	t.Run("wrong row count", func(t *testing.T) {
		path := writeCSV(t, "load,pv_capacity_factor,grid_import_price",
			100, func(i int) string { return "1,0.2,0.3" })
		_, err := LoadHourlyCSV(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "100 data rows")
	})

	t.Run("non-numeric value", func(t *testing.T) {
		path := writeCSV(t, "load,pv_capacity_factor,grid_import_price",
			model.HoursPerYear, func(i int) string {
				if i == 7 {
					return "oops,0.2,0.3"
				}
				return "1,0.2,0.3"
			})
		_, err := LoadHourlyCSV(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 9")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadHourlyCSV(filepath.Join(t.TempDir(), "absent.csv"))
		assert.Error(t, err)
	})
}

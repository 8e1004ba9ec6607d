package sizing

import (
	"encoding/csv"
	"os"
	"strconv"

	"pv-battery-sizing/internal/model"
)

// WriteScheduleCSV writes the hourly dispatch schedule, one row per hour.
func WriteScheduleCSV(path string, schedule []model.HourRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"hour",
		"load",
		"pv_generation",
		"soc",
		"charge",
		"discharge",
		"grid_import",
		"grid_export",
		"action",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range schedule {
		row := []string{
			strconv.Itoa(r.Hour),
			fmtFloat(r.Load),
			fmtFloat(r.PVGeneration),
			fmtFloat(r.SOC),
			fmtFloat(r.Charge),
			fmtFloat(r.Discharge),
			fmtFloat(r.GridImport),
			fmtFloat(r.GridExport),
			string(r.Action),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

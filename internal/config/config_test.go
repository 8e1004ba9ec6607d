package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
params:
  name: test
  pv_unit_cost: 900
  battery_energy_unit_cost: 350
  battery_power_unit_cost: 80
  discount_rate: 0.05
  pv_lifetime_years: 25
  battery_lifetime_years: 12
  charge_efficiency: 0.95
  discharge_efficiency: 0.95
  max_rate_fraction: 0.5
  min_soc: 0.1
  max_soc: 0.9
  max_battery_capacity: 100
solver:
  time_limit_seconds: 60
  rel_gap: 0.001
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", validConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Params.Name)
	assert.Equal(t, 900.0, cfg.Params.PVUnitCost)
	assert.Equal(t, 60.0, cfg.Solver.TimeLimitSeconds)
	assert.True(t, cfg.Cyclic(), "cyclic_soc defaults to true")

	p := cfg.Params.ToModelParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 0.95, p.ChargeEfficiency)

	opts := cfg.Solver.ToOptions()
	assert.Equal(t, float64(60), opts.TimeLimit.Seconds())
	assert.Equal(t, 0.001, opts.RelGap)
}

func TestLoadParamsFileMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
params:
  name: base
  pv_unit_cost: 900
  battery_energy_unit_cost: 350
  discount_rate: 0.05
  pv_lifetime_years: 25
  battery_lifetime_years: 12
  charge_efficiency: 0.95
  discharge_efficiency: 0.95
  max_rate_fraction: 0.5
  min_soc: 0.1
  max_soc: 0.9
  max_battery_capacity: 100
`)
	cfgPath := writeFile(t, dir, "config.yaml", `
params_file: base.yaml
params:
  pv_unit_cost: 700
  min_soc: 0
cyclic_soc: false
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Inline params override the file field by field, explicit zeros
	// included; absent fields keep the preset values.
	assert.Equal(t, 700.0, cfg.Params.PVUnitCost)
	assert.Equal(t, 0.0, cfg.Params.MinSOC)
	assert.Equal(t, 350.0, cfg.Params.BatteryEnergyUnitCost)
	assert.Equal(t, "base", cfg.Params.Name)
	assert.False(t, cfg.Cyclic())
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("bad params", func(t *testing.T) {
		path := writeFile(t, dir, "bad-params.yaml", `
params:
  pv_unit_cost: 900
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "params config invalid")
	})

	t.Run("negative time limit", func(t *testing.T) {
		path := writeFile(t, dir, "bad-solver.yaml", validConfigYAML+`
`)
		cfg, err := LoadUnchecked(path)
		require.NoError(t, err)
		cfg.Solver.TimeLimitSeconds = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func f64(v float64) *float64 { return &v }

func TestApplyTo(t *testing.T) {
	base := ParamsConfig{Name: "base", PVUnitCost: 900, MinSOC: 0.1, MaxSOC: 0.9}
	override := ParamsOverride{PVUnitCost: f64(500), MaxBatteryCapacity: f64(50)}

	out := override.ApplyTo(base)
	assert.Equal(t, "base", out.Name)
	assert.Equal(t, 500.0, out.PVUnitCost)
	assert.Equal(t, 0.1, out.MinSOC)
	assert.Equal(t, 50.0, out.MaxBatteryCapacity)
}

func TestApplyToExplicitZero(t *testing.T) {
	// A set zero wins over the base, unlike a nil field.
	base := ParamsConfig{MinSOC: 0.1, MaxSOC: 0.9}
	out := ParamsOverride{MinSOC: f64(0), MaxSOC: f64(1)}.ApplyTo(base)
	assert.Equal(t, 0.0, out.MinSOC)
	assert.Equal(t, 1.0, out.MaxSOC)
}

func TestLoadParamsOverlay(t *testing.T) {
	path := writeFile(t, t.TempDir(), "overlay.yaml", `
params:
  name: cheap-storage
  battery_energy_unit_cost: 200
  min_soc: 0
`)
	o, err := LoadParamsOverlay(path)
	require.NoError(t, err)
	assert.Equal(t, "cheap-storage", o.Name)
	require.NotNil(t, o.BatteryEnergyUnitCost)
	assert.Equal(t, 200.0, *o.BatteryEnergyUnitCost)
	require.NotNil(t, o.MinSOC)
	assert.Equal(t, 0.0, *o.MinSOC)
	assert.Nil(t, o.PVUnitCost)
}

func TestWriteAndLoadParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	p := ParamsConfig{Name: "fetched", PVUnitCost: 850, BatteryEnergyUnitCost: 300}

	require.NoError(t, WriteParamsFile(path, p))

	got, err := LoadParamsFile(path)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

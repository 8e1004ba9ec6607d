package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv-battery-sizing/internal/api/models"
	"pv-battery-sizing/internal/data"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() *gin.Engine {
	r := gin.New()
	h := NewSizingHandler(nil)
	r.POST("/api/v1/sizing", h.RunSizing)
	r.GET("/api/v1/sizing", h.ListRuns)
	r.GET("/api/v1/sizing/:id/schedule", h.GetSchedule)
	return r
}

func errorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp.Error.Code
}

func TestRunSizingRejectsBadJSON(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sizing", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w.Body))
}

func TestRunSizingRejectsShortSeries(t *testing.T) {
	r := testRouter()

	body := models.SizingRequest{
		Params: models.ParamsPayload{
			PVUnitCost:            900,
			BatteryEnergyUnitCost: 350,
			PVLifetimeYears:       25,
			BatteryLifetimeYears:  12,
			ChargeEfficiency:      0.95,
			DischargeEfficiency:   0.95,
			MaxRateFraction:       0.5,
			MinSOC:                0.1,
			MaxSOC:                0.9,
			MaxBatteryCapacity:    100,
		},
		Series: models.SeriesPayload{
			// A day, not a year.
			Load:             make([]float64, 24),
			PVCapacityFactor: make([]float64, 24),
			GridImportPrice:  make([]float64, 24),
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sizing", bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w.Body))
}

func TestRunsEndpointsWithoutStore(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sizing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_STORE", errorCode(t, w.Body))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sizing/abc/schedule", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_STORE", errorCode(t, w.Body))
}

func TestListPresets(t *testing.T) {
	dir := t.TempDir()
	preset := `
params:
  name: cheap-storage
  battery_energy_unit_cost: 200
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cheap.yaml"), []byte(preset), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	r := gin.New()
	r.GET("/api/v1/params", NewParamsHandler(dir, nil).ListPresets)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/params", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Presets []models.ParamsPresetInfo `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Presets, 1)
	assert.Equal(t, "cheap", resp.Presets[0].ID)
	assert.Equal(t, "cheap-storage", resp.Presets[0].Name)
	assert.Equal(t, 200.0, resp.Presets[0].Params.BatteryEnergyUnitCost)
}

func TestGetReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"2024-02","pv":{"unit_cost":800,"lifetime_years":25},"battery":{"energy_unit_cost":300,"lifetime_years":12}}`))
	}))
	defer srv.Close()

	r := gin.New()
	r.GET("/api/v1/params/reference", NewParamsHandler(t.TempDir(), data.NewTechDBClient(srv.URL)).GetReference)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/params/reference?version=2024-02", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var ref data.ReferenceParams
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ref))
	assert.Equal(t, "2024-02", ref.Version)
	assert.Equal(t, 800.0, ref.PV.UnitCost)
}

func TestListDatasets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site-a.csv"), []byte("load\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644))

	r := gin.New()
	r.GET("/api/v1/datasets", NewDatasetsHandler(dir).ListDatasets)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Datasets []models.DatasetInfo `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Datasets, 1)
	assert.Equal(t, "site-a", resp.Datasets[0].ID)
	assert.Equal(t, "site-a.csv", resp.Datasets[0].File)
	assert.Greater(t, resp.Datasets[0].Size, int64(0))
}

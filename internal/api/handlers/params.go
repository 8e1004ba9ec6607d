package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pv-battery-sizing/internal/api/models"
	"pv-battery-sizing/internal/config"
	"pv-battery-sizing/internal/data"
)

// ParamsHandler serves techno-economic parameter presets and the
// reference parameter database.
type ParamsHandler struct {
	PresetDir string
	TechDB    *data.TechDBClient
}

func NewParamsHandler(presetDir string, techdb *data.TechDBClient) *ParamsHandler {
	if techdb == nil {
		techdb = data.NewTechDBClient("")
	}
	return &ParamsHandler{PresetDir: presetDir, TechDB: techdb}
}

// ListPresets handles GET /api/v1/params: every parseable *.yaml preset
// in the preset directory.
func (h *ParamsHandler) ListPresets(c *gin.Context) {
	entries, err := os.ReadDir(h.PresetDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "PRESET_DIR_ERROR", err.Error())
		return
	}

	presets := make([]models.ParamsPresetInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p, err := config.LoadParamsFile(filepath.Join(h.PresetDir, e.Name()))
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".yaml")
		name := p.Name
		if name == "" {
			name = id
		}
		presets = append(presets, models.ParamsPresetInfo{
			ID:     id,
			Name:   name,
			File:   e.Name(),
			Params: models.NewParamsPayload(p),
		})
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

// GetReference handles GET /api/v1/params/reference. The version query
// parameter selects the reference database release, defaulting to latest.
func (h *ParamsHandler) GetReference(c *gin.Context) {
	version := c.DefaultQuery("version", "latest")
	ref, err := h.TechDB.FetchParameters(c.Request.Context(), version)
	if err != nil {
		respondError(c, http.StatusBadGateway, "TECHDB_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, ref)
}

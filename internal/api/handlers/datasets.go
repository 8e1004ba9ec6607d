package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"pv-battery-sizing/internal/api/models"
)

// DatasetsHandler lists the hourly boundary-condition CSV files available
// on the server.
type DatasetsHandler struct {
	DataDir string
}

func NewDatasetsHandler(dataDir string) *DatasetsHandler {
	return &DatasetsHandler{DataDir: dataDir}
}

// ListDatasets handles GET /api/v1/datasets.
func (h *DatasetsHandler) ListDatasets(c *gin.Context) {
	entries, err := os.ReadDir(h.DataDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATA_DIR_ERROR", err.Error())
		return
	}

	datasets := make([]models.DatasetInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		datasets = append(datasets, models.DatasetInfo{
			ID:   strings.TrimSuffix(e.Name(), ".csv"),
			File: e.Name(),
			Size: info.Size(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

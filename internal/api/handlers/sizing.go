package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pv-battery-sizing/internal/analysis"
	"pv-battery-sizing/internal/api/models"
	"pv-battery-sizing/internal/config"
	"pv-battery-sizing/internal/milp/bnb"
	"pv-battery-sizing/internal/model"
	"pv-battery-sizing/internal/sizing"
	"pv-battery-sizing/internal/store"
)

// SizingHandler runs sizing optimizations and serves stored runs.
// The store may be nil, in which case runs are not persisted.
type SizingHandler struct {
	Store *store.Store
}

func NewSizingHandler(st *store.Store) *SizingHandler {
	return &SizingHandler{Store: st}
}

// RunSizing handles POST /api/v1/sizing.
func (h *SizingHandler) RunSizing(c *gin.Context) {
	var req models.SizingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	in := req.ToInputContext(req.Params.ToConfig())
	if err := in.ValidateFullYear(); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	res, ok := h.solve(c, in, req)
	if !ok {
		return
	}

	id := ""
	if h.Store != nil {
		var err error
		if id, err = h.Store.AddRun(res); err != nil {
			log.Printf("[API] failed to persist run: %v", err)
			id = ""
		}
	}

	resp := models.SizingResponse{
		ID:      id,
		Status:  statusString(res),
		Summary: models.NewSummary(res),
		Metrics: models.NewMetrics(analysis.Compute(in, res)),
	}
	if req.IncludeSchedule {
		resp.Schedule = models.NewSchedule(res.Schedule)
	}
	c.JSON(http.StatusOK, resp)
}

// CompareScenarios handles POST /api/v1/sizing/compare: the base parameters
// plus each variation overlay are solved on the same series and ranked by
// savings.
func (h *SizingHandler) CompareScenarios(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	base := req.Base.Params.ToConfig()
	scenarios := make([]analysis.ScenarioResult, 0, len(req.Variations)+1)

	runOne := func(name string, params config.ParamsConfig) bool {
		in := req.Base.ToInputContext(params)
		if err := in.ValidateFullYear(); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", name+": "+err.Error())
			return false
		}
		res, ok := h.solve(c, in, req.Base)
		if !ok {
			return false
		}
		scenarios = append(scenarios, analysis.ScenarioResult{
			Name:    name,
			Result:  res,
			Metrics: analysis.Compute(in, res),
		})
		return true
	}

	if !runOne("base", base) {
		return
	}
	for _, v := range req.Variations {
		if !runOne(v.Name, v.Params.ApplyTo(base)) {
			return
		}
	}

	ranked := analysis.RankBySavings(scenarios)
	resp := models.CompareResponse{Comparison: make([]models.ComparisonEntry, len(ranked))}
	for i, s := range ranked {
		resp.Comparison[i] = models.ComparisonEntry{
			Name:    s.Name,
			Summary: models.NewSummary(s.Result),
			Metrics: models.NewMetrics(s.Metrics),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns handles GET /api/v1/sizing.
func (h *SizingHandler) ListRuns(c *gin.Context) {
	if h.Store == nil {
		respondError(c, http.StatusNotFound, "NO_STORE", "run persistence is disabled")
		return
	}
	runs, err := h.Store.ListRuns(50)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	out := make([]models.RunInfo, len(runs))
	for i, r := range runs {
		out[i] = models.RunInfo{
			ID:                  r.ID,
			CreatedAt:           r.CreatedAt,
			PVCapacity:          r.PVCapacity,
			BatteryCapacity:     r.BatteryCapacity,
			TotalAnnualizedCost: r.TotalAnnualizedCost,
			Suboptimal:          r.Suboptimal,
		}
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// GetSchedule handles GET /api/v1/sizing/:id/schedule.
func (h *SizingHandler) GetSchedule(c *gin.Context) {
	if h.Store == nil {
		respondError(c, http.StatusNotFound, "NO_STORE", "run persistence is disabled")
		return
	}
	id := c.Param("id")
	rows, err := h.Store.GetSchedule(id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no run with id "+id)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}

	out := make([]models.ScheduleRow, len(rows))
	for i, r := range rows {
		out[i] = models.ScheduleRow{
			Hour:         r.Hour,
			Load:         r.Load,
			PVGeneration: r.PVGeneration,
			SOC:          r.SOC,
			Charge:       r.Charge,
			Discharge:    r.Discharge,
			GridImport:   r.GridImport,
			GridExport:   r.GridExport,
			Action:       r.Action,
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "schedule": out})
}

// solve runs the pipeline and maps the error taxonomy onto HTTP statuses.
func (h *SizingHandler) solve(c *gin.Context, in *model.InputContext, req models.SizingRequest) (*model.SizingResult, bool) {
	solver := bnb.New(req.SolverOptions())
	res, err := sizing.Run(c.Request.Context(), in, solver, sizing.BuildOptions{CyclicSOC: req.Cyclic()})
	if err == nil {
		return res, true
	}

	var verr *model.ValidationError
	var serr *sizing.SolverError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, sizing.ErrInfeasible):
		respondError(c, http.StatusUnprocessableEntity, "INFEASIBLE", err.Error())
	case errors.Is(err, sizing.ErrUnbounded):
		respondError(c, http.StatusUnprocessableEntity, "UNBOUNDED", err.Error())
	case errors.As(err, &serr):
		respondError(c, http.StatusInternalServerError, "SOLVER_ERROR", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
	return nil, false
}

func statusString(res *model.SizingResult) string {
	if res.Suboptimal {
		return "suboptimal"
	}
	return "optimal"
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: models.ErrorDetail{Code: code, Message: message}})
}

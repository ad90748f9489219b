package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/portops/backend/internal/http/middleware"
	"github.com/portops/backend/internal/service"
)

func viewerFrom(c *gin.Context) service.Viewer {
	return middleware.ViewerFrom(c)
}

// @Summary R1 - Schedule vs actual arrivals
// @Tags reports
// @Produce json
// @Param desde query string false "RFC3339 or YYYY-MM-DD"
// @Param hasta query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} service.R1Result
// @Router /api/reports/r1 [get]
func (h *Handler) ReportR1(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	berthID, ok := int64PtrParam(c, "berth_id")
	if !ok {
		return
	}
	result, err := h.Reports.GenerateR1(c.Request.Context(), service.R1Filters{DateRange: rng, BerthID: berthID})
	h.writeReport(c, result, err)
}

// @Summary R3 - Berth utilization and conflicts
// @Tags reports
// @Produce json
// @Param desde query string true "RFC3339 or YYYY-MM-DD"
// @Param hasta query string true "RFC3339 or YYYY-MM-DD"
// @Param franja_horas query int false "Frame width in hours"
// @Success 200 {object} service.R3Result
// @Router /api/reports/r3 [get]
func (h *Handler) ReportR3(c *gin.Context) {
	rng, ok := h.rangeFilter(c, true)
	if !ok {
		return
	}
	berthID, ok := int64PtrParam(c, "berth_id")
	if !ok {
		return
	}
	franja, ok := intParam(c, "franja_horas")
	if !ok {
		return
	}
	result, err := h.Reports.GenerateR3(c.Request.Context(), service.R3Filters{DateRange: rng, BerthID: berthID, FranjaHoras: franja})
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR4(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	f := service.R4Filters{DateRange: rng, CompanyIDs: companyIDsParam(c)}
	result, err := h.Reports.GenerateR4(c.Request.Context(), f, viewerFrom(c))
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR5(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	f := service.R5Filters{DateRange: rng, CompanyIDs: companyIDsParam(c)}
	result, err := h.Reports.GenerateR5(c.Request.Context(), f, viewerFrom(c))
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR6(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	gateID, ok := int64PtrParam(c, "gate_id")
	if !ok {
		return
	}
	capacidad, ok := intParam(c, "capacidad_teorica")
	if !ok {
		return
	}
	f := service.R6Filters{DateRange: rng, GateID: gateID, CapacidadTeorica: capacidad}
	result, err := h.Reports.GenerateR6(c.Request.Context(), f)
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR7(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	vesselCallID, ok := int64PtrParam(c, "vessel_call_id")
	if !ok {
		return
	}
	entidadID, ok := int64PtrParam(c, "entidad_id")
	if !ok {
		return
	}
	f := service.R7Filters{DateRange: rng, VesselCallID: vesselCallID, EntidadID: entidadID}
	result, err := h.Reports.GenerateR7(c.Request.Context(), f)
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR8(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	umbral, ok := floatParam(c, "umbral_horas")
	if !ok {
		return
	}
	f := service.R8Filters{DateRange: rng, UmbralHoras: umbral}
	result, err := h.Reports.GenerateR8(c.Request.Context(), f)
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR9(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	entidadID, ok := int64PtrParam(c, "entidad_id")
	if !ok {
		return
	}
	f := service.R9Filters{DateRange: rng, EntidadID: entidadID}
	result, err := h.Reports.GenerateR9(c.Request.Context(), f)
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR10(c *gin.Context) {
	hasta, ok := timePtrParam(c, "hasta")
	if !ok {
		return
	}
	dias, ok := intParam(c, "dias")
	if !ok {
		return
	}
	metaTurnaround, ok := floatParam(c, "meta_turnaround")
	if !ok {
		return
	}
	metaEspera, ok := floatParam(c, "meta_espera")
	if !ok {
		return
	}
	metaCumplimiento, ok := floatParam(c, "meta_cumplimiento")
	if !ok {
		return
	}
	metaAprobacion, ok := floatParam(c, "meta_aprobacion")
	if !ok {
		return
	}
	f := service.R10Filters{
		Dias:                dias,
		MetaTurnaroundHoras: metaTurnaround,
		MetaEsperaHoras:     metaEspera,
		MetaCumplimientoPct: metaCumplimiento,
		MetaAprobacionPct:   metaAprobacion,
	}
	if hasta != nil {
		f.Hasta = *hasta
	}
	result, err := h.Reports.GenerateR10(c.Request.Context(), f)
	h.writeReport(c, result, err)
}

// @Summary R11 - Early warning detectors
// @Tags reports
// @Produce json
// @Param umbral_congestion query number false "Congestion threshold pct"
// @Param umbral_acumulacion query number false "Accumulation threshold hours"
// @Success 200 {object} service.R11Result
// @Router /api/reports/r11 [get]
func (h *Handler) ReportR11(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	umbralCongestion, ok := floatParam(c, "umbral_congestion")
	if !ok {
		return
	}
	umbralAcumulacion, ok := floatParam(c, "umbral_acumulacion")
	if !ok {
		return
	}
	f := service.R11Filters{
		DateRange:              rng,
		UmbralCongestion:       umbralCongestion,
		UmbralAcumulacionHoras: umbralAcumulacion,
	}
	result, err := h.Reports.GenerateR11(c.Request.Context(), f)
	h.writeReport(c, result, err)
}

type AlertScanRequest struct {
	Desde             *string  `json:"desde"`
	Hasta             *string  `json:"hasta"`
	UmbralCongestion  *float64 `json:"umbral_congestion" validate:"omitempty,gte=0,lte=100"`
	UmbralAcumulacion *float64 `json:"umbral_acumulacion" validate:"omitempty,gte=0"`
}

// AlertScan triggers the early-warning detectors on demand, the polling
// entry point schedulers call.
func (h *Handler) AlertScan(c *gin.Context) {
	var req AlertScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	var f service.R11Filters
	if req.Desde != nil {
		t, err := parseTime(*req.Desde)
		if err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "desde must be RFC3339 or YYYY-MM-DD", *req.Desde)
			return
		}
		f.Desde = t
	}
	if req.Hasta != nil {
		t, err := parseTime(*req.Hasta)
		if err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "hasta must be RFC3339 or YYYY-MM-DD", *req.Hasta)
			return
		}
		f.Hasta = t
	}
	if req.UmbralCongestion != nil {
		f.UmbralCongestion = *req.UmbralCongestion
	}
	if req.UmbralAcumulacion != nil {
		f.UmbralAcumulacionHoras = *req.UmbralAcumulacion
	}

	result, err := h.Reports.GenerateR11(c.Request.Context(), f)
	h.writeReport(c, result, err)
}

func (h *Handler) ReportR12(c *gin.Context) {
	rng, ok := h.rangeFilter(c, false)
	if !ok {
		return
	}
	result, err := h.Reports.GenerateR12(c.Request.Context(), service.R12Filters{DateRange: rng})
	h.writeReport(c, result, err)
}

func (h *Handler) writeReport(c *gin.Context, result any, err error) {
	if err != nil {
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("report generation failed")
		writeError(c, http.StatusInternalServerError, "REPORT_ERROR", "Report generation failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) rangeFilter(c *gin.Context, required bool) (service.DateRange, bool) {
	desde, hasta, ok := h.dateRangeParams(c)
	if !ok {
		return service.DateRange{}, false
	}
	if required && (desde == nil || hasta == nil) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "desde and hasta are required", nil)
		return service.DateRange{}, false
	}

	var rng service.DateRange
	if desde != nil {
		rng.Desde = *desde
	}
	if hasta != nil {
		rng.Hasta = *hasta
	}
	return rng, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a non-negative integer", raw)
		return 0, false
	}
	return v, true
}

func floatParam(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a non-negative number", raw)
		return 0, false
	}
	return v, true
}

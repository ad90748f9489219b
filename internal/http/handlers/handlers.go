package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/portops/backend/internal/db"
	"github.com/portops/backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Reports   *service.Service
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary List vessel calls
// @Tags vessel-calls
// @Produce json
// @Param desde query string false "RFC3339 or YYYY-MM-DD"
// @Param hasta query string false "RFC3339 or YYYY-MM-DD"
// @Param berth_id query int false "Berth filter"
// @Success 200 {object} map[string]any
// @Router /api/vessel-calls [get]
func (h *Handler) VesselCallsList(c *gin.Context) {
	desde, hasta, ok := h.dateRangeParams(c)
	if !ok {
		return
	}
	berthID, ok := int64PtrParam(c, "berth_id")
	if !ok {
		return
	}
	items, err := h.Store.ListVesselCalls(c.Request.Context(), desde, hasta, berthID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list vessel calls", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) VesselCallDetails(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	call, err := h.Store.GetVesselCall(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Vessel call not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get vessel call", err.Error())
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h *Handler) AppointmentsList(c *gin.Context) {
	desde, hasta, ok := h.dateRangeParams(c)
	if !ok {
		return
	}
	viewer := viewerFrom(c)
	companies, scoped := service.ScopeCompanies(viewer, companyIDsParam(c))
	if !scoped {
		c.JSON(http.StatusOK, gin.H{"items": []any{}})
		return
	}
	items, err := h.Store.ListAppointments(c.Request.Context(), desde, hasta, companies)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list appointments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) GateEventsList(c *gin.Context) {
	desde, hasta, ok := h.dateRangeParams(c)
	if !ok {
		return
	}
	gateID, ok := int64PtrParam(c, "gate_id")
	if !ok {
		return
	}
	items, err := h.Store.ListGateEvents(c.Request.Context(), desde, hasta, gateID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list gate events", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) TramitesList(c *gin.Context) {
	desde, hasta, ok := h.dateRangeParams(c)
	if !ok {
		return
	}
	entidadID, ok := int64PtrParam(c, "entidad_id")
	if !ok {
		return
	}
	items, err := h.Store.ListTramites(c.Request.Context(), desde, hasta, strings.TrimSpace(c.Query("regimen")), entidadID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tramites", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) TramiteDetails(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	tramite, err := h.Store.GetTramite(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Tramite not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get tramite", err.Error())
		return
	}
	c.JSON(http.StatusOK, tramite)
}

func (h *Handler) AlertsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	items, err := h.Store.ListAlerts(c.Request.Context(), strings.TrimSpace(c.Query("estado")), strings.TrimSpace(c.Query("nivel")), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list alerts", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) AlertAck(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Store.AckAlert(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Alert not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to acknowledge alert", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) BerthsList(c *gin.Context) {
	items, err := h.Store.ListBerths(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list berths", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) CompaniesList(c *gin.Context) {
	items, err := h.Store.ListCompanies(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list companies", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// KPI primitive endpoints. A missing metric (entity exists but the needed
// timestamps are not recorded yet) responds with a null value, not an
// error.

func (h *Handler) KpiTurnaround(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	value, err := h.Reports.TurnaroundByID(c.Request.Context(), id)
	h.writeKpi(c, "turnaround_horas", value, err, "Vessel call not found")
}

func (h *Handler) KpiWaitingTime(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	value, err := h.Reports.WaitingTimeByID(c.Request.Context(), id)
	h.writeKpi(c, "espera_horas", value, err, "Appointment not found")
}

func (h *Handler) KpiCompliance(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	compliance, err := h.Reports.ComplianceByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to compute compliance", err.Error())
		return
	}
	c.JSON(http.StatusOK, compliance)
}

func (h *Handler) KpiCustomsLeadTime(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	value, err := h.Reports.CustomsLeadTimeByID(c.Request.Context(), id)
	h.writeKpi(c, "despacho_horas", value, err, "Tramite not found")
}

func (h *Handler) writeKpi(c *gin.Context, name string, value *float64, err error, notFoundMsg string) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", notFoundMsg, nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to compute KPI", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{name: value})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func (h *Handler) dateRangeParams(c *gin.Context) (*time.Time, *time.Time, bool) {
	desde, ok := timePtrParam(c, "desde")
	if !ok {
		return nil, nil, false
	}
	hasta, ok := timePtrParam(c, "hasta")
	if !ok {
		return nil, nil, false
	}
	if desde != nil && hasta != nil && hasta.Before(*desde) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "hasta must not precede desde", nil)
		return nil, nil, false
	}
	return desde, hasta, true
}

func timePtrParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := parseTime(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be RFC3339 or YYYY-MM-DD", raw)
		return nil, false
	}
	return &t, true
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func int64PtrParam(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be an integer", raw)
		return nil, false
	}
	return &id, true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "id must be an integer", c.Param("id"))
		return 0, false
	}
	return id, true
}

func companyIDsParam(c *gin.Context) []int64 {
	var out []int64
	for _, part := range strings.Split(c.Query("company_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

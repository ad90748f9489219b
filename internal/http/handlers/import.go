package handlers

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/portops/backend/internal/models"
)

type ImportSummary struct {
	VesselCalls struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"vessel_calls"`
	Appointments struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"appointments"`
	GateEvents struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"gate_events"`
	Errors []string `json:"errors"`
}

// @Summary Import CSV seed data
// @Description Upload vessel_calls, appointments, and gate_events CSV files
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param vessel_calls formData file true "vessel_calls.csv"
// @Param appointments formData file true "appointments.csv"
// @Param gate_events formData file true "gate_events.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	callsFile, err := c.FormFile("vessel_calls")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "vessel_calls file required", nil)
		return
	}
	apptsFile, err := c.FormFile("appointments")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "appointments file required", nil)
		return
	}
	eventsFile, err := c.FormFile("gate_events")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "gate_events file required", nil)
		return
	}
	if !validateExt(callsFile.Filename) || !validateExt(apptsFile.Filename) || !validateExt(eventsFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}

	calls, errs := parseVesselCallsCSV(callsFile)
	summary.VesselCalls.Parsed = len(calls)
	summary.VesselCalls.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	appts, errs := parseAppointmentsCSV(apptsFile)
	summary.Appointments.Parsed = len(appts)
	summary.Appointments.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	events, errs := parseGateEventsCSV(eventsFile)
	summary.GateEvents.Parsed = len(events)
	summary.GateEvents.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	ctx := c.Request.Context()
	inserted, err := h.Store.InsertVesselCalls(ctx, calls)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert vessel calls", err.Error())
		return
	}
	summary.VesselCalls.Inserted = int(inserted)

	inserted, err = h.Store.InsertAppointments(ctx, appts)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert appointments", err.Error())
		return
	}
	summary.Appointments.Inserted = int(inserted)

	inserted, err = h.Store.InsertGateEvents(ctx, events)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert gate events", err.Error())
		return
	}
	summary.GateEvents.Inserted = int(inserted)

	c.JSON(http.StatusOK, summary)
}

func validateExt(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

func parseVesselCallsCSV(file *multipart.FileHeader) ([]models.VesselCall, []string) {
	return parseCSV(file, func(get func(string) string) (models.VesselCall, error) {
		vesselID, err := parseID(get("vessel_id"))
		if err != nil {
			return models.VesselCall{}, err
		}
		berthID, err := parseOptionalID(get("berth_id"))
		if err != nil {
			return models.VesselCall{}, err
		}
		c := models.VesselCall{VesselID: vesselID, BerthID: berthID}
		for _, field := range []struct {
			name string
			dst  **time.Time
		}{
			{"eta", &c.ETA}, {"etb", &c.ETB}, {"ata", &c.ATA}, {"atb", &c.ATB}, {"atd", &c.ATD},
		} {
			ts, err := parseOptionalTime(get(field.name))
			if err != nil {
				return models.VesselCall{}, err
			}
			*field.dst = ts
		}
		return c, nil
	})
}

func parseAppointmentsCSV(file *multipart.FileHeader) ([]models.Appointment, []string) {
	return parseCSV(file, func(get func(string) string) (models.Appointment, error) {
		truckID, err := parseID(get("truck_id"))
		if err != nil {
			return models.Appointment{}, err
		}
		companyID, err := parseID(get("company_id"))
		if err != nil {
			return models.Appointment{}, err
		}
		vesselCallID, err := parseOptionalID(get("vessel_call_id"))
		if err != nil {
			return models.Appointment{}, err
		}
		programada, err := parseTime(get("hora_programada"))
		if err != nil {
			return models.Appointment{}, err
		}
		llegada, err := parseOptionalTime(get("hora_llegada"))
		if err != nil {
			return models.Appointment{}, err
		}
		estado := strings.ToUpper(strings.TrimSpace(get("estado")))
		if estado == "" {
			estado = models.EstadoProgramada
		}
		return models.Appointment{
			TruckID:        truckID,
			CompanyID:      companyID,
			VesselCallID:   vesselCallID,
			HoraProgramada: programada,
			HoraLlegada:    llegada,
			Estado:         estado,
		}, nil
	})
}

func parseGateEventsCSV(file *multipart.FileHeader) ([]models.GateEvent, []string) {
	return parseCSV(file, func(get func(string) string) (models.GateEvent, error) {
		gateID, err := parseID(get("gate_id"))
		if err != nil {
			return models.GateEvent{}, err
		}
		truckID, err := parseID(get("truck_id"))
		if err != nil {
			return models.GateEvent{}, err
		}
		appointmentID, err := parseOptionalID(get("appointment_id"))
		if err != nil {
			return models.GateEvent{}, err
		}
		ts, err := parseTime(get("event_ts"))
		if err != nil {
			return models.GateEvent{}, err
		}
		accion := strings.ToUpper(strings.TrimSpace(get("accion")))
		if accion != models.AccionEntrada && accion != models.AccionSalida {
			return models.GateEvent{}, errInvalidAccion
		}
		return models.GateEvent{
			GateID:        gateID,
			TruckID:       truckID,
			AppointmentID: appointmentID,
			Accion:        accion,
			EventTS:       ts,
		}, nil
	})
}

func parseCSV[T any](file *multipart.FileHeader, build func(get func(string) string) (T, error)) ([]T, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := map[string]int{}
	for i, hdr := range headers {
		index[strings.ToLower(strings.TrimSpace(hdr))] = i
	}

	var out []T
	var errs []string
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		get := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		item, err := build(get)
		if err != nil {
			errs = append(errs, file.Filename+" line "+strconv.Itoa(line)+": "+err.Error())
			continue
		}
		out = append(out, item)
	}
	return out, errs
}

var errInvalidAccion = errInvalid("accion must be ENTRADA or SALIDA")

type errInvalid string

func (e errInvalid) Error() string { return string(e) }

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalid("invalid id value")
	}
	return id, nil
}

func parseOptionalID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

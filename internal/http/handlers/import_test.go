package handlers

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/portops/backend/internal/models"
)

func TestParseVesselCallsCSV(t *testing.T) {
	content := "vessel_id,berth_id,eta,etb,ata,atb,atd\n" +
		"1,2,2025-01-01T06:00:00Z,2025-01-01T08:00:00Z,2025-01-01T06:30:00Z,2025-01-01T08:15:00Z,\n" +
		"3,,2025-01-02T10:00:00Z,,,,\n"
	fh := makeMultipartFile(t, "vessel_calls", "vessel_calls.csv", content)

	calls, errs := parseVesselCallsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].VesselID != 1 || calls[0].BerthID == nil || *calls[0].BerthID != 2 {
		t.Fatalf("unexpected first call: %+v", calls[0])
	}
	if calls[0].ATD != nil {
		t.Fatalf("empty atd must parse as nil")
	}
	if calls[1].BerthID != nil {
		t.Fatalf("empty berth_id must parse as nil")
	}
}

func TestParseVesselCallsCSVBadRow(t *testing.T) {
	content := "vessel_id,eta\nnot-a-number,2025-01-01T06:00:00Z\n2,2025-01-02T06:00:00Z\n"
	fh := makeMultipartFile(t, "vessel_calls", "vessel_calls.csv", content)

	calls, errs := parseVesselCallsCSV(fh)
	if len(calls) != 1 {
		t.Fatalf("valid rows must survive a bad one, got %d", len(calls))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestParseAppointmentsCSVDefaultEstado(t *testing.T) {
	content := "truck_id,company_id,hora_programada,hora_llegada,estado\n" +
		"1,10,2025-01-01T08:00:00Z,2025-01-01T08:10:00Z,atendida\n" +
		"2,10,2025-01-01T09:00:00Z,,\n"
	fh := makeMultipartFile(t, "appointments", "appointments.csv", content)

	appts, errs := parseAppointmentsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if appts[0].Estado != models.EstadoAtendida {
		t.Fatalf("estado must be uppercased, got %s", appts[0].Estado)
	}
	if appts[1].Estado != models.EstadoProgramada {
		t.Fatalf("missing estado defaults to PROGRAMADA, got %s", appts[1].Estado)
	}
	if appts[1].HoraLlegada != nil {
		t.Fatalf("empty hora_llegada must parse as nil")
	}
}

func TestParseGateEventsCSVRejectsUnknownAccion(t *testing.T) {
	content := "gate_id,truck_id,appointment_id,accion,event_ts\n" +
		"1,100,5,ENTRADA,2025-01-01T08:00:00Z\n" +
		"1,100,,PARADA,2025-01-01T09:00:00Z\n"
	fh := makeMultipartFile(t, "gate_events", "gate_events.csv", content)

	events, errs := parseGateEventsCSV(fh)
	if len(events) != 1 {
		t.Fatalf("expected 1 valid event, got %d", len(events))
	}
	if events[0].AppointmentID == nil || *events[0].AppointmentID != 5 {
		t.Fatalf("appointment link lost: %+v", events[0])
	}
	if len(errs) != 1 {
		t.Fatalf("expected the unknown accion to be rejected, got %v", errs)
	}
}

func TestValidateExt(t *testing.T) {
	if !validateExt("data.csv") || !validateExt("DATA.CSV") {
		t.Fatalf("csv extensions must pass regardless of case")
	}
	if validateExt("data.xlsx") || validateExt("data") {
		t.Fatalf("non-csv extensions must fail")
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}

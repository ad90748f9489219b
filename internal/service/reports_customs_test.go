package service

import (
	"testing"
	"time"

	"github.com/portops/backend/internal/models"
)

func hoursDur(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func TestComputeR7BlockingAndPreArrival(t *testing.T) {
	ata := ts("2025-01-05T08:00:00Z")
	finAntes := ts("2025-01-04T20:00:00Z")
	finDespues := ts("2025-01-06T10:00:00Z")

	tramites := []models.Tramite{
		{ID: 1, VesselCallID: 1, VesselName: "A", Estado: models.TramiteAprobado, FechaInicio: ts("2025-01-03T08:00:00Z"), FechaFin: &finAntes, VesselATA: &ata},
		{ID: 2, VesselCallID: 1, VesselName: "A", Estado: models.TramiteAprobado, FechaInicio: ts("2025-01-04T08:00:00Z"), FechaFin: &finDespues, VesselATA: &ata},
		{ID: 3, VesselCallID: 1, VesselName: "A", Estado: models.TramiteObservado, FechaInicio: ts("2025-01-04T09:00:00Z")},
		{ID: 4, VesselCallID: 2, VesselName: "B", Estado: models.TramiteRechazado, FechaInicio: ts("2025-01-04T10:00:00Z")},
	}

	res := ComputeR7(tramites)
	if !res.Rows[2].BloqueaOperacion {
		t.Fatalf("OBSERVADO must block the operation")
	}
	if res.Rows[3].BloqueaOperacion {
		t.Fatalf("RECHAZADO is terminal, it does not block")
	}
	if !res.Rows[0].PreArribo {
		t.Fatalf("approval before vessel arrival is pre-arrival")
	}
	if res.Rows[1].PreArribo {
		t.Fatalf("approval after vessel arrival is not pre-arrival")
	}

	if len(res.PorNave) != 2 {
		t.Fatalf("expected 2 vessel summaries, got %d", len(res.PorNave))
	}
	naveA := res.PorNave[0]
	if naveA.Total != 3 || naveA.Aprobados != 2 || naveA.Bloqueantes != 1 {
		t.Fatalf("unexpected summary for vessel A: %+v", naveA)
	}

	// 1 of 2 approvals was pre-arrival.
	if got := res.KPIs["pct_pre_arribo"].(float64); got != 50 {
		t.Fatalf("expected 50%% pre-arrival, got %v", got)
	}
}

func aprobado(id int64, regimen string, horas float64) models.Tramite {
	inicio := ts("2025-01-01T00:00:00Z")
	fin := inicio.Add(hoursDur(horas))
	return models.Tramite{ID: id, Regimen: regimen, Estado: models.TramiteAprobado, FechaInicio: inicio, FechaFin: &fin}
}

func TestComputeR8PerRegimen(t *testing.T) {
	tramites := []models.Tramite{
		aprobado(1, "IMPORTACION", 10),
		aprobado(2, "IMPORTACION", 20),
		aprobado(3, "IMPORTACION", 30),
		aprobado(4, "IMPORTACION", 40),
		aprobado(5, "EXPORTACION", 50),
		// Still in review: not a dispatch sample.
		{ID: 6, Regimen: "IMPORTACION", Estado: models.TramiteEnRevision, FechaInicio: ts("2025-01-01T00:00:00Z")},
	}

	res := ComputeR8(tramites, 24)
	if len(res.PorRegimen) != 2 {
		t.Fatalf("expected 2 regimenes, got %d", len(res.PorRegimen))
	}

	// Sorted alphabetically: EXPORTACION first.
	exp := res.PorRegimen[0]
	if exp.Regimen != "EXPORTACION" || exp.Total != 1 || exp.P50 != 50 {
		t.Fatalf("unexpected EXPORTACION stats: %+v", exp)
	}

	imp := res.PorRegimen[1]
	if imp.P50 != 25 {
		t.Fatalf("expected IMPORTACION p50 of 25, got %v", imp.P50)
	}
	if imp.P90 != 37 {
		t.Fatalf("expected IMPORTACION p90 of 37, got %v", imp.P90)
	}
	if imp.PctExcede != 50 {
		t.Fatalf("expected 50%% above threshold, got %v", imp.PctExcede)
	}

	if got := res.KPIs["total_aprobados"].(int); got != 5 {
		t.Fatalf("expected 5 dispatch samples, got %d", got)
	}
}

func TestComputeR8Empty(t *testing.T) {
	res := ComputeR8(nil, 24)
	if got := res.KPIs["p50_global"].(float64); got != 0 {
		t.Fatalf("empty input must yield p50 of 0, got %v", got)
	}
	if got := res.KPIs["pct_excede_umbral"].(float64); got != 0 {
		t.Fatalf("expected 0%% exceeding, got %v", got)
	}
}

func ev(estado, when string) models.TramiteEvent {
	return models.TramiteEvent{Estado: estado, EventTS: ts(when)}
}

func TestScanEventLog(t *testing.T) {
	events := []models.TramiteEvent{
		ev(models.TramiteIniciado, "2025-01-01T08:00:00Z"),
		ev(models.TramiteObservado, "2025-01-01T10:00:00Z"),
		// Back to review 4h later: a rework cycle, and the 4h gap is the
		// observation's remediation time.
		ev(models.TramiteEnRevision, "2025-01-01T14:00:00Z"),
		ev(models.TramiteObservado, "2025-01-01T16:00:00Z"),
		ev(models.TramiteAprobado, "2025-01-01T22:00:00Z"),
	}

	obs, retrabajo, remediacion := scanEventLog(events)
	if obs != 2 {
		t.Fatalf("expected 2 observations, got %d", obs)
	}
	if !retrabajo {
		t.Fatalf("OBSERVADO followed by EN_REVISION is rework")
	}
	if remediacion == nil || *remediacion != 5 {
		t.Fatalf("expected mean remediation of 5h, got %v", remediacion)
	}
}

func TestScanEventLogUnresolvedObservation(t *testing.T) {
	events := []models.TramiteEvent{
		ev(models.TramiteIniciado, "2025-01-01T08:00:00Z"),
		ev(models.TramiteObservado, "2025-01-01T10:00:00Z"),
	}

	obs, retrabajo, remediacion := scanEventLog(events)
	if obs != 1 || retrabajo {
		t.Fatalf("expected single observation without rework, got %d/%v", obs, retrabajo)
	}
	if remediacion != nil {
		t.Fatalf("an open observation has no remediation time, got %v", *remediacion)
	}
}

func TestScanEventLogConsecutiveObservations(t *testing.T) {
	events := []models.TramiteEvent{
		ev(models.TramiteObservado, "2025-01-01T08:00:00Z"),
		ev(models.TramiteObservado, "2025-01-01T10:00:00Z"),
		ev(models.TramiteAprobado, "2025-01-01T12:00:00Z"),
	}

	obs, _, remediacion := scanEventLog(events)
	if obs != 2 {
		t.Fatalf("expected 2 observations, got %d", obs)
	}
	// Gaps of 4h and 2h, both resolved by the same approval.
	if remediacion == nil || *remediacion != 3 {
		t.Fatalf("expected mean remediation of 3h, got %v", remediacion)
	}
}

func TestComputeR9Aggregation(t *testing.T) {
	fin := ts("2025-01-02T00:00:00Z")
	tramites := []models.Tramite{
		{
			ID: 1, EntidadID: 1, EntidadName: "ADUANA", Regimen: "IMPORTACION",
			Estado: models.TramiteAprobado, FechaInicio: ts("2025-01-01T00:00:00Z"), FechaFin: &fin,
			Events: []models.TramiteEvent{
				ev(models.TramiteIniciado, "2025-01-01T00:00:00Z"),
				ev(models.TramiteObservado, "2025-01-01T04:00:00Z"),
				ev(models.TramiteEnRevision, "2025-01-01T08:00:00Z"),
				ev(models.TramiteAprobado, "2025-01-02T00:00:00Z"),
			},
		},
		{
			ID: 2, EntidadID: 1, EntidadName: "ADUANA", Regimen: "EXPORTACION",
			Estado: models.TramiteEnRevision, FechaInicio: ts("2025-01-01T00:00:00Z"),
			Events: []models.TramiteEvent{
				ev(models.TramiteIniciado, "2025-01-01T00:00:00Z"),
				ev(models.TramiteEnRevision, "2025-01-01T02:00:00Z"),
			},
		},
	}

	res := ComputeR9(tramites)
	if len(res.PorEntidad) != 1 {
		t.Fatalf("expected a single entidad summary")
	}
	e := res.PorEntidad[0]
	if e.Tramites != 2 || e.Observaciones != 1 || e.ConRetrabajo != 1 {
		t.Fatalf("unexpected entidad summary: %+v", e)
	}
	if got := res.KPIs["pct_con_retrabajo"].(float64); got != 50 {
		t.Fatalf("expected 50%% rework, got %v", got)
	}
	if got := res.KPIs["remediacion_promedio_h"].(float64); got != 4 {
		t.Fatalf("expected 4h mean remediation, got %v", got)
	}
}

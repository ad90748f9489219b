package service

import (
	"testing"
	"time"

	"github.com/portops/backend/internal/models"
)

func TestComputeR4Waits(t *testing.T) {
	appts := []models.Appointment{
		{ID: 1, CompanyID: 10, TruckID: 100, HoraLlegada: tsPtr("2025-01-01T08:00:00Z")},
		{ID: 2, CompanyID: 10, TruckID: 101, HoraLlegada: tsPtr("2025-01-01T09:00:00Z")},
		// Never arrived, never entered.
		{ID: 3, CompanyID: 11, TruckID: 102},
	}
	events := []models.GateEvent{
		{ID: 1, TruckID: 100, AppointmentID: int64Ptr(1), Accion: models.AccionEntrada, EventTS: ts("2025-01-01T10:00:00Z")},
		// 7h wait, above the critical threshold.
		{ID: 2, TruckID: 101, AppointmentID: int64Ptr(2), Accion: models.AccionEntrada, EventTS: ts("2025-01-01T16:00:00Z")},
	}

	res := ComputeR4(appts, events)
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	if res.Rows[0].EsperaHoras == nil || *res.Rows[0].EsperaHoras != 2 {
		t.Fatalf("expected 2h wait, got %v", res.Rows[0].EsperaHoras)
	}
	if res.Rows[2].EsperaHoras != nil {
		t.Fatalf("appointment without arrival has no wait")
	}
	if got := res.KPIs["citas_con_espera"].(int); got != 2 {
		t.Fatalf("expected 2 measured waits, got %d", got)
	}
	if got := res.KPIs["espera_promedio_h"].(float64); got != 4.5 {
		t.Fatalf("expected 4.5h mean wait, got %v", got)
	}
	if got := res.KPIs["pct_espera_mayor_6h"].(float64); got != 50 {
		t.Fatalf("expected 50%% critical waits, got %v", got)
	}
}

func TestCorrelateEntradasFallback(t *testing.T) {
	appts := []models.Appointment{
		{ID: 1, TruckID: 100, HoraLlegada: tsPtr("2025-01-01T08:00:00Z")},
	}
	events := []models.GateEvent{
		// Earlier entry by the same truck for a previous visit: must not match.
		{ID: 1, TruckID: 100, Accion: models.AccionEntrada, EventTS: ts("2025-01-01T06:00:00Z")},
		{ID: 2, TruckID: 100, Accion: models.AccionEntrada, EventTS: ts("2025-01-01T08:30:00Z")},
		{ID: 3, TruckID: 100, Accion: models.AccionSalida, EventTS: ts("2025-01-01T09:00:00Z")},
	}

	got := correlateEntradas(appts, events)
	e, ok := got[1]
	if !ok {
		t.Fatalf("expected a fallback match by truck")
	}
	if e.ID != 2 {
		t.Fatalf("expected first entry at or after arrival, got event %d", e.ID)
	}
}

func TestCorrelateEntradasPrefersExplicitLink(t *testing.T) {
	appts := []models.Appointment{
		{ID: 1, TruckID: 100, HoraLlegada: tsPtr("2025-01-01T08:00:00Z")},
	}
	events := []models.GateEvent{
		{ID: 1, TruckID: 100, Accion: models.AccionEntrada, EventTS: ts("2025-01-01T08:10:00Z")},
		{ID: 2, TruckID: 100, AppointmentID: int64Ptr(1), Accion: models.AccionEntrada, EventTS: ts("2025-01-01T08:45:00Z")},
	}

	got := correlateEntradas(appts, events)
	if got[1].ID != 2 {
		t.Fatalf("explicit appointment link must win over truck fallback, got event %d", got[1].ID)
	}
}

func TestComputeR5RankingHiddenForCarriers(t *testing.T) {
	appts := []models.Appointment{
		{ID: 1, CompanyID: 10, CompanyName: "Acme", HoraProgramada: ts("2025-01-01T08:00:00Z"), HoraLlegada: tsPtr("2025-01-01T08:05:00Z"), Estado: models.EstadoAtendida},
		{ID: 2, CompanyID: 11, CompanyName: "Beta", HoraProgramada: ts("2025-01-01T09:00:00Z"), HoraLlegada: tsPtr("2025-01-01T10:00:00Z"), Estado: models.EstadoAtendida},
	}

	res := ComputeR5(appts, Viewer{Role: RoleTransportista, CompanyIDs: []int64{10}})
	if res.Ranking != nil {
		t.Fatalf("carriers must not see the company ranking")
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows must still be produced")
	}
}

func TestComputeR5RankingOrder(t *testing.T) {
	appts := []models.Appointment{
		{ID: 1, CompanyID: 10, CompanyName: "Acme", HoraProgramada: ts("2025-01-01T08:00:00Z"), HoraLlegada: tsPtr("2025-01-01T08:05:00Z"), Estado: models.EstadoAtendida},
		{ID: 2, CompanyID: 10, CompanyName: "Acme", HoraProgramada: ts("2025-01-01T09:00:00Z"), HoraLlegada: tsPtr("2025-01-01T10:00:00Z"), Estado: models.EstadoAtendida},
		{ID: 3, CompanyID: 11, CompanyName: "Beta", HoraProgramada: ts("2025-01-01T09:00:00Z"), HoraLlegada: tsPtr("2025-01-01T09:10:00Z"), Estado: models.EstadoAtendida},
		{ID: 4, CompanyID: 12, CompanyName: "Gamma", HoraProgramada: ts("2025-01-01T11:00:00Z"), Estado: models.EstadoConfirmada},
	}

	res := ComputeR5(appts, Viewer{Role: RoleAnalista})
	if len(res.Ranking) != 3 {
		t.Fatalf("expected 3 companies ranked, got %d", len(res.Ranking))
	}
	if res.Ranking[0].CompanyName != "Beta" || res.Ranking[0].PctATiempo != 100 {
		t.Fatalf("expected Beta first at 100%%, got %s %v", res.Ranking[0].CompanyName, res.Ranking[0].PctATiempo)
	}
	if res.Ranking[1].CompanyName != "Acme" || res.Ranking[1].PctATiempo != 50 {
		t.Fatalf("expected Acme second at 50%%, got %s %v", res.Ranking[1].CompanyName, res.Ranking[1].PctATiempo)
	}
	if res.Ranking[2].CompanyName != "Gamma" {
		t.Fatalf("expected Gamma last, got %s", res.Ranking[2].CompanyName)
	}

	if got := res.KPIs["pct_no_show"].(float64); got != 25 {
		t.Fatalf("expected 25%% no-show, got %v", got)
	}
}

func TestComputeR6CyclesAndUnmatched(t *testing.T) {
	events := []models.GateEvent{
		// Truck 100: clean 30min cycle.
		{ID: 1, GateID: 1, GateName: "Gate A", TruckID: 100, Accion: models.AccionEntrada, EventTS: ts("2025-01-01T08:00:00Z")},
		{ID: 2, GateID: 1, GateName: "Gate A", TruckID: 100, Accion: models.AccionSalida, EventTS: ts("2025-01-01T08:30:00Z")},
		// Truck 101: double ENTRADA, then SALIDA. The first entry is unmatched.
		{ID: 3, GateID: 1, GateName: "Gate A", TruckID: 101, Accion: models.AccionEntrada, EventTS: ts("2025-01-01T09:00:00Z")},
		{ID: 4, GateID: 1, GateName: "Gate A", TruckID: 101, Accion: models.AccionEntrada, EventTS: ts("2025-01-01T10:00:00Z")},
		{ID: 5, GateID: 1, GateName: "Gate A", TruckID: 101, Accion: models.AccionSalida, EventTS: ts("2025-01-01T10:45:00Z")},
		// Truck 102: trailing open ENTRADA.
		{ID: 6, GateID: 1, GateName: "Gate A", TruckID: 102, Accion: models.AccionEntrada, EventTS: ts("2025-01-01T11:00:00Z")},
	}

	res := ComputeR6(events, 10)
	if len(res.PorGate) != 1 {
		t.Fatalf("expected one gate summary, got %d", len(res.PorGate))
	}
	g := res.PorGate[0]
	if g.Ciclos != 2 {
		t.Fatalf("expected 2 completed cycles, got %d", g.Ciclos)
	}
	if g.EntradasSinSalida != 2 {
		t.Fatalf("expected 2 unmatched entries, got %d", g.EntradasSinSalida)
	}
	if g.CicloPromedioMin != 37.5 {
		t.Fatalf("expected 37.5min mean cycle, got %v", g.CicloPromedioMin)
	}
	if got := res.KPIs["entradas_sin_salida"].(int); got != 2 {
		t.Fatalf("expected 2 unmatched entries total, got %d", got)
	}
}

func TestComputeR6PeakHours(t *testing.T) {
	var events []models.GateEvent
	// 5 entries at hour 08 against a theoretical capacity of 5: above the
	// 80% mark, so hour 8 is a peak.
	for i := 0; i < 5; i++ {
		events = append(events, models.GateEvent{
			ID: int64(i + 1), GateID: 2, GateName: "Gate B", TruckID: int64(200 + i),
			Accion: models.AccionEntrada, EventTS: ts("2025-01-01T08:15:00Z").Add(time.Duration(i) * time.Minute),
		})
	}
	// A single entry at hour 14 stays below it.
	events = append(events, models.GateEvent{
		ID: 99, GateID: 2, GateName: "Gate B", TruckID: 300,
		Accion: models.AccionEntrada, EventTS: ts("2025-01-01T14:00:00Z"),
	})

	res := ComputeR6(events, 5)
	g := res.PorGate[0]
	if len(g.HorasPico) != 1 || g.HorasPico[0] != 8 {
		t.Fatalf("expected hour 8 as the only peak, got %v", g.HorasPico)
	}
}

func TestComputeR6Empty(t *testing.T) {
	res := ComputeR6(nil, 10)
	if len(res.PorGate) != 0 || len(res.PorHora) != 0 {
		t.Fatalf("expected empty aggregations")
	}
	if got := res.KPIs["ciclo_promedio_min"].(float64); got != 0 {
		t.Fatalf("expected 0 mean cycle, got %v", got)
	}
}

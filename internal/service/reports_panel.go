package service

import (
	"context"
	"math"
	"time"

	"github.com/portops/backend/internal/models"
)

type R10Filters struct {
	// Hasta closes the current window; zero means now. Dias is the
	// window length, compared against the equal-length window before it.
	Hasta time.Time
	Dias  int

	MetaTurnaroundHoras float64
	MetaEsperaHoras     float64
	MetaCumplimientoPct float64
	MetaAprobacionPct   float64
}

const (
	TendenciaMejora  = "MEJORA"
	TendenciaEmpeora = "EMPEORA"
	TendenciaEstable = "ESTABLE"
)

type PanelKPI struct {
	Nombre     string  `json:"nombre"`
	Actual     float64 `json:"actual"`
	Anterior   float64 `json:"anterior"`
	Tendencia  string  `json:"tendencia"`
	Meta       float64 `json:"meta"`
	CumpleMeta bool    `json:"cumple_meta"`
	MejorMenor bool    `json:"mejor_menor"`
}

type R10Result struct {
	Panel []PanelKPI     `json:"panel"`
	KPIs  map[string]any `json:"kpis"`
}

// windowStats are the four consolidated KPIs of one period.
type windowStats struct {
	TurnaroundH     float64
	EsperaH         float64
	CumplimientoPct float64
	AprobacionPct   float64
}

func (s *Service) GenerateR10(ctx context.Context, f R10Filters) (R10Result, error) {
	if f.Hasta.IsZero() {
		f.Hasta = time.Now().UTC()
	}
	if f.Dias <= 0 {
		f.Dias = 30
	}
	if f.MetaTurnaroundHoras <= 0 {
		f.MetaTurnaroundHoras = 48
	}
	if f.MetaEsperaHoras <= 0 {
		f.MetaEsperaHoras = 2
	}
	if f.MetaCumplimientoPct <= 0 {
		f.MetaCumplimientoPct = 80
	}
	if f.MetaAprobacionPct <= 0 {
		f.MetaAprobacionPct = 90
	}

	span := time.Duration(f.Dias) * 24 * time.Hour
	medio := f.Hasta.Add(-span)
	inicio := medio.Add(-span)

	actual, err := s.windowStats(ctx, medio, f.Hasta)
	if err != nil {
		return R10Result{}, err
	}
	anterior, err := s.windowStats(ctx, inicio, medio)
	if err != nil {
		return R10Result{}, err
	}
	return ComputeR10(actual, anterior, f), nil
}

func (s *Service) windowStats(ctx context.Context, desde, hasta time.Time) (windowStats, error) {
	calls, err := s.Store.ListVesselCalls(ctx, &desde, &hasta, nil)
	if err != nil {
		return windowStats{}, err
	}
	appts, err := s.Store.ListAppointments(ctx, &desde, &hasta, nil)
	if err != nil {
		return windowStats{}, err
	}
	events, err := s.Store.ListGateEvents(ctx, &desde, nil, nil)
	if err != nil {
		return windowStats{}, err
	}
	tramites, err := s.Store.ListTramites(ctx, &desde, &hasta, "", nil)
	if err != nil {
		return windowStats{}, err
	}
	return computeWindowStats(calls, appts, events, tramites), nil
}

func computeWindowStats(calls []models.VesselCall, appts []models.Appointment, events []models.GateEvent, tramites []models.Tramite) windowStats {
	var turnarounds []float64
	for _, c := range calls {
		if t := TurnaroundHours(c); t != nil {
			turnarounds = append(turnarounds, *t)
		}
	}

	entradas := correlateEntradas(appts, events)
	var esperas []float64
	aTiempo := 0
	for _, a := range appts {
		if e, ok := entradas[a.ID]; ok {
			if w := WaitingHours(a, &e.EventTS); w != nil {
				esperas = append(esperas, *w)
			}
		}
		if ClassifyAppointment(a).Clasificacion == ClasificacionATiempo {
			aTiempo++
		}
	}

	aprobados := 0
	for _, t := range tramites {
		if t.Estado == models.TramiteAprobado {
			aprobados++
		}
	}

	return windowStats{
		TurnaroundH:     round2(mean(turnarounds)),
		EsperaH:         round2(mean(esperas)),
		CumplimientoPct: pct(aTiempo, len(appts)),
		AprobacionPct:   pct(aprobados, len(tramites)),
	}
}

// ComputeR10 lines up the current window against the prior one. Direction
// of improvement is KPI-specific: port time and truck wait should fall,
// compliance and approval should rise.
func ComputeR10(actual, anterior windowStats, f R10Filters) R10Result {
	panel := []PanelKPI{
		buildPanelKPI("turnaround_promedio_h", actual.TurnaroundH, anterior.TurnaroundH, f.MetaTurnaroundHoras, true),
		buildPanelKPI("espera_camion_promedio_h", actual.EsperaH, anterior.EsperaH, f.MetaEsperaHoras, true),
		buildPanelKPI("cumplimiento_citas_pct", actual.CumplimientoPct, anterior.CumplimientoPct, f.MetaCumplimientoPct, false),
		buildPanelKPI("aprobacion_tramites_pct", actual.AprobacionPct, anterior.AprobacionPct, f.MetaAprobacionPct, false),
	}

	cumplen := 0
	for _, k := range panel {
		if k.CumpleMeta {
			cumplen++
		}
	}
	return R10Result{
		Panel: panel,
		KPIs: map[string]any{
			"kpis_en_meta": cumplen,
			"kpis_totales": len(panel),
			"pct_en_meta":  pct(cumplen, len(panel)),
			"periodo_dias": f.Dias,
			"fin_periodo":  f.Hasta,
		},
	}
}

func buildPanelKPI(nombre string, actual, anterior, meta float64, mejorMenor bool) PanelKPI {
	k := PanelKPI{
		Nombre:     nombre,
		Actual:     actual,
		Anterior:   anterior,
		Meta:       meta,
		MejorMenor: mejorMenor,
	}

	delta := actual - anterior
	switch {
	case math.Abs(delta) < 0.01:
		k.Tendencia = TendenciaEstable
	case (delta < 0) == mejorMenor:
		k.Tendencia = TendenciaMejora
	default:
		k.Tendencia = TendenciaEmpeora
	}

	if mejorMenor {
		k.CumpleMeta = actual <= meta
	} else {
		k.CumpleMeta = actual >= meta
	}
	return k
}

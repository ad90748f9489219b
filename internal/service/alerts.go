package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/portops/backend/internal/models"
	"github.com/portops/backend/internal/notify"
)

const (
	TipoCongestion  = "CONGESTION_AMARRE"
	TipoAcumulacion = "ACUMULACION_CAMIONES"
)

type R11Filters struct {
	DateRange
	UmbralCongestion       float64
	UmbralAcumulacionHoras float64
	// Ahora anchors "currently berthed"; zero means wall-clock now.
	Ahora time.Time
}

type Detection struct {
	AlertID    string  `json:"alert_id"`
	Tipo       string  `json:"tipo"`
	Nivel      string  `json:"nivel"`
	EntityType string  `json:"entity_type"`
	EntityID   int64   `json:"entity_id"`
	EntityName string  `json:"entity_name"`
	Valor      float64 `json:"valor"`
	Umbral     float64 `json:"umbral"`
}

type R11Result struct {
	Congestion  []Detection    `json:"congestion"`
	Acumulacion []Detection    `json:"acumulacion"`
	Notificado  bool           `json:"notificado"`
	KPIs        map[string]any `json:"kpis"`
}

// ClassifyNivel maps a measured value against its threshold: below is
// VERDE (no alert), up to 1.5x is AMARILLO, beyond that ROJO.
func ClassifyNivel(valor, umbral float64) string {
	switch {
	case valor < umbral:
		return models.NivelVerde
	case valor <= umbral*1.5:
		return models.NivelAmarillo
	default:
		return models.NivelRojo
	}
}

// DetectCongestion computes, per berth, the fraction of the period's calls
// currently berthed. An open-ended stay (no ATD) still counts as active.
func DetectCongestion(calls []models.VesselCall, ahora time.Time, umbral float64) []Detection {
	type acc struct {
		name    string
		total   int
		activos int
	}
	porAmarre := map[int64]*acc{}
	for _, c := range calls {
		if c.BerthID == nil {
			continue
		}
		if porAmarre[*c.BerthID] == nil {
			porAmarre[*c.BerthID] = &acc{name: c.BerthName}
		}
		a := porAmarre[*c.BerthID]
		a.total++
		if c.ATB != nil && !c.ATB.After(ahora) && (c.ATD == nil || !c.ATD.Before(ahora)) {
			a.activos++
		}
	}

	ids := make([]int64, 0, len(porAmarre))
	for id := range porAmarre {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Detection
	for _, id := range ids {
		a := porAmarre[id]
		valor := pct(a.activos, a.total)
		nivel := ClassifyNivel(valor, umbral)
		if nivel == models.NivelVerde {
			continue
		}
		out = append(out, Detection{
			AlertID:    fmt.Sprintf("CONGESTION_BERTH_%d", id),
			Tipo:       TipoCongestion,
			Nivel:      nivel,
			EntityType: "berth",
			EntityID:   id,
			EntityName: a.name,
			Valor:      valor,
			Umbral:     umbral,
		})
	}
	return out
}

// DetectAcumulacion flags companies whose mean truck wait over the period
// exceeds the threshold.
func DetectAcumulacion(appts []models.Appointment, events []models.GateEvent, umbralHoras float64) []Detection {
	entradas := correlateEntradas(appts, events)

	type acc struct {
		name    string
		esperas []float64
	}
	porCompany := map[int64]*acc{}
	for _, a := range appts {
		e, ok := entradas[a.ID]
		if !ok {
			continue
		}
		w := WaitingHours(a, &e.EventTS)
		if w == nil {
			continue
		}
		if porCompany[a.CompanyID] == nil {
			porCompany[a.CompanyID] = &acc{name: a.CompanyName}
		}
		porCompany[a.CompanyID].esperas = append(porCompany[a.CompanyID].esperas, *w)
	}

	ids := make([]int64, 0, len(porCompany))
	for id := range porCompany {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Detection
	for _, id := range ids {
		a := porCompany[id]
		valor := round2(mean(a.esperas))
		nivel := ClassifyNivel(valor, umbralHoras)
		if nivel == models.NivelVerde {
			continue
		}
		out = append(out, Detection{
			AlertID:    fmt.Sprintf("ACUMULACION_COMPANY_%d", id),
			Tipo:       TipoAcumulacion,
			Nivel:      nivel,
			EntityType: "company",
			EntityID:   id,
			EntityName: a.name,
			Valor:      valor,
			Umbral:     umbralHoras,
		})
	}
	return out
}

// GenerateR11 runs both detectors, upserts every detection by natural key
// and dispatches one notification batch. Re-running with the same data is
// idempotent on storage; a sink failure is logged and reported through
// Notificado without undoing the detections.
func (s *Service) GenerateR11(ctx context.Context, f R11Filters) (R11Result, error) {
	if f.Ahora.IsZero() {
		f.Ahora = time.Now().UTC()
	}
	if f.Hasta.IsZero() {
		f.Hasta = f.Ahora
	}
	if f.Desde.IsZero() {
		f.Desde = f.Hasta.Add(-24 * time.Hour)
	}
	if f.UmbralCongestion <= 0 {
		f.UmbralCongestion = s.Defaults.UmbralCongestion
	}
	if f.UmbralAcumulacionHoras <= 0 {
		f.UmbralAcumulacionHoras = s.Defaults.UmbralAcumulacionHoras
	}

	calls, err := s.Store.ListVesselCalls(ctx, f.desdePtr(), f.hastaPtr(), nil)
	if err != nil {
		return R11Result{}, err
	}
	appts, err := s.Store.ListAppointments(ctx, f.desdePtr(), f.hastaPtr(), nil)
	if err != nil {
		return R11Result{}, err
	}
	events, err := s.Store.ListGateEvents(ctx, f.desdePtr(), nil, nil)
	if err != nil {
		return R11Result{}, err
	}

	result := R11Result{
		Congestion:  DetectCongestion(calls, f.Ahora, f.UmbralCongestion),
		Acumulacion: DetectAcumulacion(appts, events, f.UmbralAcumulacionHoras),
	}

	detections := append(append([]Detection{}, result.Congestion...), result.Acumulacion...)
	summaries := make([]notify.AlertSummary, 0, len(detections))
	for _, d := range detections {
		alert := models.Alert{
			AlertID:    d.AlertID,
			Tipo:       d.Tipo,
			Nivel:      d.Nivel,
			EntityType: d.EntityType,
			EntityID:   d.EntityID,
			Valor:      d.Valor,
			Umbral:     d.Umbral,
			DetectedAt: f.Ahora,
			Estado:     models.AlertaActiva,
		}
		if err := s.Store.UpsertAlert(ctx, alert); err != nil {
			return R11Result{}, err
		}
		summaries = append(summaries, notify.AlertSummary{
			AlertID:    d.AlertID,
			Tipo:       d.Tipo,
			Nivel:      d.Nivel,
			EntityType: d.EntityType,
			EntityID:   d.EntityID,
			Valor:      d.Valor,
			Umbral:     d.Umbral,
			DetectedAt: f.Ahora,
		})
	}

	if len(summaries) > 0 {
		ok, err := s.Notifier.Send(ctx, summaries, notify.DefaultRoles)
		if err != nil {
			s.Logger.Warn().Err(err).Int("alerts", len(summaries)).Msg("notification dispatch failed")
		}
		result.Notificado = ok && err == nil
	}

	result.KPIs = map[string]any{
		"alertas_congestion":  len(result.Congestion),
		"alertas_acumulacion": len(result.Acumulacion),
		"total_alertas":       len(detections),
		"umbral_congestion":   f.UmbralCongestion,
		"umbral_acumulacion":  f.UmbralAcumulacionHoras,
	}
	return result, nil
}

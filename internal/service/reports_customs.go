package service

import (
	"context"
	"sort"
	"time"

	"github.com/portops/backend/internal/models"
)

type R7Filters struct {
	DateRange
	VesselCallID *int64
	EntidadID    *int64
}

type R7Row struct {
	TramiteID        int64    `json:"tramite_id"`
	VesselCallID     int64    `json:"vessel_call_id"`
	VesselName       string   `json:"vessel_name"`
	EntidadName      string   `json:"entidad_name"`
	Regimen          string   `json:"regimen"`
	Estado           string   `json:"estado"`
	LeadTimeHoras    *float64 `json:"lead_time_horas"`
	BloqueaOperacion bool     `json:"bloquea_operacion"`
	PreArribo        bool     `json:"pre_arribo"`
}

type VesselTramiteSummary struct {
	VesselCallID int64   `json:"vessel_call_id"`
	VesselName   string  `json:"vessel_name"`
	Total        int     `json:"total"`
	Aprobados    int     `json:"aprobados"`
	Bloqueantes  int     `json:"bloqueantes"`
	PctAprobados float64 `json:"pct_aprobados"`
}

type R7Result struct {
	Rows    []R7Row                `json:"rows"`
	PorNave []VesselTramiteSummary `json:"por_nave"`
	KPIs    map[string]any         `json:"kpis"`
}

func (s *Service) GenerateR7(ctx context.Context, f R7Filters) (R7Result, error) {
	tramites, err := s.Store.ListTramites(ctx, f.desdePtr(), f.hastaPtr(), "", f.EntidadID)
	if err != nil {
		return R7Result{}, err
	}
	if f.VesselCallID != nil {
		filtered := tramites[:0]
		for _, t := range tramites {
			if t.VesselCallID == *f.VesselCallID {
				filtered = append(filtered, t)
			}
		}
		tramites = filtered
	}
	return ComputeR7(tramites), nil
}

// ComputeR7 summarizes customs standing per vessel call. A trámite blocks
// the operation while it is anywhere between INICIADO and OBSERVADO.
func ComputeR7(tramites []models.Tramite) R7Result {
	rows := make([]R7Row, 0, len(tramites))
	porNave := map[int64]*VesselTramiteSummary{}
	aprobados, bloqueantes, preArribo := 0, 0, 0

	for _, t := range tramites {
		bloquea := t.Estado == models.TramiteIniciado || t.Estado == models.TramiteEnRevision || t.Estado == models.TramiteObservado
		pre := t.Estado == models.TramiteAprobado && t.FechaFin != nil && t.VesselATA != nil && t.FechaFin.Before(*t.VesselATA)

		row := R7Row{
			TramiteID:        t.ID,
			VesselCallID:     t.VesselCallID,
			VesselName:       t.VesselName,
			EntidadName:      t.EntidadName,
			Regimen:          t.Regimen,
			Estado:           t.Estado,
			LeadTimeHoras:    CustomsLeadHours(t),
			BloqueaOperacion: bloquea,
			PreArribo:        pre,
		}
		rows = append(rows, row)

		if porNave[t.VesselCallID] == nil {
			porNave[t.VesselCallID] = &VesselTramiteSummary{VesselCallID: t.VesselCallID, VesselName: t.VesselName}
		}
		nave := porNave[t.VesselCallID]
		nave.Total++
		if t.Estado == models.TramiteAprobado {
			nave.Aprobados++
			aprobados++
		}
		if bloquea {
			nave.Bloqueantes++
			bloqueantes++
		}
		if pre {
			preArribo++
		}
	}

	result := R7Result{Rows: rows, KPIs: map[string]any{
		"total_tramites": len(tramites),
		"aprobados":      aprobados,
		"pct_aprobados":  pct(aprobados, len(tramites)),
		"bloqueantes":    bloqueantes,
		"pct_pre_arribo": pct(preArribo, aprobados),
	}}

	ids := make([]int64, 0, len(porNave))
	for id := range porNave {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		nave := porNave[id]
		nave.PctAprobados = pct(nave.Aprobados, nave.Total)
		result.PorNave = append(result.PorNave, *nave)
	}
	return result
}

type R8Filters struct {
	DateRange
	UmbralHoras float64
}

type RegimenDispatch struct {
	Regimen       string  `json:"regimen"`
	Total         int     `json:"total"`
	PromedioHoras float64 `json:"promedio_horas"`
	P50           float64 `json:"p50"`
	P90           float64 `json:"p90"`
	PctExcede     float64 `json:"pct_excede_umbral"`
}

type R8Result struct {
	PorRegimen []RegimenDispatch `json:"por_regimen"`
	KPIs       map[string]any    `json:"kpis"`
}

func (s *Service) GenerateR8(ctx context.Context, f R8Filters) (R8Result, error) {
	if f.UmbralHoras <= 0 {
		f.UmbralHoras = s.Defaults.UmbralDespachoHoras
	}
	tramites, err := s.Store.ListTramites(ctx, f.desdePtr(), f.hastaPtr(), "", nil)
	if err != nil {
		return R8Result{}, err
	}
	return ComputeR8(tramites, f.UmbralHoras), nil
}

// ComputeR8 distributes approved dispatch times per régimen, with p50/p90
// over the sorted samples.
func ComputeR8(tramites []models.Tramite, umbralHoras float64) R8Result {
	porRegimen := map[string][]float64{}
	var global []float64
	for _, t := range tramites {
		lead := CustomsLeadHours(t)
		if lead == nil {
			continue
		}
		porRegimen[t.Regimen] = append(porRegimen[t.Regimen], *lead)
		global = append(global, *lead)
	}

	regimenes := make([]string, 0, len(porRegimen))
	for r := range porRegimen {
		regimenes = append(regimenes, r)
	}
	sort.Strings(regimenes)

	result := R8Result{KPIs: map[string]any{}}
	for _, regimen := range regimenes {
		horas := porRegimen[regimen]
		sort.Float64s(horas)
		excede := 0
		for _, h := range horas {
			if h > umbralHoras {
				excede++
			}
		}
		result.PorRegimen = append(result.PorRegimen, RegimenDispatch{
			Regimen:       regimen,
			Total:         len(horas),
			PromedioHoras: round2(mean(horas)),
			P50:           round2(Percentile(horas, 50)),
			P90:           round2(Percentile(horas, 90)),
			PctExcede:     pct(excede, len(horas)),
		})
	}

	sort.Float64s(global)
	excedeGlobal := 0
	for _, h := range global {
		if h > umbralHoras {
			excedeGlobal++
		}
	}
	result.KPIs["total_aprobados"] = len(global)
	result.KPIs["p50_global"] = round2(Percentile(global, 50))
	result.KPIs["p90_global"] = round2(Percentile(global, 90))
	result.KPIs["pct_excede_umbral"] = pct(excedeGlobal, len(global))
	result.KPIs["umbral_horas"] = umbralHoras
	return result
}

type R9Filters struct {
	DateRange
	EntidadID *int64
}

type R9Row struct {
	TramiteID            int64    `json:"tramite_id"`
	EntidadID            int64    `json:"entidad_id"`
	EntidadName          string   `json:"entidad_name"`
	Regimen              string   `json:"regimen"`
	Observaciones        int      `json:"observaciones"`
	Retrabajo            bool     `json:"retrabajo"`
	RemediacionPromedioH *float64 `json:"remediacion_promedio_h"`
}

type EntidadIncidentSummary struct {
	EntidadID     int64  `json:"entidad_id"`
	EntidadName   string `json:"entidad_name"`
	Tramites      int    `json:"tramites"`
	Observaciones int    `json:"observaciones"`
	ConRetrabajo  int    `json:"con_retrabajo"`
}

type R9Result struct {
	Rows       []R9Row                  `json:"rows"`
	PorEntidad []EntidadIncidentSummary `json:"por_entidad"`
	KPIs       map[string]any           `json:"kpis"`
}

func (s *Service) GenerateR9(ctx context.Context, f R9Filters) (R9Result, error) {
	tramites, err := s.Store.ListTramites(ctx, f.desdePtr(), f.hastaPtr(), "", f.EntidadID)
	if err != nil {
		return R9Result{}, err
	}
	return ComputeR9(tramites), nil
}

// ComputeR9 scans each trámite's ordered event log for observation counts,
// rework cycles and the average remediation gap.
func ComputeR9(tramites []models.Tramite) R9Result {
	result := R9Result{KPIs: map[string]any{}}
	porEntidad := map[int64]*EntidadIncidentSummary{}
	totalObs, conRetrabajo := 0, 0
	var remediaciones []float64

	for _, t := range tramites {
		obs, retrabajo, remediacion := scanEventLog(t.Events)
		totalObs += obs
		if retrabajo {
			conRetrabajo++
		}
		if remediacion != nil {
			remediaciones = append(remediaciones, *remediacion)
		}

		if porEntidad[t.EntidadID] == nil {
			porEntidad[t.EntidadID] = &EntidadIncidentSummary{EntidadID: t.EntidadID, EntidadName: t.EntidadName}
		}
		e := porEntidad[t.EntidadID]
		e.Tramites++
		e.Observaciones += obs
		if retrabajo {
			e.ConRetrabajo++
		}

		result.Rows = append(result.Rows, R9Row{
			TramiteID:            t.ID,
			EntidadID:            t.EntidadID,
			EntidadName:          t.EntidadName,
			Regimen:              t.Regimen,
			Observaciones:        obs,
			Retrabajo:            retrabajo,
			RemediacionPromedioH: remediacion,
		})
	}

	ids := make([]int64, 0, len(porEntidad))
	for id := range porEntidad {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		result.PorEntidad = append(result.PorEntidad, *porEntidad[id])
	}

	result.KPIs["total_tramites"] = len(tramites)
	result.KPIs["total_observaciones"] = totalObs
	result.KPIs["tramites_con_retrabajo"] = conRetrabajo
	result.KPIs["pct_con_retrabajo"] = pct(conRetrabajo, len(tramites))
	result.KPIs["remediacion_promedio_h"] = round2(mean(remediaciones))
	return result
}

// scanEventLog folds over the ordered transition log carrying the previous
// estado. Rework is an OBSERVADO immediately followed by EN_REVISION; the
// remediation time of an OBSERVADO is the gap until the next event with a
// different estado, averaged per trámite.
func scanEventLog(events []models.TramiteEvent) (observaciones int, retrabajo bool, remediacionH *float64) {
	prev := ""
	var gaps []float64
	var pendientes []time.Time

	for _, e := range events {
		if len(pendientes) > 0 && e.Estado != models.TramiteObservado {
			for _, ts := range pendientes {
				gaps = append(gaps, e.EventTS.Sub(ts).Hours())
			}
			pendientes = pendientes[:0]
		}
		if e.Estado == models.TramiteObservado {
			observaciones++
			pendientes = append(pendientes, e.EventTS)
		}
		if prev == models.TramiteObservado && e.Estado == models.TramiteEnRevision {
			retrabajo = true
		}
		prev = e.Estado
	}

	if len(gaps) > 0 {
		avg := round2(mean(gaps))
		remediacionH = &avg
	}
	return observaciones, retrabajo, remediacionH
}

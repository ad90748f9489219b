package service

import (
	"context"
	"math"

	"github.com/portops/backend/internal/models"
)

const (
	EstatusExcelente = "EXCELENTE"
	EstatusBueno     = "BUENO"
	EstatusRegular   = "REGULAR"
	EstatusCritico   = "CRÍTICO"
)

// ActorMetrics are the per-actor inputs the SLA calculations draw from,
// precomputed once per report run.
type ActorMetrics struct {
	TurnaroundPromedioH float64
	EsperaPromedioH     float64
	DespachoPromedioH   float64
}

type slaCalc func(actor models.Actor, m ActorMetrics) float64

// slaRegistry maps each SLA code to its calculation. A code missing here
// is skipped and marked omitted instead of silently scoring zero.
var slaRegistry = map[string]slaCalc{
	"TURNAROUND_48H": func(a models.Actor, m ActorMetrics) float64 {
		if a.Tipo == models.ActorTransportista {
			return m.TurnaroundPromedioH
		}
		return 0
	},
	"ESPERA_CAMION_2H": func(a models.Actor, m ActorMetrics) float64 {
		if a.Tipo == models.ActorTransportista {
			return m.EsperaPromedioH
		}
		return 0
	},
	"TRAMITE_DESPACHO_24H": func(a models.Actor, m ActorMetrics) float64 {
		if a.Tipo == models.ActorEntidadAduana {
			return m.DespachoPromedioH
		}
		return 0
	},
}

// VerifyCompliance evaluates value against the threshold. An unknown
// comparator never matches, so it reads as non-compliant.
func VerifyCompliance(value, umbral float64, comparador string) bool {
	switch comparador {
	case "<":
		return value < umbral
	case "<=":
		return value <= umbral
	case ">":
		return value > umbral
	case ">=":
		return value >= umbral
	case "=":
		return value == umbral
	default:
		return false
	}
}

// CalculatePenalty is the proportional miss, capped at 100.
func CalculatePenalty(value, umbral float64) float64 {
	if umbral == 0 {
		if value == 0 {
			return 0
		}
		return 100
	}
	return round2(math.Min(100, math.Abs(value-umbral)/umbral*100))
}

func actorStatus(pctCumplimiento float64) string {
	switch {
	case pctCumplimiento >= 90:
		return EstatusExcelente
	case pctCumplimiento >= 75:
		return EstatusBueno
	case pctCumplimiento >= 50:
		return EstatusRegular
	default:
		return EstatusCritico
	}
}

type R12Filters struct {
	DateRange
}

type SlaEvaluation struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Valor      float64 `json:"valor"`
	Umbral     float64 `json:"umbral"`
	Comparador string  `json:"comparador"`
	Cumple     bool    `json:"cumple"`
	Penalidad  float64 `json:"penalidad"`
	Omitido    bool    `json:"omitido"`
}

type ActorSlaResult struct {
	ActorID         int64           `json:"actor_id"`
	ActorName       string          `json:"actor_name"`
	Tipo            string          `json:"tipo"`
	Evaluaciones    []SlaEvaluation `json:"evaluaciones"`
	PctCumplimiento float64         `json:"pct_cumplimiento"`
	Estatus         string          `json:"estatus"`
}

type R12Result struct {
	PorActor []ActorSlaResult `json:"por_actor"`
	KPIs     map[string]any   `json:"kpis"`
}

func (s *Service) GenerateR12(ctx context.Context, f R12Filters) (R12Result, error) {
	actors, err := s.Store.ListActors(ctx, "")
	if err != nil {
		return R12Result{}, err
	}
	defs, err := s.Store.ListSlaDefinitions(ctx)
	if err != nil {
		return R12Result{}, err
	}
	calls, err := s.Store.ListVesselCalls(ctx, f.desdePtr(), f.hastaPtr(), nil)
	if err != nil {
		return R12Result{}, err
	}
	appts, err := s.Store.ListAppointments(ctx, f.desdePtr(), f.hastaPtr(), nil)
	if err != nil {
		return R12Result{}, err
	}
	events, err := s.Store.ListGateEvents(ctx, f.desdePtr(), nil, nil)
	if err != nil {
		return R12Result{}, err
	}
	tramites, err := s.Store.ListTramites(ctx, f.desdePtr(), f.hastaPtr(), "", nil)
	if err != nil {
		return R12Result{}, err
	}

	result := ComputeR12(actors, defs, calls, appts, events, tramites)
	for _, a := range result.PorActor {
		for _, ev := range a.Evaluaciones {
			if ev.Omitido {
				s.Logger.Warn().Str("sla_code", ev.Code).Int64("actor_id", a.ActorID).Msg("unknown SLA code skipped")
			}
		}
	}
	return result, nil
}

// ComputeR12 evaluates every SLA definition against every actor via the
// calculation registry.
func ComputeR12(actors []models.Actor, defs []models.SlaDefinition, calls []models.VesselCall, appts []models.Appointment, events []models.GateEvent, tramites []models.Tramite) R12Result {
	metrics := buildActorMetrics(actors, calls, appts, events, tramites)

	result := R12Result{KPIs: map[string]any{}}
	porEstatus := map[string]int{}
	totalPenalidad := 0.0

	for _, actor := range actors {
		ar := ActorSlaResult{ActorID: actor.ID, ActorName: actor.Name, Tipo: actor.Tipo}
		cumplidos, evaluados := 0, 0

		for _, def := range defs {
			calc, ok := slaRegistry[def.Code]
			if !ok {
				ar.Evaluaciones = append(ar.Evaluaciones, SlaEvaluation{
					Code:       def.Code,
					Name:       def.Name,
					Umbral:     def.Umbral,
					Comparador: def.Comparador,
					Omitido:    true,
				})
				continue
			}

			valor := round2(calc(actor, metrics[actor.ID]))
			cumple := VerifyCompliance(valor, def.Umbral, def.Comparador)
			ev := SlaEvaluation{
				Code:       def.Code,
				Name:       def.Name,
				Valor:      valor,
				Umbral:     def.Umbral,
				Comparador: def.Comparador,
				Cumple:     cumple,
			}
			if !cumple {
				ev.Penalidad = CalculatePenalty(valor, def.Umbral)
				totalPenalidad += ev.Penalidad
			}
			ar.Evaluaciones = append(ar.Evaluaciones, ev)
			evaluados++
			if cumple {
				cumplidos++
			}
		}

		ar.PctCumplimiento = pct(cumplidos, evaluados)
		ar.Estatus = actorStatus(ar.PctCumplimiento)
		porEstatus[ar.Estatus]++
		result.PorActor = append(result.PorActor, ar)
	}

	result.KPIs["total_actores"] = len(actors)
	result.KPIs["total_slas"] = len(defs)
	result.KPIs["penalidad_total"] = round2(totalPenalidad)
	result.KPIs["actores_excelente"] = porEstatus[EstatusExcelente]
	result.KPIs["actores_criticos"] = porEstatus[EstatusCritico]
	return result
}

// buildActorMetrics precomputes each actor's inputs: carriers get the
// period's mean vessel turnaround plus their own mean truck wait, customs
// entities get their own mean dispatch time.
func buildActorMetrics(actors []models.Actor, calls []models.VesselCall, appts []models.Appointment, events []models.GateEvent, tramites []models.Tramite) map[int64]ActorMetrics {
	var turnarounds []float64
	for _, c := range calls {
		if t := TurnaroundHours(c); t != nil {
			turnarounds = append(turnarounds, *t)
		}
	}
	turnaroundGlobal := round2(mean(turnarounds))

	entradas := correlateEntradas(appts, events)
	esperasPorCompany := map[int64][]float64{}
	for _, a := range appts {
		e, ok := entradas[a.ID]
		if !ok {
			continue
		}
		if w := WaitingHours(a, &e.EventTS); w != nil {
			esperasPorCompany[a.CompanyID] = append(esperasPorCompany[a.CompanyID], *w)
		}
	}

	despachoPorEntidad := map[int64][]float64{}
	for _, t := range tramites {
		if lead := CustomsLeadHours(t); lead != nil {
			despachoPorEntidad[t.EntidadID] = append(despachoPorEntidad[t.EntidadID], *lead)
		}
	}

	out := map[int64]ActorMetrics{}
	for _, actor := range actors {
		m := ActorMetrics{}
		switch actor.Tipo {
		case models.ActorTransportista:
			m.TurnaroundPromedioH = turnaroundGlobal
			m.EsperaPromedioH = round2(mean(esperasPorCompany[actor.RefID]))
		case models.ActorEntidadAduana:
			m.DespachoPromedioH = round2(mean(despachoPorEntidad[actor.RefID]))
		}
		out[actor.ID] = m
	}
	return out
}

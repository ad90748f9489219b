package service

import (
	"context"
	"sort"
	"time"

	"github.com/portops/backend/internal/models"
)

// Waits above this many hours count against the R4 service-level KPI.
const esperaCriticaHoras = 6.0

type R4Filters struct {
	DateRange
	CompanyIDs []int64
}

type R4Row struct {
	AppointmentID  int64      `json:"appointment_id"`
	CompanyID      int64      `json:"company_id"`
	CompanyName    string     `json:"company_name"`
	TruckPlaca     string     `json:"truck_placa"`
	HoraLlegada    *time.Time `json:"hora_llegada"`
	PrimeraEntrada *time.Time `json:"primera_entrada"`
	EsperaHoras    *float64   `json:"espera_horas"`
}

type R4Result struct {
	Rows []R4Row        `json:"rows"`
	KPIs map[string]any `json:"kpis"`
}

func (s *Service) GenerateR4(ctx context.Context, f R4Filters, viewer Viewer) (R4Result, error) {
	companies, ok := ScopeCompanies(viewer, f.CompanyIDs)
	if !ok {
		return ComputeR4(nil, nil), nil
	}
	appts, err := s.Store.ListAppointments(ctx, f.desdePtr(), f.hastaPtr(), companies)
	if err != nil {
		return R4Result{}, err
	}
	events, err := s.Store.ListGateEvents(ctx, f.desdePtr(), nil, nil)
	if err != nil {
		return R4Result{}, err
	}
	return ComputeR4(appts, events), nil
}

// ComputeR4 measures how long each truck waited between reported arrival
// and its first gate entry.
func ComputeR4(appts []models.Appointment, events []models.GateEvent) R4Result {
	entradas := correlateEntradas(appts, events)

	rows := make([]R4Row, 0, len(appts))
	var esperas []float64
	criticas := 0

	for _, a := range appts {
		row := R4Row{
			AppointmentID: a.ID,
			CompanyID:     a.CompanyID,
			CompanyName:   a.CompanyName,
			TruckPlaca:    a.TruckPlaca,
			HoraLlegada:   a.HoraLlegada,
		}
		if entry, ok := entradas[a.ID]; ok {
			ts := entry.EventTS
			row.PrimeraEntrada = &ts
			if w := WaitingHours(a, &ts); w != nil {
				row.EsperaHoras = w
				esperas = append(esperas, *w)
				if *w > esperaCriticaHoras {
					criticas++
				}
			}
		}
		rows = append(rows, row)
	}

	return R4Result{
		Rows: rows,
		KPIs: map[string]any{
			"total_citas":         len(appts),
			"citas_con_espera":    len(esperas),
			"espera_promedio_h":   round2(mean(esperas)),
			"pct_espera_mayor_6h": pct(criticas, len(esperas)),
		},
	}
}

// correlateEntradas maps each appointment to its first ENTRADA event,
// preferring the explicit appointment link and falling back to the truck's
// first entry at or after the reported arrival.
func correlateEntradas(appts []models.Appointment, events []models.GateEvent) map[int64]models.GateEvent {
	byAppointment := map[int64]models.GateEvent{}
	byTruck := map[int64][]models.GateEvent{}
	for _, e := range events {
		if e.Accion != models.AccionEntrada {
			continue
		}
		if e.AppointmentID != nil {
			if prev, ok := byAppointment[*e.AppointmentID]; !ok || e.EventTS.Before(prev.EventTS) {
				byAppointment[*e.AppointmentID] = e
			}
		}
		byTruck[e.TruckID] = append(byTruck[e.TruckID], e)
	}

	out := map[int64]models.GateEvent{}
	for _, a := range appts {
		if e, ok := byAppointment[a.ID]; ok {
			out[a.ID] = e
			continue
		}
		if a.HoraLlegada == nil {
			continue
		}
		for _, e := range byTruck[a.TruckID] {
			if !e.EventTS.Before(*a.HoraLlegada) {
				out[a.ID] = e
				break
			}
		}
	}
	return out
}

type R5Filters struct {
	DateRange
	CompanyIDs []int64
}

type R5Row struct {
	AppointmentID int64      `json:"appointment_id"`
	CompanyID     int64      `json:"company_id"`
	CompanyName   string     `json:"company_name"`
	Estado        string     `json:"estado"`
	Clasificacion string     `json:"clasificacion"`
	DesviacionMin *float64   `json:"desviacion_min"`
	HoraLlegada   *time.Time `json:"hora_llegada"`
}

type CompanyRanking struct {
	CompanyID   int64   `json:"company_id"`
	CompanyName string  `json:"company_name"`
	TotalCitas  int     `json:"total_citas"`
	ATiempo     int     `json:"a_tiempo"`
	PctATiempo  float64 `json:"pct_a_tiempo"`
}

type R5Result struct {
	Rows []R5Row `json:"rows"`
	// Ranking is nil for TRANSPORTISTA viewers: a carrier must not see
	// how its competitors score.
	Ranking []CompanyRanking `json:"ranking"`
	KPIs    map[string]any   `json:"kpis"`
}

func (s *Service) GenerateR5(ctx context.Context, f R5Filters, viewer Viewer) (R5Result, error) {
	companies, ok := ScopeCompanies(viewer, f.CompanyIDs)
	if !ok {
		return ComputeR5(nil, viewer), nil
	}
	appts, err := s.Store.ListAppointments(ctx, f.desdePtr(), f.hastaPtr(), companies)
	if err != nil {
		return R5Result{}, err
	}
	return ComputeR5(appts, viewer), nil
}

func ComputeR5(appts []models.Appointment, viewer Viewer) R5Result {
	rows := make([]R5Row, 0, len(appts))
	var desviaciones []float64
	counts := map[string]int{}

	type acc struct {
		name    string
		total   int
		aTiempo int
	}
	porCompany := map[int64]*acc{}

	for _, a := range appts {
		c := ClassifyAppointment(a)
		counts[c.Clasificacion]++
		if c.DesviacionMin != nil {
			desviaciones = append(desviaciones, *c.DesviacionMin)
		}

		if porCompany[a.CompanyID] == nil {
			porCompany[a.CompanyID] = &acc{name: a.CompanyName}
		}
		porCompany[a.CompanyID].total++
		if c.Clasificacion == ClasificacionATiempo {
			porCompany[a.CompanyID].aTiempo++
		}

		rows = append(rows, R5Row{
			AppointmentID: a.ID,
			CompanyID:     a.CompanyID,
			CompanyName:   a.CompanyName,
			Estado:        a.Estado,
			Clasificacion: c.Clasificacion,
			DesviacionMin: c.DesviacionMin,
			HoraLlegada:   a.HoraLlegada,
		})
	}

	result := R5Result{
		Rows: rows,
		KPIs: map[string]any{
			"total_citas":             len(appts),
			"pct_a_tiempo":            pct(counts[ClasificacionATiempo], len(appts)),
			"pct_tarde":               pct(counts[ClasificacionTarde], len(appts)),
			"pct_no_show":             pct(counts[ClasificacionNoShow], len(appts)),
			"desviacion_promedio_min": round2(mean(desviaciones)),
		},
	}

	if viewer.IsTransportista() {
		return result
	}

	for id, a := range porCompany {
		result.Ranking = append(result.Ranking, CompanyRanking{
			CompanyID:   id,
			CompanyName: a.name,
			TotalCitas:  a.total,
			ATiempo:     a.aTiempo,
			PctATiempo:  pct(a.aTiempo, a.total),
		})
	}
	if result.Ranking == nil {
		result.Ranking = []CompanyRanking{}
	}
	sort.Slice(result.Ranking, func(i, j int) bool {
		if result.Ranking[i].PctATiempo == result.Ranking[j].PctATiempo {
			return result.Ranking[i].CompanyName < result.Ranking[j].CompanyName
		}
		return result.Ranking[i].PctATiempo > result.Ranking[j].PctATiempo
	})
	return result
}

type R6Filters struct {
	DateRange
	GateID           *int64
	CapacidadTeorica int
}

type GateHourBucket struct {
	GateID   int64  `json:"gate_id"`
	GateName string `json:"gate_name"`
	Hora     int    `json:"hora"`
	Entradas int    `json:"entradas"`
	Salidas  int    `json:"salidas"`
}

type GateSummary struct {
	GateID            int64   `json:"gate_id"`
	GateName          string  `json:"gate_name"`
	Entradas          int     `json:"entradas"`
	Salidas           int     `json:"salidas"`
	Ciclos            int     `json:"ciclos"`
	CicloPromedioMin  float64 `json:"ciclo_promedio_min"`
	EntradasSinSalida int     `json:"entradas_sin_salida"`
	HorasPico         []int   `json:"horas_pico"`
}

type R6Result struct {
	PorGate []GateSummary    `json:"por_gate"`
	PorHora []GateHourBucket `json:"por_hora"`
	KPIs    map[string]any   `json:"kpis"`
}

func (s *Service) GenerateR6(ctx context.Context, f R6Filters) (R6Result, error) {
	if f.CapacidadTeorica <= 0 {
		f.CapacidadTeorica = s.Defaults.CapacidadTeorica
	}
	events, err := s.Store.ListGateEvents(ctx, f.desdePtr(), f.hastaPtr(), f.GateID)
	if err != nil {
		return R6Result{}, err
	}
	return ComputeR6(events, f.CapacidadTeorica), nil
}

// ComputeR6 aggregates gate throughput per hour of day and pairs each
// truck's ENTRADA with its next SALIDA. An ENTRADA followed by another
// ENTRADA before any SALIDA is reported as unmatched instead of being
// silently dropped.
func ComputeR6(events []models.GateEvent, capacidadTeorica int) R6Result {
	type hourKey struct {
		gate int64
		hora int
	}
	buckets := map[hourKey]*GateHourBucket{}
	gateNames := map[int64]string{}
	byTruck := map[int64][]models.GateEvent{}
	entradasGate := map[int64]int{}
	salidasGate := map[int64]int{}

	for _, e := range events {
		gateNames[e.GateID] = e.GateName
		k := hourKey{gate: e.GateID, hora: e.EventTS.Hour()}
		if buckets[k] == nil {
			buckets[k] = &GateHourBucket{GateID: e.GateID, GateName: e.GateName, Hora: k.hora}
		}
		switch e.Accion {
		case models.AccionEntrada:
			buckets[k].Entradas++
			entradasGate[e.GateID]++
		case models.AccionSalida:
			buckets[k].Salidas++
			salidasGate[e.GateID]++
		}
		byTruck[e.TruckID] = append(byTruck[e.TruckID], e)
	}

	cicloMin := map[int64][]float64{}
	unmatched := map[int64]int{}
	totalCiclos := 0
	var todosCiclos []float64

	for _, truckEvents := range byTruck {
		sort.Slice(truckEvents, func(i, j int) bool { return truckEvents[i].EventTS.Before(truckEvents[j].EventTS) })
		var open *models.GateEvent
		for i := range truckEvents {
			e := truckEvents[i]
			switch e.Accion {
			case models.AccionEntrada:
				if open != nil {
					unmatched[open.GateID]++
				}
				open = &truckEvents[i]
			case models.AccionSalida:
				if open != nil {
					dur := round2(e.EventTS.Sub(open.EventTS).Minutes())
					cicloMin[open.GateID] = append(cicloMin[open.GateID], dur)
					todosCiclos = append(todosCiclos, dur)
					totalCiclos++
					open = nil
				}
			}
		}
		if open != nil {
			unmatched[open.GateID]++
		}
	}

	capacidadPico := float64(capacidadTeorica) * 0.8

	gateIDs := make([]int64, 0, len(gateNames))
	for id := range gateNames {
		gateIDs = append(gateIDs, id)
	}
	sort.Slice(gateIDs, func(i, j int) bool { return gateIDs[i] < gateIDs[j] })

	result := R6Result{KPIs: map[string]any{}}
	for _, gateID := range gateIDs {
		var horasPico []int
		for hora := 0; hora < 24; hora++ {
			b := buckets[hourKey{gate: gateID, hora: hora}]
			if b == nil {
				continue
			}
			result.PorHora = append(result.PorHora, *b)
			if float64(b.Entradas) > capacidadPico {
				horasPico = append(horasPico, hora)
			}
		}
		result.PorGate = append(result.PorGate, GateSummary{
			GateID:            gateID,
			GateName:          gateNames[gateID],
			Entradas:          entradasGate[gateID],
			Salidas:           salidasGate[gateID],
			Ciclos:            len(cicloMin[gateID]),
			CicloPromedioMin:  round2(mean(cicloMin[gateID])),
			EntradasSinSalida: unmatched[gateID],
			HorasPico:         horasPico,
		})
	}

	totalUnmatched := 0
	for _, n := range unmatched {
		totalUnmatched += n
	}
	result.KPIs["total_entradas"] = sumMap(entradasGate)
	result.KPIs["total_salidas"] = sumMap(salidasGate)
	result.KPIs["total_ciclos"] = totalCiclos
	result.KPIs["ciclo_promedio_min"] = round2(mean(todosCiclos))
	result.KPIs["entradas_sin_salida"] = totalUnmatched
	return result
}

func sumMap(m map[int64]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

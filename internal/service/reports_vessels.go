package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/portops/backend/internal/models"
)

// On-time arrival tolerance for R1, in seconds.
const ventanaArriboSec = 3600.0

type R1Filters struct {
	DateRange
	BerthID *int64
}

type R1Row struct {
	VesselCallID    int64      `json:"vessel_call_id"`
	VesselName      string     `json:"vessel_name"`
	BerthName       string     `json:"berth_name"`
	ETA             *time.Time `json:"eta"`
	ATA             *time.Time `json:"ata"`
	ETB             *time.Time `json:"etb"`
	ATB             *time.Time `json:"atb"`
	DemoraETAATAMin *float64   `json:"demora_eta_ata_min"`
	DemoraETBATBMin *float64   `json:"demora_etb_atb_min"`
	ATiempo         *bool      `json:"a_tiempo"`
}

type R1Result struct {
	Rows []R1Row        `json:"rows"`
	KPIs map[string]any `json:"kpis"`
}

func (s *Service) GenerateR1(ctx context.Context, f R1Filters) (R1Result, error) {
	calls, err := s.Store.ListVesselCalls(ctx, f.desdePtr(), f.hastaPtr(), f.BerthID)
	if err != nil {
		return R1Result{}, err
	}
	return ComputeR1(calls), nil
}

// ComputeR1 compares scheduled against actual arrival and berthing times.
// Calls missing either side of a pair simply do not contribute to that
// metric.
func ComputeR1(calls []models.VesselCall) R1Result {
	rows := make([]R1Row, 0, len(calls))
	var demorasArribo, demorasAtraque []float64
	aTiempo, conVentana := 0, 0

	for _, c := range calls {
		row := R1Row{
			VesselCallID: c.ID,
			VesselName:   c.VesselName,
			BerthName:    c.BerthName,
			ETA:          c.ETA,
			ATA:          c.ATA,
			ETB:          c.ETB,
			ATB:          c.ATB,
		}
		if c.ETA != nil && c.ATA != nil {
			d := round2(c.ATA.Sub(*c.ETA).Minutes())
			row.DemoraETAATAMin = &d
			demorasArribo = append(demorasArribo, d)

			onTime := math.Abs(c.ATA.Sub(*c.ETA).Seconds()) <= ventanaArriboSec
			row.ATiempo = &onTime
			conVentana++
			if onTime {
				aTiempo++
			}
		}
		if c.ETB != nil && c.ATB != nil {
			d := round2(c.ATB.Sub(*c.ETB).Minutes())
			row.DemoraETBATBMin = &d
			demorasAtraque = append(demorasAtraque, d)
		}
		rows = append(rows, row)
	}

	pctATiempo := pct(aTiempo, conVentana)
	return R1Result{
		Rows: rows,
		KPIs: map[string]any{
			"total_recaladas":      len(calls),
			"porcentaje_a_tiempo":  pctATiempo,
			"demora_eta_ata_min":   round2(mean(demorasArribo)),
			"demora_etb_atb_min":   round2(mean(demorasAtraque)),
			"cumplimiento_ventana": pctATiempo,
		},
	}
}

type R3Filters struct {
	DateRange
	BerthID     *int64
	FranjaHoras int
}

type FrameUtilization struct {
	BerthID     int64     `json:"berth_id"`
	BerthName   string    `json:"berth_name"`
	Franja      string    `json:"franja"`
	Inicio      time.Time `json:"inicio"`
	Fin         time.Time `json:"fin"`
	Utilizacion float64   `json:"utilizacion_pct"`
}

type BerthConflict struct {
	BerthID   int64     `json:"berth_id"`
	BerthName string    `json:"berth_name"`
	CallA     int64     `json:"vessel_call_a"`
	CallB     int64     `json:"vessel_call_b"`
	VesselA   string    `json:"vessel_a"`
	VesselB   string    `json:"vessel_b"`
	FinA      time.Time `json:"fin_a"`
	InicioB   time.Time `json:"inicio_b"`
}

type BerthUtilization struct {
	BerthID             int64   `json:"berth_id"`
	BerthName           string  `json:"berth_name"`
	Recaladas           int     `json:"recaladas"`
	UtilizacionPromedio float64 `json:"utilizacion_promedio_pct"`
	Conflictos          int     `json:"conflictos"`
	HorasOciosas        float64 `json:"horas_ociosas"`
}

type R3Result struct {
	PorAmarre            []BerthUtilization `json:"por_amarre"`
	UtilizacionPorFranja []FrameUtilization `json:"utilizacion_por_franja"`
	Conflictos           []BerthConflict    `json:"conflictos"`
	KPIs                 map[string]any     `json:"kpis"`
}

func (s *Service) GenerateR3(ctx context.Context, f R3Filters) (R3Result, error) {
	if f.FranjaHoras <= 0 {
		f.FranjaHoras = s.Defaults.FranjaHoras
	}
	calls, err := s.Store.ListVesselCalls(ctx, f.desdePtr(), f.hastaPtr(), f.BerthID)
	if err != nil {
		return R3Result{}, err
	}
	return ComputeR3(calls, f.Desde, f.Hasta, f.FranjaHoras), nil
}

// ComputeR3 measures berth occupation per time frame and flags double
// bookings. A call with no ATD counts as occupying through the end of the
// requested range.
func ComputeR3(calls []models.VesselCall, desde, hasta time.Time, frameHours int) R3Result {
	result := R3Result{KPIs: map[string]any{}}

	byBerth := map[int64][]models.VesselCall{}
	berthNames := map[int64]string{}
	for _, c := range calls {
		if c.BerthID == nil || c.ATB == nil {
			continue
		}
		byBerth[*c.BerthID] = append(byBerth[*c.BerthID], c)
		berthNames[*c.BerthID] = c.BerthName
	}

	berthIDs := make([]int64, 0, len(byBerth))
	for id := range byBerth {
		berthIDs = append(berthIDs, id)
	}
	sort.Slice(berthIDs, func(i, j int) bool { return berthIDs[i] < berthIDs[j] })

	frames := GenerateTimeFrames(desde, hasta, frameHours)
	var allUtil []float64
	totalConflictos := 0
	totalOciosas := 0.0

	for _, berthID := range berthIDs {
		berthCalls := byBerth[berthID]
		sort.Slice(berthCalls, func(i, j int) bool { return berthCalls[i].ATB.Before(*berthCalls[j].ATB) })

		// Only adjacent pairs are checked; a berth cannot physically
		// hold a third vessel before resolving the first overlap.
		for i := 0; i+1 < len(berthCalls); i++ {
			a, b := berthCalls[i], berthCalls[i+1]
			if a.ATD != nil && a.ATD.After(*b.ATB) {
				result.Conflictos = append(result.Conflictos, BerthConflict{
					BerthID:   berthID,
					BerthName: berthNames[berthID],
					CallA:     a.ID,
					CallB:     b.ID,
					VesselA:   a.VesselName,
					VesselB:   b.VesselName,
					FinA:      *a.ATD,
					InicioB:   *b.ATB,
				})
				totalConflictos++
			}
		}

		var berthUtil []float64
		ociosas := 0.0
		for _, fr := range frames {
			frameSec := fr.End.Sub(fr.Start).Seconds()
			occupied := 0.0
			for _, c := range berthCalls {
				end := hasta
				if c.ATD != nil {
					end = *c.ATD
				}
				occupied += OverlapSeconds(*c.ATB, end, fr.Start, fr.End)
			}
			util := 0.0
			if frameSec > 0 {
				util = round2(math.Min(occupied/frameSec*100, 100))
			}
			berthUtil = append(berthUtil, util)
			allUtil = append(allUtil, util)
			if util < 10 {
				ociosas += fr.End.Sub(fr.Start).Hours()
			}
			result.UtilizacionPorFranja = append(result.UtilizacionPorFranja, FrameUtilization{
				BerthID:     berthID,
				BerthName:   berthNames[berthID],
				Franja:      fr.Label,
				Inicio:      fr.Start,
				Fin:         fr.End,
				Utilizacion: util,
			})
		}
		totalOciosas += ociosas

		conflictosAmarre := 0
		for _, cf := range result.Conflictos {
			if cf.BerthID == berthID {
				conflictosAmarre++
			}
		}
		result.PorAmarre = append(result.PorAmarre, BerthUtilization{
			BerthID:             berthID,
			BerthName:           berthNames[berthID],
			Recaladas:           len(berthCalls),
			UtilizacionPromedio: round2(mean(berthUtil)),
			Conflictos:          conflictosAmarre,
			HorasOciosas:        round2(ociosas),
		})
	}

	result.KPIs["utilizacion_promedio_pct"] = round2(mean(allUtil))
	result.KPIs["total_conflictos"] = totalConflictos
	result.KPIs["horas_ociosas_total"] = round2(totalOciosas)
	result.KPIs["amarres_evaluados"] = len(berthIDs)
	return result
}

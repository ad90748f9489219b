package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/portops/backend/internal/models"
)

const (
	ClasificacionATiempo = "A_TIEMPO"
	ClasificacionTarde   = "TARDE"
	ClasificacionNoShow  = "NO_SHOW"

	// Arrivals within this many minutes of the scheduled slot count as
	// on time, both early and late.
	toleranciaCitaMin = 15.0
)

// TurnaroundHours is ATD - ATA in hours, rounded to 2 decimals. Nil when
// either timestamp has not been recorded yet.
func TurnaroundHours(c models.VesselCall) *float64 {
	if c.ATA == nil || c.ATD == nil {
		return nil
	}
	h := round2(c.ATD.Sub(*c.ATA).Hours())
	return &h
}

// WaitingHours is the time between the truck's reported arrival and its
// first ENTRADA through a gate, floored at zero.
func WaitingHours(a models.Appointment, firstEntrada *time.Time) *float64 {
	if a.HoraLlegada == nil || firstEntrada == nil {
		return nil
	}
	h := firstEntrada.Sub(*a.HoraLlegada).Hours()
	if h < 0 {
		h = 0
	}
	h = round2(h)
	return &h
}

type Compliance struct {
	Clasificacion string   `json:"clasificacion"`
	DesviacionMin *float64 `json:"desviacion_min"`
}

// ClassifyAppointment buckets an appointment into A_TIEMPO, TARDE or
// NO_SHOW. A missing arrival time always means NO_SHOW regardless of the
// recorded estado.
func ClassifyAppointment(a models.Appointment) Compliance {
	if a.Estado == models.EstadoNoShow || a.HoraLlegada == nil {
		return Compliance{Clasificacion: ClasificacionNoShow}
	}
	dev := round2(a.HoraLlegada.Sub(a.HoraProgramada).Minutes())
	c := Compliance{DesviacionMin: &dev}
	if math.Abs(dev) <= toleranciaCitaMin {
		c.Clasificacion = ClasificacionATiempo
	} else {
		c.Clasificacion = ClasificacionTarde
	}
	return c
}

// CustomsLeadHours is fecha_fin - fecha_inicio in hours for approved
// trámites, floored at zero. Nil for any other estado or missing end date.
func CustomsLeadHours(t models.Tramite) *float64 {
	if t.Estado != models.TramiteAprobado || t.FechaFin == nil {
		return nil
	}
	h := t.FechaFin.Sub(t.FechaInicio).Hours()
	if h < 0 {
		h = 0
	}
	h = round2(h)
	return &h
}

// Id-fetching wrappers over the pure primitives. A missing entity is an
// error; missing optional timestamps are a nil result.

func (s *Service) TurnaroundByID(ctx context.Context, id int64) (*float64, error) {
	c, err := s.Store.GetVesselCall(ctx, id)
	if err != nil {
		return nil, err
	}
	return TurnaroundHours(c), nil
}

func (s *Service) WaitingTimeByID(ctx context.Context, appointmentID int64) (*float64, error) {
	a, err := s.Store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	entry, err := s.Store.FirstEntrada(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return WaitingHours(a, &entry.EventTS), nil
}

func (s *Service) ComplianceByID(ctx context.Context, appointmentID int64) (Compliance, error) {
	a, err := s.Store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Compliance{}, err
	}
	return ClassifyAppointment(a), nil
}

func (s *Service) CustomsLeadTimeByID(ctx context.Context, tramiteID int64) (*float64, error) {
	t, err := s.Store.GetTramite(ctx, tramiteID)
	if err != nil {
		return nil, err
	}
	return CustomsLeadHours(t), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

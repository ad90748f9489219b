package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/portops/backend/internal/config"
	"github.com/portops/backend/internal/db"
	"github.com/portops/backend/internal/notify"
)

const (
	RoleTransportista = "TRANSPORTISTA"
	RoleAnalista      = "ANALISTA"
	RoleOperaciones   = "OPERACIONES"
	RoleAdmin         = "ADMIN"
)

// Viewer is the already-authorized caller: role plus the company ids the
// caller may see. The authorization layer decides it once; reports only
// consume it.
type Viewer struct {
	Role       string
	CompanyIDs []int64
}

func (v Viewer) IsTransportista() bool {
	return v.Role == RoleTransportista
}

// Defaults are the engine thresholds; per-request filters may override
// each one.
type Defaults struct {
	UmbralCongestion       float64
	UmbralAcumulacionHoras float64
	CapacidadTeorica       int
	UmbralDespachoHoras    float64
	FranjaHoras            int
}

func DefaultsFromConfig(cfg config.Config) Defaults {
	return Defaults{
		UmbralCongestion:       cfg.UmbralCongestion,
		UmbralAcumulacionHoras: cfg.UmbralAcumulacionHoras,
		CapacidadTeorica:       cfg.CapacidadTeorica,
		UmbralDespachoHoras:    cfg.UmbralDespachoHoras,
		FranjaHoras:            cfg.FranjaHoras,
	}
}

// Service generates the operational reports. Each Generate* call is a
// self-contained computation over a snapshot fetched at invocation time;
// only the early-warning report writes (alert upserts + notification).
type Service struct {
	Store    *db.Store
	Notifier notify.Sink
	Logger   zerolog.Logger
	Defaults Defaults
}

// DateRange is the common desde/hasta filter shared by every report.
// Zero values mean unbounded on that side.
type DateRange struct {
	Desde time.Time `form:"desde" json:"desde"`
	Hasta time.Time `form:"hasta" json:"hasta"`
}

func (r DateRange) desdePtr() *time.Time {
	if r.Desde.IsZero() {
		return nil
	}
	d := r.Desde
	return &d
}

func (r DateRange) hastaPtr() *time.Time {
	if r.Hasta.IsZero() {
		return nil
	}
	h := r.Hasta
	return &h
}

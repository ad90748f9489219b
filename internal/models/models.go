package models

import "time"

const (
	EstadoProgramada = "PROGRAMADA"
	EstadoConfirmada = "CONFIRMADA"
	EstadoAtendida   = "ATENDIDA"
	EstadoNoShow     = "NO_SHOW"

	TramiteIniciado   = "INICIADO"
	TramiteEnRevision = "EN_REVISION"
	TramiteObservado  = "OBSERVADO"
	TramiteAprobado   = "APROBADO"
	TramiteRechazado  = "RECHAZADO"

	AccionEntrada = "ENTRADA"
	AccionSalida  = "SALIDA"

	NivelVerde    = "VERDE"
	NivelAmarillo = "AMARILLO"
	NivelRojo     = "ROJO"

	AlertaActiva     = "ACTIVA"
	AlertaReconocida = "RECONOCIDA"

	ActorTransportista = "TRANSPORTISTA"
	ActorEntidadAduana = "ENTIDAD_ADUANA"
)

type Vessel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	IMO  string `json:"imo"`
}

type Berth struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	RUC  string `json:"ruc"`
}

type Gate struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Entidad struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Truck struct {
	ID        int64  `json:"id"`
	Placa     string `json:"placa"`
	CompanyID int64  `json:"company_id"`
}

// VesselCall carries the scheduled and actual milestones of one port call.
// All timestamps are optional until the corresponding event is recorded.
type VesselCall struct {
	ID       int64      `json:"id"`
	VesselID int64      `json:"vessel_id"`
	BerthID  *int64     `json:"berth_id"`
	ETA      *time.Time `json:"eta"`
	ETB      *time.Time `json:"etb"`
	ATA      *time.Time `json:"ata"`
	ATB      *time.Time `json:"atb"`
	ATD      *time.Time `json:"atd"`

	VesselName string `json:"vessel_name,omitempty"`
	BerthName  string `json:"berth_name,omitempty"`
}

type Appointment struct {
	ID             int64      `json:"id"`
	TruckID        int64      `json:"truck_id"`
	CompanyID      int64      `json:"company_id"`
	VesselCallID   *int64     `json:"vessel_call_id"`
	HoraProgramada time.Time  `json:"hora_programada"`
	HoraLlegada    *time.Time `json:"hora_llegada"`
	Estado         string     `json:"estado"`

	TruckPlaca  string `json:"truck_placa,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

type GateEvent struct {
	ID            int64     `json:"id"`
	GateID        int64     `json:"gate_id"`
	TruckID       int64     `json:"truck_id"`
	AppointmentID *int64    `json:"appointment_id"`
	Accion        string    `json:"accion"`
	EventTS       time.Time `json:"event_ts"`

	GateName string `json:"gate_name,omitempty"`
}

// Tramite is a customs procedure tied to a vessel call, with an ordered
// event log recording every estado transition.
type Tramite struct {
	ID           int64      `json:"id"`
	VesselCallID int64      `json:"vessel_call_id"`
	EntidadID    int64      `json:"entidad_id"`
	Regimen      string     `json:"regimen"`
	Estado       string     `json:"estado"`
	FechaInicio  time.Time  `json:"fecha_inicio"`
	FechaFin     *time.Time `json:"fecha_fin"`

	EntidadName string         `json:"entidad_name,omitempty"`
	VesselName  string         `json:"vessel_name,omitempty"`
	VesselATA   *time.Time     `json:"vessel_ata,omitempty"`
	Events      []TramiteEvent `json:"events,omitempty"`
}

type TramiteEvent struct {
	ID        int64     `json:"id"`
	TramiteID int64     `json:"tramite_id"`
	Estado    string    `json:"estado"`
	EventTS   time.Time `json:"event_ts"`
	Motivo    string    `json:"motivo"`
}

// Alert is keyed by AlertID, a natural key such as "CONGESTION_BERTH_3";
// re-detection upserts in place instead of duplicating.
type Alert struct {
	ID         int64     `json:"id"`
	AlertID    string    `json:"alert_id"`
	Tipo       string    `json:"tipo"`
	Nivel      string    `json:"nivel"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Valor      float64   `json:"valor"`
	Umbral     float64   `json:"umbral"`
	DetectedAt time.Time `json:"detected_at"`
	Estado     string    `json:"estado"`
}

type SlaDefinition struct {
	ID         int64   `json:"id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Umbral     float64 `json:"umbral"`
	Comparador string  `json:"comparador"`
}

// Actor is a generic handle over a company or a customs entity so SLA
// evaluation can run uniformly across both.
type Actor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Tipo     string `json:"tipo"`
	RefTable string `json:"ref_table"`
	RefID    int64  `json:"ref_id"`
}

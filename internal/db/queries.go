package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/portops/backend/internal/models"
)

// ListVesselCalls filters on COALESCE(ata, eta) so scheduled-only calls
// still show up in range queries.
func (s *Store) ListVesselCalls(ctx context.Context, desde, hasta *time.Time, berthID *int64) ([]models.VesselCall, error) {
	query := `SELECT vc.id, vc.vessel_id, vc.berth_id, vc.eta, vc.etb, vc.ata, vc.atb, vc.atd, v.name, COALESCE(b.name, '')
		FROM vessel_calls vc
		JOIN vessels v ON v.id = vc.vessel_id
		LEFT JOIN berths b ON b.id = vc.berth_id`
	var args []any
	var wheres []string
	if desde != nil {
		args = append(args, *desde)
		wheres = append(wheres, fmt.Sprintf("COALESCE(vc.ata, vc.eta) >= $%d", len(args)))
	}
	if hasta != nil {
		args = append(args, *hasta)
		wheres = append(wheres, fmt.Sprintf("COALESCE(vc.ata, vc.eta) <= $%d", len(args)))
	}
	if berthID != nil {
		args = append(args, *berthID)
		wheres = append(wheres, fmt.Sprintf("vc.berth_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY COALESCE(vc.ata, vc.eta) ASC, vc.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VesselCall
	for rows.Next() {
		var c models.VesselCall
		if err := rows.Scan(&c.ID, &c.VesselID, &c.BerthID, &c.ETA, &c.ETB, &c.ATA, &c.ATB, &c.ATD, &c.VesselName, &c.BerthName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetVesselCall(ctx context.Context, id int64) (models.VesselCall, error) {
	var c models.VesselCall
	err := s.Pool.QueryRow(ctx, `SELECT vc.id, vc.vessel_id, vc.berth_id, vc.eta, vc.etb, vc.ata, vc.atb, vc.atd, v.name, COALESCE(b.name, '')
		FROM vessel_calls vc
		JOIN vessels v ON v.id = vc.vessel_id
		LEFT JOIN berths b ON b.id = vc.berth_id
		WHERE vc.id = $1`, id).
		Scan(&c.ID, &c.VesselID, &c.BerthID, &c.ETA, &c.ETB, &c.ATA, &c.ATB, &c.ATD, &c.VesselName, &c.BerthName)
	return c, err
}

func (s *Store) ListAppointments(ctx context.Context, desde, hasta *time.Time, companyIDs []int64) ([]models.Appointment, error) {
	query := `SELECT a.id, a.truck_id, a.company_id, a.vessel_call_id, a.hora_programada, a.hora_llegada, a.estado, t.placa, c.name
		FROM appointments a
		JOIN trucks t ON t.id = a.truck_id
		JOIN companies c ON c.id = a.company_id`
	var args []any
	var wheres []string
	if desde != nil {
		args = append(args, *desde)
		wheres = append(wheres, fmt.Sprintf("a.hora_programada >= $%d", len(args)))
	}
	if hasta != nil {
		args = append(args, *hasta)
		wheres = append(wheres, fmt.Sprintf("a.hora_programada <= $%d", len(args)))
	}
	if len(companyIDs) > 0 {
		args = append(args, companyIDs)
		wheres = append(wheres, fmt.Sprintf("a.company_id = ANY($%d)", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY a.hora_programada ASC, a.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.TruckID, &a.CompanyID, &a.VesselCallID, &a.HoraProgramada, &a.HoraLlegada, &a.Estado, &a.TruckPlaca, &a.CompanyName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (models.Appointment, error) {
	var a models.Appointment
	err := s.Pool.QueryRow(ctx, `SELECT a.id, a.truck_id, a.company_id, a.vessel_call_id, a.hora_programada, a.hora_llegada, a.estado, t.placa, c.name
		FROM appointments a
		JOIN trucks t ON t.id = a.truck_id
		JOIN companies c ON c.id = a.company_id
		WHERE a.id = $1`, id).
		Scan(&a.ID, &a.TruckID, &a.CompanyID, &a.VesselCallID, &a.HoraProgramada, &a.HoraLlegada, &a.Estado, &a.TruckPlaca, &a.CompanyName)
	return a, err
}

func (s *Store) ListGateEvents(ctx context.Context, desde, hasta *time.Time, gateID *int64) ([]models.GateEvent, error) {
	query := `SELECT ge.id, ge.gate_id, ge.truck_id, ge.appointment_id, ge.accion, ge.event_ts, g.name
		FROM gate_events ge
		JOIN gates g ON g.id = ge.gate_id`
	var args []any
	var wheres []string
	if desde != nil {
		args = append(args, *desde)
		wheres = append(wheres, fmt.Sprintf("ge.event_ts >= $%d", len(args)))
	}
	if hasta != nil {
		args = append(args, *hasta)
		wheres = append(wheres, fmt.Sprintf("ge.event_ts <= $%d", len(args)))
	}
	if gateID != nil {
		args = append(args, *gateID)
		wheres = append(wheres, fmt.Sprintf("ge.gate_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY ge.event_ts ASC, ge.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.GateEvent
	for rows.Next() {
		var e models.GateEvent
		if err := rows.Scan(&e.ID, &e.GateID, &e.TruckID, &e.AppointmentID, &e.Accion, &e.EventTS, &e.GateName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FirstEntrada returns the chronologically first ENTRADA event linked to
// the appointment, or pgx.ErrNoRows when none exists.
func (s *Store) FirstEntrada(ctx context.Context, appointmentID int64) (models.GateEvent, error) {
	var e models.GateEvent
	err := s.Pool.QueryRow(ctx, `SELECT ge.id, ge.gate_id, ge.truck_id, ge.appointment_id, ge.accion, ge.event_ts, g.name
		FROM gate_events ge
		JOIN gates g ON g.id = ge.gate_id
		WHERE ge.appointment_id = $1 AND ge.accion = 'ENTRADA'
		ORDER BY ge.event_ts ASC LIMIT 1`, appointmentID).
		Scan(&e.ID, &e.GateID, &e.TruckID, &e.AppointmentID, &e.Accion, &e.EventTS, &e.GateName)
	return e, err
}

// ListTramites eager-loads the per-trámite event log with a second query
// and joins it in memory, so callers always get fully materialized records.
func (s *Store) ListTramites(ctx context.Context, desde, hasta *time.Time, regimen string, entidadID *int64) ([]models.Tramite, error) {
	query := `SELECT tr.id, tr.vessel_call_id, tr.entidad_id, tr.regimen, tr.estado, tr.fecha_inicio, tr.fecha_fin, e.name, v.name, vc.ata
		FROM tramites tr
		JOIN entidades e ON e.id = tr.entidad_id
		JOIN vessel_calls vc ON vc.id = tr.vessel_call_id
		JOIN vessels v ON v.id = vc.vessel_id`
	var args []any
	var wheres []string
	if desde != nil {
		args = append(args, *desde)
		wheres = append(wheres, fmt.Sprintf("tr.fecha_inicio >= $%d", len(args)))
	}
	if hasta != nil {
		args = append(args, *hasta)
		wheres = append(wheres, fmt.Sprintf("tr.fecha_inicio <= $%d", len(args)))
	}
	if regimen != "" {
		args = append(args, regimen)
		wheres = append(wheres, fmt.Sprintf("tr.regimen = $%d", len(args)))
	}
	if entidadID != nil {
		args = append(args, *entidadID)
		wheres = append(wheres, fmt.Sprintf("tr.entidad_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY tr.fecha_inicio ASC, tr.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Tramite
	var ids []int64
	for rows.Next() {
		var t models.Tramite
		if err := rows.Scan(&t.ID, &t.VesselCallID, &t.EntidadID, &t.Regimen, &t.Estado, &t.FechaInicio, &t.FechaFin, &t.EntidadName, &t.VesselName, &t.VesselATA); err != nil {
			return nil, err
		}
		out = append(out, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	events, err := s.listTramiteEvents(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Events = events[out[i].ID]
	}
	return out, nil
}

func (s *Store) GetTramite(ctx context.Context, id int64) (models.Tramite, error) {
	var t models.Tramite
	err := s.Pool.QueryRow(ctx, `SELECT tr.id, tr.vessel_call_id, tr.entidad_id, tr.regimen, tr.estado, tr.fecha_inicio, tr.fecha_fin, e.name, v.name, vc.ata
		FROM tramites tr
		JOIN entidades e ON e.id = tr.entidad_id
		JOIN vessel_calls vc ON vc.id = tr.vessel_call_id
		JOIN vessels v ON v.id = vc.vessel_id
		WHERE tr.id = $1`, id).
		Scan(&t.ID, &t.VesselCallID, &t.EntidadID, &t.Regimen, &t.Estado, &t.FechaInicio, &t.FechaFin, &t.EntidadName, &t.VesselName, &t.VesselATA)
	if err != nil {
		return t, err
	}
	events, err := s.listTramiteEvents(ctx, []int64{t.ID})
	if err != nil {
		return t, err
	}
	t.Events = events[t.ID]
	return t, nil
}

func (s *Store) listTramiteEvents(ctx context.Context, tramiteIDs []int64) (map[int64][]models.TramiteEvent, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, tramite_id, estado, event_ts, COALESCE(motivo, '')
		FROM tramite_events
		WHERE tramite_id = ANY($1)
		ORDER BY event_ts ASC, id ASC`, tramiteIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]models.TramiteEvent{}
	for rows.Next() {
		var e models.TramiteEvent
		if err := rows.Scan(&e.ID, &e.TramiteID, &e.Estado, &e.EventTS, &e.Motivo); err != nil {
			return nil, err
		}
		out[e.TramiteID] = append(out[e.TramiteID], e)
	}
	return out, rows.Err()
}

func (s *Store) ListActors(ctx context.Context, tipo string) ([]models.Actor, error) {
	query := `SELECT id, name, tipo, ref_table, ref_id FROM actors`
	var args []any
	if tipo != "" {
		args = append(args, tipo)
		query += " WHERE tipo = $1"
	}
	query += " ORDER BY name ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Actor
	for rows.Next() {
		var a models.Actor
		if err := rows.Scan(&a.ID, &a.Name, &a.Tipo, &a.RefTable, &a.RefID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListSlaDefinitions(ctx context.Context) ([]models.SlaDefinition, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, code, name, umbral, comparador FROM sla_definitions ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SlaDefinition
	for rows.Next() {
		var d models.SlaDefinition
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.Umbral, &d.Comparador); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) ListBerths(ctx context.Context) ([]models.Berth, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name FROM berths ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Berth
	for rows.Next() {
		var b models.Berth
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, COALESCE(ruc, '') FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.RUC); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

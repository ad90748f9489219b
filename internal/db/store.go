package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portops/backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertVesselCalls(ctx context.Context, calls []models.VesselCall) (int64, error) {
	rows := make([][]any, 0, len(calls))
	for _, c := range calls {
		rows = append(rows, []any{c.VesselID, c.BerthID, c.ETA, c.ETB, c.ATA, c.ATB, c.ATD})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"vessel_calls"}, []string{"vessel_id", "berth_id", "eta", "etb", "ata", "atb", "atd"}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertAppointments(ctx context.Context, appts []models.Appointment) (int64, error) {
	rows := make([][]any, 0, len(appts))
	for _, a := range appts {
		rows = append(rows, []any{a.TruckID, a.CompanyID, a.VesselCallID, a.HoraProgramada, a.HoraLlegada, a.Estado})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"appointments"}, []string{"truck_id", "company_id", "vessel_call_id", "hora_programada", "hora_llegada", "estado"}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertGateEvents(ctx context.Context, events []models.GateEvent) (int64, error) {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{e.GateID, e.TruckID, e.AppointmentID, e.Accion, e.EventTS})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"gate_events"}, []string{"gate_id", "truck_id", "appointment_id", "accion", "event_ts"}, pgx.CopyFromRows(rows))
}

package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/portops/backend/internal/models"
)

// UpsertAlert writes by natural key; re-detection refreshes the measured
// value and level in place instead of creating a duplicate row.
func (s *Store) UpsertAlert(ctx context.Context, a models.Alert) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO alerts (alert_id, tipo, nivel, entity_type, entity_id, valor, umbral, detected_at, estado)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (alert_id) DO UPDATE SET
			nivel = EXCLUDED.nivel,
			valor = EXCLUDED.valor,
			umbral = EXCLUDED.umbral,
			detected_at = EXCLUDED.detected_at,
			estado = EXCLUDED.estado
	`, a.AlertID, a.Tipo, a.Nivel, a.EntityType, a.EntityID, a.Valor, a.Umbral, a.DetectedAt, a.Estado)
	return err
}

func (s *Store) GetAlertByKey(ctx context.Context, alertID string) (models.Alert, error) {
	var a models.Alert
	err := s.Pool.QueryRow(ctx, `SELECT id, alert_id, tipo, nivel, entity_type, entity_id, valor, umbral, detected_at, estado
		FROM alerts WHERE alert_id = $1`, alertID).
		Scan(&a.ID, &a.AlertID, &a.Tipo, &a.Nivel, &a.EntityType, &a.EntityID, &a.Valor, &a.Umbral, &a.DetectedAt, &a.Estado)
	return a, err
}

func (s *Store) ListAlerts(ctx context.Context, estado, nivel string, limit, offset int) ([]models.Alert, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, alert_id, tipo, nivel, entity_type, entity_id, valor, umbral, detected_at, estado FROM alerts`
	var args []any
	var wheres []string
	if estado != "" {
		args = append(args, estado)
		wheres = append(wheres, fmt.Sprintf("estado = $%d", len(args)))
	}
	if nivel != "" {
		args = append(args, nivel)
		wheres = append(wheres, fmt.Sprintf("nivel = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY detected_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.AlertID, &a.Tipo, &a.Nivel, &a.EntityType, &a.EntityID, &a.Valor, &a.Umbral, &a.DetectedAt, &a.Estado); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AckAlert(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE alerts SET estado = $1 WHERE id = $2`, models.AlertaReconocida, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package notify

import (
	"context"
	"time"
)

// DefaultRoles are the operational roles notified when no explicit
// recipient list is given.
var DefaultRoles = []string{"OPERACIONES", "SUPERVISOR"}

type AlertSummary struct {
	AlertID    string    `json:"alert_id"`
	Tipo       string    `json:"tipo"`
	Nivel      string    `json:"nivel"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Valor      float64   `json:"valor"`
	Umbral     float64   `json:"umbral"`
	DetectedAt time.Time `json:"detected_at"`
}

// Sink delivers a batch of alert summaries to the given recipient roles.
// Repeated sends for the same alerts are acceptable; dedup is the
// receiver's concern.
type Sink interface {
	Send(ctx context.Context, alerts []AlertSummary, roles []string) (bool, error)
}

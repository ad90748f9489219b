package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type HTTPSink struct {
	BaseURL string
	Client  *http.Client
}

type requestBody struct {
	Roles  []string       `json:"roles"`
	Alerts []AlertSummary `json:"alerts"`
}

type responseBody struct {
	Delivered bool `json:"delivered"`
}

func (h HTTPSink) Send(ctx context.Context, alerts []AlertSummary, roles []string) (bool, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if len(alerts) == 0 {
		return true, nil
	}
	if len(roles) == 0 {
		roles = DefaultRoles
	}

	b, _ := json.Marshal(requestBody{Roles: roles, Alerts: alerts})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/notify", bytes.NewBuffer(b))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, errors.New("notification service error")
	}

	var r responseBody
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return false, err
	}
	return r.Delivered, nil
}

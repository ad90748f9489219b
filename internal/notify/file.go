package notify

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// FileSink appends notification batches to a local file, one JSON line per
// batch. It stands in for the real delivery channel in dev and tests.
type FileSink struct {
	Path string

	mu sync.Mutex
}

func (f *FileSink) Send(ctx context.Context, alerts []AlertSummary, roles []string) (bool, error) {
	if len(alerts) == 0 {
		return true, nil
	}
	if len(roles) == 0 {
		roles = DefaultRoles
	}

	record := map[string]any{
		"sent_at": time.Now().UTC(),
		"roles":   roles,
		"alerts":  alerts,
	}
	b, err := json.Marshal(record)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer file.Close()

	if _, err := file.Write(append(b, '\n')); err != nil {
		return false, err
	}
	return true, nil
}

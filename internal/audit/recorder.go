// Package audit appends immutable records for privileged mutations.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/workflicks/backoffice/internal/store"
)

const collection = "auditLogs"

// Entry is one append-only audit record. Entries are never updated or
// deleted.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor derives the acting identity from the summary's leading token, the
// convention every recorded summary follows.
func (e Entry) Actor() string {
	parts := strings.Fields(e.Summary)
	if len(parts) == 0 {
		return "system"
	}
	return parts[0]
}

// Recorder writes audit entries. Failures are logged and never propagated:
// a side-channel write must not block a user-facing mutation.
type Recorder struct {
	store  store.Store
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(st store.Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: st, logger: logger}
}

// Record appends an entry describing a privileged action.
func (r *Recorder) Record(ctx context.Context, typ, summary string) {
	if r == nil || r.store == nil {
		return
	}
	id := uuid.NewString()
	fields := map[string]any{
		"type":      typ,
		"summary":   summary,
		"createdAt": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.store.Set(ctx, collection, id, fields, false); err != nil {
		r.logger.Error("audit record", slog.String("type", typ), slog.Any("error", err))
	}
}

// Recent returns the newest n entries.
func (r *Recorder) Recent(ctx context.Context, n int) ([]Entry, error) {
	docs, err := r.store.Query(ctx, collection, nil, store.Order{Field: "createdAt", Desc: true}, n)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entry := Entry{ID: doc.ID, CreatedAt: doc.CreatedAt}
		if v, ok := doc.Fields["type"].(string); ok {
			entry.Type = v
		}
		if v, ok := doc.Fields["summary"].(string); ok {
			entry.Summary = v
		}
		if v, ok := doc.Fields["createdAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				entry.CreatedAt = t
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

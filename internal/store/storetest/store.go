// Package storetest provides an in-memory Store for service and handler
// tests.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/workflicks/backoffice/internal/store"
)

// Store keeps documents in maps and counts every operation so tests can
// assert on access patterns. Fields round-trip through JSON on write, so
// reads observe []any and float64 exactly like the jsonb-backed store.
type Store struct {
	mu   sync.Mutex
	data map[string]map[string]store.Document

	// Ops counts every store call, including reads inside transactions.
	Ops int

	// FailWrites makes every mutating call fail when set.
	FailWrites error

	now func() time.Time
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		data: map[string]map[string]store.Document{},
		now:  time.Now,
	}
}

// Seed inserts a document without counting an operation.
func (s *Store) Seed(collection, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, fields, false)
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ops++
	doc, ok := s.data[collection][id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return cloneDoc(doc), nil
}

// Query implements store.Store.
func (s *Store) Query(ctx context.Context, collection string, filters []store.Filter, order store.Order, limit int) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ops++

	var docs []store.Document
	for _, doc := range s.data[collection] {
		if matches(doc, filters) {
			docs = append(docs, cloneDoc(doc))
		}
	}
	sortDocs(docs, order)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Set implements store.Store.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ops++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.put(collection, id, fields, merge)
	return nil
}

// BatchWrite implements store.Store. All writes apply or none.
func (s *Store) BatchWrite(ctx context.Context, writes []store.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ops++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	for _, w := range writes {
		s.put(w.Collection, w.ID, w.Fields, w.Merge)
	}
	return nil
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, collection string, filters []store.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ops++
	var n int64
	for _, doc := range s.data[collection] {
		if matches(doc, filters) {
			n++
		}
	}
	return n, nil
}

// RunTransaction implements store.Store. The callback runs against the same
// store; FailWrites still aborts the whole transaction body.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, s)
}

func (s *Store) put(collection, id string, fields map[string]any, merge bool) {
	coll, ok := s.data[collection]
	if !ok {
		coll = map[string]store.Document{}
		s.data[collection] = coll
	}
	now := s.now()
	normalized := normalize(fields)
	existing, ok := coll[id]
	if !ok {
		coll[id] = store.Document{ID: id, Fields: normalized, CreatedAt: now, UpdatedAt: now}
		return
	}
	if merge {
		merged := cloneFields(existing.Fields)
		for k, v := range normalized {
			merged[k] = v
		}
		existing.Fields = merged
	} else {
		existing.Fields = normalized
	}
	existing.UpdatedAt = now
	coll[id] = existing
}

func matches(doc store.Document, filters []store.Filter) bool {
	for _, f := range filters {
		value := fieldText(doc, f.Field)
		switch f.Op {
		case "==":
			if value != text(f.Value) {
				return false
			}
		case "in":
			found := false
			for _, candidate := range textSlice(f.Value) {
				if value == candidate {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sortDocs(docs []store.Document, order store.Order) {
	if order.Field == "" {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		return
	}
	sort.Slice(docs, func(i, j int) bool {
		var less bool
		switch order.Field {
		case "createdAt":
			if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
				less = docs[i].ID < docs[j].ID
			} else {
				less = docs[i].CreatedAt.Before(docs[j].CreatedAt)
			}
		case "updatedAt":
			if docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
				less = docs[i].ID < docs[j].ID
			} else {
				less = docs[i].UpdatedAt.Before(docs[j].UpdatedAt)
			}
		default:
			less = fieldText(docs[i], order.Field) < fieldText(docs[j], order.Field)
		}
		if order.Desc {
			return !less
		}
		return less
	})
}

func fieldText(doc store.Document, field string) string {
	if field == "id" {
		return doc.ID
	}
	return text(doc.Fields[field])
}

func text(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func textSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			out = append(out, text(item))
		}
		return out
	default:
		return []string{text(v)}
	}
}

func cloneDoc(doc store.Document) store.Document {
	doc.Fields = cloneFields(doc.Fields)
	return doc
}

func normalize(fields map[string]any) map[string]any {
	data, err := json.Marshal(fields)
	if err != nil {
		return cloneFields(fields)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return cloneFields(fields)
	}
	return out
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

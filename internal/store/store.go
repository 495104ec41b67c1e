// Package store exposes the document-store collaborator used by every
// vertical: collections of schemaless documents with single-document
// atomicity, transactional multi-document writes and filtered queries.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("store: document not found")

// Document is one record in a collection.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter restricts a query. Op is "==" or "in"; the special field "id"
// matches the document identifier instead of a payload field.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Order describes result ordering. Field is "createdAt", "updatedAt" or a
// payload field name.
type Order struct {
	Field string
	Desc  bool
}

// Write is a single entry of a batch.
type Write struct {
	Collection string
	ID         string
	Fields     map[string]any
	Merge      bool
}

// Store is the document-store contract. Implementations guarantee
// single-document atomicity for Set and all-or-nothing semantics for
// BatchWrite and RunTransaction.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filters []Filter, order Order, limit int) ([]Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	BatchWrite(ctx context.Context, writes []Write) error
	Count(ctx context.Context, collection string, filters []Filter) (int64, error)

	// RunTransaction executes fn against a transactional view; every write
	// inside fn commits atomically or not at all.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Decode maps document fields onto a typed struct via its json tags.
func Decode(doc Document, dst any) error {
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// Encode flattens a typed struct into document fields via its json tags.
func Encode(src any) (map[string]any, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

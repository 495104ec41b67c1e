package content

import (
	"context"
	"fmt"

	"github.com/workflicks/backoffice/internal/store"
)

const (
	collection = "cmsContent"
	listLimit  = 50
)

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, typ, summary string)
}

// Service implements content operations.
type Service struct {
	store store.Store
	audit Recorder
}

// NewService constructs the content Service.
func NewService(st store.Store, audit Recorder) *Service {
	return &Service{store: st, audit: audit}
}

// List returns the most recently updated pages.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	docs, err := s.store.Query(ctx, collection, nil, store.Order{Field: "updatedAt", Desc: true}, listLimit)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(docs))
	for _, doc := range docs {
		var item Item
		if err := store.Decode(doc, &item.ItemRecord); err != nil {
			return nil, err
		}
		item.ID = doc.ID
		item.CreatedAt = doc.CreatedAt
		item.UpdatedAt = doc.UpdatedAt
		items = append(items, item)
	}
	return items, nil
}

// Upsert writes a page under its slug.
func (s *Service) Upsert(ctx context.Context, form ItemForm, actorLabel string) (Item, error) {
	record := ItemRecord{
		Slug:   form.Slug,
		Title:  form.Title,
		Body:   form.Body,
		Status: form.Status,
	}
	fields, err := store.Encode(record)
	if err != nil {
		return Item{}, err
	}
	if err := s.store.Set(ctx, collection, record.Slug, fields, true); err != nil {
		return Item{}, err
	}
	s.audit.Record(ctx, "content.updated", fmt.Sprintf("%s updated %s", actorLabel, record.Slug))
	return Item{ItemRecord: record, ID: record.Slug}, nil
}

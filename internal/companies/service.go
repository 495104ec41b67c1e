package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/store"
)

const (
	collection = "companies"
	listLimit  = 50
)

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, typ, summary string)
}

// Service implements company operations.
type Service struct {
	store store.Store
	audit Recorder
}

// NewService constructs the companies Service.
func NewService(st store.Store, audit Recorder) *Service {
	return &Service{store: st, audit: audit}
}

// List returns the newest companies.
func (s *Service) List(ctx context.Context) ([]Company, error) {
	docs, err := s.store.Query(ctx, collection, nil, store.Order{Field: "createdAt", Desc: true}, listLimit)
	if err != nil {
		return nil, err
	}
	out := make([]Company, 0, len(docs))
	for _, doc := range docs {
		company, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, company)
	}
	return out, nil
}

// Get fetches one company.
func (s *Service) Get(ctx context.Context, id string) (Company, error) {
	doc, err := s.store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Company{}, httpx.ErrNotFound
		}
		return Company{}, err
	}
	return decode(doc)
}

// Create stores a new company.
func (s *Service) Create(ctx context.Context, form CompanyForm, actorLabel string) (Company, error) {
	record := form.record()
	fields, err := store.Encode(record)
	if err != nil {
		return Company{}, err
	}
	id := uuid.NewString()
	if err := s.store.Set(ctx, collection, id, fields, false); err != nil {
		return Company{}, err
	}
	s.audit.Record(ctx, "company.created", fmt.Sprintf("%s created company %s", actorLabel, record.Name))
	return Company{CompanyRecord: record, ID: id}, nil
}

// Update rewrites an existing company.
func (s *Service) Update(ctx context.Context, id string, form CompanyForm, actorLabel string) (Company, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Company{}, err
	}
	record := form.record()
	fields, err := store.Encode(record)
	if err != nil {
		return Company{}, err
	}
	if err := s.store.Set(ctx, collection, id, fields, false); err != nil {
		return Company{}, err
	}
	s.audit.Record(ctx, "company.updated", fmt.Sprintf("%s updated company %s", actorLabel, record.Name))
	return Company{CompanyRecord: record, ID: id, CreatedAt: existing.CreatedAt}, nil
}

func decode(doc store.Document) (Company, error) {
	var company Company
	if err := store.Decode(doc, &company.CompanyRecord); err != nil {
		return Company{}, err
	}
	company.ID = doc.ID
	company.CreatedAt = doc.CreatedAt
	company.UpdatedAt = doc.UpdatedAt
	return company, nil
}

package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/store"
)

const (
	jobsCollection      = "jobs"
	companiesCollection = "companies"
	usersCollection     = "users"

	listLimit        = 50
	companyChunkSize = 10
)

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, typ, summary string)
}

// Mailer queues outbound notification email.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, to, subject, body string) error
}

// Service implements job posting operations.
type Service struct {
	store  store.Store
	audit  Recorder
	mailer Mailer
	logger *slog.Logger
}

// NewService constructs the listings Service.
func NewService(st store.Store, audit Recorder, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{store: st, audit: audit, mailer: mailer, logger: logger}
}

// List returns the newest postings plus a company-name lookup for the
// companies they reference.
func (s *Service) List(ctx context.Context) ([]Job, map[string]string, error) {
	docs, err := s.store.Query(ctx, jobsCollection, nil, store.Order{Field: "createdAt", Desc: true}, listLimit)
	if err != nil {
		return nil, nil, err
	}

	jobs := make([]Job, 0, len(docs))
	companyIDs := map[string]struct{}{}
	for _, doc := range docs {
		job, err := decodeJob(doc)
		if err != nil {
			return nil, nil, err
		}
		jobs = append(jobs, job)
		if job.CompanyID != "" {
			companyIDs[job.CompanyID] = struct{}{}
		}
	}

	names, err := s.companyNames(ctx, companyIDs)
	if err != nil {
		return nil, nil, err
	}
	return jobs, names, nil
}

// Get fetches a single posting.
func (s *Service) Get(ctx context.Context, id string) (Job, error) {
	doc, err := s.store.Get(ctx, jobsCollection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Job{}, httpx.ErrNotFound
		}
		return Job{}, err
	}
	return decodeJob(doc)
}

// Create stores a new posting. Published postings trigger the recruiter
// notification email.
func (s *Service) Create(ctx context.Context, form JobForm, postedBy, actorLabel string) (Job, error) {
	if err := form.checkSalaryRange(); err != nil {
		return Job{}, err
	}
	record := form.record()
	record.Description = sanitizeDescription(record.Description)
	record.PostedBy = postedBy
	if record.Status == StatusPublished {
		now := time.Now().UTC()
		record.PublishedAt = &now
	}

	fields, err := store.Encode(record)
	if err != nil {
		return Job{}, err
	}
	id := uuid.NewString()
	if err := s.store.Set(ctx, jobsCollection, id, fields, false); err != nil {
		return Job{}, err
	}

	s.audit.Record(ctx, "job.created", fmt.Sprintf("%s created job %s", actorLabel, record.Title))
	if record.Status == StatusPublished {
		s.notifyPublished(ctx, record)
	}
	return Job{JobRecord: record, ID: id}, nil
}

// Update rewrites a posting. A draft transitioning to published gets a
// publish timestamp and triggers the notification email.
func (s *Service) Update(ctx context.Context, id string, form JobForm, actorLabel string) (Job, error) {
	if err := form.checkSalaryRange(); err != nil {
		return Job{}, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}

	record := form.record()
	record.Description = sanitizeDescription(record.Description)
	record.PostedBy = existing.PostedBy
	record.PublishedAt = existing.PublishedAt
	justPublished := existing.Status != StatusPublished && record.Status == StatusPublished
	if justPublished {
		now := time.Now().UTC()
		record.PublishedAt = &now
	}

	fields, err := store.Encode(record)
	if err != nil {
		return Job{}, err
	}
	if err := s.store.Set(ctx, jobsCollection, id, fields, false); err != nil {
		return Job{}, err
	}

	s.audit.Record(ctx, "job.updated", fmt.Sprintf("%s updated job %s", actorLabel, record.Title))
	if justPublished {
		s.notifyPublished(ctx, record)
	}
	return Job{JobRecord: record, ID: id, CreatedAt: existing.CreatedAt}, nil
}

// Archive marks a posting archived instead of deleting the document.
func (s *Service) Archive(ctx context.Context, id, actorLabel string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, jobsCollection, id, map[string]any{"status": StatusArchived}, true); err != nil {
		return err
	}
	s.audit.Record(ctx, "job.archived", fmt.Sprintf("%s archived job %s", actorLabel, existing.Title))
	return nil
}

func (s *Service) companyNames(ctx context.Context, ids map[string]struct{}) (map[string]string, error) {
	names := map[string]string{}
	if len(ids) == 0 {
		return names, nil
	}
	all := make([]string, 0, len(ids))
	for id := range ids {
		all = append(all, id)
	}
	for start := 0; start < len(all); start += companyChunkSize {
		end := start + companyChunkSize
		if end > len(all) {
			end = len(all)
		}
		docs, err := s.store.Query(ctx, companiesCollection,
			[]store.Filter{{Field: "id", Op: "in", Value: all[start:end]}},
			store.Order{}, 0)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			name, _ := doc.Fields["name"].(string)
			if name == "" {
				name = "Unknown"
			}
			names[doc.ID] = name
		}
	}
	return names, nil
}

func (s *Service) notifyPublished(ctx context.Context, record JobRecord) {
	if s.mailer == nil || record.PostedBy == "" {
		return
	}
	doc, err := s.store.Get(ctx, usersCollection, record.PostedBy)
	if err != nil {
		s.logger.Warn("job published: recruiter lookup", slog.String("uid", record.PostedBy), slog.Any("error", err))
		return
	}
	email, _ := doc.Fields["email"].(string)
	if email == "" {
		s.logger.Warn("job published: recruiter has no email", slog.String("uid", record.PostedBy))
		return
	}
	subject := "Job published: " + record.Title
	body := fmt.Sprintf("Your job %q is now live on WorkFlicks.in.", record.Title)
	if err := s.mailer.EnqueueSendEmail(ctx, email, subject, body); err != nil {
		s.logger.Warn("queue publication email", slog.String("to", email), slog.Any("error", err))
	}
}

func decodeJob(doc store.Document) (Job, error) {
	var job Job
	if err := store.Decode(doc, &job.JobRecord); err != nil {
		return Job{}, err
	}
	job.ID = doc.ID
	job.CreatedAt = doc.CreatedAt
	job.UpdatedAt = doc.UpdatedAt
	return job, nil
}

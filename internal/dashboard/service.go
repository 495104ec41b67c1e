// Package dashboard aggregates the overview metrics.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/workflicks/backoffice/internal/audit"
	"github.com/workflicks/backoffice/internal/store"
)

const (
	jobsCollection      = "jobs"
	companiesCollection = "companies"
	usersCollection     = "users"

	pipelineScanLimit = 1000
	recentActivityN   = 5
)

// Totals are the headline counters.
type Totals struct {
	Jobs          int64 `json:"jobs"`
	Companies     int64 `json:"companies"`
	Recruiters    int64 `json:"recruiters"`
	PublishedJobs int64 `json:"publishedJobs"`
}

// PipelineRow is one job-status bucket.
type PipelineRow struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Activity is one recent audit entry.
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// Metrics is the full dashboard payload.
type Metrics struct {
	Totals         Totals        `json:"totals"`
	Pipeline       []PipelineRow `json:"pipeline"`
	RecentActivity []Activity    `json:"recentActivity"`
}

// Service computes dashboard metrics.
type Service struct {
	store store.Store
	audit *audit.Recorder
}

// NewService constructs the dashboard Service.
func NewService(st store.Store, recorder *audit.Recorder) *Service {
	return &Service{store: st, audit: recorder}
}

// Metrics gathers all counters; the independent counts run concurrently.
func (s *Service) Metrics(ctx context.Context) (Metrics, error) {
	var m Metrics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, jobsCollection, nil)
		m.Totals.Jobs = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, companiesCollection, nil)
		m.Totals.Companies = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, usersCollection, []store.Filter{
			{Field: "role", Op: "in", Value: []string{"recruiter", "admin", "superAdmin"}},
		})
		m.Totals.Recruiters = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, jobsCollection, []store.Filter{
			{Field: "status", Op: "==", Value: "published"},
		})
		m.Totals.PublishedJobs = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Metrics{}, err
	}

	pipeline, err := s.pipeline(ctx)
	if err != nil {
		return Metrics{}, err
	}
	m.Pipeline = pipeline

	entries, err := s.audit.Recent(ctx, recentActivityN)
	if err != nil {
		return Metrics{}, err
	}
	m.RecentActivity = make([]Activity, 0, len(entries))
	for _, entry := range entries {
		typ := entry.Type
		if typ == "" {
			typ = "event"
		}
		m.RecentActivity = append(m.RecentActivity, Activity{
			ID:        entry.ID,
			Type:      typ,
			Summary:   entry.Summary,
			Timestamp: entry.CreatedAt,
		})
	}
	return m, nil
}

func (s *Service) pipeline(ctx context.Context) ([]PipelineRow, error) {
	docs, err := s.store.Query(ctx, jobsCollection, nil, store.Order{}, pipelineScanLimit)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	order := []string{}
	for _, doc := range docs {
		status, _ := doc.Fields["status"].(string)
		if status == "" {
			status = "draft"
		}
		if _, seen := counts[status]; !seen {
			order = append(order, status)
		}
		counts[status]++
	}
	rows := make([]PipelineRow, 0, len(order))
	for _, status := range order {
		rows = append(rows, PipelineRow{Status: status, Count: counts[status]})
	}
	return rows, nil
}

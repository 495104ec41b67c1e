package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflicks/backoffice/internal/audit"
	"github.com/workflicks/backoffice/internal/store/storetest"
)

func TestMetrics(t *testing.T) {
	st := storetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(st, logger)
	service := NewService(st, recorder)
	ctx := context.Background()

	st.Seed("jobs", "j1", map[string]any{"status": "published", "title": "Backend Engineer"})
	st.Seed("jobs", "j2", map[string]any{"status": "published", "title": "SRE"})
	st.Seed("jobs", "j3", map[string]any{"status": "draft", "title": "Designer"})
	st.Seed("jobs", "j4", map[string]any{"title": "Untagged"})
	st.Seed("companies", "c1", map[string]any{"name": "Acme Robotics"})
	st.Seed("users", "u1", map[string]any{"role": "recruiter"})
	st.Seed("users", "u2", map[string]any{"role": "admin"})
	st.Seed("users", "u3", map[string]any{"role": "contentEditor"})

	recorder.Record(ctx, "job.created", "boss@workflicks.in created job SRE")

	m, err := service.Metrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), m.Totals.Jobs)
	assert.Equal(t, int64(1), m.Totals.Companies)
	assert.Equal(t, int64(2), m.Totals.Recruiters)
	assert.Equal(t, int64(2), m.Totals.PublishedJobs)

	byStatus := map[string]int{}
	for _, row := range m.Pipeline {
		byStatus[row.Status] = row.Count
	}
	// Jobs without a status land in the draft bucket.
	assert.Equal(t, map[string]int{"published": 2, "draft": 2}, byStatus)

	require.Len(t, m.RecentActivity, 1)
	assert.Equal(t, "job.created", m.RecentActivity[0].Type)
	assert.Equal(t, "boss@workflicks.in created job SRE", m.RecentActivity[0].Summary)
}

func TestMetricsEmptyStore(t *testing.T) {
	st := storetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(st, audit.NewRecorder(st, logger))

	m, err := service.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Totals{}, m.Totals)
	assert.Empty(t, m.Pipeline)
	assert.Empty(t, m.RecentActivity)
}

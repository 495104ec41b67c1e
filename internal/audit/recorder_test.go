package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflicks/backoffice/internal/store/storetest"
)

func newRecorder() (*Recorder, *storetest.Store) {
	st := storetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecorder(st, logger), st
}

func TestRecordAndRecent(t *testing.T) {
	recorder, _ := newRecorder()
	ctx := context.Background()

	recorder.Record(ctx, "job.created", "boss@workflicks.in created job Backend Engineer")
	recorder.Record(ctx, "settings.permission", "boss@workflicks.in granted manageContent for recruiter")
	recorder.Record(ctx, "user.invited", "boss@workflicks.in invited new@workflicks.in as recruiter")

	entries, err := recorder.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	summaries := make([]string, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, entry.Summary)
		assert.Equal(t, "boss@workflicks.in", entry.Actor())
		assert.False(t, entry.CreatedAt.IsZero())
	}
	assert.Contains(t, summaries, "boss@workflicks.in granted manageContent for recruiter")

	limited, err := recorder.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecordNeverPropagatesStoreFailures(t *testing.T) {
	recorder, st := newRecorder()
	st.FailWrites = errors.New("disk full")

	// Must not panic or surface the error to the caller.
	recorder.Record(context.Background(), "job.created", "boss created job X")

	st.FailWrites = nil
	entries, err := recorder.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryActorFallback(t *testing.T) {
	assert.Equal(t, "system", Entry{}.Actor())
	assert.Equal(t, "cron", Entry{Summary: "cron archived 3 postings"}.Actor())
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.Record(context.Background(), "noop", "nothing happened")
}

package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflicks/backoffice/internal/store/storetest"
)

type stubRecorder struct {
	summaries []string
}

func (s *stubRecorder) Record(ctx context.Context, typ, summary string) {
	s.summaries = append(s.summaries, summary)
}

func TestFoldSlug(t *testing.T) {
	assert.Equal(t, "about-us", FoldSlug("  About-US "))
	assert.Equal(t, "faq", FoldSlug("ＦＡＱ"))
	assert.Equal(t, "terms-2026", FoldSlug("Terms-2026"))
}

func TestSlugPattern(t *testing.T) {
	assert.True(t, slugPattern.MatchString("about-us"))
	assert.True(t, slugPattern.MatchString("faq2"))
	assert.False(t, slugPattern.MatchString("About Us"))
	assert.False(t, slugPattern.MatchString("a/b"))
	assert.False(t, slugPattern.MatchString(""))
}

func TestUpsertKeyedBySlug(t *testing.T) {
	st := storetest.New()
	recorder := &stubRecorder{}
	service := NewService(st, recorder)
	ctx := context.Background()

	_, err := service.Upsert(ctx, ItemForm{
		Slug:   "about-us",
		Title:  "About Us",
		Body:   "We connect people with work.",
		Status: "draft",
	}, "editor@workflicks.in")
	require.NoError(t, err)

	item, err := service.Upsert(ctx, ItemForm{
		Slug:   "about-us",
		Title:  "About WorkFlicks",
		Body:   "We connect people with meaningful work.",
		Status: "published",
	}, "editor@workflicks.in")
	require.NoError(t, err)
	assert.Equal(t, "about-us", item.ID)

	items, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "About WorkFlicks", items[0].Title)
	assert.Equal(t, "published", items[0].Status)

	assert.Contains(t, recorder.summaries, "editor@workflicks.in updated about-us")
}

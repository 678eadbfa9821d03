package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
	"github.com/nhle/plotta/tests/testutil"
)

func TestViewPreference_RoundTripAndDefault(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	pref, err := s.LoadViewPreference(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultViewPreference(), pref)

	want := model.ViewPreference{
		ViewMode:           model.ViewWeek,
		SelectedTagIDs:     []string{"t1"},
		SelectedPriorities: []model.Priority{model.PriorityHigh},
		SelectedDueDates:   []model.DueBucket{model.DueOverdue},
	}
	require.NoError(t, s.SaveViewPreference(ctx, "p1", want))
	require.NoError(t, s.SaveViewPreference(ctx, "p1", want))

	got, err := s.LoadViewPreference(ctx, "p1")
	require.NoError(t, err)
	want.Version = model.ViewPreferenceVersion
	assert.Equal(t, want, got)

	other, err := s.LoadViewPreference(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, model.ViewAll, other.ViewMode)
}

func TestViewPreference_ForeignOrCorruptPayload(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prefs.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	raw, err := sqlx.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Exec(`INSERT INTO view_preferences (project_id, payload, updated_at) VALUES
		('future', '{"version":2,"viewMode":"week"}', CURRENT_TIMESTAMP),
		('legacy', '{"viewMode":"later"}', CURRENT_TIMESTAMP),
		('broken', '{not json', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	for _, id := range []string{"future", "legacy", "broken"} {
		pref, err := s.LoadViewPreference(context.Background(), id)
		require.NoError(t, err, id)
		assert.Equal(t, model.DefaultViewPreference(), pref, id)
	}
}

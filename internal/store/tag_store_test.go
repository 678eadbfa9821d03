package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
	"github.com/nhle/plotta/tests/testutil"
)

func TestTagStore_NoteTags(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)

	work, err := s.CreateTag(ctx, model.Tag{ProjectID: p.ID, Name: "work", Color: "#00f"})
	require.NoError(t, err)
	home, err := s.CreateTag(ctx, model.Tag{ProjectID: p.ID, Name: "home"})
	require.NoError(t, err)

	tags, err := s.GetTags(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "home", tags[0].Name)

	n, err := s.InsertNote(ctx, model.NoteDraft{ProjectID: p.ID})
	require.NoError(t, err)

	require.NoError(t, s.SetNoteTags(ctx, n.ID, []string{work.ID, home.ID}))
	require.NoError(t, s.SetNoteTags(ctx, n.ID, []string{work.ID}))

	assoc, err := s.GetNoteTags(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.NoteTag{{NoteID: n.ID, TagID: work.ID}}, assoc)

	require.NoError(t, s.DeleteTag(ctx, work.ID))
	assoc, err = s.GetNoteTags(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, assoc)
}

func TestTagStore_UniqueNamePerProject(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)
	other := newProject(t, s)

	_, err := s.CreateTag(ctx, model.Tag{ProjectID: p.ID, Name: "dup"})
	require.NoError(t, err)
	_, err = s.CreateTag(ctx, model.Tag{ProjectID: p.ID, Name: "dup"})
	assert.Error(t, err)
	_, err = s.CreateTag(ctx, model.Tag{ProjectID: other.ID, Name: "dup"})
	assert.NoError(t, err)
}

func TestTagStore_UpdateAndMissing(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)

	tag, err := s.CreateTag(ctx, model.Tag{ProjectID: p.ID, Name: "old"})
	require.NoError(t, err)
	tag.Name = "new"
	require.NoError(t, s.UpdateTag(ctx, tag))

	tags, err := s.GetTags(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", tags[0].Name)

	assert.ErrorIs(t, s.UpdateTag(ctx, model.Tag{ID: "nope", Name: "x"}), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTag(ctx, "nope"), store.ErrNotFound)
	_, err = s.CreateTag(ctx, model.Tag{ProjectID: p.ID})
	assert.Error(t, err)
}

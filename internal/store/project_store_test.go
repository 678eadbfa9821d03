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

func TestProjectStore_CRUD(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, model.Project{Name: "Ideas", OwnerID: "u1", ThemeColor: "#ff0"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	p.Name = "Big ideas"
	p.IsPublic = true
	require.NoError(t, s.UpdateProject(ctx, p))

	got, err := s.GetProjectByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Big ideas", got.Name)
	assert.True(t, got.IsPublic)
	assert.Equal(t, "#ff0", got.ThemeColor)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	_, err = s.GetProjectByID(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, p.ID), store.ErrNotFound)
}

func TestProjectStore_Validation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, model.Project{Name: " ", OwnerID: "u1"})
	assert.Error(t, err)
	_, err = s.CreateProject(ctx, model.Project{Name: "x"})
	assert.Error(t, err)
}

func TestProjectStore_DeleteCascadesToNotes(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)
	n, err := s.InsertNote(ctx, model.NoteDraft{ProjectID: p.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	_, err = s.GetNoteByID(ctx, n.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProjectStore_EnsureDefaultProject(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first, err := s.EnsureDefaultProject(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProjectName, first.Name)
	assert.Equal(t, "u1", first.OwnerID)

	again, err := s.EnsureDefaultProject(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	projects, err := s.GetProjects(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	other, err := s.EnsureDefaultProject(ctx, "u2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestProjectStore_EnsureDefaultProjectPrefersExisting(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	existing, err := s.CreateProject(ctx, model.Project{Name: "Work", OwnerID: "u1"})
	require.NoError(t, err)

	got, err := s.EnsureDefaultProject(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
}

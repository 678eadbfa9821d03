package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/plotta/internal/model"
)

// CreateProject inserts a new project and returns it with id and timestamps set.
func (s *SQLiteStore) CreateProject(
	ctx context.Context,
	project model.Project,
) (model.Project, error) {
	if strings.TrimSpace(project.Name) == "" {
		return model.Project{}, fmt.Errorf("project name must not be empty")
	}
	if strings.TrimSpace(project.OwnerID) == "" {
		return model.Project{}, fmt.Errorf("project owner must not be empty")
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, owner_id, theme_color, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.Description, project.OwnerID,
		project.ThemeColor, boolToInt(project.IsPublic),
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("creating project: %w", err)
	}
	return project, nil
}

// UpdateProject updates an existing project.
func (s *SQLiteStore) UpdateProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	project.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET
			name = ?, description = ?, theme_color = ?, is_public = ?, updated_at = ?
		WHERE id = ?`,
		project.Name, project.Description, project.ThemeColor,
		boolToInt(project.IsPublic), project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", project.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project %s: %w", project.ID, ErrNotFound)
	}
	return nil
}

// DeleteProject removes a project. Its notes and tags cascade.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetProjectByID retrieves a single project by ID.
func (s *SQLiteStore) GetProjectByID(
	ctx context.Context,
	id string,
) (*model.Project, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, name, description, owner_id, theme_color, is_public, created_at, updated_at
		FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	return &p, nil
}

// GetProjects retrieves the projects owned by ownerID, oldest first.
func (s *SQLiteStore) GetProjects(
	ctx context.Context,
	ownerID string,
) ([]model.Project, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, name, description, owner_id, theme_color, is_public, created_at, updated_at
		FROM projects WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// EnsureDefaultProject returns the owner's "Drafts" project, creating it
// when the owner has no projects at all. An owner who has projects but
// no Drafts gets their oldest project.
func (s *SQLiteStore) EnsureDefaultProject(
	ctx context.Context,
	ownerID string,
) (model.Project, error) {
	projects, err := s.GetProjects(ctx, ownerID)
	if err != nil {
		return model.Project{}, err
	}
	for _, p := range projects {
		if p.Name == model.DefaultProjectName {
			return p, nil
		}
	}
	if len(projects) > 0 {
		return projects[0], nil
	}

	return s.CreateProject(ctx, model.Project{
		Name:        model.DefaultProjectName,
		Description: "Your personal scratch canvas",
		OwnerID:     ownerID,
	})
}

func scanProject(row interface{ Scan(dest ...interface{}) error }) (model.Project, error) {
	var (
		p        model.Project
		isPublic int
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.OwnerID,
		&p.ThemeColor, &isPublic, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, err
	}
	p.IsPublic = isPublic != 0
	return p, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/plotta/internal/model"
)

// LoadViewPreference returns the saved preference for a project. A missing,
// corrupt or differently versioned payload yields the default preference.
func (s *SQLiteStore) LoadViewPreference(
	ctx context.Context,
	projectID string,
) (model.ViewPreference, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload,
		"SELECT payload FROM view_preferences WHERE project_id = ?", projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultViewPreference(), nil
	}
	if err != nil {
		return model.ViewPreference{}, fmt.Errorf("loading view preference %s: %w", projectID, err)
	}

	var pref model.ViewPreference
	if err := json.Unmarshal([]byte(payload), &pref); err != nil {
		s.logger.Warn("discarding unreadable view preference",
			zap.String("project", projectID), zap.Error(err))
		return model.DefaultViewPreference(), nil
	}
	if pref.Version != model.ViewPreferenceVersion {
		s.logger.Info("discarding view preference with foreign version",
			zap.String("project", projectID), zap.Int("version", pref.Version))
		return model.DefaultViewPreference(), nil
	}
	if !pref.ViewMode.Valid() {
		pref.ViewMode = model.ViewAll
	}
	return pref, nil
}

// SaveViewPreference persists the preference for a project, stamping the
// current schema version.
func (s *SQLiteStore) SaveViewPreference(
	ctx context.Context,
	projectID string,
	pref model.ViewPreference,
) error {
	pref.Version = model.ViewPreferenceVersion
	payload, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("marshaling view preference: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO view_preferences (project_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		projectID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving view preference %s: %w", projectID, err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"go.uber.org/zap"

	aiservice "github.com/nhle/plotta/internal/ai"
	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/credential"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
)

// env is what every command that touches notes runs on: the store, the
// signed-in session and its default project.
type env struct {
	store   *store.SQLiteStore
	vault   *credential.Vault
	session model.Session
	project model.Project
}

func openEnv(ctx context.Context) (*env, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Data.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.Data.DBPath,
		store.WithLogger(logger.Named("store")),
		store.WithEventBuffer(cfg.Sync.EventBuffer),
	)
	if err != nil {
		return nil, err
	}

	vault, err := credential.Open()
	if err != nil {
		s.Close()
		return nil, err
	}
	session, err := vault.Session()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("loading session: %w", err)
	}

	project, err := s.EnsureDefaultProject(ctx, session.UserID)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening default project: %w", err)
	}

	logger.Debug("environment ready",
		zap.String("db", cfg.Data.DBPath),
		zap.String("user", session.UserID),
		zap.String("project", project.ID))

	return &env{store: s, vault: vault, session: session, project: project}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// newBoard returns a board over the env's store using the configured
// creation defaults.
func (e *env) newBoard() *canvas.Board {
	placer := canvas.NewPlacer(nil)
	placer.Width = cfg.Canvas.DefaultWidth
	placer.Height = cfg.Canvas.DefaultHeight
	placer.Jitter = cfg.Canvas.Jitter

	return canvas.NewBoard(e.store,
		canvas.WithLogger(logger.Named("board")),
		canvas.WithTagGateway(e.store),
		canvas.WithPlacer(placer),
	)
}

// assistant returns the AI assistant, or nil when no API key is
// configured in the environment or the keyring.
func (e *env) assistant() *aiservice.Assistant {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		var err error
		apiKey, err = e.vault.Get(credential.KeyAIAPIKey)
		if err != nil {
			if !errors.Is(err, keyring.ErrKeyNotFound) {
				logger.Warn("reading AI key failed", zap.Error(err))
			}
			return nil
		}
	}
	if apiKey == "" {
		return nil
	}
	return aiservice.New(apiKey, cfg.AI.Model, cfg.AI.MaxTokens,
		aiservice.WithLogger(logger.Named("ai")))
}

// testAIKey sends a minimal insights request with apiKey.
func testAIKey(ctx context.Context, apiKey string) error {
	a := aiservice.New(apiKey, cfg.AI.Model, 16, aiservice.WithLogger(logger.Named("ai")))
	_, err := a.Ask(ctx, aiservice.ActionInsights, "", nil)
	return err
}

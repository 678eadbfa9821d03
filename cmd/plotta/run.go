package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/plotta/internal/app"
	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	appsync "github.com/nhle/plotta/internal/sync"
)

func runCanvas(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	board := e.newBoard()
	feed := appsync.New(e.store, board,
		appsync.WithLogger(logger.Named("feed")),
		appsync.WithRefreshInterval(time.Duration(cfg.Sync.RefreshIntervalSec)*time.Second),
	)
	defer feed.Close()

	root := app.New(ctx, app.Deps{
		Board:     board,
		Feed:      feed,
		Store:     e.store,
		Session:   e.session,
		Project:   e.project,
		Assistant: e.assistant(),
		Gesture:   canvas.GestureConfigFrom(cfg.Gesture),
		Logger:    logger,

		Config: *cfg,
		SaveConfig: func(c model.AppConfig) error {
			return model.SaveConfig(configPath, &c)
		},
		Secrets:   e.vault,
		TestAIKey: testAIKey,
	})

	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running canvas: %w", err)
	}
	return nil
}

package ui_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appsync "github.com/nhle/plotta/internal/sync"
	"github.com/nhle/plotta/internal/ui"
)

func TestLayout_ContentArea(t *testing.T) {
	l := ui.NewLayout(100, 30)
	assert.Equal(t, 28, l.ContentHeight())
	assert.Equal(t, 4, l.ContentY(5))

	assert.Zero(t, ui.NewLayout(10, 1).ContentHeight())
}

func TestFeedLabel(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "not connected", ui.FeedLabel(appsync.Status{}, now))
	assert.Equal(t, "live", ui.FeedLabel(appsync.Status{State: appsync.FeedLive}, now))
	assert.Equal(t, "live · 2m ago", ui.FeedLabel(appsync.Status{
		State:     appsync.FeedLive,
		LastEvent: now.Add(-2 * time.Minute),
	}, now))
	assert.Equal(t, "⚠ offline: boom", ui.FeedLabel(appsync.Status{
		State: appsync.FeedError,
		Error: errors.New("boom"),
	}, now))
}

func TestRenderWithFrame_ClipsContent(t *testing.T) {
	l := ui.NewLayout(20, 4)
	out := l.RenderWithFrame("head", "a\nb\nc\nd", "foot")
	assert.Contains(t, out, "b")
	assert.NotContains(t, out, "c")
}

package config

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/credential"
	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
)

type memSecrets map[string]string

func (s memSecrets) Set(key, value string) error {
	s[key] = value
	return nil
}

type harness struct {
	saved   []model.AppConfig
	saveErr error
	secrets memSecrets
	testErr error
}

func newModel(t *testing.T) (Model, *harness) {
	t.Helper()
	h := &harness{secrets: memSecrets{}}
	save := func(c model.AppConfig) error {
		if h.saveErr != nil {
			return h.saveErr
		}
		h.saved = append(h.saved, c)
		return nil
	}
	test := func(context.Context, string) error { return h.testErr }
	m := New(context.Background(), *model.DefaultAppConfig(), save, h.secrets, test, keys.DefaultKeyMap(), 100, 30)
	return m, h
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewList_ShowsSummaries(t *testing.T) {
	m, _ := newModel(t)
	out := m.View()
	assert.Contains(t, out, "Settings")
	assert.Contains(t, out, "hold 500ms, double click 300ms, drag 10")
	assert.Contains(t, out, "live only")
}

func TestListKeys_WrapSelection(t *testing.T) {
	m, _ := newModel(t)
	m, _ = m.Update(runes("k"))
	assert.Equal(t, len(sections)-1, m.selectedIdx)
	m, _ = m.Update(runes("j"))
	assert.Equal(t, 0, m.selectedIdx)
}

func TestEdit_FillsBindings(t *testing.T) {
	m, _ := newModel(t)
	m, _ = m.Update(runes("j"))

	m, cmd := m.Update(runes("e"))
	assert.NotNil(t, cmd)
	assert.Equal(t, ModeForm, m.mode)
	assert.Equal(t, sectionGesture, m.editing)
	assert.Equal(t, "500", m.fb.longPressMs)
	assert.Equal(t, "10", m.fb.dragThreshold)
	assert.Empty(t, m.fb.apiKey)
}

func TestApply_ReplacesOnlyTheSection(t *testing.T) {
	m, _ := newModel(t)
	m.fill()
	m.fb.width = "150"
	m.fb.jitter = "0"
	m.fb.refreshSec = "30"

	cfg, err := m.apply(sectionCanvas)
	require.NoError(t, err)
	assert.Equal(t, 150.0, cfg.Canvas.DefaultWidth)
	assert.Zero(t, cfg.Canvas.Jitter)
	assert.Zero(t, cfg.Sync.RefreshIntervalSec, "other sections untouched")
}

func TestSaveConfig_EmitsSaved(t *testing.T) {
	m, h := newModel(t)
	cfg := m.Config()
	cfg.Sync.RefreshIntervalSec = 45

	m, cmd := m.Update(m.saveConfig(cfg)())
	require.NotNil(t, cmd)
	assert.Equal(t, ConfigSavedMsg{Config: cfg}, cmd())
	assert.Equal(t, 45, m.Config().Sync.RefreshIntervalSec)
	require.Len(t, h.saved, 1)
	assert.Contains(t, m.View(), "reload every 45s")
}

func TestSaveConfig_ErrorKeepsOldConfig(t *testing.T) {
	m, h := newModel(t)
	h.saveErr = errors.New("read-only")
	cfg := m.Config()
	cfg.AI.MaxTokens = 9

	m, cmd := m.Update(m.saveConfig(cfg)())
	assert.Nil(t, cmd)
	assert.Equal(t, 1024, m.Config().AI.MaxTokens)
	assert.Contains(t, m.statusMsg, "read-only")
}

func TestValidateAndStore(t *testing.T) {
	t.Run("rejected key is not stored", func(t *testing.T) {
		m, h := newModel(t)
		h.testErr = errors.New("401 unauthorized")
		m.mode = ModeValidating

		m, cmd := m.Update(m.validateAndStore("bad")())
		assert.Nil(t, cmd)
		assert.Equal(t, ModeValidateResult, m.mode)
		assert.Empty(t, h.secrets)
		assert.Contains(t, m.View(), "API key rejected")
	})

	t.Run("accepted key is stored and announced", func(t *testing.T) {
		m, h := newModel(t)
		m.mode = ModeValidating

		m, cmd := m.Update(m.validateAndStore("sk-good")())
		require.NotNil(t, cmd)
		assert.Equal(t, APIKeySavedMsg{Key: "sk-good"}, cmd())
		assert.Equal(t, "sk-good", h.secrets[credential.KeyAIAPIKey])
		assert.Contains(t, m.View(), "API key saved")
	})

	t.Run("result after cancel is ignored", func(t *testing.T) {
		m, _ := newModel(t)
		m, cmd := m.Update(ValidateResultMsg{Key: "k"})
		assert.Nil(t, cmd)
		assert.Equal(t, ModeList, m.mode)
	})
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validatePositiveFloat("w")("12.5"))
	assert.Error(t, validatePositiveFloat("w")("0"))
	assert.Error(t, validatePositiveFloat("w")("abc"))
	assert.NoError(t, validateNonNegativeFloat("j")("0"))
	assert.Error(t, validateNonNegativeFloat("j")("-1"))
	assert.NoError(t, validatePositiveInt("n")(" 3 "))
	assert.Error(t, validatePositiveInt("n")("1.5"))
	assert.NoError(t, validateNonNegativeInt("n")("0"))
	assert.Error(t, validateRequired("Model")("  "))
}

func TestBack_Closes(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ConfigDoneMsg{}, cmd())
}

package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/credential"
	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeList           ConfigMode = iota // List settings sections
	ModeForm                             // Editing one section
	ModeValidating                       // Testing the AI key
	ModeValidateResult                   // Show the key test result
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg carries the configuration after it was written.
type ConfigSavedMsg struct {
	Config model.AppConfig
}

// APIKeySavedMsg carries an AI key that passed its test and was stored.
type APIKeySavedMsg struct {
	Key string
}

// ValidateResultMsg carries the result of an AI key test.
type ValidateResultMsg struct {
	Key string
	Err error
}

// Secrets stores credentials.
type Secrets interface {
	Set(key, value string) error
}

// SaveFunc writes the configuration file.
type SaveFunc func(model.AppConfig) error

// TestFunc checks an AI key against the API.
type TestFunc func(ctx context.Context, apiKey string) error

type section int

const (
	sectionCanvas section = iota
	sectionGesture
	sectionSync
	sectionAI
	sectionAPIKey
)

var sections = []section{sectionCanvas, sectionGesture, sectionSync, sectionAI, sectionAPIKey}

func (s section) title() string {
	switch s {
	case sectionCanvas:
		return "Canvas"
	case sectionGesture:
		return "Gestures"
	case sectionSync:
		return "Sync"
	case sectionAI:
		return "AI assistant"
	default:
		return "AI API key"
	}
}

type configSavedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// formBindings holds the values huh binds to. It lives on the heap so
// the bindings survive Model copies.
type formBindings struct {
	width         string
	height        string
	jitter        string
	longPressMs   string
	doubleTapMs   string
	dragThreshold string
	refreshSec    string
	aiModel       string
	maxTokens     string
	apiKey        string
}

// Model is the Bubble Tea model for editing the application settings.
type Model struct {
	ctx         context.Context
	mode        ConfigMode
	cfg         model.AppConfig
	save        SaveFunc
	secrets     Secrets
	test        TestFunc
	selectedIdx int
	editing     section
	form        *huh.Form
	fb          *formBindings

	validError error
	spinner    spinner.Model

	// Status message for transient feedback
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new settings view model over cfg. test may be nil, in
// which case AI keys are stored without a check.
func New(ctx context.Context, cfg model.AppConfig, save SaveFunc, secrets Secrets, test TestFunc, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		mode:    ModeList,
		cfg:     cfg,
		save:    save,
		secrets: secrets,
		test:    test,
		fb:      &formBindings{},
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Open shows the section list.
func (m *Model) Open() {
	m.mode = ModeList
	m.statusMsg = ""
}

// Config returns the configuration as last saved.
func (m Model) Config() model.AppConfig { return m.cfg }

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case configSavedInternalMsg:
		m.mode = ModeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved. Canvas and gesture changes apply on next start."
		cfg := msg.cfg
		return m, func() tea.Msg { return ConfigSavedMsg{Config: cfg} }

	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.validError = msg.Err
		m.mode = ModeValidateResult
		if msg.Err != nil {
			return m, nil
		}
		k := msg.Key
		return m, func() tea.Msg { return APIKeySavedMsg{Key: k} }

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeForm:
		return m.updateForm(msg)
	case ModeValidateResult:
		return m.handleValidateResultKeys(msg)
	case ModeValidating:
		// Only allow escape during validation
		if msg.String() == "esc" {
			m.mode = ModeList
			return m, nil
		}
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case key.Matches(msg, m.keys.Edit):
		m.editing = sections[m.selectedIdx]
		m.fill()
		m.form = m.buildForm(m.editing)
		m.mode = ModeForm
		m.statusMsg = ""
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Down):
		m.selectedIdx = (m.selectedIdx + 1) % len(sections)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.selectedIdx = (m.selectedIdx - 1 + len(sections)) % len(sections)
		return m, nil
	}
	return m, nil
}

func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = ModeList
		m.validError = nil
		return m, nil
	case "r":
		if m.validError != nil {
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.validateAndStore(m.fb.apiKey))
		}
	}
	return m, nil
}

// fill copies the current configuration into the form bindings. The
// API key is never pre-filled.
func (m *Model) fill() {
	*m.fb = formBindings{
		width:         formatFloat(m.cfg.Canvas.DefaultWidth),
		height:        formatFloat(m.cfg.Canvas.DefaultHeight),
		jitter:        formatFloat(m.cfg.Canvas.Jitter),
		longPressMs:   strconv.Itoa(m.cfg.Gesture.LongPressMs),
		doubleTapMs:   strconv.Itoa(m.cfg.Gesture.DoubleTapMs),
		dragThreshold: formatFloat(m.cfg.Gesture.DragThreshold),
		refreshSec:    strconv.Itoa(m.cfg.Sync.RefreshIntervalSec),
		aiModel:       m.cfg.AI.Model,
		maxTokens:     strconv.Itoa(m.cfg.AI.MaxTokens),
	}
}

func (m *Model) buildForm(s section) *huh.Form {
	var fields []huh.Field
	switch s {
	case sectionCanvas:
		fields = []huh.Field{
			huh.NewInput().Title("Default note width").Value(&m.fb.width).Validate(validatePositiveFloat("Width")),
			huh.NewInput().Title("Default note height").Value(&m.fb.height).Validate(validatePositiveFloat("Height")),
			huh.NewInput().
				Title("Placement jitter").
				Description("Random offset range for new notes, 0 places them at the origin").
				Value(&m.fb.jitter).
				Validate(validateNonNegativeFloat("Jitter")),
		}
	case sectionGesture:
		fields = []huh.Field{
			huh.NewInput().Title("Hold (ms)").Description("Press length that opens the editor").
				Value(&m.fb.longPressMs).Validate(validatePositiveInt("Hold")),
			huh.NewInput().Title("Double click window (ms)").
				Value(&m.fb.doubleTapMs).Validate(validatePositiveInt("Double click window")),
			huh.NewInput().Title("Drag threshold").Description("Canvas units moved before a press becomes a drag").
				Value(&m.fb.dragThreshold).Validate(validatePositiveFloat("Drag threshold")),
		}
	case sectionSync:
		fields = []huh.Field{
			huh.NewInput().
				Title("Refresh interval (seconds)").
				Description("Periodic full reload, 0 disables it").
				Value(&m.fb.refreshSec).
				Validate(validateNonNegativeInt("Refresh interval")),
		}
	case sectionAI:
		fields = []huh.Field{
			huh.NewInput().Title("Model").Value(&m.fb.aiModel).Validate(validateRequired("Model")),
			huh.NewInput().Title("Max tokens").Value(&m.fb.maxTokens).Validate(validatePositiveInt("Max tokens")),
		}
	case sectionAPIKey:
		fields = []huh.Field{
			huh.NewInput().
				Title("API key").
				Description("Stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey).
				Validate(validateRequired("API key")),
		}
	}
	return huh.NewForm(huh.NewGroup(fields...).Title(s.title())).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		if m.editing == sectionAPIKey {
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.validateAndStore(strings.TrimSpace(m.fb.apiKey)))
		}
		cfg, err := m.apply(m.editing)
		if err != nil {
			m.statusMsg = err.Error()
			m.mode = ModeList
			return m, nil
		}
		return m, m.saveConfig(cfg)
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// apply returns the configuration with section s replaced by the form
// values. The validators already ran, so parse errors are unexpected.
func (m Model) apply(s section) (model.AppConfig, error) {
	cfg := m.cfg
	var err error
	parseF := func(v string) float64 {
		f, perr := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if perr != nil && err == nil {
			err = fmt.Errorf("invalid number %q", v)
		}
		return f
	}
	parseI := func(v string) int {
		n, perr := strconv.Atoi(strings.TrimSpace(v))
		if perr != nil && err == nil {
			err = fmt.Errorf("invalid number %q", v)
		}
		return n
	}

	switch s {
	case sectionCanvas:
		cfg.Canvas.DefaultWidth = parseF(m.fb.width)
		cfg.Canvas.DefaultHeight = parseF(m.fb.height)
		cfg.Canvas.Jitter = parseF(m.fb.jitter)
	case sectionGesture:
		cfg.Gesture.LongPressMs = parseI(m.fb.longPressMs)
		cfg.Gesture.DoubleTapMs = parseI(m.fb.doubleTapMs)
		cfg.Gesture.DragThreshold = parseF(m.fb.dragThreshold)
	case sectionSync:
		cfg.Sync.RefreshIntervalSec = parseI(m.fb.refreshSec)
	case sectionAI:
		cfg.AI.Model = strings.TrimSpace(m.fb.aiModel)
		cfg.AI.MaxTokens = parseI(m.fb.maxTokens)
	}
	return cfg, err
}

// --- View ---

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeForm:
		return m.viewForm()
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return ""
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	for i, s := range sections {
		line := fmt.Sprintf("%-14s %s", s.title(), theme.DimmedStyle.Render(m.summary(s)))
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("e/enter edit | j/k select | esc back"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) summary(s section) string {
	switch s {
	case sectionCanvas:
		return fmt.Sprintf("%s×%s, jitter %s",
			formatFloat(m.cfg.Canvas.DefaultWidth), formatFloat(m.cfg.Canvas.DefaultHeight), formatFloat(m.cfg.Canvas.Jitter))
	case sectionGesture:
		return fmt.Sprintf("hold %dms, double click %dms, drag %s",
			m.cfg.Gesture.LongPressMs, m.cfg.Gesture.DoubleTapMs, formatFloat(m.cfg.Gesture.DragThreshold))
	case sectionSync:
		if m.cfg.Sync.RefreshIntervalSec == 0 {
			return "live only"
		}
		return fmt.Sprintf("reload every %ds", m.cfg.Sync.RefreshIntervalSec)
	case sectionAI:
		return fmt.Sprintf("%s, %d tokens", m.cfg.AI.Model, m.cfg.AI.MaxTokens)
	default:
		return "keyring:" + credential.KeyAIAPIKey
	}
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(m.form.View())
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing API key...\n\nPress esc to cancel.",
		m.spinner.View(),
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("API key rejected") + "\n\n" +
			m.validError.Error() + "\n\n" +
			theme.DimmedStyle.Render("r retry | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		content = okStyle.Render("API key saved") + "\n\n" +
			"The assistant is ready." + "\n\n" +
			theme.DimmedStyle.Render("enter/esc back")
	}

	return style.Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) saveConfig(cfg model.AppConfig) tea.Cmd {
	save := m.save
	return func() tea.Msg {
		return configSavedInternalMsg{cfg: cfg, err: save(cfg)}
	}
}

// validateAndStore tests the key, then stores it if the test passed.
func (m Model) validateAndStore(apiKey string) tea.Cmd {
	ctx, test, secrets := m.ctx, m.test, m.secrets
	return func() tea.Msg {
		if test != nil {
			if err := test(ctx, apiKey); err != nil {
				return ValidateResultMsg{Err: err}
			}
		}
		if err := secrets.Set(credential.KeyAIAPIKey, apiKey); err != nil {
			return ValidateResultMsg{Err: fmt.Errorf("key OK but saving failed: %w", err)}
		}
		return ValidateResultMsg{Key: apiKey}
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePositiveFloat(fieldName string) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s must be a positive number", fieldName)
		}
		return nil
	}
}

func validateNonNegativeFloat(fieldName string) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%s must be zero or more", fieldName)
		}
		return nil
	}
}

func validatePositiveInt(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive whole number", fieldName)
		}
		return nil
	}
}

func validateNonNegativeInt(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be zero or a whole number", fieldName)
		}
		return nil
	}
}

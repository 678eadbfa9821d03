package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
	defaultBaseURL   = "https://api.anthropic.com"
	messagesPath     = "/v1/messages"
	apiVersion       = "2023-06-01"

	// maxContextNotes caps how many notes are quoted into the prompt.
	maxContextNotes = 100
	// maxTitleLen caps the title taken from a generated response.
	maxTitleLen = 50
)

// ErrPromptRequired is returned when an action that needs a prompt gets none.
var ErrPromptRequired = errors.New("prompt is required")

// Action selects what the assistant does with the project's notes.
type Action string

const (
	// ActionSearch finds the notes relevant to a natural-language query.
	ActionSearch Action = "search"
	// ActionInsights summarizes patterns across the project. The prompt is optional.
	ActionInsights Action = "insights"
	// ActionGenerate writes a new note from the prompt and the existing notes.
	ActionGenerate Action = "generate"
)

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithPlacer sets the creation defaults of generated drafts.
func WithPlacer(p *canvas.Placer) Option {
	return func(a *Assistant) {
		if p != nil {
			a.placer = p
		}
	}
}

// WithBaseURL points the assistant at another Messages API host.
func WithBaseURL(url string) Option {
	return func(a *Assistant) { a.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Assistant) { a.client = c }
}

// Assistant talks to the Claude Messages API on behalf of a canvas.
// It never mutates notes itself; generated text is turned into a draft
// that the caller creates through the board.
type Assistant struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
	placer    *canvas.Placer
}

// New creates a new AI assistant with the given configuration.
func New(apiKey, modelName string, maxTokens int, opts ...Option) *Assistant {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	a := &Assistant{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		baseURL:   defaultBaseURL,
		client:    &http.Client{},
		logger:    zap.NewNop(),
		placer:    canvas.NewPlacer(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask runs action over notes and returns the model's text response.
func (a *Assistant) Ask(
	ctx context.Context,
	action Action,
	prompt string,
	notes []model.Note,
) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" && action != ActionInsights {
		return "", ErrPromptRequired
	}

	system, err := systemPrompt(action)
	if err != nil {
		return "", err
	}

	user := buildUserMessage(action, prompt, notes)
	a.logger.Debug("ai request",
		zap.String("action", string(action)),
		zap.Int("notes", len(notes)))

	resp, err := a.callAPI(ctx, system, user)
	if err != nil {
		a.logger.Error("ai request failed",
			zap.String("action", string(action)), zap.Error(err))
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("empty response (stop reason %q)", resp.StopReason)
	}
	return text, nil
}

// Generate asks for a new note and returns it as a draft for projectID.
// Generated notes use the neutral palette color.
func (a *Assistant) Generate(
	ctx context.Context,
	projectID, prompt string,
	notes []model.Note,
) (model.NoteDraft, error) {
	text, err := a.Ask(ctx, ActionGenerate, prompt, notes)
	if err != nil {
		return model.NoteDraft{}, err
	}
	return DraftFromResponse(a.placer, projectID, text), nil
}

// DraftFromResponse splits a generated response into a note draft placed
// by p: the first line, stripped of markdown heading marks, becomes the
// title and the remaining lines the content.
func DraftFromResponse(p *canvas.Placer, projectID, response string) model.NoteDraft {
	lines := strings.Split(strings.TrimSpace(response), "\n")
	title := strings.TrimSpace(strings.TrimLeft(lines[0], "#"))
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}
	content := strings.TrimSpace(strings.Join(lines[1:], "\n"))

	return p.NewGeneratedDraft(projectID, title, content)
}

func systemPrompt(action Action) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are the assistant of a sticky-note canvas. ")
	sb.WriteString("The user's notes for the current project are listed ")
	sb.WriteString("in the message, one per block.\n\n")

	switch action {
	case ActionSearch:
		sb.WriteString("Find the notes that match the user's query. ")
		sb.WriteString("Quote each matching note's title and say in one ")
		sb.WriteString("line why it matches. If nothing matches, say so.")
	case ActionInsights:
		sb.WriteString("Summarize the themes, open action items and ")
		sb.WriteString("recurring patterns across the notes. Be concise.")
	case ActionGenerate:
		sb.WriteString("Write one new sticky note. The first line is a short ")
		sb.WriteString("title with no prefix. The following lines are the body. ")
		sb.WriteString("Use \"- [ ] \" lines for action items.")
	default:
		return "", fmt.Errorf("unknown ai action %q", action)
	}
	return sb.String(), nil
}

func buildUserMessage(action Action, prompt string, notes []model.Note) string {
	var sb strings.Builder

	if len(notes) == 0 {
		sb.WriteString("(the project has no notes)\n")
	}
	for i, n := range notes {
		if i == maxContextNotes {
			fmt.Fprintf(&sb, "(%d more notes omitted)\n", len(notes)-maxContextNotes)
			break
		}
		fmt.Fprintf(&sb, "### %s\n%s\n\n", n.Title, n.Content)
	}

	switch {
	case prompt != "":
		fmt.Fprintf(&sb, "\n%s request: %s", action, prompt)
	default:
		fmt.Fprintf(&sb, "\n%s request.", action)
	}
	return sb.String()
}

// callAPI makes a single request to the Claude Messages API.
func (a *Assistant) callAPI(ctx context.Context, system, user string) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    system,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: user}},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, a.baseURL+messagesPath, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

package canvas

import (
	"math/rand/v2"
	"sync"

	"github.com/nhle/plotta/internal/model"
)

// DefaultJitter bounds the random placement of new notes.
const DefaultJitter = 300

// Image notes are square by default.
const imageNoteSize = 300

// Placer fills in creation defaults for new note drafts. It is safe for
// concurrent use.
type Placer struct {
	Width  float64
	Height float64
	Jitter float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPlacer returns a Placer using the default geometry. A nil rng uses
// a randomly seeded source.
func NewPlacer(rng *rand.Rand) *Placer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Placer{
		Width:  model.DefaultNoteWidth,
		Height: model.DefaultNoteHeight,
		Jitter: DefaultJitter,
		rng:    rng,
	}
}

// NewDraft returns a manually authored note draft: yellow, default size,
// dropped at a random spot within the jitter region.
func (p *Placer) NewDraft(projectID, title, content string) model.NoteDraft {
	x, y := p.position()
	return model.NoteDraft{
		ProjectID: projectID,
		Title:     title,
		Content:   content,
		Color:     model.ColorYellow,
		PositionX: &x,
		PositionY: &y,
		Width:     p.Width,
		Height:    p.Height,
	}
}

// NewGeneratedDraft returns the draft of an assistant-written note. Like
// image notes it uses the neutral color.
func (p *Placer) NewGeneratedDraft(projectID, title, content string) model.NoteDraft {
	d := p.NewDraft(projectID, title, content)
	d.Color = model.ColorDefault
	return d
}

// NewImageDraft returns the draft of an image note. Image notes use the
// neutral color and a square frame.
func (p *Placer) NewImageDraft(projectID, title, imageURL string) model.NoteDraft {
	d := p.NewDraft(projectID, title, imageURL)
	d.Color = model.ColorDefault
	d.Width, d.Height = imageNoteSize, imageNoteSize
	return d
}

// Complete fills the unset fields of d with creation defaults. Explicit
// positions, such as those assigned by an arrangement, are kept.
func (p *Placer) Complete(d model.NoteDraft) model.NoteDraft {
	if d.Color == "" {
		d.Color = model.ColorYellow
	}
	if d.PositionX == nil || d.PositionY == nil {
		x, y := p.position()
		if d.PositionX == nil {
			d.PositionX = &x
		}
		if d.PositionY == nil {
			d.PositionY = &y
		}
	}
	if d.Width <= 0 {
		d.Width = p.Width
	}
	if d.Height <= 0 {
		d.Height = p.Height
	}
	return d
}

func (p *Placer) position() (float64, float64) {
	if p.Jitter <= 0 {
		return 0, 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() * p.Jitter, p.rng.Float64() * p.Jitter
}

package board

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// Canvas units per terminal cell.
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

// Smallest card that still shows a title and a meta line.
const (
	minCols = 12
	minRows = 4
)

// rect is a note's footprint in cells.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// noteRect places a note of n's size at canvas position pos, shifted by
// the viewport offset.
func noteRect(n model.Note, pos, offset canvas.Point) rect {
	return rect{
		x: int(math.Floor((pos.X - offset.X) / cellWidth)),
		y: int(math.Floor((pos.Y - offset.Y) / cellHeight)),
		w: max(int(math.Ceil(n.Width/cellWidth)), minCols),
		h: max(int(math.Ceil(n.Height/cellHeight)), minRows),
	}
}

// cellToCanvas converts a terminal cell to canvas coordinates.
func cellToCanvas(x, y int, offset canvas.Point) canvas.Point {
	return canvas.Point{
		X: float64(x)*cellWidth + offset.X,
		Y: float64(y)*cellHeight + offset.Y,
	}
}

type cell struct {
	r     rune
	style int
}

// surface is a cell grid that later cards paint over. Style 0 is plain.
type surface struct {
	w, h   int
	cells  [][]cell
	styles []lipgloss.Style
}

func newSurface(w, h int) *surface {
	s := &surface{w: max(w, 0), h: max(h, 0), styles: []lipgloss.Style{lipgloss.NewStyle()}}
	s.cells = make([][]cell, s.h)
	for y := range s.cells {
		row := make([]cell, s.w)
		for x := range row {
			row[x] = cell{r: ' '}
		}
		s.cells[y] = row
	}
	return s
}

func (s *surface) addStyle(st lipgloss.Style) int {
	s.styles = append(s.styles, st)
	return len(s.styles) - 1
}

func (s *surface) set(x, y int, r rune, style int) {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return
	}
	s.cells[y][x] = cell{r: r, style: style}
}

// text writes str from (x, y), clipped to limit cells.
func (s *surface) text(x, y, limit int, str string, style int) int {
	n := 0
	for _, r := range str {
		if n >= limit {
			break
		}
		if r == '\t' {
			r = ' '
		}
		s.set(x+n, y, r, style)
		n++
	}
	return n
}

// String renders the grid, one lipgloss run per stretch of equal style.
func (s *surface) String() string {
	var sb strings.Builder
	for y, row := range s.cells {
		if y > 0 {
			sb.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].style == row[start].style {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, c := range row[start:x] {
				run = append(run, c.r)
			}
			if st := row[start].style; st == 0 {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(s.styles[st].Render(string(run)))
			}
			start = x
		}
	}
	return sb.String()
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// card is what drawNote needs to know about one note.
type card struct {
	note    model.Note
	rect    rect
	focused bool
	tags    []string
}

// drawNote paints an opaque card.
func drawNote(s *surface, c card, today time.Time) {
	n, r := c.note, c.rect
	b := theme.NoteBorder(n, c.focused)
	frame := s.addStyle(theme.NoteFrameStyle(n))

	right, bottom := r.x+r.w-1, r.y+r.h-1
	for x := r.x + 1; x < right; x++ {
		s.set(x, r.y, firstRune(b.Top), frame)
		s.set(x, bottom, firstRune(b.Bottom), frame)
	}
	for y := r.y + 1; y < bottom; y++ {
		s.set(r.x, y, firstRune(b.Left), frame)
		s.set(right, y, firstRune(b.Right), frame)
		for x := r.x + 1; x < right; x++ {
			s.set(x, y, ' ', 0)
		}
	}
	s.set(r.x, r.y, firstRune(b.TopLeft), frame)
	s.set(right, r.y, firstRune(b.TopRight), frame)
	s.set(r.x, bottom, firstRune(b.BottomLeft), frame)
	s.set(right, bottom, firstRune(b.BottomRight), frame)

	if flags := flagLabel(n); flags != "" {
		s.text(r.x+2, r.y, r.w-4, flags, frame)
	}

	inner := r.w - 4
	top, last := r.y+1, bottom-1
	title := n.Title
	if title == "" {
		title = "Untitled"
	}
	s.text(r.x+2, top, inner, title, s.addStyle(theme.NoteTitleStyle(n)))

	metaRow := last
	meta := metaParts(n, c.tags, today)
	if len(meta) == 0 {
		metaRow = last + 1
	}
	for i, line := range bodyLines(n.Content) {
		y := top + 1 + i
		if y >= metaRow {
			break
		}
		s.text(r.x+2, y, inner, line, 0)
	}

	if len(meta) > 0 {
		x, used := r.x+2, 0
		for _, p := range meta {
			if used > 0 {
				used += s.text(x+used, metaRow, inner-used, " ", 0)
			}
			used += s.text(x+used, metaRow, inner-used, p.text, s.addStyle(p.style))
		}
	}
}

func flagLabel(n model.Note) string {
	var flags []string
	if n.Pinned {
		flags = append(flags, "pinned")
	}
	if n.Locked {
		flags = append(flags, "locked")
	}
	if len(flags) == 0 {
		return ""
	}
	return " " + strings.Join(flags, " ") + " "
}

// bodyLines renders checkbox lines with box glyphs.
func bodyLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for _, box := range canvas.Checkboxes(content) {
		mark := "☐ "
		if box.Checked {
			mark = "☑ "
		}
		lines[box.Line] = mark + box.Text
	}
	return lines
}

type metaPart struct {
	text  string
	style lipgloss.Style
}

func metaParts(n model.Note, tags []string, today time.Time) []metaPart {
	var parts []metaPart
	if n.Priority != model.PriorityNone {
		parts = append(parts, metaPart{string(n.Priority), theme.PriorityStyle(n.Priority)})
	}
	if n.DueDate != nil {
		due := canvas.Day(*n.DueDate, today.Location())
		style := theme.DimmedStyle
		if due.Before(today) {
			style = theme.OverdueStyle
		}
		parts = append(parts, metaPart{"due " + due.Format("Jan 2"), style})
	}
	if n.Status != model.StatusNone {
		parts = append(parts, metaPart{strings.ReplaceAll(string(n.Status), "_", " "), theme.StatusStyle(n.Status)})
	}
	for _, t := range tags {
		parts = append(parts, metaPart{"#" + t, theme.DimmedStyle})
	}
	return parts
}

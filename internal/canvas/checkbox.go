package canvas

import (
	"regexp"
	"strings"
)

var (
	uncheckedRe = regexp.MustCompile(`^(\s*)-\s*\[\s*\]\s*(.*)$`)
	checkedRe   = regexp.MustCompile(`(?i)^(\s*)-\s*\[x\]\s*(.*)$`)

	uncheckedMark = regexp.MustCompile(`\[\s*\]`)
	checkedMark   = regexp.MustCompile(`(?i)\[x\]`)
)

// Checkbox is one task line found in a note body.
type Checkbox struct {
	Line    int
	Checked bool
	Text    string
}

// Checkboxes lists the checkbox lines of body in order.
func Checkboxes(body string) []Checkbox {
	var out []Checkbox
	for i, line := range strings.Split(body, "\n") {
		if m := checkedRe.FindStringSubmatch(line); m != nil {
			out = append(out, Checkbox{Line: i, Checked: true, Text: m[2]})
			continue
		}
		if m := uncheckedRe.FindStringSubmatch(line); m != nil {
			out = append(out, Checkbox{Line: i, Checked: false, Text: m[2]})
		}
	}
	return out
}

// ToggleCheckbox flips the index-th checkbox of body. Only the marker of
// that line changes, and it is written in canonical form: a round trip
// turns "[X]" into "[x]" and "[  ]" into "[ ]". It reports false and
// returns body untouched when there is no such checkbox.
func ToggleCheckbox(body string, index int) (string, bool) {
	boxes := Checkboxes(body)
	if index < 0 || index >= len(boxes) {
		return body, false
	}
	box := boxes[index]

	lines := strings.Split(body, "\n")
	line := lines[box.Line]
	if box.Checked {
		loc := checkedMark.FindStringIndex(line)
		line = line[:loc[0]] + "[ ]" + line[loc[1]:]
	} else {
		loc := uncheckedMark.FindStringIndex(line)
		line = line[:loc[0]] + "[x]" + line[loc[1]:]
	}
	lines[box.Line] = line
	return strings.Join(lines, "\n"), true
}

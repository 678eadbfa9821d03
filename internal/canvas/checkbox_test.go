package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/canvas"
)

func TestToggleCheckbox_RoundTrip(t *testing.T) {
	body := "- [ ] buy milk"

	once, ok := canvas.ToggleCheckbox(body, 0)
	require.True(t, ok)
	assert.Equal(t, "- [x] buy milk", once)

	twice, ok := canvas.ToggleCheckbox(once, 0)
	require.True(t, ok)
	assert.Equal(t, body, twice)
}

func TestToggleCheckbox_WritesCanonicalMarkers(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"- [X] jam", "- [x] jam"},
		{"- [  ] jam", "- [ ] jam"},
	}
	for _, tt := range tests {
		once, ok := canvas.ToggleCheckbox(tt.body, 0)
		require.True(t, ok)
		twice, _ := canvas.ToggleCheckbox(once, 0)
		assert.Equal(t, tt.want, twice, tt.body)
	}
}

func TestToggleCheckbox_LeavesOtherLines(t *testing.T) {
	body := "Shopping\n  - [ ] bread\nsee https://example.com/[x]\n- [X] jam\n\ntrailing"

	got, ok := canvas.ToggleCheckbox(body, 1)
	require.True(t, ok)
	assert.Equal(t, "Shopping\n  - [ ] bread\nsee https://example.com/[x]\n- [ ] jam\n\ntrailing", got)

	got, ok = canvas.ToggleCheckbox(body, 0)
	require.True(t, ok)
	assert.Equal(t, "Shopping\n  - [x] bread\nsee https://example.com/[x]\n- [X] jam\n\ntrailing", got)
}

func TestToggleCheckbox_OutOfRange(t *testing.T) {
	body := "no boxes here"
	for _, i := range []int{-1, 0, 3} {
		got, ok := canvas.ToggleCheckbox(body, i)
		assert.False(t, ok)
		assert.Equal(t, body, got)
	}
}

func TestCheckboxes(t *testing.T) {
	boxes := canvas.Checkboxes("title\n- [ ] one\n-[x]two\n- [] three\nplain - [ ] not a box")

	assert.Equal(t, []canvas.Checkbox{
		{Line: 1, Checked: false, Text: "one"},
		{Line: 2, Checked: true, Text: "two"},
		{Line: 3, Checked: false, Text: "three"},
	}, boxes)
}

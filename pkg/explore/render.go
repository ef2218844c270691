package explore

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pressed reports whether the key message matches one of the binding's keys.
func pressed(msg tea.KeyMsg, binding key.Binding) bool {
	got := msg.String()
	for _, want := range binding.Keys() {
		if got == want {
			return true
		}
	}
	return false
}

// truncate shortens s to at most maxLen characters, ellipsizing when there is
// room for one.
func truncate(s string, maxLen int) string {
	switch {
	case maxLen <= 0:
		return ""
	case len(s) <= maxLen:
		return s
	case maxLen <= 3:
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// padTo right-pads s with spaces up to the given display width. Styled
// strings are measured by their visible width, not byte length.
func padTo(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// stripANSI drops escape sequences so a styled line can be re-styled whole.
func stripANSI(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\x1b' {
			out.WriteByte(s[i])
			continue
		}
		for i++; i < len(s); i++ {
			c := s[i]
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				break
			}
		}
	}
	return out.String()
}

// blankLines returns n spaces-only rows of the given width, used to fill a
// pane below its content.
func blankLines(n, width int) []string {
	if n <= 0 {
		return nil
	}
	row := strings.Repeat(" ", max(0, width))
	rows := make([]string, n)
	for i := range rows {
		rows[i] = row
	}
	return rows
}

package explore

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// detailsPane shows candidate offsets and a hex window for the selected
// target.
type detailsPane struct {
	target       *targetRow
	candCursor   int
	context      []byte // bytes around the selected candidate offset
	contextStart int64  // absolute offset of context[0]
	width        int
	height       int
	offset       int // scroll offset for content
	focused      bool
}

func newDetailsPane() detailsPane {
	return detailsPane{}
}

func (dp *detailsPane) setTarget(t *targetRow) {
	dp.target = t
	dp.candCursor = 0
	dp.offset = 0
	dp.context = nil
	dp.contextStart = 0
}

// setContext installs the loaded byte window for the selected candidate.
func (dp *detailsPane) setContext(buf []byte, start int64) {
	dp.context = buf
	dp.contextStart = start
}

// selectedOffset returns the candidate offset under the cursor, or -1 when
// the target has no candidates.
func (dp detailsPane) selectedOffset() int64 {
	if dp.target == nil || dp.candCursor < 0 || dp.candCursor >= len(dp.target.Candidates) {
		return -1
	}
	return dp.target.Candidates[dp.candCursor]
}

func (dp detailsPane) Update(msg tea.Msg) (detailsPane, tea.Cmd) {
	if !dp.focused {
		return dp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case pressed(msg, defaultKeys.Up):
			if dp.offset > 0 {
				dp.offset--
			}
		case pressed(msg, defaultKeys.Down):
			dp.offset++
		case pressed(msg, defaultKeys.Left):
			if dp.candCursor > 0 {
				dp.candCursor--
				dp.offset = 0
			}
		case pressed(msg, defaultKeys.Right):
			if dp.target != nil && dp.candCursor < len(dp.target.Candidates)-1 {
				dp.candCursor++
				dp.offset = 0
			}
		case pressed(msg, defaultKeys.Home):
			dp.offset = 0
		case pressed(msg, defaultKeys.PageDown):
			dp.offset += dp.visibleRows()
		case pressed(msg, defaultKeys.PageUp):
			dp.offset = max(0, dp.offset-dp.visibleRows())
		}
	}

	return dp, nil
}

func (dp detailsPane) View() string {
	if dp.width <= 0 || dp.height <= 0 {
		return ""
	}

	contentWidth := dp.width - 4

	var lines []string

	if dp.target == nil {
		lines = append(lines, "  No target selected")
	} else {
		t := dp.target

		// Target header
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Path:"),
			fieldValueStyle.Render(t.Path)))
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("ID:"),
			fieldValueStyle.Render(t.ID.Hex()[:12]+"...")))
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Kind:"),
			renderKind(t.Kind)))
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Size:"),
			fieldValueStyle.Render(humanize.Bytes(uint64(t.Size)))))
		lines = append(lines, fmt.Sprintf("  %s %d",
			fieldLabelStyle.Render("Candidates:"),
			len(t.Candidates)))

		lines = append(lines, "")

		// Candidate details
		if len(t.Candidates) > 0 {
			lines = append(lines, fmt.Sprintf("  %s",
				headerRowStyle.Render(fmt.Sprintf("Candidate %d/%d (h/l to navigate)", dp.candCursor+1, len(t.Candidates)))))
			lines = append(lines, "  "+strings.Repeat("─", min(40, contentWidth-4)))

			off := dp.selectedOffset()
			lines = append(lines, fmt.Sprintf("  %s %#x (%d)",
				fieldLabelStyle.Render("Offset:"), off, off))
			lines = append(lines, "")

			if dp.context != nil {
				lines = append(lines, renderHexWindow(dp.context, dp.contextStart, off, contentWidth)...)
			} else {
				lines = append(lines, "  Content not available")
			}
		} else {
			lines = append(lines, "  No candidates")
		}
	}

	// Apply scroll offset
	if dp.offset >= len(lines) {
		dp.offset = max(0, len(lines)-1)
	}
	visibleLines := lines
	if dp.offset < len(visibleLines) {
		visibleLines = visibleLines[dp.offset:]
	}
	if len(visibleLines) > dp.visibleRows() {
		visibleLines = visibleLines[:dp.visibleRows()]
	}

	var b strings.Builder
	for i, line := range visibleLines {
		b.WriteString(padTo(truncate(line, contentWidth), contentWidth))
		if i < len(visibleLines)-1 {
			b.WriteString("\n")
		}
	}
	// Fill empty
	for i := len(visibleLines); i < dp.visibleRows(); i++ {
		b.WriteString(strings.Repeat(" ", contentWidth))
		if i < dp.visibleRows()-1 {
			b.WriteString("\n")
		}
	}

	title := titleStyle.Render(" Details ")

	borderStyle := inactiveBorderStyle
	if dp.focused {
		borderStyle = activeBorderStyle
	}

	content := borderStyle.
		Width(dp.width - 2).
		Height(dp.height - 3).
		Render(b.String())

	return lipgloss.JoinVertical(lipgloss.Left, title, content)
}

// renderHexWindow formats data as a hex dump with absolute offsets,
// highlighting the byte at mark. Narrow panes fall back to 8 bytes per
// line.
func renderHexWindow(data []byte, start, mark int64, maxWidth int) []string {
	bytesPerLine := 16
	if maxWidth < 76 {
		bytesPerLine = 8
	}

	var lines []string
	for base := 0; base < len(data); base += bytesPerLine {
		end := base + bytesPerLine
		if end > len(data) {
			end = len(data)
		}
		chunk := data[base:end]

		var hexPart strings.Builder
		var asciiPart strings.Builder
		for i, c := range chunk {
			h := fmt.Sprintf("%02x", c)
			a := "."
			if c >= 0x20 && c <= 0x7e {
				a = string(c)
			}
			if start+int64(base+i) == mark {
				h = hexMarkStyle.Render(h)
				a = hexMarkStyle.Render(a)
			}
			hexPart.WriteString(h)
			hexPart.WriteString(" ")
			if i == bytesPerLine/2-1 {
				hexPart.WriteString(" ")
			}
			asciiPart.WriteString(a)
		}
		// Pad short lines so the ASCII column stays aligned
		for i := len(chunk); i < bytesPerLine; i++ {
			hexPart.WriteString("   ")
			if i == bytesPerLine/2-1 {
				hexPart.WriteString(" ")
			}
		}

		lines = append(lines, fmt.Sprintf("  %s %s|%s|",
			hexDumpStyle.Render(fmt.Sprintf("%08x", start+int64(base))),
			hexPart.String(), asciiPart.String()))
	}
	return lines
}

func (dp detailsPane) visibleRows() int {
	return max(1, dp.height-4)
}

func (dp *detailsPane) setSize(w, h int) {
	dp.width = w
	dp.height = h
}

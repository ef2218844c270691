package explore

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// sortField defines which column to sort by.
type sortField int

const (
	sortByPath sortField = iota
	sortBySize
	sortByCandidates
	sortByKind
	sortFieldCount // sentinel
)

var sortFieldNames = [sortFieldCount]string{
	"Path", "Size", "Candidates", "Kind",
}

// targetsPane is the top-right targets table.
type targetsPane struct {
	rows    []*targetRow // filtered rows
	allRows []*targetRow // all rows (unfiltered)
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	sortBy  sortField
	sortAsc bool

	// Column widths
	colPath       int
	colKind       int
	colExt        int
	colSize       int
	colCandidates int
}

func newTargetsPane(rows []*targetRow) targetsPane {
	tp := targetsPane{
		allRows: rows,
		rows:    rows,
		sortAsc: true,
	}
	tp.sort()
	return tp
}

func (tp *targetsPane) setFilteredRows(rows []*targetRow) {
	tp.rows = rows
	if tp.cursor >= len(tp.rows) {
		tp.cursor = max(0, len(tp.rows)-1)
	}
	tp.ensureVisible()
}

func (tp targetsPane) selectedTarget() *targetRow {
	if tp.cursor < 0 || tp.cursor >= len(tp.rows) {
		return nil
	}
	return tp.rows[tp.cursor]
}

func (tp targetsPane) Update(msg tea.Msg) (targetsPane, tea.Cmd) {
	if !tp.focused {
		return tp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case pressed(msg, defaultKeys.Up):
			if tp.cursor > 0 {
				tp.cursor--
				tp.ensureVisible()
			}
		case pressed(msg, defaultKeys.Down):
			if tp.cursor < len(tp.rows)-1 {
				tp.cursor++
				tp.ensureVisible()
			}
		case pressed(msg, defaultKeys.Home):
			tp.cursor = 0
			tp.offset = 0
		case pressed(msg, defaultKeys.End):
			tp.cursor = max(0, len(tp.rows)-1)
			tp.ensureVisible()
		case pressed(msg, defaultKeys.PageDown):
			tp.cursor = min(tp.cursor+tp.visibleRows(), len(tp.rows)-1)
			tp.ensureVisible()
		case pressed(msg, defaultKeys.PageUp):
			tp.cursor = max(tp.cursor-tp.visibleRows(), 0)
			tp.ensureVisible()
		case pressed(msg, defaultKeys.SortNext):
			tp.sortBy = (tp.sortBy + 1) % sortFieldCount
			tp.sort()
		}
	}

	return tp, nil
}

func (tp *targetsPane) sort() {
	switch tp.sortBy {
	case sortByPath:
		sortSlice(tp.rows, func(a, b *targetRow) bool { return a.Path < b.Path }, tp.sortAsc)
	case sortBySize:
		sortSlice(tp.rows, func(a, b *targetRow) bool { return a.Size < b.Size }, tp.sortAsc)
	case sortByCandidates:
		sortSlice(tp.rows, func(a, b *targetRow) bool { return len(a.Candidates) < len(b.Candidates) }, tp.sortAsc)
	case sortByKind:
		sortSlice(tp.rows, func(a, b *targetRow) bool { return a.Kind < b.Kind }, tp.sortAsc)
	}
}

func sortSlice[T any](s []T, less func(a, b T) bool, asc bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0; j-- {
			if asc {
				if less(s[j], s[j-1]) {
					s[j], s[j-1] = s[j-1], s[j]
				}
			} else {
				if less(s[j-1], s[j]) {
					s[j], s[j-1] = s[j-1], s[j]
				}
			}
		}
	}
}

func (tp targetsPane) View() string {
	if tp.width <= 0 || tp.height <= 0 {
		return ""
	}

	// Calculate column widths
	contentWidth := tp.width - 4 // borders
	tp.colKind = 8
	tp.colExt = 6
	tp.colSize = 10
	tp.colCandidates = 10
	tp.colPath = contentWidth - tp.colKind - tp.colExt - tp.colSize - tp.colCandidates - 4 // separators
	if tp.colPath < 10 {
		tp.colPath = 10
	}

	var b strings.Builder

	// Header row
	sortIndicator := func(f sortField) string {
		if tp.sortBy == f {
			if tp.sortAsc {
				return " ^"
			}
			return " v"
		}
		return ""
	}

	header := fmt.Sprintf(" %-*s %-*s %-*s %*s %*s",
		tp.colPath, "Path"+sortIndicator(sortByPath),
		tp.colKind, "Kind"+sortIndicator(sortByKind),
		tp.colExt, "Ext",
		tp.colSize, "Size"+sortIndicator(sortBySize),
		tp.colCandidates, "Cands"+sortIndicator(sortByCandidates),
	)
	b.WriteString(headerRowStyle.Width(contentWidth).Render(truncate(header, contentWidth)))
	b.WriteString("\n")

	// Separator
	b.WriteString(strings.Repeat("─", contentWidth))
	b.WriteString("\n")

	// Data rows
	visibleEnd := min(tp.offset+tp.visibleRows(), len(tp.rows))
	for i := tp.offset; i < visibleEnd; i++ {
		row := tp.rows[i]
		isCurrent := i == tp.cursor

		kindStr := renderKind(row.Kind)
		sizeStr := humanize.Bytes(uint64(row.Size))

		line := fmt.Sprintf(" %-*s %-*s %-*s %*s %*d",
			tp.colPath, truncate(row.Path, tp.colPath),
			tp.colKind, kindStr,
			tp.colExt, truncate(row.Ext, tp.colExt),
			tp.colSize, sizeStr,
			tp.colCandidates, len(row.Candidates),
		)

		if isCurrent && tp.focused {
			line = selectedRowStyle.Width(contentWidth).Render(stripANSI(line))
		}

		b.WriteString(padTo(line, contentWidth))
		if i < visibleEnd-1 {
			b.WriteString("\n")
		}
	}

	// Fill empty rows
	for i := visibleEnd - tp.offset; i < tp.visibleRows(); i++ {
		b.WriteString(strings.Repeat(" ", contentWidth))
		if i < tp.visibleRows()-1 {
			b.WriteString("\n")
		}
	}

	title := titleStyle.Render(fmt.Sprintf(" Targets (%d/%d) [sort: %s] ", len(tp.rows), len(tp.allRows), sortFieldNames[tp.sortBy]))

	borderStyle := inactiveBorderStyle
	if tp.focused {
		borderStyle = activeBorderStyle
	}

	content := borderStyle.
		Width(tp.width - 2).
		Height(tp.height - 3).
		Render(b.String())

	return lipgloss.JoinVertical(lipgloss.Left, title, content)
}

func (tp targetsPane) visibleRows() int {
	return max(1, tp.height-6) // title + border + header + separator
}

func (tp *targetsPane) ensureVisible() {
	if tp.cursor < tp.offset {
		tp.offset = tp.cursor
	}
	if tp.cursor >= tp.offset+tp.visibleRows() {
		tp.offset = tp.cursor - tp.visibleRows() + 1
	}
}

func (tp *targetsPane) setSize(w, h int) {
	tp.width = w
	tp.height = h
}

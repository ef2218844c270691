package explore

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type entryKind int

const (
	entryHeader entryKind = iota
	entryValue
)

// facetEntry is one visible row of the facet tree: either a category header
// or a selectable value beneath one.
type facetEntry struct {
	kind     entryKind
	label    string
	facet    facetID
	valueIdx int // meaningful for entryValue only
	open     bool
}

// filterPane is the left-side faceted search tree.
type filterPane struct {
	facets    *facetState
	entries   []facetEntry
	collapsed map[facetID]bool
	cursor    int
	offset    int
	width     int
	height    int
	focused   bool
}

func newFilterPane(facets *facetState) filterPane {
	fp := filterPane{
		facets:    facets,
		collapsed: make(map[facetID]bool),
	}
	fp.flatten()
	return fp
}

// flatten rebuilds the visible entry list from the facet state, honoring
// collapsed categories, and clamps the cursor to the new length.
func (fp *filterPane) flatten() {
	fp.entries = fp.entries[:0]
	for _, def := range facetDefs {
		values := fp.facets.Values[def.ID]
		if len(values) == 0 {
			continue
		}
		open := !fp.collapsed[def.ID]
		fp.entries = append(fp.entries, facetEntry{
			kind:  entryHeader,
			label: def.Label,
			facet: def.ID,
			open:  open,
		})
		if !open {
			continue
		}
		for i, v := range values {
			fp.entries = append(fp.entries, facetEntry{
				kind:     entryValue,
				label:    v.Value,
				facet:    def.ID,
				valueIdx: i,
			})
		}
	}
	if fp.cursor >= len(fp.entries) {
		fp.cursor = max(0, len(fp.entries)-1)
	}
}

func (fp *filterPane) move(delta int) {
	next := fp.cursor + delta
	if next < 0 {
		next = 0
	}
	if last := len(fp.entries) - 1; next > last {
		next = max(0, last)
	}
	fp.cursor = next
	fp.ensureVisible()
}

func (fp filterPane) Update(msg tea.Msg) (filterPane, tea.Cmd) {
	if !fp.focused {
		return fp, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return fp, nil
	}

	switch {
	case pressed(key, defaultKeys.Up):
		fp.move(-1)
	case pressed(key, defaultKeys.Down):
		fp.move(1)
	case pressed(key, defaultKeys.Home):
		fp.cursor = 0
		fp.offset = 0
	case pressed(key, defaultKeys.End):
		fp.move(len(fp.entries))
	case pressed(key, defaultKeys.PageDown):
		fp.move(fp.visibleRows())
	case pressed(key, defaultKeys.PageUp):
		fp.move(-fp.visibleRows())
	case pressed(key, defaultKeys.Left):
		fp.fold(true)
	case pressed(key, defaultKeys.Right):
		fp.fold(false)
	case pressed(key, defaultKeys.ToggleFilter):
		fp.toggleCurrent()
	case pressed(key, defaultKeys.ResetFilter):
		fp.facets.resetAll()
	}

	return fp, nil
}

// fold collapses or expands the category the cursor is in, leaving the
// cursor on the category header.
func (fp *filterPane) fold(collapse bool) {
	if fp.cursor < 0 || fp.cursor >= len(fp.entries) {
		return
	}
	id := fp.entries[fp.cursor].facet
	fp.collapsed[id] = collapse
	fp.flatten()
	for i := range fp.entries {
		if fp.entries[i].kind == entryHeader && fp.entries[i].facet == id {
			fp.cursor = i
			break
		}
	}
	fp.ensureVisible()
}

// toggleCurrent collapses/expands the category under the cursor, or flips
// the selection of the value under it.
func (fp *filterPane) toggleCurrent() {
	if fp.cursor < 0 || fp.cursor >= len(fp.entries) {
		return
	}
	e := fp.entries[fp.cursor]
	if e.kind == entryHeader {
		fp.collapsed[e.facet] = !fp.collapsed[e.facet]
		fp.flatten()
		for i := range fp.entries {
			if fp.entries[i].kind == entryHeader && fp.entries[i].facet == e.facet {
				fp.cursor = i
				return
			}
		}
		return
	}
	if values := fp.facets.Values[e.facet]; e.valueIdx < len(values) {
		values[e.valueIdx].Selected = !values[e.valueIdx].Selected
	}
}

func (fp filterPane) renderEntry(e facetEntry) string {
	if e.kind == entryHeader {
		arrow := "▸"
		if e.open {
			arrow = "▾"
		}
		return facetLabelStyle.Render(fmt.Sprintf(" %s %s", arrow, e.label))
	}

	values := fp.facets.Values[e.facet]
	if e.valueIdx >= len(values) {
		return ""
	}
	v := values[e.valueIdx]
	label := truncate(e.label, fp.width-12)
	count := facetCountStyle.Render(fmt.Sprintf("(%d)", v.Count))
	if v.Selected {
		return fmt.Sprintf("   %s %s %s",
			facetSelectedStyle.Render("+"), facetSelectedStyle.Render(label), count)
	}
	return fmt.Sprintf("     %s %s", label, count)
}

func (fp filterPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}

	rowWidth := fp.width - 2
	end := min(fp.offset+fp.visibleRows(), len(fp.entries))

	var rows []string
	for i := fp.offset; i < end; i++ {
		line := fp.renderEntry(fp.entries[i])
		if i == fp.cursor && fp.focused {
			line = selectedRowStyle.Width(rowWidth).Render(stripANSI(line))
		}
		rows = append(rows, padTo(line, rowWidth))
	}
	rows = append(rows, blankLines(fp.visibleRows()-len(rows), rowWidth)...)

	title := " Filters "
	if fp.facets.hasActiveFilters() {
		title = " Filters [active] "
	}

	border := inactiveBorderStyle
	if fp.focused {
		border = activeBorderStyle
	}
	body := border.
		Width(rowWidth).
		Height(fp.height - 3).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), body)
}

// visibleRows is the row budget inside the border, below the title.
func (fp filterPane) visibleRows() int {
	return max(1, fp.height-4)
}

func (fp *filterPane) ensureVisible() {
	if fp.cursor < fp.offset {
		fp.offset = fp.cursor
	}
	if fp.cursor >= fp.offset+fp.visibleRows() {
		fp.offset = fp.cursor - fp.visibleRows() + 1
	}
}

func (fp *filterPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
}

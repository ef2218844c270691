package explore

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// focusedPane tracks which pane has keyboard focus.
type focusedPane int

const (
	paneFilters focusedPane = iota
	paneTargets
	paneDetails
)

// overlay tracks which modal overlay is active.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlaySource
)

// pagerFinishedMsg is sent when an external pager process exits.
type pagerFinishedMsg struct{ err error }

// scrollText is a scrollable block of prerendered text for overlays.
type scrollText struct {
	content string
	offset  int
}

func (st *scrollText) scroll(delta int) {
	st.offset = max(0, st.offset+delta)
}

// window returns at most height lines starting at the scroll offset.
func (st *scrollText) window(height int) string {
	lines := strings.Split(st.content, "\n")
	if st.offset >= len(lines) {
		st.offset = max(0, len(lines)-1)
	}
	return strings.Join(lines[st.offset:min(st.offset+height, len(lines))], "\n")
}

// layout is the pane geometry for the current terminal size.
type layout struct {
	filtersW int // 0 when the filter pane is hidden
	dataW    int
	targetsH int
	detailsH int
	contentH int
}

// Model is the root Bubble Tea model for the explore TUI.
type Model struct {
	data    *exploreData
	filters filterPane
	targets targetsPane
	details detailsPane

	focus         focusedPane
	activeOverlay overlay
	showFilters   bool

	help   scrollText
	source scrollText

	width  int
	height int
}

// New creates a Model over the scan results at the given datastore path.
func New(datastorePath string) (Model, error) {
	data, err := loadData(datastorePath)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		data:        data,
		filters:     newFilterPane(buildFacets(data.targets)),
		targets:     newTargetsPane(data.targets),
		details:     newDetailsPane(),
		showFilters: true,
	}
	m.setFocus(paneTargets)
	m.syncSelected()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("magus explore")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pagerFinishedMsg:
		// TUI resumes on its own once the pager exits.
		return m, nil

	case tea.MouseMsg:
		if m.activeOverlay == overlayNone &&
			msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.handleMouseClick(msg.X, msg.Y)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeOverlay != overlayNone {
		return m.updateOverlay(msg)
	}

	switch {
	case pressed(msg, defaultKeys.ForceQuit), pressed(msg, defaultKeys.Quit):
		return m, tea.Quit
	case pressed(msg, defaultKeys.ToggleHelp):
		m.help = scrollText{content: renderHelp()}
		m.activeOverlay = overlayHelp
		return m, nil
	case pressed(msg, defaultKeys.ToggleFilters):
		m.showFilters = !m.showFilters
		return m, nil
	case pressed(msg, defaultKeys.FocusFilters):
		m.setFocus(paneFilters)
		return m, nil
	case pressed(msg, defaultKeys.FocusTargets):
		m.setFocus(paneTargets)
		return m, nil
	case pressed(msg, defaultKeys.FocusDetails):
		m.setFocus(paneDetails)
		return m, nil
	}

	if m.focus != paneFilters && pressed(msg, defaultKeys.OpenSource) {
		cmd := m.openSource()
		return m, cmd
	}

	return m.routeKey(msg)
}

// routeKey forwards the key to the focused pane and keeps the dependent
// panes in sync when its cursor moved.
func (m Model) routeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case paneFilters:
		m.filters, cmd = m.filters.Update(msg)
		m.applyFilters()
	case paneTargets:
		prev := m.targets.cursor
		m.targets, cmd = m.targets.Update(msg)
		if m.targets.cursor != prev {
			m.syncSelected()
		}
	case paneDetails:
		prev := m.details.candCursor
		m.details, cmd = m.details.Update(msg)
		if m.details.candCursor != prev {
			m.loadContext()
		}
	}
	return m, cmd
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view, closeKey := &m.help, defaultKeys.ToggleHelp
	if m.activeOverlay == overlaySource {
		view, closeKey = &m.source, defaultKeys.OpenSource
	}

	switch {
	case pressed(msg, defaultKeys.Quit),
		pressed(msg, defaultKeys.ForceQuit),
		pressed(msg, closeKey):
		m.activeOverlay = overlayNone
	case pressed(msg, defaultKeys.Down):
		view.scroll(1)
	case pressed(msg, defaultKeys.Up):
		view.scroll(-1)
	case pressed(msg, defaultKeys.PageDown):
		view.scroll(m.height / 2)
	case pressed(msg, defaultKeys.PageUp):
		view.scroll(-m.height / 2)
	}
	return m, nil
}

// layoutNow computes pane sizes from the current terminal dimensions. The
// same geometry drives both rendering and mouse hit testing.
func (m *Model) layoutNow() layout {
	l := layout{contentH: m.height - 2}
	if m.showFilters {
		l.filtersW = min(m.width*30/100, 50)
	}
	l.dataW = m.width - l.filtersW
	l.targetsH = l.contentH * 40 / 100
	l.detailsH = l.contentH - l.targetsH
	return l
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.activeOverlay != overlayNone {
		return m.renderOverlay()
	}

	l := m.layoutNow()
	m.targets.setSize(l.dataW, l.targetsH)
	m.details.setSize(l.dataW, l.detailsH)
	column := lipgloss.JoinVertical(lipgloss.Left, m.targets.View(), m.details.View())
	if l.filtersW > 0 {
		m.filters.setSize(l.filtersW, l.contentH)
		column = lipgloss.JoinHorizontal(lipgloss.Top, m.filters.View(), column)
	}

	return lipgloss.JoinVertical(lipgloss.Left, column, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	left := statusBarStyle.Render(fmt.Sprintf(" %d targets | %d filtered",
		len(m.data.targets), len(m.targets.rows)))

	hints := [][2]string{
		{"j/k", "nav"}, {"t/d", "focus"}, {"s", "sort"},
		{"o", "source"}, {"F7", "filters"}, {"?", "help"},
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = helpKeyStyle.Render(h[0]) + ":" + helpDescStyle.Render(h[1])
	}
	right := strings.Join(parts, "  ")

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderOverlay() string {
	w := m.width * 80 / 100
	h := m.height * 80 / 100

	title, body := " Help (q to close) ", m.help.window(h-4)
	if m.activeOverlay == overlaySource {
		title, body = " Source (q to close) ", m.source.window(h-4)
	}

	box := modalStyle.
		Width(w - 4).
		Height(h - 2).
		Render(body)
	view := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), box)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
}

func (m *Model) setFocus(p focusedPane) {
	m.filters.focused = p == paneFilters
	m.targets.focused = p == paneTargets
	m.details.focused = p == paneDetails
	m.focus = p
}

// syncSelected points the details pane at the targets cursor and loads the
// context window for its current candidate.
func (m *Model) syncSelected() {
	t := m.targets.selectedTarget()
	m.details.setTarget(t)
	if t != nil {
		m.loadContext()
	}
}

func (m *Model) handleMouseClick(x, y int) {
	l := m.layoutNow()
	if y >= l.contentH {
		return // status bar
	}

	switch {
	case x < l.filtersW:
		m.setFocus(paneFilters)
		// Rows start under the pane title and border top.
		if idx := y - 2 + m.filters.offset; y >= 2 && idx < len(m.filters.entries) {
			m.filters.cursor = idx
			m.filters.toggleCurrent()
			m.applyFilters()
		}
	case y < l.targetsH:
		m.setFocus(paneTargets)
		// Rows start under title, border top, header, and separator.
		if idx := y - 4 + m.targets.offset; y >= 4 && idx < len(m.targets.rows) {
			m.targets.cursor = idx
			m.syncSelected()
		}
	default:
		m.setFocus(paneDetails)
	}
}

// applyFilters recomputes the visible rows from the facet selections, then
// refreshes counts and the details pane.
func (m *Model) applyFilters() {
	visible := m.data.targets
	if m.filters.facets.hasActiveFilters() {
		visible = nil
		for _, t := range m.data.targets {
			if m.filters.facets.matchesTarget(t) {
				visible = append(visible, t)
			}
		}
	}
	m.targets.setFilteredRows(visible)
	m.filters.facets.updateCounts(m.data.targets)
	m.syncSelected()
}

// loadContext reads the byte window around the selected candidate offset.
// Failures leave the context empty; the details pane shows a placeholder.
func (m *Model) loadContext() {
	t := m.details.target
	off := m.details.selectedOffset()
	if t == nil || off < 0 {
		return
	}
	buf, start, err := m.data.candidateContext(t, off)
	if err != nil {
		return
	}
	m.details.setContext(buf, start)
}

// openSource opens the selected target: plain files that still exist go to
// the external pager, everything else renders as a hex window overlay.
func (m *Model) openSource() tea.Cmd {
	t := m.details.target
	if t == nil {
		t = m.targets.selectedTarget()
	}
	if t == nil {
		return nil
	}

	if t.Kind == kindFile {
		if _, err := os.Stat(t.Path); err == nil {
			pager := os.Getenv("PAGER")
			if pager == "" {
				pager = "less"
			}
			return tea.ExecProcess(exec.Command(pager, t.Path), func(err error) tea.Msg {
				return pagerFinishedMsg{err: err}
			})
		}
	}

	if m.details.context == nil {
		m.loadContext()
	}
	body := "  Content not available"
	if m.details.context != nil {
		lines := renderHexWindow(m.details.context, m.details.contextStart, m.details.selectedOffset(), 100)
		body = strings.Join(lines, "\n")
	}
	m.source = scrollText{content: body}
	m.activeOverlay = overlaySource
	return nil
}

// Close releases resources held by the model.
func (m *Model) Close() error {
	if m.data != nil {
		return m.data.close()
	}
	return nil
}

func renderHelp() string {
	return `Magus Explore - Interactive Candidate Browser

NAVIGATION
  j/k or Up/Down    Move cursor up/down
  h/l or Left/Right Navigate candidates (details) or collapse/expand (filters)
  Ctrl+f/Ctrl+b     Page down/up
  g/G               Jump to top/bottom

FOCUS
  F1                Focus filters pane
  t                 Focus targets pane
  d                 Focus details pane
  F7                Toggle filters pane visibility

FILTERS
  x or Space        Toggle filter value
  Ctrl+r            Reset all filters

VIEWS
  s                 Cycle sort column
  o                 Open target (pager for files, hex overlay otherwise)
  ?                 Toggle this help screen

QUIT
  q                 Quit
  Ctrl+c            Force quit
`
}

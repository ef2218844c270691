package explore

import "github.com/charmbracelet/lipgloss"

// Palette. ANSI-256 values keep the TUI usable on non-truecolor terminals.
var (
	colorPrimary   = lipgloss.Color("99")  // violet
	colorSecondary = lipgloss.Color("42")  // green
	colorMark      = lipgloss.Color("214") // amber, the candidate byte
	colorMuted     = lipgloss.Color("241") // gray
	colorAccent    = lipgloss.Color("39")  // blue
	colorHighlight = lipgloss.Color("231") // near-white
)

var paneBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())

// Pane chrome.
var (
	activeBorderStyle   = paneBorder.BorderForeground(colorPrimary)
	inactiveBorderStyle = paneBorder.BorderForeground(colorMuted)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight).
			Background(colorPrimary).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().Foreground(colorMuted)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)
)

// Table rows.
var (
	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(colorHighlight)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)
)

// Hex dump: the offset gutter is muted, the candidate byte stands out.
var (
	hexMarkStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMark)
	hexDumpStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Facet tree.
var (
	facetLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	facetSelectedStyle = lipgloss.NewStyle().Foreground(colorSecondary)
	facetCountStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Details fields and status bar hints.
var (
	fieldLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	fieldValueStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Source kinds.
var (
	fileKindStyle   = lipgloss.NewStyle().Foreground(colorSecondary)
	memberKindStyle = lipgloss.NewStyle().Foreground(colorAccent)
)

// renderKind returns a styled string for a target's source kind.
func renderKind(kind string) string {
	switch kind {
	case kindFile:
		return fileKindStyle.Render(kindFile)
	case kindMember:
		return memberKindStyle.Render(kindMember)
	default:
		return hexDumpStyle.Render("-")
	}
}

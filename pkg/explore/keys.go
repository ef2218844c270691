package explore

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// bind builds a key.Binding whose help label is the first key name unless an
// explicit label is given via the "label|desc" form.
func bind(desc string, keys ...string) key.Binding {
	label := keys[0]
	if i := strings.IndexByte(desc, '|'); i >= 0 {
		label, desc = desc[:i], desc[i+1:]
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// keyMap holds every binding the explorer reacts to. Grouped by concern so
// the help overlay can be assembled in the same order.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	FocusFilters key.Binding
	FocusTargets key.Binding
	FocusDetails key.Binding

	ToggleFilter key.Binding
	ResetFilter  key.Binding

	OpenSource    key.Binding
	ToggleHelp    key.Binding
	ToggleFilters key.Binding

	SortNext key.Binding

	Quit      key.Binding
	ForceQuit key.Binding
}

var defaultKeys = keyMap{
	Up:       bind("k/up|up", "up", "k"),
	Down:     bind("j/dn|down", "down", "j"),
	Left:     bind("h|left", "left", "h"),
	Right:    bind("l|right", "right", "l"),
	PageUp:   bind("C-b|page up", "pgup", "ctrl+b"),
	PageDown: bind("C-f|page down", "pgdown", "ctrl+f"),
	Home:     bind("g|top", "home", "g"),
	End:      bind("G|bottom", "end", "G"),

	FocusFilters: bind("F1|filters", "f1"),
	FocusTargets: bind("targets", "t"),
	FocusDetails: bind("details", "d"),

	ToggleFilter: bind("x/spc|toggle", "x", " ", "enter"),
	ResetFilter:  bind("C-r|reset filters", "ctrl+r"),

	OpenSource:    bind("source", "o"),
	ToggleHelp:    bind("help", "?"),
	ToggleFilters: bind("F7|filters", "f7"),

	SortNext: bind("sort", "s"),

	Quit:      bind("quit", "q"),
	ForceQuit: bind("C-c|quit", "ctrl+c"),
}

package explore

import (
	"sort"

	"github.com/praetorian-inc/magus/pkg/types"
)

// targetRow is the denormalized view model for a scanned target in the TUI.
// Built from types.Target + its stored candidate offsets.
type targetRow struct {
	ID         types.TargetID
	Path       string
	Container  string // on-disk container path when the target is an archive member
	Kind       string // "file" or "member"
	Ext        string // lowercased extension without the dot, "-" when none
	Size       int64
	Candidates []int64
}

// Source kinds for a scanned target.
const (
	kindFile   = "file"
	kindMember = "member"
)

// Candidate presence facet values.
const (
	presenceWith    = "with candidates"
	presenceWithout = "without candidates"
)

// facetID identifies a facet category.
type facetID int

const (
	facetKind facetID = iota
	facetExt
	facetCandidates
)

// facetDef couples a category label with the accessor extracting that
// facet's value from a row. Every facet here is single-valued per target,
// which keeps match and count logic uniform.
type facetDef struct {
	ID    facetID
	Label string
	keyOf func(*targetRow) string
}

var facetDefs = []facetDef{
	{facetKind, "Source", func(t *targetRow) string { return t.Kind }},
	{facetExt, "Extension", func(t *targetRow) string { return t.Ext }},
	{facetCandidates, "Candidates", presenceValue},
}

func presenceValue(t *targetRow) string {
	if len(t.Candidates) > 0 {
		return presenceWith
	}
	return presenceWithout
}

// facetValue is a single selectable value within a facet.
type facetValue struct {
	FacetID  facetID
	Value    string
	Count    int
	Selected bool
}

// facetState holds the complete filter state.
type facetState struct {
	Values map[facetID][]*facetValue
}

// buildFacets derives the facet values and their initial counts from the
// full target list.
func buildFacets(targets []*targetRow) *facetState {
	fs := &facetState{Values: make(map[facetID][]*facetValue, len(facetDefs))}
	for _, def := range facetDefs {
		counts := make(map[string]int)
		for _, t := range targets {
			counts[def.keyOf(t)]++
		}
		vals := make([]*facetValue, 0, len(counts))
		for value, n := range counts {
			vals = append(vals, &facetValue{FacetID: def.ID, Value: value, Count: n})
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i].Value < vals[j].Value })
		fs.Values[def.ID] = vals
	}
	return fs
}

// accepts reports whether the row passes one facet: true when the facet has
// no selection, or when the row's value is among the selected ones.
func (fs *facetState) accepts(def facetDef, t *targetRow) bool {
	active := false
	key := def.keyOf(t)
	for _, v := range fs.Values[def.ID] {
		if !v.Selected {
			continue
		}
		if v.Value == key {
			return true
		}
		active = true
	}
	return !active
}

// matchesTarget applies all facets: OR within a facet, AND across facets.
func (fs *facetState) matchesTarget(t *targetRow) bool {
	for _, def := range facetDefs {
		if !fs.accepts(def, t) {
			return false
		}
	}
	return true
}

func (fs *facetState) hasActiveFilters() bool {
	for _, values := range fs.Values {
		for _, v := range values {
			if v.Selected {
				return true
			}
		}
	}
	return false
}

func (fs *facetState) resetAll() {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Selected = false
		}
	}
}

// updateCounts recounts every facet value against the rows that pass the
// current filters, so counts always reflect the visible set.
func (fs *facetState) updateCounts(targets []*targetRow) {
	index := make(map[facetID]map[string]*facetValue, len(fs.Values))
	for id, values := range fs.Values {
		byValue := make(map[string]*facetValue, len(values))
		for _, v := range values {
			v.Count = 0
			byValue[v.Value] = v
		}
		index[id] = byValue
	}

	for _, t := range targets {
		if !fs.matchesTarget(t) {
			continue
		}
		for _, def := range facetDefs {
			if v := index[def.ID][def.keyOf(t)]; v != nil {
				v.Count++
			}
		}
	}
}

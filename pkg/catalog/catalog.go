// Package catalog accumulates parsed signature entries from definition
// files into per-offset condition sets and the filtered definition stream
// a downstream verification engine consumes.
package catalog

import (
	"sort"

	"github.com/praetorian-inc/magus/pkg/types"
)

// Catalog is the accumulated view of every included signature.
type Catalog struct {
	offsets map[int64]map[string]types.Condition
	sigs    []types.Signature
	count   int
}

func newCatalog() *Catalog {
	return &Catalog{offsets: make(map[int64]map[string]types.Condition)}
}

// add records one included signature. Conditions deduplicate per offset by
// their keys; the signature count keeps counting duplicates.
func (c *Catalog) add(sig types.Signature) {
	set, ok := c.offsets[sig.Offset]
	if !ok {
		set = make(map[string]types.Condition)
		c.offsets[sig.Offset] = set
	}
	set[sig.Condition.Key()] = sig.Condition
	c.sigs = append(c.sigs, sig)
	c.count++
}

// SignatureCount returns the number of included signature lines, counted
// before deduplication.
func (c *Catalog) SignatureCount() int {
	return c.count
}

// Signatures returns every included signature line in load order, before
// deduplication.
func (c *Catalog) Signatures() []types.Signature {
	return append([]types.Signature(nil), c.sigs...)
}

// Offsets returns every offset with at least one condition, ascending.
func (c *Catalog) Offsets() []int64 {
	offsets := make([]int64, 0, len(c.offsets))
	for off := range c.offsets {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// ConditionsAt returns the deduplicated conditions recorded at one offset,
// in stable key order.
func (c *Catalog) ConditionsAt(offset int64) []types.Condition {
	return sortedConditions(c.offsets[offset])
}

// Conditions returns every distinct condition across all offsets, in
// stable key order. This is the compiler's input: candidate matching is
// offset-agnostic, so the offset dimension collapses here.
func (c *Catalog) Conditions() []types.Condition {
	merged := make(map[string]types.Condition)
	for _, set := range c.offsets {
		for key, cond := range set {
			merged[key] = cond
		}
	}
	return sortedConditions(merged)
}

// ===== HELPERS =====

func sortedConditions(set map[string]types.Condition) []types.Condition {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conds := make([]types.Condition, 0, len(keys))
	for _, key := range keys {
		conds = append(conds, set[key])
	}
	return conds
}

// Package prefilter compiles catalog conditions into a candidate scanner:
// a fast first pass reporting every offset where a full signature match
// might begin, for an expensive verification engine to confirm.
package prefilter

import (
	"sort"

	"github.com/praetorian-inc/magus/pkg/types"
)

// engine enumerates literal occurrence start offsets in a buffer.
type engine interface {
	positions(buf []byte) ([]int, error)
	close() error
}

// CompiledSet is a frozen, deduplicated matcher set. Compile builds it
// once; any number of goroutines may then scan with it concurrently.
type CompiledSet struct {
	literals [][]byte
	wildcard bool
	maxLen   int
	eng      engine
}

// Compile freezes conditions into a matcher set. Duplicate literals
// collapse, wildcards collapse to a single match-anything flag, and an
// empty input yields a set that matches nothing. Compiling the same
// conditions again yields an equivalent set.
func Compile(conds []types.Condition) (*CompiledSet, error) {
	cs := &CompiledSet{}
	seen := make(map[string]struct{}, len(conds))
	for _, c := range conds {
		if c.IsWildcard() {
			cs.wildcard = true
			if cs.maxLen < 1 {
				cs.maxLen = 1
			}
			continue
		}
		key := string(c.Value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cs.literals = append(cs.literals, c.Value)
		if len(c.Value) > cs.maxLen {
			cs.maxLen = len(c.Value)
		}
	}

	if len(cs.literals) > 0 {
		eng, err := newEngine(cs.literals)
		if err != nil {
			return nil, err
		}
		cs.eng = eng
	}
	return cs, nil
}

// FindCandidates reports every offset below bound where a compiled
// condition matches. Matching is offset-agnostic: a condition recorded at
// catalog offset 8 still reports candidates anywhere, and the verifier
// re-checks alignment. The result is ascending and duplicate-free; empty
// means nothing matched, which is a normal outcome, not an error.
//
// The effective limit is min(bound, len(buf)): an offset at bound-1 is
// kept, one at bound is not, and bound <= 0 or an empty buffer yields
// nothing.
func (cs *CompiledSet) FindCandidates(buf []byte, bound int) ([]int64, error) {
	limit := bound
	if limit > len(buf) {
		limit = len(buf)
	}
	if limit <= 0 {
		return nil, nil
	}

	// A wildcard makes every position a candidate, subsuming whatever the
	// literals would contribute below the limit.
	if cs.wildcard {
		offsets := make([]int64, limit)
		for i := range offsets {
			offsets[i] = int64(i)
		}
		return offsets, nil
	}

	if cs.eng == nil {
		return nil, nil
	}
	starts, err := cs.eng.positions(buf)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(starts))
	offsets := make([]int64, 0, len(starts))
	for _, start := range starts {
		if start >= limit {
			continue
		}
		if _, dup := seen[start]; dup {
			continue
		}
		seen[start] = struct{}{}
		offsets = append(offsets, int64(start))
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets, nil
}

// PatternCount returns the number of distinct literal patterns.
func (cs *CompiledSet) PatternCount() int {
	return len(cs.literals)
}

// HasWildcard reports whether a wildcard condition was compiled in.
func (cs *CompiledSet) HasWildcard() bool {
	return cs.wildcard
}

// MaxPatternLen returns the longest pattern's byte length. Chunked
// scanning sizes its window overlap from this.
func (cs *CompiledSet) MaxPatternLen() int {
	return cs.maxLen
}

// Engine names the match engine compiled into this build.
func (cs *CompiledSet) Engine() string {
	return engineName
}

// Close releases engine resources. The portable engine holds none; the
// hyperscan engine frees its database and scratch space.
func (cs *CompiledSet) Close() error {
	if cs.eng == nil {
		return nil
	}
	return cs.eng.close()
}

//go:build cgo && hyperscan

package prefilter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/flier/gohs/hyperscan"
)

// hsEngine scans with a Hyperscan block database. Patterns are pure
// literals, so match starts are derived from the end offset and the
// pattern length instead of paying for start-of-match tracking. Scratch
// space is not safe for concurrent scans; a mutex serializes them.
type hsEngine struct {
	db      hyperscan.BlockDatabase
	scratch *hyperscan.Scratch
	lengths []int
	mu      sync.Mutex
}

func newHsEngine(literals [][]byte) (*hsEngine, error) {
	patterns := make([]*hyperscan.Pattern, len(literals))
	lengths := make([]int, len(literals))
	for i, lit := range literals {
		p := hyperscan.NewPattern(hexEscape(lit), 0)
		p.Id = i
		patterns[i] = p
		lengths[i] = len(lit)
	}

	db, err := hyperscan.NewBlockDatabase(patterns...)
	if err != nil {
		return nil, fmt.Errorf("hyperscan compile: %w", err)
	}
	scratch, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("hyperscan scratch: %w", err)
	}
	return &hsEngine{db: db, scratch: scratch, lengths: lengths}, nil
}

func (e *hsEngine) positions(buf []byte) ([]int, error) {
	var starts []int
	handler := hyperscan.MatchHandler(func(id uint, from, to uint64, flags uint, _ interface{}) error {
		starts = append(starts, int(to)-e.lengths[id])
		return nil
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.db.Scan(buf, e.scratch, handler, nil); err != nil {
		return nil, fmt.Errorf("hyperscan scan: %w", err)
	}
	return starts, nil
}

func (e *hsEngine) close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scratch != nil {
		e.scratch.Free()
		e.scratch = nil
	}
	if e.db != nil {
		e.db.Close()
		e.db = nil
	}
	return nil
}

// hexEscape renders a literal as \xHH escapes so any byte value is safe
// inside a Hyperscan expression.
func hexEscape(lit []byte) string {
	var sb strings.Builder
	sb.Grow(len(lit) * 4)
	for _, b := range lit {
		fmt.Fprintf(&sb, `\x%02x`, b)
	}
	return sb.String()
}

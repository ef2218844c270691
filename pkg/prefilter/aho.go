package prefilter

import (
	"bytes"

	"github.com/cloudflare/ahocorasick"
)

// acEngine is the portable engine: an Aho-Corasick presence pass narrows
// the literal set to those present anywhere in the buffer, then a
// per-literal sweep recovers every occurrence start, overlapping ones
// included. No cgo, works on every platform including wasm.
type acEngine struct {
	matcher  *ahocorasick.Matcher
	literals [][]byte
}

func newAcEngine(literals [][]byte) *acEngine {
	keys := make([]string, len(literals))
	for i, lit := range literals {
		keys[i] = string(lit)
	}
	return &acEngine{
		matcher:  ahocorasick.NewStringMatcher(keys),
		literals: literals,
	}
}

func (e *acEngine) positions(buf []byte) ([]int, error) {
	hits := e.matcher.MatchThreadSafe(buf)
	if len(hits) == 0 {
		return nil, nil
	}

	var starts []int
	for _, hit := range hits {
		lit := e.literals[hit]
		base := 0
		for {
			i := bytes.Index(buf[base:], lit)
			if i < 0 {
				break
			}
			starts = append(starts, base+i)
			base += i + 1
		}
	}
	return starts, nil
}

func (e *acEngine) close() error {
	return nil
}

package enum

import (
	"context"
	"sync"

	"github.com/praetorian-inc/magus/pkg/types"
)

// CombinedEnumerator chains several enumerators into one pass, suppressing
// targets whose content hash was already yielded. A scan invocation mixing
// plain files, directories, and archives sees each unique target once.
type CombinedEnumerator struct {
	sources []Enumerator

	mu   sync.Mutex
	seen map[types.TargetID]struct{}
}

// NewCombinedEnumerator wraps the given enumerators; they run in order.
func NewCombinedEnumerator(sources ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{
		sources: sources,
		seen:    make(map[types.TargetID]struct{}),
	}
}

// firstSighting records the content hash and reports whether it was new.
// Child enumerators may deliver concurrently, so the set is locked.
func (c *CombinedEnumerator) firstSighting(id types.TargetID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[id]; dup {
		return false
	}
	c.seen[id] = struct{}{}
	return true
}

// Enumerate runs each child enumerator in sequence, forwarding only targets
// whose content has not been seen by any earlier child.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback func(name string, content []byte) error) error {
	for _, src := range c.sources {
		err := src.Enumerate(ctx, func(name string, content []byte) error {
			if !c.firstSighting(types.ComputeTargetID(content)) {
				return nil
			}
			return callback(name, content)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

package scanner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/magus/pkg/catalog"
	"github.com/praetorian-inc/magus/pkg/prefilter"
	"github.com/praetorian-inc/magus/pkg/store"
	"github.com/praetorian-inc/magus/pkg/types"
)

var (
	// cachedBuiltinConds holds builtin conditions loaded once per process
	cachedBuiltinConds []types.Condition
	cachedBuiltinCount int
	cachedCondsErr     error
	cacheOnce          sync.Once
)

// loadBuiltinConditionsCached parses the builtin definitions once and
// caches the distinct conditions plus the signature count.
func loadBuiltinConditionsCached() ([]types.Condition, int, error) {
	cacheOnce.Do(func() {
		session := catalog.New()
		if err := session.LoadBuiltin(); err != nil {
			cachedCondsErr = err
			return
		}
		cachedBuiltinConds = session.Catalog().Conditions()
		cachedBuiltinCount = session.SignatureCount()
	})
	return cachedBuiltinConds, cachedBuiltinCount, cachedCondsErr
}

// Core wraps the compiled signature set and store for scanning operations
type Core struct {
	set    *prefilter.CompiledSet
	store  store.Store
	logger DebugLogger
	count  int
	chunk  int
}

// NewCore creates a new Core scanner.
// magicText can be:
// - "" or "builtin" to load builtin definitions (cached)
// - inline signature definition text
func NewCore(magicText string, logger DebugLogger) (*Core, error) {
	if logger == nil {
		logger = NoopLogger{}
	}

	logger.Log("NewCore starting...")

	var conds []types.Condition
	var count int
	if magicText == "" || magicText == "builtin" {
		logger.Log("Loading builtin definitions (cached)...")
		var err error
		conds, count, err = loadBuiltinConditionsCached()
		if err != nil {
			logger.Log("loadBuiltinConditionsCached failed: %v", err)
			return nil, err
		}
		logger.Log("Loaded %d builtin signatures", count)
	} else {
		logger.Log("Parsing inline definitions...")
		session := catalog.New()
		if err := session.LoadReader("inline", strings.NewReader(magicText)); err != nil {
			logger.Log("LoadReader failed: %v", err)
			return nil, err
		}
		conds = session.Catalog().Conditions()
		count = session.SignatureCount()
		logger.Log("Parsed %d inline signatures", count)
	}

	// Compile the candidate matcher
	logger.Log("Compiling %d conditions...", len(conds))
	set, err := prefilter.Compile(conds)
	if err != nil {
		logger.Log("prefilter.Compile failed: %v", err)
		return nil, err
	}
	logger.Log("Compiled with %s engine", set.Engine())

	// Create in-memory store
	logger.Log("Creating store...")
	s, err := store.New(store.Config{Path: ":memory:"})
	if err != nil {
		logger.Log("store.New failed: %v", err)
		set.Close()
		return nil, err
	}
	logger.Log("Store created successfully")

	logger.Log("NewCore complete")
	return &Core{
		set:    set,
		store:  s,
		logger: logger,
		count:  count,
		chunk:  DefaultChunkSize,
	}, nil
}

// Scan scans a single content buffer and records the result.
func (c *Core) Scan(content []byte, source string) (*ScanResult, error) {
	return c.ScanBounded(content, source, len(content))
}

// ScanBounded scans a content buffer, reporting only candidate offsets
// below bound.
func (c *Core) ScanBounded(content []byte, source string, bound int) (*ScanResult, error) {
	offsets, err := ScanChunked(c.set, content, bound, c.chunk)
	if err != nil {
		return nil, err
	}

	tgt := types.Target{
		ID:   types.ComputeTargetID(content),
		Path: source,
		Size: int64(len(content)),
	}
	c.store.AddTarget(tgt)
	c.store.AddCandidates(tgt.ID, offsets)

	return &ScanResult{
		Source:     source,
		Target:     tgt,
		Candidates: offsets,
	}, nil
}

// ScanFile reads a file and scans it, recording the target and its
// candidates in the store.
func (c *Core) ScanFile(ctx context.Context, path string) (*ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return c.Scan(content, path)
}

// ScanTree scans everything an enumerator yields, spreading the work over
// a fixed pool of worker goroutines. Items that fail to scan are logged and
// skipped so one bad target does not abort the tree.
func (c *Core) ScanTree(ctx context.Context, enumerator Enumerator, workers int) (*BatchScanResult, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	type item struct {
		name    string
		content []byte
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	itemsCh := make(chan item, workers*2)

	// Feed enumerated targets to the workers
	g.Go(func() error {
		defer close(itemsCh)
		return enumerator.Enumerate(ctx, func(name string, content []byte) error {
			select {
			case itemsCh <- item{name: name, content: content}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	var mu sync.Mutex
	var results []ScanResult
	total := 0

	// Parallel scan workers
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for it := range itemsCh {
				result, err := c.Scan(it.content, it.name)
				if err != nil {
					c.logger.Log("scan %s failed: %v", it.name, err)
					continue
				}

				mu.Lock()
				results = append(results, *result)
				total += len(result.Candidates)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return nil, origCtx.Err()
	}

	return &BatchScanResult{
		Results: results,
		Total:   total,
	}, nil
}

// ScanBatch scans multiple content items
func (c *Core) ScanBatch(items []ContentItem) (*BatchScanResult, error) {
	var results []ScanResult
	total := 0

	for _, item := range items {
		bound := item.Bound
		if bound <= 0 {
			bound = len(item.Content)
		}
		result, err := c.ScanBounded(item.Content, item.Source, bound)
		if err != nil {
			// Skip items that fail to scan
			continue
		}

		results = append(results, *result)
		total += len(result.Candidates)
	}

	return &BatchScanResult{
		Results: results,
		Total:   total,
	}, nil
}

// SignatureCount returns the number of signatures the Core was built with.
func (c *Core) SignatureCount() int {
	return c.count
}

// Engine names the compiled-in match engine.
func (c *Core) Engine() string {
	return c.set.Engine()
}

// Summary reports aggregate store counts.
func (c *Core) Summary() (*store.Summary, error) {
	return c.store.Summary()
}

// SetChunkSize overrides the scan window size. Zero restores the default.
func (c *Core) SetChunkSize(n int) {
	if n <= 0 {
		n = DefaultChunkSize
	}
	c.chunk = n
}

// Close releases scanner resources
func (c *Core) Close() {
	if c.set != nil {
		c.set.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// GetBuiltinSignatureCount returns the number of builtin signatures (cached).
func GetBuiltinSignatureCount() (int, error) {
	_, count, err := loadBuiltinConditionsCached()
	return count, err
}

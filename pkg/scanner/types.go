package scanner

import (
	"context"

	"github.com/praetorian-inc/magus/pkg/types"
)

// ContentItem is one buffer in a batch scan request.
type ContentItem struct {
	// Source names the content, e.g. "firmware.bin" or
	// "update.zip::rootfs.img" for archive members.
	Source string `json:"source"`

	// Content holds the bytes to scan (base64 on the wire).
	Content []byte `json:"content"`

	// Bound caps the scan window; zero scans the whole buffer.
	Bound int `json:"bound,omitempty"`
}

// ScanResult reports the candidate offsets found in one buffer.
type ScanResult struct {
	Source     string       `json:"source"`
	Target     types.Target `json:"target"`
	Candidates []int64      `json:"candidates"`
}

// BatchScanResult aggregates per-item results. Total counts candidates
// across all items.
type BatchScanResult struct {
	Results []ScanResult `json:"results"`
	Total   int          `json:"total"`
}

// Enumerator yields named content items for tree scans. Satisfied by the
// enumerators in pkg/enum.
type Enumerator interface {
	Enumerate(ctx context.Context, callback func(name string, content []byte) error) error
}

// DebugLogger narrates scan progress when set.
type DebugLogger interface {
	Log(format string, args ...interface{})
}

// NoopLogger discards all log output.
type NoopLogger struct{}

func (NoopLogger) Log(format string, args ...interface{}) {}

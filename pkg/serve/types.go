package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/magus/pkg/scanner"
)

// Message types on the wire. Requests use TypeScan..TypeClose; responses
// echo the request type, plus typeReady for the startup handshake.
const (
	TypeScan      = "scan"
	TypeScanBatch = "scan_batch"
	TypeInfo      = "info"
	TypeClose     = "close"

	typeReady = "ready"
)

// Request is one incoming NDJSON line.
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Response is one outgoing NDJSON line.
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ScanPayload carries the content of a scan request. Content arrives
// base64-encoded per encoding/json []byte convention.
type ScanPayload struct {
	Content []byte `json:"content"`
	Source  string `json:"source"`
	Bound   int    `json:"bound,omitempty"` // scan ceiling; 0 means the whole buffer
}

// ScanBatchPayload carries the items of a scan_batch request.
type ScanBatchPayload struct {
	Items []scanner.ContentItem `json:"items"`
}

// ReadyData is the data of the ready handshake.
type ReadyData struct {
	Version string `json:"version"`
}

// InfoData describes the running scanner.
type InfoData struct {
	Version    string `json:"version"`
	Signatures int    `json:"signatures"`
	Engine     string `json:"engine"`
}

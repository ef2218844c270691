package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/praetorian-inc/magus/pkg/scanner"
)

// Version is the server protocol version.
const Version = "1.0.0"

// Server drives a scanner core over an NDJSON request/response stream,
// typically stdin/stdout of an embedding host process.
type Server struct {
	engine *scanner.Core
	enc    *json.Encoder
	dec    *json.Decoder
}

// NewServer wires a core to the given streams.
func NewServer(core *scanner.Core, in io.Reader, out io.Writer) *Server {
	return &Server{
		engine: core,
		enc:    json.NewEncoder(out),
		dec:    json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run announces readiness and serves requests until the input closes, the
// context is canceled, or a close request arrives.
func (s *Server) Run(ctx context.Context) error {
	s.respond(typeReady, ReadyData{Version: Version})

	requests := make(chan Request, 1)
	readErr := make(chan error, 1)

	// The JSON decoder blocks on input, so it reads on its own goroutine
	// and hands decoded requests over a channel.
	go func() {
		for {
			var req Request
			if err := s.dec.Decode(&req); err != nil {
				readErr <- err
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-requests:
			if s.dispatch(req) {
				return nil
			}
		case err := <-readErr:
			// Serve anything decoded before the stream ended.
			for {
				select {
				case req := <-requests:
					if s.dispatch(req) {
						return nil
					}
				default:
					if errors.Is(err, io.EOF) {
						return nil
					}
					s.fail("decode", err.Error())
					return nil
				}
			}
		}
	}
}

// dispatch handles one request, reporting whether the server should exit.
func (s *Server) dispatch(req Request) bool {
	switch req.Type {
	case TypeScan:
		s.handleScan(req.Payload)
	case TypeScanBatch:
		s.handleScanBatch(req.Payload)
	case TypeInfo:
		s.respond(TypeInfo, InfoData{
			Version:    Version,
			Signatures: s.engine.SignatureCount(),
			Engine:     s.engine.Engine(),
		})
	case TypeClose:
		return true
	default:
		s.fail("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) handleScan(payload json.RawMessage) {
	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.fail(TypeScan, err.Error())
		return
	}

	bound := p.Bound
	if bound <= 0 {
		bound = len(p.Content)
	}
	result, err := s.engine.ScanBounded(p.Content, p.Source, bound)
	if err != nil {
		s.fail(TypeScan, err.Error())
		return
	}
	s.respond(TypeScan, result)
}

func (s *Server) handleScanBatch(payload json.RawMessage) {
	var p ScanBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.fail(TypeScanBatch, err.Error())
		return
	}

	result, err := s.engine.ScanBatch(p.Items)
	if err != nil {
		s.fail(TypeScanBatch, err.Error())
		return
	}
	s.respond(TypeScanBatch, result)
}

// respond emits a success response with the marshaled data payload.
func (s *Server) respond(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.fail(msgType, err.Error())
		return
	}
	s.enc.Encode(Response{Success: true, Type: msgType, Data: raw})
}

// fail emits an error response for the given message type.
func (s *Server) fail(msgType, msg string) {
	s.enc.Encode(Response{Success: false, Type: msgType, Error: msg})
}

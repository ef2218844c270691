// Package magus provides fast signature-based candidate scanning for
// binary content.
//
// Magus parses libmagic-style signature definition files, compiles the
// signature conditions into a multi-pattern matcher, and reports every
// offset in a buffer where a known signature may begin. It is the cheap
// first pass in front of an expensive verification engine: the scan
// narrows gigabytes of content down to a short list of offsets, and the
// verifier only looks at those.
//
// # Basic Usage
//
// Create a scanner with the builtin definitions and scan content:
//
//	scanner, err := magus.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scanner.Close()
//
//	offsets, err := scanner.ScanFile("firmware.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, off := range offsets {
//	    fmt.Printf("possible signature at offset %d\n", off)
//	}
//
// # With Custom Definitions
//
// Load definition files and narrow them with filter patterns:
//
//	scanner, err := magus.NewScanner(
//	    magus.WithMagicFiles("router.magic", "camera.magic"),
//	    magus.WithFilterPatterns([]string{"filesystem", "compressed"}, nil),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scanner.Close()
//
//	offsets, err := scanner.ScanBytes(content)
package magus

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/praetorian-inc/magus/pkg/catalog"
	"github.com/praetorian-inc/magus/pkg/filter"
	"github.com/praetorian-inc/magus/pkg/magic"
	"github.com/praetorian-inc/magus/pkg/prefilter"
	"github.com/praetorian-inc/magus/pkg/scanner"
	"github.com/praetorian-inc/magus/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/magus" without subpackages.
type (
	// Signature is one parsed signature definition entry.
	Signature = types.Signature

	// Condition is the match condition of a signature: a byte literal or
	// a wildcard.
	Condition = types.Condition

	// Endianness selects the byte order for numeric signature values.
	Endianness = types.Endianness

	// Target identifies one scanned content item.
	Target = types.Target

	// TargetID is the content hash identifying a target.
	TargetID = types.TargetID

	// ParseError describes a definition line that failed to parse.
	ParseError = magic.ParseError
)

// Re-export endianness constants.
const (
	LittleEndian = types.LittleEndian
	BigEndian    = types.BigEndian
)

// Scanner provides signature candidate detection.
type Scanner struct {
	session *catalog.Session
	set     *prefilter.CompiledSet
	config  *scannerConfig
	mu      sync.RWMutex
}

// rawSignature is a signature registered directly, without a definition
// file.
type rawSignature struct {
	offset      int64
	value       []byte
	description string
}

// scannerConfig holds scanner configuration.
type scannerConfig struct {
	magicFiles []string
	magicText  string
	useBuiltin bool
	raw        []rawSignature
	filter     filter.Filter
	include    []string
	exclude    []string
	chunkSize  int
	logf       func(format string, args ...interface{})
}

// Option configures a Scanner.
type Option func(*scannerConfig)

// WithMagicFiles loads signature definitions from the given files.
// Unreadable files are skipped with a warning; parse failures surface as
// *ParseError values naming the file and line.
func WithMagicFiles(paths ...string) Option {
	return func(c *scannerConfig) {
		c.magicFiles = append(c.magicFiles, paths...)
	}
}

// WithMagicText loads signature definitions from inline text.
func WithMagicText(text string) Option {
	return func(c *scannerConfig) {
		c.magicText = text
	}
}

// WithBuiltinDefinitions loads the embedded default definitions in
// addition to any other sources. This is the default when no source
// option is given.
func WithBuiltinDefinitions() Option {
	return func(c *scannerConfig) {
		c.useBuiltin = true
	}
}

// WithRawSignature registers a literal signature without a definition
// file. An empty description gets a default label.
func WithRawSignature(offset int64, value []byte, description string) Option {
	return func(c *scannerConfig) {
		c.raw = append(c.raw, rawSignature{offset: offset, value: value, description: description})
	}
}

// WithFilter installs a custom inclusion filter consulted once per
// signature description.
func WithFilter(f filter.Filter) Option {
	return func(c *scannerConfig) {
		c.filter = f
	}
}

// WithFilterPatterns builds an inclusion filter from regex patterns
// matched case-insensitively against signature descriptions. A signature
// is kept when it matches any include pattern (or the list is empty) and
// no exclude pattern.
func WithFilterPatterns(include, exclude []string) Option {
	return func(c *scannerConfig) {
		c.include = append(c.include, include...)
		c.exclude = append(c.exclude, exclude...)
	}
}

// WithChunkSize sets the scan window size for large buffers.
// Default is 1 MiB.
func WithChunkSize(n int) Option {
	return func(c *scannerConfig) {
		c.chunkSize = n
	}
}

// WithLogFunc sets the sink for load-time warnings. Silent by default.
func WithLogFunc(logf func(format string, args ...interface{})) Option {
	return func(c *scannerConfig) {
		c.logf = logf
	}
}

// NewScanner creates a new Scanner with the given options.
//
// By default, the scanner:
//   - Loads the embedded builtin signature definitions
//   - Includes every signature (no description filter)
//   - Scans in 1 MiB windows
//
// Example:
//
//	// Default scanner
//	scanner, err := magus.NewScanner()
//
//	// Custom definition files only
//	scanner, err := magus.NewScanner(magus.WithMagicFiles("my.magic"))
//
//	// Builtin definitions plus an ad-hoc signature
//	scanner, err := magus.NewScanner(
//	    magus.WithBuiltinDefinitions(),
//	    magus.WithRawSignature(0, []byte("MYFW"), "vendor firmware header"),
//	)
func NewScanner(opts ...Option) (*Scanner, error) {
	config := &scannerConfig{
		chunkSize: scanner.DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(config)
	}

	// Build the description filter
	f := config.filter
	if f == nil {
		if len(config.include) > 0 || len(config.exclude) > 0 {
			var err error
			f, err = filter.New(filter.Config{
				Include: config.include,
				Exclude: config.exclude,
			})
			if err != nil {
				return nil, fmt.Errorf("building filter: %w", err)
			}
		} else {
			f = filter.IncludeAll{}
		}
	}

	sessionOpts := []catalog.Option{catalog.WithFilter(f)}
	if config.logf != nil {
		sessionOpts = append(sessionOpts, catalog.WithLogFunc(config.logf))
	}
	session := catalog.New(sessionOpts...)

	// With no explicit source, fall back to the builtin definitions
	if !config.useBuiltin && config.magicText == "" && len(config.magicFiles) == 0 && len(config.raw) == 0 {
		config.useBuiltin = true
	}

	if config.useBuiltin {
		if err := session.LoadBuiltin(); err != nil {
			return nil, fmt.Errorf("loading builtin definitions: %w", err)
		}
	}
	if config.magicText != "" {
		if err := session.LoadReader("inline", strings.NewReader(config.magicText)); err != nil {
			return nil, err
		}
	}
	if len(config.magicFiles) > 0 {
		if err := session.Load(config.magicFiles...); err != nil {
			return nil, err
		}
	}
	for _, raw := range config.raw {
		if err := session.AddRaw(raw.offset, raw.value, raw.description); err != nil {
			return nil, fmt.Errorf("adding raw signature: %w", err)
		}
	}

	set, err := prefilter.Compile(session.Catalog().Conditions())
	if err != nil {
		return nil, fmt.Errorf("compiling signatures: %w", err)
	}

	return &Scanner{
		session: session,
		set:     set,
		config:  config,
	}, nil
}

// ScanBytes scans raw bytes and returns every candidate offset, ascending
// and duplicate-free. An empty result means no signature can start
// anywhere in the content.
func (s *Scanner) ScanBytes(content []byte) ([]int64, error) {
	return s.FindCandidates(content, len(content))
}

// ScanString scans a string. See ScanBytes.
func (s *Scanner) ScanString(content string) ([]int64, error) {
	return s.ScanBytes([]byte(content))
}

// FindCandidates scans content, reporting only candidate offsets below
// bound. Matching is offset-agnostic: every signature is tried at every
// position regardless of the offset its definition recorded.
func (s *Scanner) FindCandidates(content []byte, bound int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanner.ScanChunked(s.set, content, bound, s.config.chunkSize)
}

// ScanFile reads and scans a file.
//
// Example:
//
//	offsets, err := scanner.ScanFile("/path/to/firmware.bin")
func (s *Scanner) ScanFile(path string) ([]int64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return s.ScanBytes(content)
}

// AddRaw registers a literal signature on a live scanner and recompiles
// the matcher set.
func (s *Scanner) AddRaw(offset int64, value []byte, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.AddRaw(offset, value, description); err != nil {
		return err
	}

	set, err := prefilter.Compile(s.session.Catalog().Conditions())
	if err != nil {
		return fmt.Errorf("compiling signatures: %w", err)
	}

	if s.set != nil {
		s.set.Close()
	}
	s.set = set
	return nil
}

// Close releases scanner resources.
// Always call Close when done with the scanner.
func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set != nil {
		return s.set.Close()
	}
	return nil
}

// SignatureCount returns the number of loaded signature lines, counted
// before deduplication.
func (s *Scanner) SignatureCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.SignatureCount()
}

// PatternCount returns the number of distinct literal patterns compiled
// into the matcher.
func (s *Scanner) PatternCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.set.PatternCount()
}

// Offsets returns every definition offset with at least one condition,
// ascending.
func (s *Scanner) Offsets() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.Catalog().Offsets()
}

// Engine names the match engine compiled into this build.
func (s *Scanner) Engine() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.set.Engine()
}

// Stream returns the filtered definition text: every included signature
// line plus its continuation lines, byte for byte as read.
func (s *Scanner) Stream() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.Stream()
}

// WriteStream writes the filtered definition text to w.
func (s *Scanner) WriteStream(w io.Writer) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.WriteStream(w)
}

// ParseLine parses a single signature definition entry line.
//
// Example:
//
//	sig, err := magus.ParseLine("0\tstring\tPK\\x03\\x04\tZip archive data")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%s at offset %d\n", sig.Description, sig.Offset)
func ParseLine(line string) (Signature, error) {
	return magic.ParseLine(line)
}

// EncodeValue renders an integer as length bytes in the given byte
// order. This is how numeric signature values become comparable byte
// literals.
func EncodeValue(value uint64, length int, endian Endianness) []byte {
	return magic.EncodeValue(value, length, endian)
}

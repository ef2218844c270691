package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/praetorian-inc/magus/pkg/filter"
	"github.com/praetorian-inc/magus/pkg/magic"
	"github.com/praetorian-inc/magus/pkg/types"
)

// defaultRawDescription labels signatures registered through AddRaw
// without one.
const defaultRawDescription = "Raw string signature"

// Session owns one load of signature definitions. All state lives on the
// session; there is nothing package-global, so independent loads never
// interfere.
type Session struct {
	filter  filter.Filter
	logf    func(format string, args ...interface{})
	catalog *Catalog
	stream  bytes.Buffer
}

// Option configures a Session.
type Option func(*Session)

// WithFilter sets the inclusion filter consulted once per parsed entry.
// The default includes everything.
func WithFilter(f filter.Filter) Option {
	return func(s *Session) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithLogFunc sets the sink for load-time warnings (skipped files).
// Silent by default.
func WithLogFunc(logf func(format string, args ...interface{})) Option {
	return func(s *Session) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// New creates an empty load session.
func New(opts ...Option) *Session {
	s := &Session{
		filter:  filter.IncludeAll{},
		logf:    func(string, ...interface{}) {},
		catalog: newCatalog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// parsedLine is one staged input line. Entry lines carry their parsed
// signature; all other lines only carry raw text.
type parsedLine struct {
	raw   string
	entry bool
	sig   types.Signature
}

// LoadReader loads definition lines from r. The load is atomic: lines are
// parsed first, and nothing reaches the catalog or stream until the whole
// input parsed cleanly. A parse failure is returned as a *magic.ParseError
// carrying name and the 1-based line number.
func (s *Session) LoadReader(name string, r io.Reader) error {
	staged, err := parseLines(name, r)
	if err != nil {
		return err
	}
	s.commit(staged)
	return nil
}

// LoadFile opens one definition file and loads it. Open failures come back
// unwrapped enough for errors.Is(err, fs.ErrNotExist) checks.
func (s *Session) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open definitions: %w", err)
	}
	defer f.Close()

	return s.LoadReader(path, f)
}

// Load loads several definition files. Unreadable files are warned about
// and skipped; a parse failure aborts only that file's load, and the
// remaining files still get their chance. The joined parse errors, if any,
// come back at the end.
func (s *Session) Load(paths ...string) error {
	var errs []error
	for _, path := range paths {
		err := s.LoadFile(path)
		if err == nil {
			continue
		}

		var perr *magic.ParseError
		if errors.As(err, &perr) {
			errs = append(errs, err)
			continue
		}
		s.logf("warning: ignoring definition file %s: %v", path, err)
	}
	return errors.Join(errs...)
}

// LoadBuiltin loads the embedded default definition files.
func (s *Session) LoadBuiltin() error {
	return fs.WalkDir(builtinFS, "magic", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		f, err := builtinFS.Open(path)
		if err != nil {
			return fmt.Errorf("open builtin definitions %s: %w", path, err)
		}
		defer f.Close()

		return s.LoadReader(path, f)
	})
}

// AddRaw registers a literal signature without a definition file: the
// value is escaped into a synthetic `string` entry line and loaded through
// the normal path, so filtering and deduplication apply as usual.
func (s *Session) AddRaw(offset int64, value []byte, description string) error {
	if len(value) == 0 {
		return errors.New("raw signature value is empty")
	}
	if description == "" {
		description = defaultRawDescription
	}

	line := fmt.Sprintf("%d\tstring\t%s\t%s\n", offset, magic.Escape(value), description)
	return s.LoadReader("raw signature", strings.NewReader(line))
}

// Catalog exposes the accumulated condition sets.
func (s *Session) Catalog() *Catalog {
	return s.catalog
}

// SignatureCount returns the number of included signature lines so far.
func (s *Session) SignatureCount() int {
	return s.catalog.SignatureCount()
}

// Stream returns the filtered definition text: every included entry line
// plus its continuation lines, byte for byte as read. The slice is owned
// by the session and valid until the next load.
func (s *Session) Stream() []byte {
	return s.stream.Bytes()
}

// WriteStream writes the filtered definition text to w.
func (s *Session) WriteStream(w io.Writer) (int64, error) {
	return io.Copy(w, bytes.NewReader(s.stream.Bytes()))
}

// ===== HELPERS =====

// parseLines reads and parses all lines up front so a failure commits
// nothing. Line terminators stay attached to the raw text: the stream
// copies lines verbatim.
func parseLines(name string, r io.Reader) ([]parsedLine, error) {
	br := bufio.NewReader(r)
	var staged []parsedLine
	lineno := 0
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			lineno++
			pl := parsedLine{raw: raw}
			if magic.IsEntryLine(raw) {
				sig, perr := magic.ParseLine(raw)
				if perr != nil {
					var parseErr *magic.ParseError
					if errors.As(perr, &parseErr) {
						parseErr.File = name
						parseErr.Line = lineno
					}
					return nil, perr
				}
				pl.entry = true
				pl.sig = sig
			}
			staged = append(staged, pl)
		}

		if err == io.EOF {
			return staged, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
}

// commit replays staged lines through the filter. A digit-leading line
// flips the include flag for itself and the continuation lines after it;
// the flag starts false, so leading comments ahead of any included
// signature drop out of the stream.
func (s *Session) commit(staged []parsedLine) {
	include := false
	for _, pl := range staged {
		if pl.entry {
			include = s.filter.Decide(pl.sig.Description) == filter.Include
			if include {
				s.catalog.add(pl.sig)
				s.stream.WriteString(pl.raw)
			}
			continue
		}
		if include {
			s.stream.WriteString(pl.raw)
		}
	}
}

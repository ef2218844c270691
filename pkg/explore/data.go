package explore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/magus/pkg/enum"
	"github.com/praetorian-inc/magus/pkg/store"
	"github.com/praetorian-inc/magus/pkg/types"
)

// contextWindow is how many bytes around a candidate offset the details
// pane loads for its hex view.
const contextWindow = 256

// exploreData holds all loaded data for the TUI.
type exploreData struct {
	store   store.Store
	targets []*targetRow
}

// loadData opens a scan database and loads every target with its candidate
// offsets. The storePath can be a directory or a direct .db file path.
// This follows the same pattern as cmd/magus/report.go:runReport.
func loadData(storePath string) (*exploreData, error) {
	// Resolve path: if directory, append magus.db
	info, err := os.Stat(storePath)
	if err != nil {
		return nil, fmt.Errorf("database not found: %s", storePath)
	}
	if info.IsDir() {
		storePath = filepath.Join(storePath, "magus.db")
	}

	s, err := store.New(store.Config{Path: storePath})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	targets, err := s.Targets()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("retrieving targets: %w", err)
	}

	// Build view models
	rows := make([]*targetRow, 0, len(targets))
	for _, t := range targets {
		offsets, err := s.Candidates(t.ID)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("retrieving candidates: %w", err)
		}
		rows = append(rows, buildTargetRow(t, offsets))
	}

	return &exploreData{
		store:   s,
		targets: rows,
	}, nil
}

// buildTargetRow creates a targetRow from a stored target and its offsets.
// A "::" in the path marks an archive member scanned out of a container.
func buildTargetRow(t types.Target, offsets []int64) *targetRow {
	row := &targetRow{
		ID:         t.ID,
		Path:       t.Path,
		Size:       t.Size,
		Candidates: offsets,
	}

	name := t.Path
	if container, member, ok := strings.Cut(t.Path, "::"); ok {
		row.Kind = kindMember
		row.Container = container
		name = member
	} else {
		row.Kind = kindFile
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		ext = "-"
	}
	row.Ext = ext

	return row
}

// candidateContext reads a window of bytes around a candidate offset for
// the hex view. Plain files are read in place; archive members are pulled
// back out of their container. The window start is returned alongside the
// bytes so callers can label absolute offsets.
func (d *exploreData) candidateContext(t *targetRow, offset int64) ([]byte, int64, error) {
	start := offset - contextWindow/2
	if start < 0 {
		start = 0
	}

	if t.Kind == kindMember {
		return memberContext(t, start)
	}

	f, err := os.Open(t.Path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	buf := make([]byte, contextWindow)
	n, err := f.ReadAt(buf, start)
	if n == 0 && err != nil {
		return nil, 0, err
	}
	return buf[:n], start, nil
}

// memberContext extracts an archive member and slices the context window
// out of it.
func memberContext(t *targetRow, start int64) ([]byte, int64, error) {
	memberName := strings.TrimPrefix(t.Path, t.Container+"::")

	content, err := os.ReadFile(t.Container)
	if err != nil {
		return nil, 0, err
	}

	members, err := enum.EnumArchive(t.Container, content, 0)
	if err != nil {
		return nil, 0, err
	}

	for _, m := range members {
		if m.Name != memberName {
			continue
		}
		if start >= int64(len(m.Content)) {
			return nil, 0, fmt.Errorf("offset beyond member size")
		}
		end := start + contextWindow
		if end > int64(len(m.Content)) {
			end = int64(len(m.Content))
		}
		return m.Content[start:end], start, nil
	}

	return nil, 0, fmt.Errorf("member %s not found in %s", memberName, t.Container)
}

// close closes the underlying store.
func (d *exploreData) close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

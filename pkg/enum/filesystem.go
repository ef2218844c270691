package enum

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// ignoreFile names the per-tree exclusion file, gitignore syntax.
const ignoreFile = ".magusignore"

// FilesystemEnumerator enumerates files from a filesystem directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// Enumerate walks the tree under Root and yields file contents. The walk is
// sequential; reads and callbacks run on a bounded worker pool, so the
// callback must tolerate concurrent invocation.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback func(name string, content []byte) error) error {
	files, err := e.collectFiles(ctx)
	if err != nil {
		return err
	}
	return e.readAll(ctx, files, callback)
}

// loadIgnore compiles the exclusion file at the tree root, if present.
func (e *FilesystemEnumerator) loadIgnore() *gitignore.GitIgnore {
	path := filepath.Join(e.config.Root, ignoreFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	ignore, _ := gitignore.CompileIgnoreFile(path)
	return ignore
}

// collectFiles gathers the paths that pass the hidden, symlink, size, and
// ignore-pattern checks.
func (e *FilesystemEnumerator) collectFiles(ctx context.Context) ([]string, error) {
	ignore := e.loadIgnore()

	var files []string
	err := filepath.WalkDir(e.config.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		hidden := !e.config.IncludeHidden && isHidden(d.Name())
		if d.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}

		if e.config.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > e.config.MaxFileSize {
				return nil
			}
		}

		if ignore != nil {
			rel, err := filepath.Rel(e.config.Root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(rel) {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}

// readAll reads the collected files on a fixed pool of workers, invoking the
// callback for each file and its archive members.
func (e *FilesystemEnumerator) readAll(ctx context.Context, files []string, callback func(name string, content []byte) error) error {
	workers := max(runtime.NumCPU(), 1)

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	paths := make(chan string, workers*2)

	g.Go(func() error {
		defer close(paths)
		for _, path := range files {
			select {
			case paths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			for path := range paths {
				if err := e.readOne(ctx, path, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// The pool may drain completely before anyone observes a late
	// cancellation; the caller's context still decides the outcome.
	return origCtx.Err()
}

// readOne reads a single file and invokes the callback, first with the file
// itself and then with any enumerated archive members.
func (e *FilesystemEnumerator) readOne(ctx context.Context, path string, callback func(name string, content []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	// The container always gets scanned; signatures often sit in the
	// container itself, not only inside members.
	if err := callback(path, content); err != nil {
		return err
	}

	if e.config.wantsArchive(getExtension(path)) {
		members, err := EnumArchive(path, content, e.config.MaxFileSize)
		if err != nil {
			// Not a readable archive after all; the container scan stands.
			return nil
		}
		for _, m := range members {
			if err := callback(path+"::"+m.Name, m.Content); err != nil {
				return err
			}
		}
	}

	return nil
}

// wantsArchive reports whether members of an archive with the given
// extension should be enumerated.
func (c Config) wantsArchive(ext string) bool {
	switch c.EnumArchives {
	case "":
		return false
	case "all":
		return true
	}
	ext = strings.TrimPrefix(ext, ".")
	for _, want := range strings.Split(c.EnumArchives, ",") {
		if strings.EqualFold(strings.TrimSpace(want), ext) {
			return true
		}
	}
	return false
}

// isHidden reports whether a name is dot-prefixed. The special entries "."
// and ".." do not count.
func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// getExtension returns the lowercased file extension including the dot.
func getExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

package enum

import "context"

// Enumerator discovers content to scan from a source.
type Enumerator interface {
	// Enumerate yields scan targets from the source.
	// The callback receives a source name and the content bytes; it may be
	// invoked from multiple goroutines concurrently.
	Enumerate(ctx context.Context, callback func(name string, content []byte) error) error
}

// Config controls filesystem walking.
type Config struct {
	// Root is the directory or file where the walk starts.
	Root string

	// IncludeHidden walks into dot-files and dot-directories.
	IncludeHidden bool

	// MaxFileSize skips files larger than this many bytes. Zero means
	// no limit.
	MaxFileSize int64

	// FollowSymlinks walks through symbolic links.
	FollowSymlinks bool

	// EnumArchives names the archive extensions whose members become
	// separate targets (comma-separated: "zip,7z", or "all").
	EnumArchives string
}

// Package filter decides which signatures join a catalog, based on their
// description text.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Decision is the verdict on one signature description.
type Decision int

const (
	Include Decision = iota
	Exclude
)

// Filter decides whether a signature, identified by its description,
// belongs in the catalog.
type Filter interface {
	Decide(description string) Decision
}

// IncludeAll is the zero policy: every signature joins.
type IncludeAll struct{}

// Decide implements Filter.
func (IncludeAll) Decide(string) Decision { return Include }

// Config holds description patterns controlling signature inclusion.
// Patterns are case-insensitive regular expressions.
type Config struct {
	// Include patterns. When non-empty, only descriptions matching at
	// least one of them survive.
	Include []string `yaml:"include"`

	// Exclude patterns. Any match excludes the signature, after the
	// include pass.
	Exclude []string `yaml:"exclude"`
}

// patternTimeout bounds evaluation of user-supplied patterns.
const patternTimeout = 5 * time.Second

// Engine applies include/exclude description patterns.
type Engine struct {
	include []*regexp2.Regexp
	exclude []*regexp2.Regexp
}

// New compiles the configured patterns into a filter engine.
func New(cfg Config) (*Engine, error) {
	include, err := compilePatterns(cfg.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	return &Engine{include: include, exclude: exclude}, nil
}

// Decide applies include patterns first, then exclude patterns. With no
// patterns configured everything is included.
func (e *Engine) Decide(description string) Decision {
	if len(e.include) > 0 && !matchesAny(e.include, description) {
		return Exclude
	}
	if matchesAny(e.exclude, description) {
		return Exclude
	}
	return Include
}

// ParsePatterns splits a comma-separated flag value into patterns,
// trimming whitespace and dropping empties.
func ParsePatterns(s string) []string {
	if s == "" {
		return nil
	}

	var patterns []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// ===== HELPERS =====

// compilePatterns compiles in RE2 mode first for linear-time matching,
// falling back to full syntax for patterns RE2 cannot express. Every
// pattern carries a match timeout so a pathological one cannot hang a
// load.
func compilePatterns(patterns []string) ([]*regexp2.Regexp, error) {
	var compiled []*regexp2.Regexp
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.RE2|regexp2.IgnoreCase)
		if err != nil {
			re, err = regexp2.Compile(p, regexp2.IgnoreCase)
			if err != nil {
				return nil, fmt.Errorf("compile filter pattern %q: %w", p, err)
			}
		}
		re.MatchTimeout = patternTimeout
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchesAny(patterns []*regexp2.Regexp, s string) bool {
	for _, re := range patterns {
		if ok, err := re.MatchString(s); err == nil && ok {
			return true
		}
	}
	return false
}

package types

import (
	"encoding/binary"
	"fmt"
)

// Endianness selects the byte order used to render numeric signature
// conditions into literal bytes.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// String implements Stringer.
func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ByteOrder returns the equivalent encoding/binary order.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ConditionKind discriminates condition variants.
type ConditionKind int

const (
	// KindLiteral matches the condition's exact bytes.
	KindLiteral ConditionKind = iota

	// KindWildcard matches at any position of any content.
	KindWildcard
)

// Condition is the match requirement of one signature entry.
//
// Wildcards are a distinct variant rather than a sentinel byte string, so a
// literal condition whose bytes happen to spell "x" never collides with the
// wildcard in catalog sets.
type Condition struct {
	Kind  ConditionKind
	Value []byte // literal bytes; nil for wildcards
}

// Literal builds an exact-bytes condition.
func Literal(value []byte) Condition {
	return Condition{Kind: KindLiteral, Value: value}
}

// Wildcard builds a match-anything condition.
func Wildcard() Condition {
	return Condition{Kind: KindWildcard}
}

// IsWildcard reports whether the condition matches anything.
func (c Condition) IsWildcard() bool {
	return c.Kind == KindWildcard
}

// Len returns the number of literal bytes (1 for wildcards, which stand in
// for a single arbitrary byte).
func (c Condition) Len() int {
	if c.Kind == KindWildcard {
		return 1
	}
	return len(c.Value)
}

// Key returns a stable deduplication key. Literal keys occupy a prefix
// space wildcards can never produce.
func (c Condition) Key() string {
	if c.Kind == KindWildcard {
		return "w"
	}
	return "l" + string(c.Value)
}

// String implements Stringer for table output.
func (c Condition) String() string {
	if c.Kind == KindWildcard {
		return "*"
	}
	return fmt.Sprintf("%q", c.Value)
}

// Signature is one parsed signature entry line from a definition file.
type Signature struct {
	// Offset is where the downstream verification engine anchors the
	// comparison. Candidate scanning deliberately ignores it: a condition
	// listed at offset 8 still reports candidates anywhere in the buffer,
	// and the verifier re-checks alignment.
	Offset int64 `json:"offset"`

	// Type is the raw type keyword ("string", "beshort", "lelong", ...).
	Type string `json:"type"`

	// Condition is the match requirement derived from the condition field.
	Condition Condition `json:"-"`

	// Description is the human-readable signature text the inclusion
	// filter decides on. May be empty.
	Description string `json:"description"`

	// Length is the number of condition bytes.
	Length int `json:"length"`

	// Endianness of numeric conditions; LittleEndian for textual types.
	Endianness Endianness `json:"-"`
}

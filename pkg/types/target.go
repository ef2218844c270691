package types

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// TargetID is a SHA-256 content hash (32 bytes) identifying scanned bytes
// independent of where they were found.
type TargetID [32]byte

// ComputeTargetID hashes target content into its identity.
func ComputeTargetID(content []byte) TargetID {
	return TargetID(sha256.Sum256(content))
}

// Hex returns the 64-character hex string.
func (id TargetID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements Stringer (returns Hex()).
func (id TargetID) String() string {
	return id.Hex()
}

// ParseTargetID parses a 64-char hex string to a TargetID.
func ParseTargetID(hexStr string) (TargetID, error) {
	if len(hexStr) != 64 {
		return TargetID{}, fmt.Errorf("invalid target ID length: expected 64, got %d", len(hexStr))
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return TargetID{}, fmt.Errorf("invalid hex string: %w", err)
	}

	var id TargetID
	copy(id[:], decoded)
	return id, nil
}

// MarshalJSON implements json.Marshaler.
func (id TargetID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *TargetID) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}

	parsed, err := ParseTargetID(hexStr)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// Value implements driver.Valuer for SQL serialization.
func (id TargetID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner for SQL deserialization.
func (id *TargetID) Scan(value interface{}) error {
	if value == nil {
		return fmt.Errorf("cannot scan nil into TargetID")
	}

	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into TargetID", value)
	}

	parsed, err := ParseTargetID(hexStr)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// Target is one unit of scanned content.
type Target struct {
	ID   TargetID `json:"id"`
	Path string   `json:"path"`
	Size int64    `json:"size"`
}

// Candidate marks an offset in a target where a signature may begin. Only
// the downstream verification engine can say whether it actually does.
type Candidate struct {
	Target TargetID `json:"target"`
	Offset int64    `json:"offset"`
}

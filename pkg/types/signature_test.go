package types

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionKey(t *testing.T) {
	tests := []struct {
		name string
		a    Condition
		b    Condition
		same bool
	}{
		{
			name: "identical literals collide",
			a:    Literal([]byte("PK\x03\x04")),
			b:    Literal([]byte("PK\x03\x04")),
			same: true,
		},
		{
			name: "different literals distinct",
			a:    Literal([]byte("PK")),
			b:    Literal([]byte("7z")),
			same: false,
		},
		{
			name: "wildcard distinct from literal x",
			a:    Wildcard(),
			b:    Literal([]byte("x")),
			same: false,
		},
		{
			name: "wildcards collide",
			a:    Wildcard(),
			b:    Wildcard(),
			same: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, tt.a.Key() == tt.b.Key())
		})
	}
}

func TestConditionLen(t *testing.T) {
	assert.Equal(t, 1, Wildcard().Len())
	assert.Equal(t, 4, Literal([]byte("hsqs")).Len())
	assert.Equal(t, 0, Literal(nil).Len())
}

func TestEndianness(t *testing.T) {
	assert.Equal(t, "little", LittleEndian.String())
	assert.Equal(t, "big", BigEndian.String())
	assert.Equal(t, binary.ByteOrder(binary.LittleEndian), LittleEndian.ByteOrder())
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), BigEndian.ByteOrder())
}

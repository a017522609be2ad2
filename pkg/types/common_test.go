package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		input Hash
		want  bool
	}{
		{
			name:  "Valid Hash (64 chars)",
			input: Hash(strings.Repeat("a", 64)),
			want:  true,
		},
		{
			name:  "Too Short",
			input: Hash("abc"),
			want:  false,
		},
		{
			name:  "Empty",
			input: Hash(""),
			want:  false,
		},
		{
			name:  "Too Long",
			input: Hash(strings.Repeat("a", 65)),
			want:  false,
		},
		{
			name:  "Uppercase",
			input: Hash(strings.Repeat("A", 64)),
			want:  false,
		},
		{
			name:  "Not hex",
			input: Hash(strings.Repeat("z", 64)),
			want:  false,
		},
		{
			name:  "Root sentinel",
			input: NoParent,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.IsValid())
		})
	}
}

func TestHash_String(t *testing.T) {
	s := "aabbcc"
	h := Hash(s)
	assert.Equal(t, s, h.String())
	assert.False(t, h.IsZero())

	var zero Hash
	assert.True(t, zero.IsZero())
}

func TestHash_ShortAndRoot(t *testing.T) {
	h := Hash(strings.Repeat("ab", 32))
	assert.Equal(t, "abababab", h.Short())
	assert.Equal(t, "0", NoParent.Short())

	assert.True(t, NoParent.IsRoot())
	assert.False(t, h.IsRoot())
}

func TestHashPrefix(t *testing.T) {
	p := HashPrefix("  AbCd ").Normalize()
	assert.Equal(t, "abcd", p.String())
	assert.True(t, p.Matches(Hash("abcdef")))
	assert.False(t, p.Matches(Hash("abce00")))
}

package codegen

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_DefaultShape(t *testing.T) {
	g := New()
	seen := make(map[string]struct{})

	for i := 0; i < 1000; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, DefaultLength)
		for _, r := range code {
			require.True(t, strings.ContainsRune(Alphabet, r), "unexpected symbol %q in %s", r, code)
		}
		assert.True(t, g.Valid(code))
		seen[code] = struct{}{}
	}
	// 31^8 possibilities; a repeat in 1000 draws means the source is broken.
	assert.Len(t, seen, 1000)
}

func TestAlphabet_HasNoLookAlikes(t *testing.T) {
	for _, r := range "IL O01" {
		assert.False(t, strings.ContainsRune(Alphabet, r), "alphabet contains %q", r)
	}
}

func TestGenerate_Numeric(t *testing.T) {
	code, err := NewNumeric().Generate()
	require.NoError(t, err)
	require.Len(t, code, 8)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestGenerate_DeterministicSource(t *testing.T) {
	g, err := NewWith("AB", 4, bytes.NewReader([]byte{0, 1, 0, 1, 0, 1, 0, 1}))
	require.NoError(t, err)

	code, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, "ABAB", code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestGenerate_SourceError(t *testing.T) {
	g, err := NewWith(Alphabet, 8, failingReader{})
	require.NoError(t, err)

	_, err = g.Generate()
	assert.Error(t, err)
}

func TestNewWith_Validation(t *testing.T) {
	_, err := NewWith("A", 8, nil)
	assert.Error(t, err)
	_, err = NewWith(Alphabet, 0, nil)
	assert.Error(t, err)
	g, err := NewWith(Alphabet, 6, nil)
	require.NoError(t, err)
	assert.NotNil(t, g.random)
}

func TestValid(t *testing.T) {
	g := New()
	assert.True(t, g.Valid("ABCD2345"))
	assert.False(t, g.Valid("ABCD234"), "short")
	assert.False(t, g.Valid("ABCD23450"), "long")
	assert.False(t, g.Valid("ABCD234O"), "look-alike")
	assert.False(t, g.Valid("abcd2345"), "lower case")
}

func TestForFormat(t *testing.T) {
	g, err := ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, Alphabet, g.alphabet)

	g, err = ForFormat(FormatNumeric)
	require.NoError(t, err)
	code, err := g.Generate()
	require.NoError(t, err)
	assert.True(t, g.Valid(code))
	assert.False(t, New().Valid("12345670"), "0 is not in the default alphabet")

	_, err = ForFormat("hex")
	assert.Error(t, err)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("ABCD2345"))
	assert.True(t, Known("01234567"))
	assert.False(t, Known("ABCD234"))
	assert.False(t, Known("ABCD-234"))
	assert.False(t, Known("' OR 1=1"))
}

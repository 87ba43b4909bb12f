// Package codegen produces access codes: short, human-typeable, unguessable
// strings drawn from an alphabet without look-alike characters.
package codegen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const (
	// Alphabet omits I, L, O, 0 and 1.
	Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	Digits   = "0123456789"

	DefaultLength = 8
	// MaxAttempts bounds how often a caller regenerates after a collision.
	MaxAttempts = 5
)

// Code format names accepted by ForFormat.
const (
	FormatAlphanumeric = "alphanumeric"
	FormatNumeric      = "numeric"
)

// builtin holds one generator per format for Known.
var builtin = []*Generator{New(), NewNumeric()}

// Generator draws codes of a fixed length from an alphabet.
type Generator struct {
	alphabet string
	length   int
	random   io.Reader
}

// New returns the default generator: 8 characters from Alphabet.
func New() *Generator {
	return &Generator{alphabet: Alphabet, length: DefaultLength, random: rand.Reader}
}

// NewNumeric returns a generator of 8-digit codes for channels that prefer
// digits.
func NewNumeric() *Generator {
	return &Generator{alphabet: Digits, length: DefaultLength, random: rand.Reader}
}

// NewWith builds a generator over a custom alphabet, length and entropy
// source. A nil source means crypto/rand.
func NewWith(alphabet string, length int, random io.Reader) (*Generator, error) {
	if len(alphabet) < 2 {
		return nil, errors.New("alphabet must have at least two symbols")
	}
	if length <= 0 {
		return nil, errors.New("length must be positive")
	}
	if random == nil {
		random = rand.Reader
	}
	return &Generator{alphabet: alphabet, length: length, random: random}, nil
}

// ForFormat returns a crypto-random generator for a named format. An empty
// name selects the alphanumeric default.
func ForFormat(format string) (*Generator, error) {
	switch format {
	case "", FormatAlphanumeric:
		return NewWith(Alphabet, DefaultLength, nil)
	case FormatNumeric:
		return NewWith(Digits, DefaultLength, nil)
	default:
		return nil, fmt.Errorf("unknown code format %q", format)
	}
}

// Generate returns a fresh code. Each symbol is drawn uniformly.
func (g *Generator) Generate() (string, error) {
	max := big.NewInt(int64(len(g.alphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", err
		}
		buf[i] = g.alphabet[n.Int64()]
	}
	return string(buf), nil
}

// Valid reports whether code has the generator's length and alphabet. It
// is used to reject malformed input before touching the store.
func (g *Generator) Valid(code string) bool {
	if len(code) != g.length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !containsByte(g.alphabet, code[i]) {
			return false
		}
	}
	return true
}

// Known reports whether code matches any built-in format. Codes issued
// before a format change keep passing.
func Known(code string) bool {
	for _, g := range builtin {
		if g.Valid(code) {
			return true
		}
	}
	return false
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

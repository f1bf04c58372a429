// Package tokenize provides token counting for the chunker. It prefers a
// real BPE encoding and degrades to a characters-per-token estimate when
// the encoding cannot be initialised (e.g. no cached vocabulary files).
package tokenize

import (
	"github.com/pkoukk/tiktoken-go"
)

// CharsPerToken is the approximation ratio used when no encoding is
// available: English prose averages about four characters per token.
const CharsPerToken = 4

// Counter measures text length in tokens.
type Counter interface {
	Count(text string) int
	Name() string
}

// Encoding counts tokens with a tiktoken BPE encoding.
type Encoding struct {
	name string
	enc  *tiktoken.Tiktoken
}

// NewEncoding initialises a tiktoken encoding such as "cl100k_base".
func NewEncoding(name string) (*Encoding, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	return &Encoding{name: name, enc: enc}, nil
}

func (e *Encoding) Count(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

func (e *Encoding) Name() string { return e.name }

// Heuristic approximates token counts as len(text)/CharsPerToken, never
// reporting less than one token for non-empty text.
type Heuristic struct{}

func (Heuristic) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / CharsPerToken
	if n < 1 {
		return 1
	}
	return n
}

func (Heuristic) Name() string { return "heuristic" }

// ForEncoding returns a Counter for name, falling back to the heuristic
// when the encoding cannot be loaded.
func ForEncoding(name string) Counter {
	if name != "" {
		if enc, err := NewEncoding(name); err == nil {
			return enc
		}
	}
	return Heuristic{}
}

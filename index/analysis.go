package index

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer is the pluggable tokenization policy of the block parser. An
// implementation must be deterministic and total: it returns some token
// sequence, possibly empty, for any input byte stream.
type Tokenizer interface {
	Reset(input []byte)

	// NextToken returns the next token. The returned slice is only valid
	// until the next call.
	NextToken() ([]byte, bool)
}

// StandardTokenizer lower-cases its NFKC-normalized input, splits letter
// and digit runs on space, punctuation and symbols, and emits each Han
// rune as its own token so that CJK text is indexable without a word
// segmenter.
type StandardTokenizer struct {
	input           []byte
	inputIndex      int
	tokenBuffer     []rune
	tokenTextBuffer []byte
}

func NewStandardTokenizer() *StandardTokenizer {
	return &StandardTokenizer{
		tokenBuffer:     make([]rune, 0, 100),
		tokenTextBuffer: make([]byte, 100),
	}
}

func (t *StandardTokenizer) Reset(input []byte) {
	t.input = norm.NFKC.Bytes(input)
	t.inputIndex = 0
}

func runesToBytes(rs []rune, out []byte) ([]byte, []byte) {
	size := 0
	for _, r := range rs {
		size += utf8.RuneLen(r)
	}

	if cap(out) < size {
		out = make([]byte, size)
	}

	count := 0
	for _, r := range rs {
		count += utf8.EncodeRune(out[count:], r)
	}

	return out, out[:size]
}

func (t *StandardTokenizer) emit() []byte {
	var token []byte
	t.tokenTextBuffer, token = runesToBytes(t.tokenBuffer, t.tokenTextBuffer)
	t.tokenBuffer = t.tokenBuffer[:0]
	return token
}

func (t *StandardTokenizer) NextToken() ([]byte, bool) {
	t.tokenBuffer = t.tokenBuffer[:0]

	for t.inputIndex < len(t.input) {
		r, size := utf8.DecodeRune(t.input[t.inputIndex:])

		normalizedRune := unicode.ToLower(r)

		switch {
		case unicode.Is(unicode.Han, normalizedRune):
			// A Han rune is a token on its own. Flush any pending run
			// first, without consuming the rune.
			if len(t.tokenBuffer) > 0 {
				return t.emit(), true
			}

			t.inputIndex += size
			t.tokenBuffer = append(t.tokenBuffer, normalizedRune)
			return t.emit(), true

		case unicode.IsLetter(normalizedRune) || unicode.IsDigit(normalizedRune):
			t.tokenBuffer = append(t.tokenBuffer, normalizedRune)

		default:
			if len(t.tokenBuffer) > 0 {
				t.inputIndex += size
				return t.emit(), true
			}
		}

		t.inputIndex += size
	}

	if len(t.tokenBuffer) > 0 {
		return t.emit(), true
	}

	return nil, false
}

// Package chunk splits raw document text into fixed-size overlapping slices
// while preserving each slice's position in the original text.
package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams is returned when the chunk length and overlap would cause
// non-advancing chunking.
var ErrInvalidParams = errors.New("chunk length must be greater than overlap")

// Chunk is one slice of a document's text. Text is whitespace-normalized;
// BeginOffset is the rune index of the slice's start in the original,
// unnormalized text.
type Chunk struct {
	Text        string
	BeginOffset int
}

// Split cuts text into consecutive slices of length runes, advancing the
// start position by length-overlap each step so that neighboring chunks share
// the trailing overlap runes. The final chunk may be shorter when it reaches
// the end of the text. Each chunk's text has runs of whitespace collapsed to
// a single space and ends trimmed; the begin offset always refers to the
// original text.
//
// Split is a pure function: empty text yields no chunks, and invalid
// parameters (length <= overlap, or negative overlap) are rejected before
// anything else happens.
func Split(text string, length, overlap int) ([]Chunk, error) {
	if length <= 0 || overlap < 0 || length <= overlap {
		return nil, fmt.Errorf("invalid chunk parameters (length=%d, overlap=%d): %w", length, overlap, ErrInvalidParams)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	stride := length - overlap
	chunks := make([]Chunk, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + length
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Text:        normalizeWhitespace(string(runes[start:end])),
			BeginOffset: start,
		})
	}

	return chunks, nil
}

// normalizeWhitespace collapses any run of whitespace to a single space and
// trims both ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package chunk splits document text into overlapping word windows for
// feeding into Vespa.
package chunk

import (
	"errors"
	"strings"
)

var (
	ErrInvalidSize     = errors.New("chunk_size must be greater than 0")
	ErrNegativeOverlap = errors.New("overlap must be non-negative")
	ErrOverlapTooLarge = errors.New("overlap must be less than chunk_size")
)

// Split breaks text into windows of size words, consecutive windows
// sharing overlap words. Text with at most size words is returned as is.
func Split(text string, size, overlap int) ([]string, error) {
	switch {
	case size <= 0:
		return nil, ErrInvalidSize
	case overlap < 0:
		return nil, ErrNegativeOverlap
	case overlap >= size:
		return nil, ErrOverlapTooLarge
	}

	words := strings.Fields(text)
	if len(words) <= size {
		return []string{text}, nil
	}

	var chunks []string
	for start := 0; start < len(words); start += size - overlap {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks, nil
}

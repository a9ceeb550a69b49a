// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits cleaned text into bounded, sentence-aligned
// segments for synthesis.
package chunk

import (
	"strings"
	"unicode"

	"github.com/kc9wwh/textwave/pkg/types"
)

// DefaultTargetSize is the chunk length target used when none is given.
const DefaultTargetSize = 1000

// Split divides text into ~target-character chunks on sentence
// boundaries. A sentence ends at '.', '!', or '?' followed by
// whitespace. Sentences accumulate greedily: when appending the next
// sentence would push the current chunk past target, the chunk is
// flushed and the sentence starts a new one. A chunk may exceed target
// by at most one trailing sentence.
//
// Split is pure: identical text and target always produce identical
// chunk boundaries, which resume correctness depends on.
func Split(text string, target int) []types.Chunk {
	if target <= 0 {
		target = DefaultTargetSize
	}

	var chunks []types.Chunk
	var current strings.Builder

	flush := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			chunks = append(chunks, types.Chunk{Index: len(chunks), Text: trimmed})
		}
		current.Reset()
	}

	for _, sentence := range sentences(text) {
		if current.Len()+len(sentence) > target && current.Len() > 0 {
			flush()
			current.WriteString(sentence)
			continue
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

// sentences splits text after each '.', '!', or '?' that is followed by
// whitespace. The terminator stays with its sentence; the whitespace
// between sentences is dropped.
func sentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}

		out = append(out, string(runes[start:i+1]))

		// Skip the whitespace run to the start of the next sentence.
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}

	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

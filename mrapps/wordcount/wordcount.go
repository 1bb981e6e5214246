// Package wordcount is a sample map/reduce plugin that counts word
// occurrences across a set of input files.
//
// Grounded on original_source/src/mrapps/wc.rs: words are runs of
// alphabetic characters, so punctuation and digits act as delimiters the
// same way whitespace does, rather than the naive strings.Fields split on
// whitespace alone the teacher's mrapps use.
package wordcount

import (
	"strconv"
	"unicode"

	"github.com/alicklee/mrengine/internal/worker"
)

// Map splits contents into words and emits one ("word", "1") record per
// occurrence.
func Map(filename, contents string) []worker.KeyValue {
	words := splitToWords(contents)
	kvs := make([]worker.KeyValue, 0, len(words))
	for _, w := range words {
		kvs = append(kvs, worker.KeyValue{Key: w, Value: "1"})
	}
	return kvs
}

// Reduce counts how many values were collected for key, i.e. how many
// times the word occurred.
func Reduce(key string, values []string) string {
	return strconv.Itoa(len(values))
}

// splitToWords treats any non-alphabetic rune as a delimiter, matching
// original_source's split_to_words rather than splitting on whitespace
// alone.
func splitToWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return words
}

// Plugin bundles Map and Reduce for direct use by cmd/mrworker.
var Plugin = worker.Plugin{Map: Map, Reduce: Reduce}

package wordcount

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitToWordsTreatsPunctuationAsDelimiter(t *testing.T) {
	input := "almost no restrictions whatsoever.  You may copy it, give it away or"
	want := []string{"almost", "no", "restrictions", "whatsoever", "You", "may", "copy", "it", "give", "it", "away", "or"}
	require.Equal(t, want, splitToWords(input))
}

func TestMapEmitsOnePerOccurrence(t *testing.T) {
	kvs := Map("doc.txt", "the cat the dog")
	require.Len(t, kvs, 4)
	for _, kv := range kvs {
		require.Equal(t, "1", kv.Value)
	}
}

func TestReduceCountsOccurrences(t *testing.T) {
	require.Equal(t, "3", Reduce("the", []string{"1", "1", "1"}))
	require.Equal(t, "0", Reduce("absent", nil))
}

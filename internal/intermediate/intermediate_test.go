package intermediate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionDeterministic(t *testing.T) {
	for _, key := range []string{"a", "hello", "mapreduce", ""} {
		first := Partition(key, 7)
		second := Partition(key, 7)
		require.Equal(t, first, second, "partition of %q must be stable across calls", key)
		require.GreaterOrEqual(t, first, 0)
		require.Less(t, first, 7)
	}
}

func TestAppendAndReadShardRoundTrip(t *testing.T) {
	dir := t.TempDir()

	batch1 := []KeyValue{{Key: "alpha", Value: "1"}, {Key: "beta", Value: "1"}}
	batch2 := []KeyValue{{Key: "alpha", Value: "1"}, {Key: "gamma", Value: "1"}}

	require.NoError(t, AppendPartitioned(dir, 1, batch1))
	require.NoError(t, AppendPartitioned(dir, 1, batch2))

	shard, err := ReadShard(dir, 0)
	require.NoError(t, err)
	require.Len(t, shard, 4)

	for i := 1; i < len(shard); i++ {
		require.LessOrEqual(t, shard[i-1].Key, shard[i].Key, "ReadShard must return keys sorted")
	}

	keys, groups := Group(shard)
	idx := indexOf(keys, "alpha")
	require.GreaterOrEqual(t, idx, 0)
	require.Len(t, groups[idx], 2)
}

func TestReadShardMissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	shard, err := ReadShard(dir, 3)
	require.NoError(t, err)
	require.Nil(t, shard)
}

func TestWriteReduceOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteReduceOutput(dir, 2, []string{"a", "b"}, []string{"1", "2"}))

	data, err := os.ReadFile(filepath.Join(dir, "mr-out-2"))
	require.NoError(t, err)
	require.Equal(t, "a 1\nb 2\n", string(data))
}

func indexOf(keys []string, target string) int {
	for i, k := range keys {
		if k == target {
			return i
		}
	}
	return -1
}

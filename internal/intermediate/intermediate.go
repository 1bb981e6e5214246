// Package intermediate implements the hash partitioner and the
// append-safe sharded record store used to move map output to reducers.
//
// Grounded on original_source/src/mr/worker.rs for the flock-protected
// shared append file and on the teacher's common_map.go/common_reduce.go
// for the JSON-per-line record encoding, generalized from teacher's
// one-file-per-(map task, reducer) layout to the spec's shared
// mr-inp-<r> file contended for by all map workers.
package intermediate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
)

// KeyValue is one intermediate record: a key emitted by the user map
// function together with its textual value.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Partition returns the reducer index in [0, numReducers) that key is
// routed to: (FNV-1a64(key) & 0x7fffffff) mod numReducers, exactly as
// spec.md §4.3 requires so that test fixtures and independent
// implementations agree on bucket assignment.
func Partition(key string, numReducers int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int((h.Sum64() & 0x7fffffff) % uint64(numReducers))
}

// InputPath returns the path of the shared intermediate file for reducer r.
func InputPath(dir string, r int) string {
	return filepath.Join(dir, fmt.Sprintf("mr-inp-%d", r))
}

// OutputPath returns the path of the final output file for reducer r.
func OutputPath(dir string, r int) string {
	return filepath.Join(dir, fmt.Sprintf("mr-out-%d", r))
}

// AppendPartitioned partitions records by Partition(key, numReducers) and,
// for each non-empty partition, opens (create+append) mr-inp-<r> under an
// advisory exclusive file lock covering the whole file, appends the
// partition's records one JSON object per line, then releases the lock and
// closes the file.
//
// The lock is acquired and released once per partition, not once per
// record, so that a single map job's writes to a given partition are
// contiguous even when other workers are appending to the same file
// concurrently.
func AppendPartitioned(dir string, numReducers int, records []KeyValue) error {
	byReducer := make([][]KeyValue, numReducers)
	for _, kv := range records {
		r := Partition(kv.Key, numReducers)
		byReducer[r] = append(byReducer[r], kv)
	}

	for r, kvs := range byReducer {
		if len(kvs) == 0 {
			continue
		}
		if err := appendLocked(InputPath(dir, r), kvs); err != nil {
			return fmt.Errorf("intermediate: append partition %d: %w", r, err)
		}
	}
	return nil
}

func appendLocked(path string, kvs []KeyValue) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return fmt.Errorf("flock %s: %w", path, err)
	}
	defer unix.Flock(fd, unix.LOCK_UN)

	enc := json.NewEncoder(f)
	for _, kv := range kvs {
		if err := enc.Encode(&kv); err != nil {
			return fmt.Errorf("encode record for %s: %w", path, err)
		}
	}
	return nil
}

// ReadShard opens mr-inp-<r> read-only, decodes one record per line, and
// returns them sorted ascending by key, ready for grouping by the reduce
// handler. A missing shard file (no map output ever landed in this
// partition) is treated as an empty shard, not an error.
func ReadShard(dir string, r int) ([]KeyValue, error) {
	path := InputPath(dir, r)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var kvs []KeyValue
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var kv KeyValue
		if err := json.Unmarshal(line, &kv); err != nil {
			return nil, fmt.Errorf("decode record in %s: %w", path, err)
		}
		kvs = append(kvs, kv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	sort.SliceStable(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	return kvs, nil
}

// Group collapses a key-sorted slice of records into ordered runs of equal
// keys, returning each key once together with its values in encounter
// order.
func Group(kvs []KeyValue) (keys []string, values [][]string) {
	i := 0
	for i < len(kvs) {
		j := i + 1
		for j < len(kvs) && kvs[j].Key == kvs[i].Key {
			j++
		}
		vals := make([]string, 0, j-i)
		for k := i; k < j; k++ {
			vals = append(vals, kvs[k].Value)
		}
		keys = append(keys, kvs[i].Key)
		values = append(values, vals)
		i = j
	}
	return keys, values
}

// WriteReduceOutput writes the final "<key> <result>\n" lines for reducer r
// to mr-out-<r>.tmp and renames that over mr-out-<r>, replacing any
// previous content (last-writer-wins per spec.md §5). Two workers running
// the same reduce job at once share the same temporary path.
func WriteReduceOutput(dir string, r int, keys []string, results []string) error {
	path := OutputPath(dir, r)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := bufio.NewWriter(f)
	for i, key := range keys {
		if _, err := fmt.Fprintf(w, "%s %s\n", key, results[i]); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", tmp, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

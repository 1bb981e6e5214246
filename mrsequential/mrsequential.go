// Package mrsequential is the single-process reference oracle: it runs a
// plugin's map and reduce functions over a set of input files without any
// coordinator, workers, or RPC, producing the same mr-out-0 a correct
// distributed run should agree with.
//
// Grounded on original_source/src/bin/mrsequential.rs: map every input,
// sort all records by key, walk the sorted list collapsing runs of equal
// keys, reduce each run, and write one "key result" line per key to a
// single output file.
package mrsequential

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/alicklee/mrengine/internal/intermediate"
	"github.com/alicklee/mrengine/internal/worker"
)

// Run executes plugin's map function over every file in inputFiles,
// collects all emitted records, groups them by key, and writes
// "key result\n" lines to outputPath in key order.
func Run(inputFiles []string, plugin worker.Plugin, outputPath string) error {
	var all []intermediate.KeyValue
	for _, path := range inputFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("mrsequential: read %s: %w", path, err)
		}
		all = append(all, plugin.Map(path, string(content))...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Key < all[j].Key })
	keys, groups := intermediate.Group(all)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("mrsequential: create %s: %w", outputPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, key := range keys {
		result := plugin.Reduce(key, groups[i])
		if _, err := fmt.Fprintf(w, "%s %s\n", key, result); err != nil {
			return fmt.Errorf("mrsequential: write %s: %w", outputPath, err)
		}
	}
	return w.Flush()
}

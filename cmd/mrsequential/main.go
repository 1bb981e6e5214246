// Command mrsequential runs a plugin's map and reduce functions against a
// set of input files in a single process, without a coordinator or
// workers, as a correctness oracle for a distributed run.
//
// Usage: mrsequential inputfiles...
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alicklee/mrengine/mrapps/wordcount"
	"github.com/alicklee/mrengine/mrsequential"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s inputfiles...\n", os.Args[0])
	}
	flag.Parse()

	inputFiles := flag.Args()
	if len(inputFiles) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := mrsequential.Run(inputFiles, wordcount.Plugin, "mr-out-0"); err != nil {
		log.Fatalf("mrsequential: %v", err)
	}
}

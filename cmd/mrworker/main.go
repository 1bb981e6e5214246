// Command mrworker runs a worker process that executes map and reduce jobs
// handed out by a running mrcoordinator, using a built-in plugin selected
// by name.
//
// Usage: mrworker pluginname
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alicklee/mrengine/internal/engconfig"
	"github.com/alicklee/mrengine/internal/worker"
	"github.com/alicklee/mrengine/mrapps/wordcount"
)

// plugins lists the built-in map/reduce plugins a worker can run, keyed by
// the name passed on the command line. original_source/src/mr/worker.rs
// loads a plugin dynamically from a .so path; Go has no stable plugin ABI
// across builds, so plugins are compiled in and selected by name instead.
var plugins = map[string]worker.Plugin{
	"wordcount": wordcount.Plugin,
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config path] pluginname\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	plugin, ok := plugins[flag.Arg(0)]
	if !ok {
		log.Fatalf("mrworker: unknown plugin %q", flag.Arg(0))
	}

	cfg, err := engconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("mrworker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("mrworker: received interrupt, shutting down")
		cancel()
	}()

	w := worker.New(cfg.CoordinatorSock, cfg.IntermediateDir, plugin)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("mrworker: %v", err)
	}
}

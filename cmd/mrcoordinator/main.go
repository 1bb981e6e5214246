// Command mrcoordinator runs the coordinating process for a MapReduce job
// over the given input files.
//
// Usage: mrcoordinator inputfiles...
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/alicklee/mrengine/internal/coordinator"
	"github.com/alicklee/mrengine/internal/engconfig"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config path] inputfiles...\n", os.Args[0])
	}
	flag.Parse()

	inputFiles := flag.Args()
	if len(inputFiles) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := engconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("mrcoordinator: %v", err)
	}

	if cfg.IntermediateDir != "" {
		if err := os.MkdirAll(cfg.IntermediateDir, 0777); err != nil {
			log.Fatalf("mrcoordinator: create intermediate dir: %v", err)
		}
	}

	coord := coordinator.New(inputFiles, cfg.NumReducers, cfg.IntermediateDir)

	srv, err := coordinator.NewServer(coord, cfg.CoordinatorSock)
	if err != nil {
		log.Fatalf("mrcoordinator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve()
	})
	g.Go(func() error {
		coord.RunReaper(gctx, cfg.ReaperPeriod, cfg.JobTimeout)
		return nil
	})
	g.Go(func() error {
		select {
		case <-sig:
			log.Println("mrcoordinator: received interrupt, shutting down")
			cancel()
		case <-gctx.Done():
		}
		return srv.Stop()
	})

	done := make(chan struct{})
	go func() {
		coord.WaitDone()
		close(done)
	}()
	select {
	case <-done:
		log.Println("mrcoordinator: job complete")
	case <-gctx.Done():
	}
	cancel()
	_ = srv.Stop()

	if err := g.Wait(); err != nil {
		log.Printf("mrcoordinator: %v", err)
	}
}

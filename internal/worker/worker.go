// Package worker implements the ask-execute-report loop a worker process
// runs against the coordinator, plus the map/reduce job handlers.
//
// Grounded on the teacher's worker.go for the process shape (a struct
// holding the user's MapF/ReduceF, an RPC client to the remote peer, a
// completed-task counter) generalized from the teacher's
// listen-and-wait-for-pushed-DoTask model to the pull model
// original_source/src/mr/worker.rs implements: loop { ask, execute,
// report }.
package worker

import (
	"context"
	"fmt"
	"net/rpc"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/alicklee/mrengine/internal/enginelog"
	"github.com/alicklee/mrengine/internal/intermediate"
	"github.com/alicklee/mrengine/internal/mrrpc"
)

// KeyValue is the record type the user's Map function emits, re-exported
// from internal/intermediate so mrapps packages depend on one type.
type KeyValue = intermediate.KeyValue

// MapFunc processes one input file's full contents into a list of
// intermediate records, the same signature the teacher's DoMap dispatches
// to.
type MapFunc func(filename, contents string) []KeyValue

// ReduceFunc collapses all values collected for a single key into one
// result string.
type ReduceFunc func(key string, values []string) string

// Plugin bundles the pair of user functions a worker process executes, the
// Go-native analogue of the libloading-based .so plugin
// original_source/src/mr/worker.rs loads at runtime: injected at process
// startup instead of loaded dynamically, since Go has no stable plugin ABI
// across builds the way the Rust original relies on dlopen for.
type Plugin struct {
	Map    MapFunc
	Reduce ReduceFunc
}

// Worker repeatedly asks the coordinator for work, executes it, and
// reports the outcome, until the coordinator signals completion.
type Worker struct {
	id              string
	sockPath        string
	intermediateDir string
	plugin          Plugin
	log             *enginelog.Logger

	numReducers int
	tasksDone   int
}

// New builds a Worker identified by a short random id (grounded on
// coatyio-dda-examples/compute's use of github.com/google/uuid for
// component ids), dialing coordinatorSock for every RPC.
func New(coordinatorSock, intermediateDir string, plugin Plugin) *Worker {
	id := uuid.NewString()[:8]
	return &Worker{
		id:              id,
		sockPath:        coordinatorSock,
		intermediateDir: intermediateDir,
		plugin:          plugin,
		log:             enginelog.New("[worker %s] ", id),
	}
}

// Run loops asking the coordinator for a job, executing it, and reporting
// the result, until the coordinator replies with no assigned job (the
// phase has reached Complete) or ctx is cancelled. ctx is checked before
// each AskForJob; an AskForJob call already waiting on the coordinator is
// not interrupted by cancellation.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reply, err := w.askForJob()
		if err != nil {
			return fmt.Errorf("worker %s: ask for job: %w", w.id, err)
		}
		w.numReducers = reply.NumReducer

		if reply.AssignedJob == nil {
			w.log.Printf("no more jobs, exiting after %d tasks", w.tasksDone)
			return nil
		}

		status := w.execute(*reply.AssignedJob)
		if err := w.report(*reply.AssignedJob, status); err != nil {
			w.log.Errorf("report job %d failed: %v", reply.AssignedJob.ID, err)
		}
		w.tasksDone++
	}
}

func (w *Worker) execute(job mrrpc.Job) mrrpc.JobStatus {
	var err error
	switch job.Kind {
	case mrrpc.JobMap:
		err = w.doMap(job)
	case mrrpc.JobReduce:
		err = w.doReduce(job)
	default:
		err = fmt.Errorf("unknown job kind %v", job.Kind)
	}
	if err != nil {
		w.log.Errorf("%s job %d failed: %v", job.Kind, job.ID, err)
		return mrrpc.StatusFailed
	}
	w.log.Printf("%s job %d done", job.Kind, job.ID)
	return mrrpc.StatusComplete
}

// doMap reads the job's whole input file, runs the user's map function
// over it, and appends the resulting records into the shared, partitioned
// intermediate files, in the manner of the teacher's doMap but writing
// through intermediate.AppendPartitioned instead of one file per
// (task, reducer).
func (w *Worker) doMap(job mrrpc.Job) error {
	content, err := os.ReadFile(job.InputPath)
	if err != nil {
		return fmt.Errorf("read input %s: %w", job.InputPath, err)
	}

	records := w.plugin.Map(job.InputPath, string(content))

	if err := intermediate.AppendPartitioned(w.intermediateDir, w.numReducers, records); err != nil {
		return fmt.Errorf("write intermediate output: %w", err)
	}
	return nil
}

// doReduce reads this partition's shard, groups it by key, runs the user's
// reduce function over each group, and writes the final output file.
func (w *Worker) doReduce(job mrrpc.Job) error {
	kvs, err := intermediate.ReadShard(w.intermediateDir, job.ID)
	if err != nil {
		return fmt.Errorf("read shard %d: %w", job.ID, err)
	}

	keys, groups := intermediate.Group(kvs)
	results := make([]string, len(keys))
	for i, key := range keys {
		results[i] = w.plugin.Reduce(key, groups[i])
	}

	if err := intermediate.WriteReduceOutput(w.intermediateDir, job.ID, keys, results); err != nil {
		return fmt.Errorf("write output %d: %w", job.ID, err)
	}
	return nil
}

// askTimeout bounds ReportJobStatus and other short calls, but not
// AskForJob: per spec.md §4.1/§4.5 the coordinator may legitimately hold an
// AskForJob call open until a running job is reaped, which with the
// default engconfig timing can take just under JobTimeout+ReaperPeriod.
// original_source/src/mr/worker.rs applies no deadline at all to
// ask_for_job, treating it as an intentional long-poll; this does the same
// by passing 0 (no deadline) for that call below.
const askTimeout = 10 * time.Second

func (w *Worker) askForJob() (*mrrpc.AskForJobReply, error) {
	var reply mrrpc.AskForJobReply
	if err := w.call(mrrpc.MethodAskForJob, &mrrpc.Empty{}, &reply, 0); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (w *Worker) report(job mrrpc.Job, status mrrpc.JobStatus) error {
	req := &mrrpc.ReportJobStatusRequest{JobID: job.ID, Kind: job.Kind, Status: status}
	return w.call(mrrpc.MethodReportJobStatus, req, &mrrpc.Empty{}, askTimeout)
}

// call dials the coordinator fresh for every RPC and, when timeout is
// nonzero, bounds the round trip with it, adapted from the teacher's
// common_rpc.go call() helper (goroutine plus select against a timeout
// context), generalized to return the underlying error instead of a bare
// bool so callers can log it, and to accept a per-call timeout since not
// every RPC this worker makes is short-lived.
func (w *Worker) call(method string, args, reply interface{}, timeout time.Duration) error {
	client, err := rpc.Dial("unix", w.sockPath)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.sockPath, err)
	}
	defer client.Close()

	if timeout <= 0 {
		if err := client.Call(method, args, reply); err != nil {
			return fmt.Errorf("call %s: %w", method, err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- client.Call(method, args, reply) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("call %s: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("call %s: %w", method, ctx.Err())
	}
}

// Package coordinator implements the single coordinating process of the
// execution engine: it owns the job queues, hands jobs out to asking
// workers, tracks which jobs are outstanding, and reaps jobs whose worker
// has gone silent.
//
// Grounded on the teacher's master.go for the overall shape (a struct
// guarded by an embedded sync.Mutex with a sync.Cond layered on top for
// wait/notify), generalized from the teacher's push model (master calls
// Worker.DoTask) to the pull model original_source/src/mr/coordinator.rs
// implements (worker calls Coordinator.AskForJob), which is what spec.md
// requires.
package coordinator

import (
	"fmt"
	"sync"
	"time"

	"github.com/alicklee/mrengine/internal/enginelog"
	"github.com/alicklee/mrengine/internal/intermediate"
	"github.com/alicklee/mrengine/internal/mrrpc"
)

// Phase is the coordinator's current stage of the job.
type Phase int32

const (
	PhaseMapping Phase = iota
	PhaseReducing
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseMapping:
		return "mapping"
	case PhaseReducing:
		return "reducing"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// runningJob pairs an outstanding job with the time it was handed out, so
// the reaper can tell how long a worker has held it.
type runningJob struct {
	job       mrrpc.Job
	startTime time.Time
}

// jobSet holds the three disjoint buckets a job of one kind moves through:
// waiting to be claimed, claimed and running, and reported complete.
type jobSet struct {
	waiting  []mrrpc.Job
	running  map[int]runningJob
	complete map[int]bool
}

func newJobSet() *jobSet {
	return &jobSet{
		running:  make(map[int]runningJob),
		complete: make(map[int]bool),
	}
}

func (s *jobSet) total() int {
	return len(s.waiting) + len(s.running) + len(s.complete)
}

// Coordinator tracks the progress of one MapReduce job: the set of map and
// reduce jobs still waiting, currently assigned, and completed, under a
// single mutex, in the manner of the teacher's Master but driven by
// AskForJob/ReportJobStatus instead of pushed DoTask calls.
type Coordinator struct {
	mu   sync.Mutex
	cond *sync.Cond

	phase Phase

	mapJobs    *jobSet
	reduceJobs *jobSet

	numReducers     int
	intermediateDir string
	inputFiles      []string

	log *enginelog.Logger
}

// New builds a Coordinator ready to hand out map jobs for inputFiles, one
// map job per file, fanning out to numReducers reduce partitions once every
// map job has been reported complete.
func New(inputFiles []string, numReducers int, intermediateDir string) *Coordinator {
	c := &Coordinator{
		phase:           PhaseMapping,
		mapJobs:         newJobSet(),
		reduceJobs:      newJobSet(),
		numReducers:     numReducers,
		intermediateDir: intermediateDir,
		inputFiles:      inputFiles,
		log:             enginelog.New("[coordinator] "),
	}
	c.cond = sync.NewCond(&c.mu)

	for i, f := range inputFiles {
		c.mapJobs.waiting = append(c.mapJobs.waiting, mrrpc.Job{
			ID:        i,
			Kind:      mrrpc.JobMap,
			InputPath: f,
		})
	}
	return c
}

// Done reports whether the job has finished, in the manner the teacher's
// Master.run loop polls for completion.
func (c *Coordinator) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseComplete
}

// WaitDone blocks until the coordinator reaches PhaseComplete.
func (c *Coordinator) WaitDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.phase != PhaseComplete {
		c.cond.Wait()
	}
}

// AskForJob hands the caller the next waiting job of the current phase. If
// no job is waiting but some are still running, the call blocks on the
// coordinator's condition variable until a job is reported, reaped, or the
// phase finishes. Once the coordinator has reached PhaseComplete, it
// returns a reply with a nil AssignedJob, the worker's signal to exit.
func (c *Coordinator) AskForJob(args *mrrpc.Empty, reply *mrrpc.AskForJobReply) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		set := c.activeSetLocked()
		if set == nil {
			reply.AssignedJob = nil
			reply.NumReducer = c.numReducers
			return nil
		}

		if len(set.waiting) > 0 {
			job := set.waiting[0]
			set.waiting = set.waiting[1:]
			set.running[job.ID] = runningJob{job: job, startTime: time.Now()}
			reply.AssignedJob = &job
			reply.NumReducer = c.numReducers
			c.log.Printf("assigned %s job %d to worker", job.Kind, job.ID)
			return nil
		}

		// Nothing waiting right now, but the phase isn't done: jobs are still
		// running. Wait for a report or a reap to broadcast, then loop to
		// re-check the phase and the waiting queue.
		c.cond.Wait()
	}
}

// activeSetLocked returns the jobSet for the coordinator's current phase,
// or nil once the job has reached PhaseComplete. Callers must hold c.mu.
func (c *Coordinator) activeSetLocked() *jobSet {
	switch c.phase {
	case PhaseMapping:
		return c.mapJobs
	case PhaseReducing:
		return c.reduceJobs
	default:
		return nil
	}
}

// ReportJobStatus records the outcome of a job a worker was assigned.
// Reports are matched to running jobs by kind and job id only. Duplicate or
// late reports for a job no longer in the running set (already completed,
// or reaped and not yet reassigned) are silent no-ops; a late report for a
// job that was reaped and has since been reassigned is applied to the new
// assignment.
func (c *Coordinator) ReportJobStatus(args *mrrpc.ReportJobStatusRequest, reply *mrrpc.Empty) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.jobSetForKindLocked(args.Kind)
	if set == nil {
		return fmt.Errorf("coordinator: report for unknown job kind %v", args.Kind)
	}

	rj, ok := set.running[args.JobID]
	if !ok {
		c.log.Printf("ignoring stale report for %s job %d", args.Kind, args.JobID)
		return nil
	}
	delete(set.running, args.JobID)

	switch args.Status {
	case mrrpc.StatusComplete:
		set.complete[args.JobID] = true
		c.log.Printf("%s job %d complete", args.Kind, args.JobID)
		c.maybeAdvancePhaseLocked()
	case mrrpc.StatusFailed:
		c.log.Printf("%s job %d reported failed, requeuing", args.Kind, args.JobID)
		set.waiting = append(set.waiting, rj.job)
	default:
		return fmt.Errorf("coordinator: unknown job status %v", args.Status)
	}

	c.cond.Broadcast()
	return nil
}

func (c *Coordinator) jobSetForKindLocked(kind mrrpc.JobKind) *jobSet {
	switch kind {
	case mrrpc.JobMap:
		return c.mapJobs
	case mrrpc.JobReduce:
		return c.reduceJobs
	default:
		return nil
	}
}

// maybeAdvancePhaseLocked moves the coordinator from Mapping to Reducing
// once every map job has been reported complete, and from Reducing to
// Complete once every reduce job has. Callers must hold c.mu.
func (c *Coordinator) maybeAdvancePhaseLocked() {
	switch c.phase {
	case PhaseMapping:
		if len(c.mapJobs.complete) < len(c.inputFiles) {
			return
		}
		for r := 0; r < c.numReducers; r++ {
			c.reduceJobs.waiting = append(c.reduceJobs.waiting, mrrpc.Job{
				ID:         r,
				Kind:       mrrpc.JobReduce,
				InputPath:  intermediate.InputPath(c.intermediateDir, r),
				OutputPath: intermediate.OutputPath(c.intermediateDir, r),
			})
		}
		c.phase = PhaseReducing
		c.log.Printf("all map jobs complete, entering reducing phase")
	case PhaseReducing:
		if len(c.reduceJobs.complete) < c.numReducers {
			return
		}
		c.phase = PhaseComplete
		c.log.Printf("all reduce jobs complete")
	}
}

// reapTimedOut moves any job that has been running for at least timeout
// back onto its waiting queue, in the manner of
// original_source/src/mr/coordinator.rs's reset_timeout_jobs: the worker
// holding it is presumed dead or stuck and another worker gets a chance at
// it. A late report for the original assignment is ignored by
// ReportJobStatus while the job waits; once it is reassigned, that report
// counts for the new assignment.
func (c *Coordinator) reapTimedOut(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	reaped := false
	for _, set := range []*jobSet{c.mapJobs, c.reduceJobs} {
		for id, rj := range set.running {
			if now.Sub(rj.startTime) < timeout {
				continue
			}
			delete(set.running, id)
			set.waiting = append(set.waiting, rj.job)
			c.log.Printf("reaped %s job %d after %s", rj.job.Kind, id, now.Sub(rj.startTime))
			reaped = true
		}
	}
	if reaped {
		c.cond.Broadcast()
	}
}

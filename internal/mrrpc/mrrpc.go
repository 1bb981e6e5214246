// Package mrrpc defines the wire types and RPC method names shared by the
// coordinator and worker processes.
//
// The transport is net/rpc over a Unix-domain socket; this package holds
// only the message shapes, not the transport itself (spec treats the
// transport as a generic request/response channel with per-call timeouts).
package mrrpc

import "fmt"

// JobKind distinguishes a map job from a reduce job.
type JobKind int32

const (
	JobMap JobKind = iota
	JobReduce
)

func (k JobKind) String() string {
	switch k {
	case JobMap:
		return "map"
	case JobReduce:
		return "reduce"
	default:
		return fmt.Sprintf("JobKind(%d)", int32(k))
	}
}

// JobStatus is reported by a worker after executing a job.
type JobStatus int32

const (
	StatusComplete JobStatus = iota
	StatusFailed
)

// Job is an immutable descriptor for one unit of map or reduce work.
type Job struct {
	ID         int
	Kind       JobKind
	InputPath  string
	OutputPath string
}

// Empty carries no data; used where an RPC has no meaningful argument or
// reply.
type Empty struct{}

// AskForJobReply is returned by Coordinator.AskForJob. AssignedJob is nil
// exactly when the coordinator has entered the Complete phase and is
// signaling the worker to terminate.
type AskForJobReply struct {
	AssignedJob *Job
	NumReducer  int
}

// ReportJobStatusRequest is sent by a worker after executing a job.
type ReportJobStatusRequest struct {
	JobID  int
	Kind   JobKind
	Status JobStatus
}

// Coordinator RPC method names, registered and dialed by net/rpc under
// these strings.
const (
	MethodAskForJob       = "Coordinator.AskForJob"
	MethodReportJobStatus = "Coordinator.ReportJobStatus"
)

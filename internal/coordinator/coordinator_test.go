package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alicklee/mrengine/internal/mrrpc"
)

func TestAssignsMapJobsThenReduceJobsThenDone(t *testing.T) {
	c := New([]string{"a.txt", "b.txt"}, 2, t.TempDir())
	require.False(t, c.Done())

	var reply mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reply))
	require.NotNil(t, reply.AssignedJob)
	require.Equal(t, mrrpc.JobMap, reply.AssignedJob.Kind)
	first := *reply.AssignedJob

	var reply2 mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reply2))
	require.NotNil(t, reply2.AssignedJob)
	require.NotEqual(t, first.ID, reply2.AssignedJob.ID)

	require.NoError(t, c.ReportJobStatus(&mrrpc.ReportJobStatusRequest{
		JobID: first.ID, Kind: mrrpc.JobMap, Status: mrrpc.StatusComplete,
	}, &mrrpc.Empty{}))
	require.False(t, c.Done(), "one of two map jobs complete, not done yet")

	require.NoError(t, c.ReportJobStatus(&mrrpc.ReportJobStatusRequest{
		JobID: reply2.AssignedJob.ID, Kind: mrrpc.JobMap, Status: mrrpc.StatusComplete,
	}, &mrrpc.Empty{}))

	var reduceReply mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reduceReply))
	require.NotNil(t, reduceReply.AssignedJob)
	require.Equal(t, mrrpc.JobReduce, reduceReply.AssignedJob.Kind)

	var reduceReply2 mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reduceReply2))
	require.NotNil(t, reduceReply2.AssignedJob)
	require.Equal(t, mrrpc.JobReduce, reduceReply2.AssignedJob.Kind)

	for _, id := range []int{reduceReply.AssignedJob.ID, reduceReply2.AssignedJob.ID} {
		require.NoError(t, c.ReportJobStatus(&mrrpc.ReportJobStatusRequest{
			JobID: id, Kind: mrrpc.JobReduce, Status: mrrpc.StatusComplete,
		}, &mrrpc.Empty{}))
	}
	require.True(t, c.Done())

	var doneReply mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &doneReply))
	require.Nil(t, doneReply.AssignedJob)
}

func TestReportJobStatusIsIdempotent(t *testing.T) {
	c := New([]string{"a.txt"}, 1, t.TempDir())

	var reply mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reply))
	job := *reply.AssignedJob

	req := &mrrpc.ReportJobStatusRequest{JobID: job.ID, Kind: mrrpc.JobMap, Status: mrrpc.StatusComplete}
	require.NoError(t, c.ReportJobStatus(req, &mrrpc.Empty{}))
	// A duplicate/late report for a job already reported complete must be a
	// silent no-op, not an error and not a second phase advance.
	require.NoError(t, c.ReportJobStatus(req, &mrrpc.Empty{}))

	var reduceReply mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reduceReply))
	require.NotNil(t, reduceReply.AssignedJob)
	require.Equal(t, mrrpc.JobReduce, reduceReply.AssignedJob.Kind)
}

func TestFailedJobIsRequeued(t *testing.T) {
	c := New([]string{"a.txt"}, 1, t.TempDir())

	var reply mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reply))
	job := *reply.AssignedJob

	require.NoError(t, c.ReportJobStatus(&mrrpc.ReportJobStatusRequest{
		JobID: job.ID, Kind: mrrpc.JobMap, Status: mrrpc.StatusFailed,
	}, &mrrpc.Empty{}))

	var retry mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &retry))
	require.NotNil(t, retry.AssignedJob)
	require.Equal(t, job.ID, retry.AssignedJob.ID)
}

func TestReapTimedOutRequeuesStaleJob(t *testing.T) {
	c := New([]string{"a.txt"}, 1, t.TempDir())

	var reply mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &reply))
	require.NotNil(t, reply.AssignedJob)

	c.reapTimedOut(0) // everything running is "timed out"

	var retry mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &retry))
	require.NotNil(t, retry.AssignedJob)
	require.Equal(t, reply.AssignedJob.ID, retry.AssignedJob.ID)

	// Reports are matched by job id alone, so the late report from the reaped
	// worker completes the job the second worker now holds. With one map job
	// that moves the coordinator to reducing, which is not yet done.
	require.NoError(t, c.ReportJobStatus(&mrrpc.ReportJobStatusRequest{
		JobID: reply.AssignedJob.ID, Kind: mrrpc.JobMap, Status: mrrpc.StatusComplete,
	}, &mrrpc.Empty{}))
	require.False(t, c.Done())
}

func TestAskForJobBlocksUntilWorkArrives(t *testing.T) {
	c := New([]string{"a.txt"}, 1, t.TempDir())

	var first mrrpc.AskForJobReply
	require.NoError(t, c.AskForJob(&mrrpc.Empty{}, &first))

	result := make(chan *mrrpc.Job, 1)
	go func() {
		var reply mrrpc.AskForJobReply
		_ = c.AskForJob(&mrrpc.Empty{}, &reply)
		result <- reply.AssignedJob
	}()

	select {
	case <-result:
		t.Fatal("AskForJob returned before any job became available")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, c.ReportJobStatus(&mrrpc.ReportJobStatusRequest{
		JobID: first.AssignedJob.ID, Kind: mrrpc.JobMap, Status: mrrpc.StatusFailed,
	}, &mrrpc.Empty{}))

	select {
	case job := <-result:
		require.NotNil(t, job)
	case <-time.After(2 * time.Second):
		t.Fatal("AskForJob never woke up after a job was requeued")
	}
}

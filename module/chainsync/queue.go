package chainsync

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// Job is the request for one missing block and the ancestry below it.
type Job struct {
	// Root is the block to fetch. Range requests start here and walk parents.
	Root lean.Root
	// Anchor is the staged block whose parent is Root. Zero for jobs opened
	// from a peer's head checkpoint.
	Anchor lean.Root
	// Slot is the slot of the anchor, or of Root when there is no anchor.
	// Only peers whose head reaches this slot can serve the job.
	Slot lean.Slot
	// Peer is the peer the job is assigned to, empty while unassigned.
	Peer peer.ID

	Requested   bool
	RequestedAt time.Time
	Attempts    uint
	failed      map[peer.ID]struct{}
}

func NewJob(root lean.Root, anchor lean.Root, slot lean.Slot) *Job {
	return &Job{
		Root:   root,
		Anchor: anchor,
		Slot:   slot,
		failed: make(map[peer.ID]struct{}),
	}
}

// Failed reports whether p failed to serve this job before.
func (j *Job) Failed(p peer.ID) bool {
	_, ok := j.failed[p]
	return ok
}

func (j *Job) markFailed(p peer.ID) {
	j.failed[p] = struct{}{}
}

func (j *Job) markRequested(now time.Time) {
	j.Requested = true
	j.RequestedAt = now
	j.Attempts++
}

func (j *Job) unassign() {
	j.Peer = ""
	j.Requested = false
	j.RequestedAt = time.Time{}
}

// JobQueue tracks the backward fetch of one chain segment, from Start down to
// a block that is known locally.
type JobQueue struct {
	Start           lean.Checkpoint
	LastFetchedSlot lean.Slot
	// Complete is set once the fetched ancestry reaches a known block.
	Complete  bool
	Stalled   bool
	StalledAt time.Time
	jobs      map[lean.Root]*Job
}

func newJobQueue(start lean.Checkpoint) *JobQueue {
	return &JobQueue{
		Start:           start,
		LastFetchedSlot: start.Slot,
		jobs:            make(map[lean.Root]*Job),
	}
}

// Jobs returns the open jobs of the queue.
func (q *JobQueue) Jobs() []*Job {
	jobs := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// Queues is the set of open job queues. It is not safe for concurrent use.
type Queues struct {
	queues []*JobQueue
}

func NewQueues() *Queues {
	return &Queues{}
}

func (q *Queues) Len() int {
	return len(q.queues)
}

// All returns the open queues in insertion order.
func (q *Queues) All() []*JobQueue {
	return q.queues
}

// AddQueue opens a queue starting at cp with job as its first job. Unless
// bypassSlotCheck is set, the queue is only opened above the start slot of
// every existing queue. A second queue with the same start root is never opened.
func (q *Queues) AddQueue(cp lean.Checkpoint, job *Job, bypassSlotCheck bool) bool {
	for _, queue := range q.queues {
		if !bypassSlotCheck && cp.Slot <= queue.Start.Slot {
			return false
		}
		if queue.Start.Root == cp.Root {
			return false
		}
	}
	queue := newJobQueue(cp)
	queue.jobs[job.Root] = job
	q.queues = append(q.queues, queue)
	return true
}

// MarkQueueComplete completes the queue holding the job for lastRoot and
// drops its jobs.
func (q *Queues) MarkQueueComplete(lastRoot lean.Root) bool {
	for _, queue := range q.queues {
		if _, ok := queue.jobs[lastRoot]; ok {
			queue.Complete = true
			queue.jobs = make(map[lean.Root]*Job)
			return true
		}
	}
	return false
}

// ReadyQueue returns the queue with the lowest start slot if it is complete.
// Queues are replayed strictly from the lowest start upwards.
func (q *Queues) ReadyQueue() (*JobQueue, bool) {
	var lowest *JobQueue
	for _, queue := range q.queues {
		if lowest == nil || queue.Start.Slot < lowest.Start.Slot {
			lowest = queue
		}
	}
	if lowest == nil || !lowest.Complete {
		return nil, false
	}
	return lowest, true
}

// RemoveQueue drops the queue starting at startRoot.
func (q *Queues) RemoveQueue(startRoot lean.Root) (*JobQueue, bool) {
	for i, queue := range q.queues {
		if queue.Start.Root == startRoot {
			q.queues = append(q.queues[:i], q.queues[i+1:]...)
			return queue, true
		}
	}
	return nil, false
}

// ReplaceJob swaps the job for lastRoot with next in the first incomplete
// queue holding it, and records lastSlot as the lowest slot fetched so far.
// Returns the replaced job.
func (q *Queues) ReplaceJob(lastRoot lean.Root, lastSlot lean.Slot, next *Job) (*Job, bool) {
	for _, queue := range q.queues {
		if queue.Complete {
			continue
		}
		old, ok := queue.jobs[lastRoot]
		if !ok {
			continue
		}
		delete(queue.jobs, lastRoot)
		queue.LastFetchedSlot = lastSlot
		queue.jobs[next.Root] = next
		return old, true
	}
	return nil, false
}

// ResetJobPeer moves the job assigned to oldPeer over to newPeer, clearing
// its request state. Returns the job.
func (q *Queues) ResetJobPeer(oldPeer, newPeer peer.ID) (*Job, bool) {
	job, ok := q.JobByPeer(oldPeer)
	if !ok {
		return nil, false
	}
	job.unassign()
	job.Peer = newPeer
	return job, true
}

// UnrequestedJobs returns the jobs of queues that are neither complete nor
// stalled and that were not requested yet.
func (q *Queues) UnrequestedJobs() []*Job {
	var jobs []*Job
	for _, queue := range q.queues {
		if queue.Complete || queue.Stalled {
			continue
		}
		for _, job := range queue.jobs {
			if !job.Requested {
				jobs = append(jobs, job)
			}
		}
	}
	return jobs
}

// MarkRequested records that job was sent to its peer. Returns false if the
// job is no longer part of an open queue.
func (q *Queues) MarkRequested(job *Job, now time.Time) bool {
	queue, ok := q.QueueOf(job)
	if !ok || queue.Complete {
		return false
	}
	job.markRequested(now)
	return true
}

// IsQueueStart reports whether root starts one of the queues. With fewer
// than two queues there is no other queue to connect to and the answer is
// always false.
func (q *Queues) IsQueueStart(root lean.Root) bool {
	if len(q.queues) < 2 {
		return false
	}
	for _, queue := range q.queues {
		if queue.Start.Root == root {
			return true
		}
	}
	return false
}

// SlotCovered reports whether some queue starts at or above slot, so the
// ancestry at slot will be fetched by it.
func (q *Queues) SlotCovered(slot lean.Slot) bool {
	for _, queue := range q.queues {
		if slot <= queue.Start.Slot {
			return true
		}
	}
	return false
}

func (q *Queues) JobByRoot(root lean.Root) (*Job, *JobQueue, bool) {
	for _, queue := range q.queues {
		if job, ok := queue.jobs[root]; ok {
			return job, queue, true
		}
	}
	return nil, nil, false
}

func (q *Queues) JobByPeer(p peer.ID) (*Job, bool) {
	for _, queue := range q.queues {
		for _, job := range queue.jobs {
			if job.Peer == p {
				return job, true
			}
		}
	}
	return nil, false
}

// QueueOf returns the queue holding job.
func (q *Queues) QueueOf(job *Job) (*JobQueue, bool) {
	for _, queue := range q.queues {
		if queue.jobs[job.Root] == job {
			return queue, true
		}
	}
	return nil, false
}

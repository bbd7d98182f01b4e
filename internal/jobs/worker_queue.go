package jobs

import (
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	mirrorPool *worker.Pool
	outbox     repository.OutboxRepository
	mirror     repository.MirrorRepository
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(
	mirrorPool *worker.Pool,
	outbox repository.OutboxRepository,
	mirror repository.MirrorRepository,
) JobQueue {
	return &WorkerQueue{
		mirrorPool: mirrorPool,
		outbox:     outbox,
		mirror:     mirror,
	}
}

func (q *WorkerQueue) Pending() int {
	return q.mirrorPool.QueueSize()
}

func (q *WorkerQueue) EnqueueMirror(entryID, kind string) error {
	return q.mirrorPool.TrySubmit(&worker.MirrorJob{
		Outbox:  q.outbox,
		Mirror:  q.mirror,
		EntryID: entryID,
		Kind:    kind,
	})
}

package jobs

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// EnqueueMirror schedules the outbox entry for a remote write without blocking.
	EnqueueMirror(entryID, kind string) error
	// Pending returns the number of queued jobs not yet picked up by a worker.
	Pending() int
}

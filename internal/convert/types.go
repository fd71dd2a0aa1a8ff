package convert

import "time"

// Task is one unit of work for the worker. Immutable after batch build; the
// worker reads it and never touches the shared records. Encode parameters
// are snapshotted here so later toggle changes cannot affect a running batch.
type Task struct {
	Index      int
	InputPath  string
	TargetPath string
	Sanitize   bool

	Quality        int
	Effort         int
	DeleteOriginal bool
}

// Update is one message on the worker→UI status channel.
type Update struct {
	Index      int
	Status     Status
	Message    string
	SizeBefore int64
	SizeAfter  int64
}

// Record is the mutable per-file state, owned by the session's aggregator
// and mutated only on the UI goroutine.
type Record struct {
	Status     Status
	TargetPath string
	Message    string
	Info       string
	SizeBefore int64
	SizeAfter  int64
}

// Batch holds the counters for the running (or just finished) batch. A batch
// is active from enqueue until Succeeded+Failed reaches Total.
type Batch struct {
	Total       int
	Succeeded   int
	Failed      int
	BytesBefore int64
	BytesAfter  int64
	Started     time.Time
	Active      bool
	Summary     string
}

// Completion is the edge-triggered batch-finished event produced by Drain.
type Completion struct {
	Summary     string
	FailedCount int
}

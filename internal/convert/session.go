// Package convert implements the asynchronous conversion pipeline: a FIFO
// task queue consumed by a single background worker that shells out to cjxl
// (and optionally ImageMagick), a one-way status channel back to the UI
// loop, and the per-file state bookkeeping around it.
//
// Ownership is split per resource: the worker goroutine owns the filesystem
// and is the sole producer on the status channel; the UI goroutine owns the
// records, counters, and selection, and mutates them only by draining the
// channel. Neither side locks the other's state.
package convert

import (
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"github.com/Gradipoo/tui-jxl-converter/internal/debuglog"
	"github.com/Gradipoo/tui-jxl-converter/internal/inventory"
)

// Precondition errors. These reject a batch synchronously without mutating
// any state.
var (
	ErrBatchActive     = errors.New("a conversion is already in progress")
	ErrNothingSelected = errors.New("no files selected to convert")
	ErrEncoderMissing  = errors.New("cjxl command not found in PATH")
)

// Tools holds the resolved paths of the external binaries. An empty path
// means the tool is unavailable.
type Tools struct {
	Cjxl   string
	Magick string
}

// LocateTools looks up cjxl and an ImageMagick entry point on PATH.
func LocateTools() Tools {
	t := Tools{}
	if p, err := exec.LookPath("cjxl"); err == nil {
		t.Cjxl = p
	}
	if p, err := exec.LookPath("magick"); err == nil {
		t.Magick = p
	} else if p, err := exec.LookPath("convert"); err == nil {
		t.Magick = p
	}
	return t
}

// Options is the settings snapshot a batch is built with.
type Options struct {
	Quality         int
	Effort          int
	DeleteOriginals bool
	OutputDir       string // empty means next to each source file
	Recursive       bool
	ScanRoot        string
}

// Session orchestrates conversion batches over the current inventory. All
// methods must be called from the UI goroutine.
type Session struct {
	Records   []Record
	Selected  map[int]struct{}
	FailedSet map[int]struct{}
	Batch     Batch

	// batchFailed holds the indices counted in Batch.Failed, unlike
	// FailedSet which persists across fresh batches. A retry uses it to
	// tell current-batch failures (decrement Failed) from stale ones
	// (grow Total).
	batchFailed map[int]struct{}

	entries []inventory.FileEntry
	tools   Tools
	runner  Runner
	log     *debuglog.Logger

	queue         *Queue
	updates       chan Update
	worker        *Worker
	workerStarted bool
}

func NewSession(tools Tools, runner Runner, log *debuglog.Logger) *Session {
	return &Session{
		Selected:    make(map[int]struct{}),
		FailedSet:   make(map[int]struct{}),
		batchFailed: make(map[int]struct{}),
		tools:       tools,
		runner:      runner,
		log:         log,
		queue:       NewQueue(),
		updates:     make(chan Update, 256),
	}
}

func (s *Session) EncoderAvailable() bool   { return s.tools.Cjxl != "" }
func (s *Session) SanitizerAvailable() bool { return s.tools.Magick != "" }

// Load replaces the inventory. All prior indices, statuses, selections, and
// failure bookkeeping are invalidated.
func (s *Session) Load(entries []inventory.FileEntry) {
	s.entries = entries
	s.Records = make([]Record, len(entries))
	s.Selected = make(map[int]struct{})
	s.FailedSet = make(map[int]struct{})
	s.batchFailed = make(map[int]struct{})
	s.Batch = Batch{}
}

func (s *Session) Entries() []inventory.FileEntry { return s.entries }

func (s *Session) Entry(i int) inventory.FileEntry { return s.entries[i] }

// Toggle flips selection for one index.
func (s *Session) Toggle(i int) {
	if i < 0 || i >= len(s.entries) {
		return
	}
	if _, ok := s.Selected[i]; ok {
		delete(s.Selected, i)
	} else {
		s.Selected[i] = struct{}{}
	}
}

func (s *Session) Select(indices []int) {
	s.Selected = make(map[int]struct{}, len(indices))
	for _, i := range indices {
		s.Selected[i] = struct{}{}
	}
}

func (s *Session) ClearSelection() {
	s.Selected = make(map[int]struct{})
}

func (s *Session) IsSelected(i int) bool {
	_, ok := s.Selected[i]
	return ok
}

// DisplayStatus maps an index to the value shown in the status column:
// a pending file that is selected displays as SELECTED.
func (s *Session) DisplayStatus(i int) Status {
	st := s.Records[i].Status
	if st == StatusPending && s.IsSelected(i) {
		return StatusSelected
	}
	return st
}

// FailedIndices returns the failed set in ascending order.
func (s *Session) FailedIndices() []int {
	out := make([]int, 0, len(s.FailedSet))
	for i := range s.FailedSet {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Start builds and enqueues one task per selected index. Fresh batches reset
// the counters; retry batches re-open the already-recorded batch, moving each
// of its failures back out of the failed tally (stale failures from an
// earlier batch grow the total instead) so the completion condition
// success+failed == total holds again.
func (s *Session) Start(opts Options, retry bool) error {
	if s.Batch.Active {
		return ErrBatchActive
	}
	if len(s.Selected) == 0 {
		return ErrNothingSelected
	}
	if !s.EncoderAvailable() {
		return ErrEncoderMissing
	}

	s.log.Logf("--- preparing conversion batch (retry=%v) ---", retry)

	policy := ResolvePolicy{OutputDir: opts.OutputDir}
	if opts.Recursive {
		policy.MirrorRoot = opts.ScanRoot
	}

	indices := make([]int, 0, len(s.Selected))
	for i := range s.Selected {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	reserved := make(map[string]struct{}, len(indices))
	tasks := make([]Task, 0, len(indices))
	for _, idx := range indices {
		entry := s.entries[idx]
		target, err := ResolveTarget(entry.Path, policy, reserved)
		if err != nil {
			// Per-task precondition failure: this file is skipped, the
			// rest of the batch goes ahead.
			s.log.Logf("skipping %s: %v", entry.Name, err)
			s.Records[idx].Status = StatusFailed
			s.Records[idx].Message = err.Error()
			s.Records[idx].Info = err.Error()
			s.FailedSet[idx] = struct{}{}
			continue
		}
		reserved[target] = struct{}{}
		s.Records[idx].TargetPath = target
		tasks = append(tasks, Task{
			Index:          idx,
			InputPath:      entry.Path,
			TargetPath:     target,
			Sanitize:       retry,
			Quality:        opts.Quality,
			Effort:         opts.Effort,
			DeleteOriginal: opts.DeleteOriginals,
		})
		s.log.Logf("queued: %s -> %s", entry.Name, target)
	}

	if len(tasks) == 0 {
		return fmt.Errorf("no output path could be prepared for the selection")
	}

	if retry {
		s.Batch.Active = true
	} else {
		s.Batch = Batch{Total: len(tasks), Started: time.Now(), Active: true}
		s.batchFailed = make(map[int]struct{})
	}

	for _, task := range tasks {
		rec := &s.Records[task.Index]
		rec.Status = StatusQueued
		rec.Info = ""
		rec.Message = ""
		delete(s.FailedSet, task.Index)
		if retry {
			// A failure counted in this batch moves back into the pending
			// tally; a stale one (carried over from an earlier batch) is
			// new work on top of the recorded totals.
			if _, counted := s.batchFailed[task.Index]; counted {
				delete(s.batchFailed, task.Index)
				s.Batch.Failed--
			} else {
				s.Batch.Total++
			}
		}
	}

	s.queue.Push(tasks...)
	s.ensureWorker()
	s.log.Logf("--- batch started with %d tasks ---", len(tasks))
	return nil
}

// RetryFailed re-queues the failed set as a sanitize batch. Called after the
// user accepts the post-batch prompt.
func (s *Session) RetryFailed(opts Options) error {
	s.Select(s.FailedIndices())
	return s.Start(opts, true)
}

// Drain applies every update currently in the channel without blocking and
// returns a Completion exactly once per finished batch.
func (s *Session) Drain() *Completion {
	for {
		select {
		case u := <-s.updates:
			s.apply(u)
		default:
			return s.checkCompletion()
		}
	}
}

func (s *Session) apply(u Update) {
	if u.Index < 0 || u.Index >= len(s.Records) {
		return
	}
	rec := &s.Records[u.Index]
	rec.Status = u.Status
	if u.Message != "" {
		rec.Message = u.Message
	}

	switch u.Status {
	case StatusSuccess:
		s.Batch.Succeeded++
		if u.SizeBefore > 0 && u.SizeAfter > 0 {
			rec.SizeBefore = u.SizeBefore
			rec.SizeAfter = u.SizeAfter
			s.Batch.BytesBefore += u.SizeBefore
			s.Batch.BytesAfter += u.SizeAfter
			rec.Info = savingsInfo(u.SizeBefore, u.SizeAfter)
		}
	case StatusFailed:
		s.Batch.Failed++
		s.FailedSet[u.Index] = struct{}{}
		s.batchFailed[u.Index] = struct{}{}
		if rec.Message == "" {
			rec.Message = "Unknown Error"
		}
		rec.Info = rec.Message
	}
}

func (s *Session) checkCompletion() *Completion {
	if !s.Batch.Active || s.Batch.Succeeded+s.Batch.Failed < s.Batch.Total {
		return nil
	}
	s.Batch.Active = false

	elapsed := time.Since(s.Batch.Started).Seconds()
	processed := s.Batch.Succeeded + s.Batch.Failed
	saved := s.Batch.BytesBefore - s.Batch.BytesAfter
	if s.Batch.BytesBefore > 0 {
		pct := float64(saved) / float64(s.Batch.BytesBefore) * 100
		s.Batch.Summary = fmt.Sprintf("Finished: %d files | Total Saved: %s (%.1f%%) | Time: %.2fs",
			processed, FormatBytes(saved), pct, elapsed)
	} else {
		s.Batch.Summary = fmt.Sprintf("Finished: %d files | Time: %.2fs", processed, elapsed)
	}
	s.log.Logf("batch finished: %s", s.Batch.Summary)

	return &Completion{Summary: s.Batch.Summary, FailedCount: len(s.FailedSet)}
}

func (s *Session) ensureWorker() {
	if s.workerStarted {
		return
	}
	s.worker = newWorker(s.queue, s.updates, s.runner, s.log, s.tools.Cjxl, s.tools.Magick)
	s.workerStarted = true
	go s.worker.Run()
}

// Close signals cancellation and joins the worker with a bounded wait. Any
// still-queued tasks are discarded.
func (s *Session) Close() {
	if s.workerStarted {
		s.worker.Stop(2 * time.Second)
		s.workerStarted = false
	}
}

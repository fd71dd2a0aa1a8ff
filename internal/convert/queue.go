package convert

import "sync"

// Queue is the FIFO of pending tasks. The UI goroutine pushes whole batches;
// the single worker pops one task at a time between cancellation checks.
type Queue struct {
	mu    sync.Mutex
	tasks []Task
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(tasks ...Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, tasks...)
}

// Pop removes and returns the oldest task. ok is false when the queue is
// empty; the worker then sleeps briefly and re-checks its stop flag.
func (q *Queue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return Task{}, false
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

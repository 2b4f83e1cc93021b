// Package executor runs the polling loop: discover pending tasks on the
// ledger, sequence them through a local queue, run the state transition,
// and publish completions.
package executor

import (
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/fhestate/fhestate/internal/ledger"
)

// ErrQueueFull signals that discovery outpaced processing. The poller
// logs and drops; the task is rediscovered next cycle because its
// on-chain status is still pending.
var ErrQueueFull = errors.New("executor: task queue full")

// Queue is a bounded FIFO of discovered tasks, deduplicated by account
// key, safe for a concurrent producer and consumer. The queue is the
// single point of dequeue: two consumers can never pop the same account.
type Queue struct {
	mu       sync.Mutex
	tasks    []ledger.FheTask
	present  map[solana.PublicKey]bool
	capacity int
}

// NewQueue creates a queue holding at most capacity entries.
func NewQueue(capacity int) *Queue {
	return &Queue{
		present:  make(map[solana.PublicKey]bool),
		capacity: capacity,
	}
}

// Push appends a task unless its account key is already queued. It
// returns false when the entry was a duplicate, and ErrQueueFull when at
// capacity.
func (q *Queue) Push(task ledger.FheTask) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.present[task.Account] {
		return false, nil
	}
	if len(q.tasks) >= q.capacity {
		return false, ErrQueueFull
	}
	q.tasks = append(q.tasks, task)
	q.present[task.Account] = true
	return true, nil
}

// Pop removes and returns the oldest entry.
func (q *Queue) Pop() (ledger.FheTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return ledger.FheTask{}, false
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	delete(q.present, task.Account)
	return task, true
}

// Contains reports whether an account key is queued.
func (q *Queue) Contains(account solana.PublicKey) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.present[account]
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

package agent

import "sync"

// Queue holds the candidate actions of one decision. Only the most recent one
// counts.
type Queue[A comparable] struct {
	mu     sync.Mutex
	latest A
	puts   int
}

func (q *Queue[A]) Put(action A) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.latest = action
	q.puts++
}

// Latest returns the last action put and whether there was any.
func (q *Queue[A]) Latest() (A, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latest, q.puts > 0
}

func (q *Queue[A]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.puts
}

package frontier

import (
	"sync"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// Queue is a FIFO of crawl targets safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []domain.CrawlTarget
	head  int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends targets to the tail.
func (q *Queue) Push(targets ...domain.CrawlTarget) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, targets...)
}

// Pop removes the head target. ok is false when the queue is empty.
func (q *Queue) Pop() (target domain.CrawlTarget, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return domain.CrawlTarget{}, false
	}
	target = q.items[q.head]
	q.items[q.head] = domain.CrawlTarget{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 64 && q.head*2 >= len(q.items) {
		q.items = append([]domain.CrawlTarget(nil), q.items[q.head:]...)
		q.head = 0
	}
	return target, true
}

// Len returns the number of queued targets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

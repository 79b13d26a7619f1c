package dispatch

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// Queue is an unbounded multi-producer, single-consumer FIFO of events.
// Push never blocks.
type Queue struct {
	mu     sync.Mutex
	items  *deque.Deque[Event]
	notify chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items:  deque.New[Event](),
		notify: make(chan struct{}, 1),
	}
}

// Push appends e to the tail.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.items.PushBack(e)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes the head, waiting up to timeout for one to arrive.
// It reports false if the queue stayed empty.
func (q *Queue) Pop(timeout time.Duration) (Event, bool) {
	if e, ok := q.tryPop(); ok {
		return e, true
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	for {
		select {
		case <-q.notify:
			if e, ok := q.tryPop(); ok {
				return e, true
			}
		case <-t.C:
			return q.tryPop()
		}
	}
}

func (q *Queue) tryPop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return Event{}, false
	}
	e := q.items.PopFront()
	if q.items.Len() > 0 {
		// keep the consumer awake for the remainder
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return e, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

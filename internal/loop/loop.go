// Package loop provides the single-threaded event loop that owns view state.
// Background work posts its completion here instead of touching state.
package loop

import (
	"context"
	"sync"
)

// Executor runs posted functions one at a time, in post order.
type Executor interface {
	Post(fn func())
}

// Loop is a channel-backed Executor.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// New creates a loop with room for buffer pending tasks.
func New(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post queues fn. Posting after Stop drops fn.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
	case l.tasks <- fn:
	}
}

// Run executes tasks until ctx is cancelled or Stop is called. Once Run
// returns the loop is stopped and further posts are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Stop ends Run.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Inline runs posted functions immediately on the caller's goroutine.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

// Queue collects posted functions until Drain. Tests use it to control the
// order in which background completions land.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// Len is the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain runs pending tasks, including ones posted while draining.
func (q *Queue) Drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()
		fn()
	}
}

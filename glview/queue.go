// SPDX-License-Identifier: Unlicense OR MIT

package glview

import "sync"

// Queue is the task queue of a rendering thread. Tasks run one at a
// time on the rendering thread, in the order they were posted.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	// wake has room for one pending wakeup.
	wake chan struct{}
}

func newQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Post appends task to the queue. It reports false and drops the task
// if the queue no longer accepts tasks.
func (q *Queue) Post(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, task)
	q.signal()
	return true
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// postLast appends the final task. The tasks before it still run.
func (q *Queue) postLast(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, task)
	q.closed = true
	q.signal()
	return true
}

// close stops the queue, discarding the tasks not yet run.
func (q *Queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.tasks {
		q.tasks[i] = nil
	}
	q.tasks = nil
	q.closed = true
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next blocks until a task is available. It returns false once the
// queue is closed and drained.
func (q *Queue) next() (func(), bool) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			t := q.tasks[0]
			q.tasks[0] = nil
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return t, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}
		<-q.wake
	}
}

// SPDX-License-Identifier: Unlicense OR MIT

// Package gltest provides recording fakes of the EGL and OpenGL ES
// entry points, for testing code that drives them without a GPU.
package gltest

import (
	"fmt"
	"sync"
)

// Call is one recorded entry point invocation.
type Call struct {
	Name string
	Args []any
	// Thread is the OS thread the call was made on, or 0 where thread
	// ids are not available.
	Thread int
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Name, c.Args)
}

// Recorder is a log of calls shared by the fakes of one test.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) record(name string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: args, Thread: threadID()})
}

// Calls returns a copy of the log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Names returns the names of the logged calls, in order.
func (r *Recorder) Names() []string {
	calls := r.Calls()
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return names
}

// Filter returns the calls named name, in order.
func (r *Recorder) Filter(name string) []Call {
	var res []Call
	for _, c := range r.Calls() {
		if c.Name == name {
			res = append(res, c)
		}
	}
	return res
}

// Count returns the number of calls named name.
func (r *Recorder) Count(name string) int {
	return len(r.Filter(name))
}

// Index returns the position of the first call named name, or -1.
func (r *Recorder) Index(name string) int {
	for i, c := range r.Calls() {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// LastIndex returns the position of the last call named name, or -1.
func (r *Recorder) LastIndex(name string) int {
	calls := r.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Name == name {
			return i
		}
	}
	return -1
}

// Threads returns the distinct OS threads calls were made on.
func (r *Recorder) Threads() []int {
	seen := make(map[int]bool)
	var threads []int
	for _, c := range r.Calls() {
		if !seen[c.Thread] {
			seen[c.Thread] = true
			threads = append(threads, c.Thread)
		}
	}
	return threads
}

// Reset clears the log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Fake bundles a fake EGL and GL sharing one Recorder.
type Fake struct {
	*Recorder
	EGL *EGL
	GL  *GL
}

func New() *Fake {
	r := new(Recorder)
	return &Fake{
		Recorder: r,
		EGL:      NewEGL(r),
		GL:       NewGL(r),
	}
}

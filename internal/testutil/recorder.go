package testutil

import (
	"sync"
	"sync/atomic"
)

// ChunkRecorder collects chunks handed to an emit callback. It can be told to
// fail from the nth chunk on, which simulates a client going away.
type ChunkRecorder struct {
	mu     sync.Mutex
	chunks []string
	failAt int
	err    error
}

// NewChunkRecorder creates an empty recorder.
func NewChunkRecorder() *ChunkRecorder {
	return &ChunkRecorder{}
}

// FailAt makes the nth call to Emit (1-based) and every later call return err.
func (r *ChunkRecorder) FailAt(n int, err error) *ChunkRecorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAt = n
	r.err = err
	return r
}

// Emit records chunk. Its signature matches the emit callback of a body.
func (r *ChunkRecorder) Emit(chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAt > 0 && len(r.chunks)+1 >= r.failAt {
		return r.err
	}
	r.chunks = append(r.chunks, string(chunk))
	return nil
}

// Chunks returns a copy of the recorded chunks.
func (r *ChunkRecorder) Chunks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.chunks))
	copy(out, r.chunks)
	return out
}

// Len returns the number of recorded chunks.
func (r *ChunkRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

// CallbackTracker counts invocations of a callback.
type CallbackTracker struct {
	calls atomic.Int64
}

// NewCallbackTracker creates a tracker with zero calls.
func NewCallbackTracker() *CallbackTracker {
	return &CallbackTracker{}
}

// Mark records one call. It is usable directly as a func().
func (c *CallbackTracker) Mark() {
	c.calls.Add(1)
}

// CallCount returns the number of recorded calls.
func (c *CallbackTracker) CallCount() int {
	return int(c.calls.Load())
}

package logging

import (
	"sync"
	"time"
)

// LogEntry is one record kept for the HTTP log stream.
type LogEntry struct {
	Seq        uint64         `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent entries. Each write is stamped with a
// sequence number starting at 1, so a reader that reconnects can ask for
// only what it missed.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    uint64
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{entries: make([]LogEntry, size), next: 1}
}

// Write stores entry, overwriting the oldest one when full, and returns it
// with its sequence number set.
func (rb *RingBuffer) Write(entry LogEntry) LogEntry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	entry.Seq = rb.next
	rb.entries[rb.slot(entry.Seq)] = entry
	rb.next++
	return entry
}

// Since returns the retained entries with a sequence number above seq,
// oldest first.
func (rb *RingBuffer) Since(seq uint64) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	from := max(seq+1, rb.oldest())
	if from >= rb.next {
		return nil
	}
	out := make([]LogEntry, 0, rb.next-from)
	for s := from; s < rb.next; s++ {
		out = append(out, rb.entries[rb.slot(s)])
	}
	return out
}

// ReadAll returns every retained entry, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Since(0)
}

// Count returns the number of retained entries.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return int(rb.next - rb.oldest())
}

func (rb *RingBuffer) slot(seq uint64) int {
	return int(seq % uint64(len(rb.entries)))
}

// oldest is the sequence number of the oldest retained entry. Callers hold mu.
func (rb *RingBuffer) oldest() uint64 {
	size := uint64(len(rb.entries))
	if rb.next-1 <= size {
		return 1
	}
	return rb.next - size
}

package events

import "sync"

// RingBuffer keeps the newest events in emission order. Once full, each Add
// overwrites the oldest slot; Total keeps counting overwritten events.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []Event
	total uint64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{slots: make([]Event, capacity)}
}

func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	rb.slots[rb.total%uint64(len(rb.slots))] = e
	rb.total++
	rb.mu.Unlock()
}

// Last returns up to n of the newest events, oldest first. n <= 0 returns
// everything still held.
func (rb *RingBuffer) Last(n int) []Event {
	return rb.collect(n, nil)
}

// Select returns held events for which keep is true, oldest first.
func (rb *RingBuffer) Select(keep func(Event) bool) []Event {
	return rb.collect(0, keep)
}

func (rb *RingBuffer) Snapshot() []Event {
	return rb.collect(0, nil)
}

// collect walks sequence numbers from newest to oldest so a limit keeps the
// most recent matches, then reverses into emission order.
func (rb *RingBuffer) collect(n int, keep func(Event) bool) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	size := uint64(len(rb.slots))
	oldest := uint64(0)
	if rb.total > size {
		oldest = rb.total - size
	}

	out := []Event{}
	for seq := rb.total; seq > oldest; seq-- {
		e := rb.slots[(seq-1)%size]
		if keep != nil && !keep(e) {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Total returns the number of events ever added, including overwritten ones.
func (rb *RingBuffer) Total() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.total
}

func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	clear(rb.slots)
	rb.total = 0
}

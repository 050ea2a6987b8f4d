package recorder

import (
	"sync"
)

// buffer is a thread-safe ring buffer that doubles its capacity when it
// reaches 70% full, so a slow flush never drops samples.
type buffer[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool

	totalReceived int64
	totalDrained  int64
	resizeCount   int
}

func newBuffer[T any](initialCapacity int) *buffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &buffer[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
	}
}

// push adds an item, growing the buffer if at 70% capacity.
// Returns false if the buffer is closed.
func (b *buffer[T]) push(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := (b.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = item
	b.tail = (b.tail + 1) % b.capacity
	b.count++
	b.totalReceived++
	return true
}

// drain removes and returns up to max items, oldest first.
func (b *buffer[T]) drain(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = b.buf[b.head]
		var zero T
		b.buf[b.head] = zero // Clear reference for GC
		b.head = (b.head + 1) % b.capacity
		b.count--
		b.totalDrained++
	}

	return result
}

// close marks the buffer closed. After closing, push returns false.
func (b *buffer[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// len returns the current number of buffered items.
func (b *buffer[T]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// grow doubles the buffer capacity. Must be called with lock held.
func (b *buffer[T]) grow() {
	newCapacity := b.capacity * 2
	newBuf := make([]T, newCapacity)

	if b.count > 0 {
		if b.head < b.tail {
			copy(newBuf, b.buf[b.head:b.tail])
		} else {
			n := copy(newBuf, b.buf[b.head:])
			copy(newBuf[n:], b.buf[:b.tail])
		}
	}

	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity = newCapacity
	b.resizeCount++
}

package containers

import (
	"errors"
	"sync"
)

var (
	ErrQueueFull  = errors.New("queue is full")
	ErrQueueEmpty = errors.New("queue is empty")
)

// RingQueue is a fixed size FIFO safe for use by one producer and one consumer goroutine.
type RingQueue[T any] struct {
	mu         sync.Mutex
	data       []T
	size       int
	readIndex  int
	writeIndex int
	count      int
}

// Create a new RingQueue. Size must be positive.
func NewRingQueue[T any](size int) *RingQueue[T] {
	if size <= 0 {
		panic("containers: ring queue size must be positive")
	}
	return &RingQueue[T]{
		data: make([]T, size),
		size: size,
	}
}

// Enqueue adds an element to the queue
func (rq *RingQueue[T]) Enqueue(value T) error {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.count == rq.size {
		return ErrQueueFull
	}
	rq.push(value)
	return nil
}

// Overwrite adds an element, dropping the oldest one when the queue is full.
// Returns true if something was dropped.
func (rq *RingQueue[T]) Overwrite(value T) bool {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	dropped := false
	if rq.count == rq.size {
		rq.pop()
		dropped = true
	}
	rq.push(value)
	return dropped
}

// Dequeue removes and returns the front element in the queue
func (rq *RingQueue[T]) Dequeue() (T, error) {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.count == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}
	return rq.pop(), nil
}

// Drain empties the queue and returns its elements oldest first.
func (rq *RingQueue[T]) Drain() []T {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.count == 0 {
		return nil
	}
	out := make([]T, 0, rq.count)
	for rq.count > 0 {
		out = append(out, rq.pop())
	}
	return out
}

// Peek returns the front element without removing it
func (rq *RingQueue[T]) Peek() (T, error) {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.count == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}
	return rq.data[rq.readIndex], nil
}

func (rq *RingQueue[T]) Len() int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return rq.count
}

// IsEmpty checks if the queue is empty
func (rq *RingQueue[T]) IsEmpty() bool {
	return rq.Len() == 0
}

// IsFull checks if the queue is full
func (rq *RingQueue[T]) IsFull() bool {
	return rq.Len() == rq.size
}

func (rq *RingQueue[T]) push(value T) {
	rq.data[rq.writeIndex] = value
	rq.writeIndex = (rq.writeIndex + 1) % rq.size
	rq.count++
}

func (rq *RingQueue[T]) pop() T {
	var zero T
	value := rq.data[rq.readIndex]
	// release the reference for the GC
	rq.data[rq.readIndex] = zero
	rq.readIndex = (rq.readIndex + 1) % rq.size
	rq.count--
	return value
}

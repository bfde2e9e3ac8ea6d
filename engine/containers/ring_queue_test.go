package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	assert.True(t, rq.IsEmpty())

	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	require.NoError(t, rq.Enqueue(3))
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue(4), ErrQueueFull)

	v, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	for _, want := range []int{1, 2, 3} {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	_, err = rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueWrapsAround(t *testing.T) {
	rq := NewRingQueue[string](2)
	require.NoError(t, rq.Enqueue("a"))
	_, _ = rq.Dequeue()
	require.NoError(t, rq.Enqueue("b"))
	require.NoError(t, rq.Enqueue("c"))

	assert.Equal(t, []string{"b", "c"}, rq.Drain())
	assert.Nil(t, rq.Drain())
}

func TestRingQueueOverwriteDropsOldest(t *testing.T) {
	rq := NewRingQueue[int](2)
	assert.False(t, rq.Overwrite(1))
	assert.False(t, rq.Overwrite(2))
	assert.True(t, rq.Overwrite(3))

	assert.Equal(t, []int{2, 3}, rq.Drain())
}

func TestRingQueueZeroSizePanics(t *testing.T) {
	assert.Panics(t, func() { NewRingQueue[int](0) })
}

func TestRingQueueConcurrentProducer(t *testing.T) {
	rq := NewRingQueue[int](8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			rq.Overwrite(i)
		}
	}()

	last := -1
	drain := func() {
		for _, v := range rq.Drain() {
			require.Greater(t, v, last)
			last = v
		}
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			drain()
		}
	}
	drain()
	assert.Equal(t, 999, last)
}

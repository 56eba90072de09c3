package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeQueue_FIFO(t *testing.T) {
	q := newChangeQueue()

	for i := int64(1); i <= 3; i++ {
		require.True(t, q.enqueue(Change{Seq: i}))
	}

	for want := int64(1); want <= 3; want++ {
		c, ok := q.tryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, c.Seq)
	}

	_, ok := q.tryDequeue()
	assert.False(t, ok)
}

func TestChangeQueue_EnqueueAfterCloseRefused(t *testing.T) {
	q := newChangeQueue()
	q.enqueue(Change{Seq: 1})
	q.close()

	assert.False(t, q.enqueue(Change{Seq: 2}))

	// Queued changes remain drainable after close.
	c, ok := q.tryDequeue()
	require.True(t, ok)
	assert.Equal(t, int64(1), c.Seq)
	assert.True(t, q.drained())
}

func TestChangeQueue_WaitWakesOnClose(t *testing.T) {
	q := newChangeQueue()
	q.close()

	select {
	case <-q.wait():
	default:
		t.Fatal("wait channel should fire after close")
	}
}

func TestChangeQueue_CloseIdempotent(t *testing.T) {
	q := newChangeQueue()
	q.close()
	q.close()
	assert.True(t, q.drained())
}

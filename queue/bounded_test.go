package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedPushEvictsOldest(t *testing.T) {
	q := NewBounded[int](3)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	q.Push(4)

	require.Equal(t, 3, q.Len())
	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestBoundedTryPopEmpty(t *testing.T) {
	q := NewBounded[string](2)
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestBoundedWaitUntilAndPopTimesOut(t *testing.T) {
	q := NewBounded[int](4)
	start := time.Now()
	_, ok := q.WaitUntilAndPop(20 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBoundedWaitUntilAndPopReturnsPushed(t *testing.T) {
	q := NewBounded[int](4)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		q.Push(42)
	}()
	v, ok := q.WaitUntilAndPop(500 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 42, v)
	wg.Wait()
}

func TestBoundedWaitAndPopBlocksUntilPush(t *testing.T) {
	q := NewBounded[int](0)
	done := make(chan int, 1)
	go func() {
		done <- q.WaitAndPop()
	}()
	time.Sleep(5 * time.Millisecond)
	q.Push(7)
	select {
	case v := <-done:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("WaitAndPop did not return")
	}
}

func TestBoundedUnboundedNeverEvicts(t *testing.T) {
	q := NewBounded[int](0)
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	assert.Equal(t, 100, q.Len())
}

package pacer

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
)

func TestWait_SequentialSpacing(t *testing.T) {
	interval := 20 * time.Millisecond
	p := New(map[jobsearch.PaceClass]time.Duration{jobsearch.PaceDetail: interval})

	var permitted []time.Time
	for i := 0; i < 5; i++ {
		ts, err := p.Wait(context.Background(), jobsearch.PaceDetail)
		require.NoError(t, err)
		permitted = append(permitted, ts)
	}

	for i := 1; i < len(permitted); i++ {
		assert.GreaterOrEqual(t, permitted[i].Sub(permitted[i-1]), interval)
	}
}

func TestWait_ConcurrentCallersStaySpaced(t *testing.T) {
	interval := 15 * time.Millisecond
	p := New(map[jobsearch.PaceClass]time.Duration{jobsearch.PaceSearch: interval})

	const callers = 8
	var (
		mu        sync.Mutex
		permitted []time.Time
		wg        sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts, err := p.Wait(context.Background(), jobsearch.PaceSearch)
			assert.NoError(t, err)
			assert.False(t, time.Now().Before(ts))
			mu.Lock()
			permitted = append(permitted, ts)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, permitted, callers)
	sort.Slice(permitted, func(i, j int) bool { return permitted[i].Before(permitted[j]) })
	for i := 1; i < len(permitted); i++ {
		assert.GreaterOrEqual(t, permitted[i].Sub(permitted[i-1]), interval)
	}
}

func TestWait_ClassesAreIndependent(t *testing.T) {
	p := New(map[jobsearch.PaceClass]time.Duration{
		jobsearch.PaceDetail: time.Hour,
		jobsearch.PaceSearch: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := p.Wait(ctx, jobsearch.PaceDetail)
	require.NoError(t, err)
	_, err = p.Wait(ctx, jobsearch.PaceSearch)
	require.NoError(t, err)
}

func TestWait_CancelledWhileWaiting(t *testing.T) {
	p := New(map[jobsearch.PaceClass]time.Duration{jobsearch.PaceDetail: time.Hour})

	first, err := p.Wait(context.Background(), jobsearch.PaceDetail)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Wait(ctx, jobsearch.PaceDetail)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.mu.Lock()
	assert.True(t, p.last[jobsearch.PaceDetail].Equal(first))
	p.mu.Unlock()
}

func TestWait_AlreadyCancelled(t *testing.T) {
	p := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Wait(ctx, jobsearch.PaceSearch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWait_UnconfiguredClassDoesNotBlock(t *testing.T) {
	p := New(nil)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := p.Wait(context.Background(), jobsearch.PaceDetail)
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestIntervals_ReturnsCopy(t *testing.T) {
	p := New(map[jobsearch.PaceClass]time.Duration{jobsearch.PaceDetail: time.Second})
	intervals := p.Intervals()
	intervals[jobsearch.PaceDetail] = 0

	assert.Equal(t, time.Second, p.Intervals()[jobsearch.PaceDetail])
}

package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestReporterAssignsStrictlyIncreasingSeq(t *testing.T) {
	var events []Event
	reporter := NewReporter("item-1", func(ev Event) { events = append(events, ev) })

	for i := 0; i < 10; i++ {
		reporter.Report(i)
	}
	reporter.Terminal(KindCompleted, "done", nil)

	require.Len(t, events, 11)
	for i, ev := range events {
		assert.Equal(t, "item-1", ev.ItemID)
		assert.Equal(t, int64(i+1), ev.Seq)
	}

	last := events[len(events)-1]
	assert.Equal(t, KindCompleted, last.Kind)
	assert.True(t, last.Kind.Terminal())
	assert.Equal(t, "done", last.Value)
}

func TestReporterSeqHasNoGapsUnderConcurrency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reports := rapid.IntRange(1, 128).Draw(t, "reports")

		var mu sync.Mutex
		seen := make(map[int64]bool)
		reporter := NewReporter("item", func(ev Event) {
			mu.Lock()
			seen[ev.Seq] = true
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for i := 0; i < reports; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				reporter.Report(nil)
			}()
		}
		wg.Wait()

		if len(seen) != reports {
			t.Fatalf("expected %d distinct sequence numbers, got %d", reports, len(seen))
		}
		for s := int64(1); s <= int64(reports); s++ {
			if !seen[s] {
				t.Fatalf("sequence gap: %d never assigned", s)
			}
		}
	})
}

func TestReporterConcurrentReportsHandOffInSeqOrder(t *testing.T) {
	const goroutines = 8
	const reportsEach = 20

	var mu sync.Mutex
	var observed []int64
	reporter := NewReporter("item", func(ev Event) {
		mu.Lock()
		observed = append(observed, ev.Seq)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < reportsEach; i++ {
				reporter.Report(i)
			}
		}()
	}
	wg.Wait()

	// The sink must observe sequence numbers in assignment order: a higher
	// number delivered before a lower one would reorder the item's stream.
	require.Len(t, observed, goroutines*reportsEach)
	for i, seq := range observed {
		require.Equal(t, int64(i+1), seq)
	}
}

func TestNilReporterIsInert(t *testing.T) {
	var reporter *Reporter
	assert.NotPanics(t, func() {
		reporter.Report("ignored")
		reporter.Terminal(KindCancelled, nil, nil)
	})
}

func TestTrackerUpdate(t *testing.T) {
	tracker := NewTracker(time.Now())

	tracker.Update(Delta{Total: 1, Pending: 1})
	tracker.Update(Delta{Pending: -1, Running: 1})
	tracker.Update(Delta{Running: -1, Completed: 1})

	s := tracker.Snapshot()
	assert.Equal(t, 1, s.TotalItems)
	assert.Equal(t, 0, s.PendingItems)
	assert.Equal(t, 0, s.RunningItems)
	assert.Equal(t, 1, s.CompletedItems)
	assert.True(t, tracker.Settled())
}

func TestTrackerOnChangeSeesConsistentSnapshots(t *testing.T) {
	tracker := NewTracker(time.Now())

	var snapshots []Tracker
	tracker.OnChange(func(s Tracker) { snapshots = append(snapshots, s) })

	tracker.Update(Delta{Total: 1, Pending: 1})
	tracker.Update(Delta{Pending: -1, Running: 1})

	require.Len(t, snapshots, 2)
	assert.Equal(t, 1, snapshots[0].PendingItems)
	assert.Equal(t, 1, snapshots[1].RunningItems)
}

func TestTrackerConcurrentUpdates(t *testing.T) {
	tracker := NewTracker(time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(Delta{Total: 1, Completed: 1})
		}()
	}
	wg.Wait()

	s := tracker.Snapshot()
	assert.Equal(t, 100, s.TotalItems)
	assert.Equal(t, 100, s.CompletedItems)
}

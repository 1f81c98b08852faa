package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStages = []string{"Fetching profiles", "Semantic search and LLM match", "Ranking and scoring", "Preparing insights"}

type progressLog struct {
	mu      sync.Mutex
	reports []Progress
}

func (l *progressLog) record(p Progress) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports = append(l.reports, p)
}

func (l *progressLog) all() []Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Progress(nil), l.reports...)
}

// assertWellFormed checks that at most one stage is active, every stage
// before it is completed and every stage after it is pending.
func assertWellFormed(t *testing.T, statuses []StageStatus) {
	t.Helper()
	active := -1
	for i, st := range statuses {
		if st == StageActive {
			require.Equal(t, -1, active, "more than one active stage: %v", statuses)
			active = i
		}
	}
	if active < 0 {
		return
	}
	for i, st := range statuses {
		switch {
		case i < active:
			assert.Equal(t, StageCompleted, st, "stage %d before active: %v", i, statuses)
		case i > active:
			assert.Equal(t, StagePending, st, "stage %d after active: %v", i, statuses)
		}
	}
}

func TestSequencer_AdvancesMonotonically(t *testing.T) {
	clock := &manualClock{}
	log := &progressLog{}
	seq := NewSequencer(testStages, 2*time.Second, clock, log.record)

	start := seq.Start(1)
	assert.Equal(t, []StageStatus{StageActive, StagePending, StagePending, StagePending}, start.Statuses)
	assert.Equal(t, 0, start.Current)

	for i := 1; i <= len(testStages); i++ {
		clock.Advance(2 * time.Second)
		reports := log.all()
		require.Len(t, reports, i)
		last := reports[i-1]
		assert.Equal(t, uint64(1), last.Run)
		assert.Equal(t, i, last.Current)
		assertWellFormed(t, last.Statuses)
	}

	final := log.all()[len(testStages)-1]
	assert.Equal(t, []StageStatus{StageCompleted, StageCompleted, StageCompleted, StageCompleted}, final.Statuses)

	// Terminal: no further reports
	clock.Advance(10 * time.Second)
	assert.Len(t, log.all(), len(testStages))
	assert.Equal(t, 0, clock.Active())
}

func TestSequencer_VersionsIncrease(t *testing.T) {
	clock := &manualClock{}
	log := &progressLog{}
	seq := NewSequencer(testStages, time.Second, clock, log.record)

	start := seq.Start(1)
	clock.Advance(3 * time.Second)

	prev := start.Version
	for _, p := range log.all() {
		assert.Greater(t, p.Version, prev)
		prev = p.Version
	}
}

func TestSequencer_DoesNotAdvanceBeforeDwell(t *testing.T) {
	clock := &manualClock{}
	log := &progressLog{}
	seq := NewSequencer(testStages, 2*time.Second, clock, log.record)

	seq.Start(1)
	clock.Advance(1999 * time.Millisecond)
	assert.Empty(t, log.all())

	clock.Advance(time.Millisecond)
	assert.Len(t, log.all(), 1)
}

func TestSequencer_RestartTearsDownPreviousRun(t *testing.T) {
	clock := &manualClock{}
	log := &progressLog{}
	seq := NewSequencer(testStages, 2*time.Second, clock, log.record)

	seq.Start(1)
	clock.Advance(2 * time.Second)
	clock.Advance(time.Second) // run 1 is halfway through stage 1

	restart := seq.Start(2)
	assert.Equal(t, []StageStatus{StageActive, StagePending, StagePending, StagePending}, restart.Statuses)
	assert.Equal(t, 1, clock.Active(), "old timer must be stopped")

	// Run 1's stage 1 would have ended here; nothing may happen.
	clock.Advance(time.Second)
	reports := log.all()
	require.Len(t, reports, 1)
	assert.Equal(t, uint64(1), reports[0].Run)

	clock.Advance(time.Second)
	reports = log.all()
	require.Len(t, reports, 2)
	assert.Equal(t, uint64(2), reports[1].Run)
	assert.Equal(t, 1, reports[1].Current)
}

func TestSequencer_CompleteSnapsAllStages(t *testing.T) {
	clock := &manualClock{}
	log := &progressLog{}
	seq := NewSequencer(testStages, 2*time.Second, clock, log.record)

	seq.Start(7)
	clock.Advance(2 * time.Second)

	p, ok := seq.Complete(7)
	require.True(t, ok)
	assert.Equal(t, len(testStages), p.Current)
	for _, st := range p.Statuses {
		assert.Equal(t, StageCompleted, st)
	}
	assert.Equal(t, 0, clock.Active())

	clock.Advance(time.Minute)
	assert.Len(t, log.all(), 1)
}

func TestSequencer_AbortResetsToPending(t *testing.T) {
	clock := &manualClock{}
	seq := NewSequencer(testStages, 2*time.Second, clock, nil)

	seq.Start(3)
	clock.Advance(4 * time.Second)

	p, ok := seq.Abort(3)
	require.True(t, ok)
	assert.Equal(t, 0, p.Current)
	for _, st := range p.Statuses {
		assert.Equal(t, StagePending, st)
	}
	assert.Equal(t, 0, clock.Active())
}

func TestSequencer_IgnoresOtherRuns(t *testing.T) {
	clock := &manualClock{}
	seq := NewSequencer(testStages, 2*time.Second, clock, nil)

	seq.Start(2)
	_, ok := seq.Complete(1)
	assert.False(t, ok)
	_, ok = seq.Abort(1)
	assert.False(t, ok)

	p := seq.Progress()
	assert.Equal(t, uint64(2), p.Run)
	assert.Equal(t, StageActive, p.Statuses[0])
	assert.Equal(t, 1, clock.Active())
}

func TestSequencer_NoStages(t *testing.T) {
	clock := &manualClock{}
	seq := NewSequencer(nil, time.Second, clock, nil)

	p := seq.Start(1)
	assert.Empty(t, p.Statuses)
	assert.Equal(t, 0, clock.Active())
}

func TestSequencer_RealClock(t *testing.T) {
	done := make(chan Progress, len(testStages))
	seq := NewSequencer(testStages, time.Millisecond, nil, func(p Progress) { done <- p })

	seq.Start(1)
	var last Progress
	for range testStages {
		select {
		case last = <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("sequencer did not advance")
		}
	}
	assert.Equal(t, len(testStages), last.Current)
}

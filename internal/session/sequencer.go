package session

import (
	"sync"
	"time"
)

// Progress is the stage status reported by a Sequencer for one run.
type Progress struct {
	// Run identifies the search the progression belongs to.
	Run uint64
	// Version increases with every report across all runs.
	Version uint64
	// Current is the index of the active stage, len(Statuses) once all are
	// completed and 0 when idle.
	Current  int
	Statuses []StageStatus
}

// Sequencer advances a fixed list of stages on a fixed cadence while a
// search is in flight. The cadence is independent of the request; the
// owner snaps it to completed with Complete or clears it with Abort.
//
// Start, Complete and Abort return their report to the caller and never
// call back, so they may be called while the caller holds its own lock.
// Cadence advances are reported through onChange, outside the sequencer's
// lock and from a timer goroutine. Reports can arrive out of order;
// consumers compare Version.
type Sequencer struct {
	labels   []string
	dwell    time.Duration
	clock    Clock
	onChange func(Progress)

	mu       sync.Mutex
	run      uint64
	version  uint64
	current  int
	statuses []StageStatus
	timer    Timer
}

// NewSequencer creates an idle sequencer. A nil clock uses RealClock.
func NewSequencer(labels []string, dwell time.Duration, clock Clock, onChange func(Progress)) *Sequencer {
	if clock == nil {
		clock = RealClock()
	}
	return &Sequencer{
		labels:   append([]string(nil), labels...),
		dwell:    dwell,
		clock:    clock,
		onChange: onChange,
		statuses: uniformStatuses(len(labels), StagePending),
	}
}

// Labels returns the stage labels in order.
func (s *Sequencer) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Start begins a new run at stage 0, tearing down any previous run, and
// returns the initial report.
func (s *Sequencer) Start(run uint64) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.run = run
	s.current = 0
	s.statuses = uniformStatuses(len(s.labels), StagePending)
	if len(s.labels) > 0 {
		s.statuses[0] = StageActive
		s.scheduleLocked(run, 0)
	}
	return s.reportLocked()
}

// Complete snaps every stage of run to completed and stops the cadence.
// It reports false for a run other than the current one.
func (s *Sequencer) Complete(run uint64) (Progress, bool) {
	return s.finish(run, StageCompleted, len(s.labels))
}

// Abort resets every stage of run to pending and stops the cadence.
// It reports false for a run other than the current one.
func (s *Sequencer) Abort(run uint64) (Progress, bool) {
	return s.finish(run, StagePending, 0)
}

// Progress returns the current report without advancing the version.
func (s *Sequencer) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{
		Run:      s.run,
		Version:  s.version,
		Current:  s.current,
		Statuses: append([]StageStatus(nil), s.statuses...),
	}
}

func (s *Sequencer) finish(run uint64, status StageStatus, current int) (Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run {
		return Progress{}, false
	}
	s.stopTimerLocked()
	s.current = current
	s.statuses = uniformStatuses(len(s.labels), status)
	return s.reportLocked(), true
}

func (s *Sequencer) advance(run uint64, index int) {
	s.mu.Lock()
	if run != s.run || index != s.current || index >= len(s.statuses) || s.statuses[index] != StageActive {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.statuses[index] = StageCompleted
	s.current = index + 1
	if s.current < len(s.statuses) {
		s.statuses[s.current] = StageActive
		s.scheduleLocked(run, s.current)
	}
	p := s.reportLocked()
	s.mu.Unlock()

	s.emit(p)
}

func (s *Sequencer) scheduleLocked(run uint64, index int) {
	s.timer = s.clock.AfterFunc(s.dwell, func() { s.advance(run, index) })
}

func (s *Sequencer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Sequencer) reportLocked() Progress {
	s.version++
	return Progress{
		Run:      s.run,
		Version:  s.version,
		Current:  s.current,
		Statuses: append([]StageStatus(nil), s.statuses...),
	}
}

func (s *Sequencer) emit(p Progress) {
	if s.onChange != nil {
		s.onChange(p)
	}
}

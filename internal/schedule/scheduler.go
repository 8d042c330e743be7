package schedule

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Rehan-24/fpl-digest/internal/config"
)

// JobState tracks where a job sits in its lifecycle.
type JobState int32

const (
	// StateIdle means the job has no pending timer.
	StateIdle JobState = iota
	// StateArmed means a timer is set for the next occurrence.
	StateArmed
	// StateFiring means the callback is currently running.
	StateFiring
)

func (s JobState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFiring:
		return "firing"
	default:
		return "unknown"
	}
}

// nextFunc computes the next occurrence strictly after now. ok is false when
// the job has no further occurrences.
type nextFunc func(now time.Time) (next time.Time, ok bool)

// Job is a scheduled callback. Recurring jobs recompute their next occurrence
// from the current wall clock after every firing, so a DST transition between
// firings shifts the next run with local time instead of drifting by a fixed
// interval.
type Job struct {
	label string
	fn    func()
	next  nextFunc

	mu        sync.Mutex
	state     JobState
	timer     Timer
	nextAt    time.Time
	cancelled bool
}

// Label returns the job's identifier.
func (j *Job) Label() string { return j.label }

// State returns the job's current lifecycle state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// NextAt returns the instant the job is armed for, zero when idle.
func (j *Job) NextAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextAt
}

// Cancel stops the job's pending timer and prevents re-arming. A callback
// already firing runs to completion.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelled = true
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	j.state = StateIdle
	j.nextAt = time.Time{}
}

// Scheduler arms jobs against a Clock and isolates their failures.
type Scheduler struct {
	clock  Clock
	logger *slog.Logger

	mu   sync.Mutex
	jobs []*Job
}

// New creates a scheduler on the given clock.
func New(clock Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		logger: logger.With("component", "scheduler"),
	}
}

// At schedules a one-shot firing at t. An instant already in the past is
// dropped with a log line rather than fired immediately.
func (s *Scheduler) At(t time.Time, label string, fn func()) *Job {
	now := s.clock.Now()
	if !t.After(now) {
		s.logger.Warn("one-shot in the past, skipping", "label", label, "at", t)
		return nil
	}
	fired := false
	job := &Job{label: label, fn: fn}
	job.next = func(time.Time) (time.Time, bool) {
		if fired {
			return time.Time{}, false
		}
		fired = true
		return t, true
	}
	s.add(job)
	return job
}

// Daily schedules fn every day at hour:minute in the named zone.
func (s *Scheduler) Daily(hour, minute int, tz, label string, fn func()) (*Job, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	job := &Job{label: label, fn: fn}
	job.next = func(now time.Time) (time.Time, bool) {
		return nextDaily(now, loc, hour, minute), true
	}
	s.add(job)
	return job, nil
}

// Weekly schedules fn every week on the given weekday at hour:minute in the
// named zone.
func (s *Scheduler) Weekly(day time.Weekday, hour, minute int, tz, label string, fn func()) (*Job, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	job := &Job{label: label, fn: fn}
	job.next = func(now time.Time) (time.Time, bool) {
		return nextWeekly(now, loc, day, hour, minute), true
	}
	s.add(job)
	return job, nil
}

// AtLocalTimes schedules fn at each of the given local times every day,
// always arming for the soonest upcoming slot.
func (s *Scheduler) AtLocalTimes(times []config.TimeOfDay, tz, label string, fn func()) (*Job, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("no times given for %q", label)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	slots := make([]config.TimeOfDay, len(times))
	copy(slots, times)
	job := &Job{label: label, fn: fn}
	job.next = func(now time.Time) (time.Time, bool) {
		return nextOfDay(now, loc, slots), true
	}
	s.add(job)
	return job, nil
}

// Jobs returns the scheduler's live jobs.
func (s *Scheduler) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// CancelAll stops every pending timer. Callbacks already firing run to
// completion but do not re-arm.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.jobs = nil
	s.mu.Unlock()

	for _, j := range jobs {
		j.Cancel()
	}
	s.logger.Info("cancelled all jobs", "count", len(jobs))
}

func (s *Scheduler) add(job *Job) {
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	s.arm(job)
}

// arm computes the job's next occurrence from the current clock and sets a
// timer for it.
func (s *Scheduler) arm(job *Job) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.cancelled {
		return
	}

	now := s.clock.Now()
	next, ok := job.next(now)
	if !ok {
		job.state = StateIdle
		job.nextAt = time.Time{}
		s.remove(job)
		return
	}

	job.state = StateArmed
	job.nextAt = next
	job.timer = s.clock.AfterFunc(next.Sub(now), func() { s.fire(job) })
	s.logger.Debug("job armed", "label", job.label, "next", next)
}

// fire runs the job's callback behind a panic boundary, then re-arms it from
// a fresh clock reading.
func (s *Scheduler) fire(job *Job) {
	job.mu.Lock()
	if job.cancelled {
		job.mu.Unlock()
		return
	}
	job.state = StateFiring
	job.timer = nil
	job.mu.Unlock()

	s.runIsolated(job)
	s.arm(job)
}

func (s *Scheduler) runIsolated(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "label", job.label, "panic", r)
		}
	}()
	start := s.clock.Now()
	job.fn()
	s.logger.Info("job fired", "label", job.label, "duration", s.clock.Now().Sub(start))
}

func (s *Scheduler) remove(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, j := range s.jobs {
		if j == job {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return
		}
	}
}

// nextDaily returns the next hour:minute in loc strictly after now. Building
// the candidate with time.Date each call keeps the result aligned with local
// wall time across DST transitions.
func nextDaily(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	cand := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !cand.After(now) {
		next := local.AddDate(0, 0, 1)
		cand = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, loc)
	}
	return cand
}

// nextWeekly returns the next occurrence of day at hour:minute in loc
// strictly after now.
func nextWeekly(now time.Time, loc *time.Location, day time.Weekday, hour, minute int) time.Time {
	local := now.In(loc)
	ahead := (int(day) - int(local.Weekday()) + 7) % 7
	target := local.AddDate(0, 0, ahead)
	cand := time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, loc)
	if !cand.After(now) {
		target = target.AddDate(0, 0, 7)
		cand = time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, loc)
	}
	return cand
}

// nextOfDay returns the soonest of the given local times strictly after now,
// rolling to the first slot tomorrow when today's are exhausted.
func nextOfDay(now time.Time, loc *time.Location, slots []config.TimeOfDay) time.Time {
	local := now.In(loc)
	var best time.Time
	for _, slot := range slots {
		cand := time.Date(local.Year(), local.Month(), local.Day(), slot.Hour, slot.Minute, 0, 0, loc)
		if !cand.After(now) {
			next := local.AddDate(0, 0, 1)
			cand = time.Date(next.Year(), next.Month(), next.Day(), slot.Hour, slot.Minute, 0, 0, loc)
		}
		if best.IsZero() || cand.Before(best) {
			best = cand
		}
	}
	return best
}

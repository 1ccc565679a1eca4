// Package common provides shared utilities including timing functionality.
package common

import (
	"fmt"
	"strings"
	"time"
)

// Timer measures one named span of work.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer creates a new timer with the given name.
func NewNamedTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// String returns a formatted string representation of the timer.
func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return fmt.Sprintf("%v", t.duration)
}

// StageTimings records consecutive named stages of a single run.
// It is not safe for concurrent use; each run owns its own value.
type StageTimings struct {
	timers []*Timer
}

// Start begins timing the named stage and returns its timer; call Stop on it
// when the stage ends.
func (s *StageTimings) Start(name string) *Timer {
	t := NewNamedTimer(name)
	s.timers = append(s.timers, t)
	return t
}

// Durations returns the stopped stage durations keyed by name.
func (s *StageTimings) Durations() map[string]time.Duration {
	out := make(map[string]time.Duration, len(s.timers))
	for _, t := range s.timers {
		out[t.name] += t.duration
	}
	return out
}

// Total sums all stage durations.
func (s *StageTimings) Total() time.Duration {
	var total time.Duration
	for _, t := range s.timers {
		total += t.duration
	}
	return total
}

// String renders the stages in order as "name=duration" pairs.
func (s *StageTimings) String() string {
	parts := make([]string, 0, len(s.timers))
	for _, t := range s.timers {
		parts = append(parts, fmt.Sprintf("%s=%v", t.name, t.duration.Round(time.Microsecond)))
	}
	return strings.Join(parts, " ")
}

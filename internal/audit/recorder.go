// Package audit provides the append-only per-task event log and screenshot
// archive for publish runs. Events are structured so a failed task's trail
// shows everything that was actually attempted: every retry, every switch,
// every capture.
package audit

import (
	"fmt"
	"sync"
	"time"

	"autopress/internal/logging"
)

// EventType defines the type of audit event.
type EventType string

const (
	EventPhaseSuccess    EventType = "phase_success"
	EventPhaseFailure    EventType = "phase_failure"
	EventProviderSwitch  EventType = "provider_switch"
	EventScreenshotSaved EventType = "screenshot_saved"
)

// Event is one append-only audit record for a task.
type Event struct {
	Timestamp time.Time `json:"ts"`
	TaskID    string    `json:"task"`
	Type      EventType `json:"event"`
	Phase     string    `json:"phase,omitempty"`
	Driver    string    `json:"driver,omitempty"`
	Attempt   int       `json:"attempt,omitempty"` // retry count at record time
	Error     string    `json:"error,omitempty"`
	Path      string    `json:"path,omitempty"`  // stable screenshot path
	Label     string    `json:"label,omitempty"` // screenshot step label
}

// Summary is derived from a task's event list.
type Summary struct {
	SuccessfulPhases int `json:"successful_phases"`
	Failures         int `json:"failures"`
	Screenshots      int `json:"screenshots"`
	Switches         int `json:"switches"`
}

// Trail is the full ordered event list plus its summary.
type Trail struct {
	TaskID  string  `json:"task"`
	Events  []Event `json:"events"`
	Summary Summary `json:"summary"`
}

// Recorder collects events per task and stores screenshots through the
// configured byte sink. Safe for concurrent use across tasks; events for one
// task arrive sequentially from its orchestrator run.
type Recorder struct {
	mu      sync.RWMutex
	events  map[string][]Event
	order   []string // task IDs in first-seen order, for listing
	shots   ScreenshotStore
	journal *Journal // optional
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithScreenshotStore sets the screenshot byte sink.
func WithScreenshotStore(s ScreenshotStore) Option {
	return func(r *Recorder) { r.shots = s }
}

// WithJournal mirrors events into a persistent journal.
func WithJournal(j *Journal) Option {
	return func(r *Recorder) { r.journal = j }
}

// NewRecorder creates a recorder. Without options it keeps events in memory
// and discards screenshots.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		events: make(map[string][]Event),
		shots:  NopStore{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) append(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	r.mu.Lock()
	if _, seen := r.events[ev.TaskID]; !seen {
		r.order = append(r.order, ev.TaskID)
	}
	r.events[ev.TaskID] = append(r.events[ev.TaskID], ev)
	r.mu.Unlock()

	if r.journal != nil {
		if err := r.journal.Append(ev); err != nil {
			logging.AuditError("journal append failed: %v", err)
		}
	}
}

// PhaseSuccess records a successful phase attempt with its retry count.
func (r *Recorder) PhaseSuccess(taskID, phase, driverKind string, attempt int) {
	logging.AuditDebug("[%s] %s succeeded on %s (attempt %d)", taskID, phase, driverKind, attempt)
	r.append(Event{TaskID: taskID, Type: EventPhaseSuccess, Phase: phase, Driver: driverKind, Attempt: attempt})
}

// PhaseFailure records a failed phase attempt with retry count and error text.
func (r *Recorder) PhaseFailure(taskID, phase, driverKind string, attempt int, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	logging.AuditDebug("[%s] %s failed on %s (attempt %d): %s", taskID, phase, driverKind, attempt, msg)
	r.append(Event{TaskID: taskID, Type: EventPhaseFailure, Phase: phase, Driver: driverKind, Attempt: attempt, Error: msg})
}

// ProviderSwitch records a fallback takeover during a phase.
func (r *Recorder) ProviderSwitch(taskID, phase, fromDriver, toDriver string) {
	logging.Audit("[%s] provider switch during %s: %s -> %s", taskID, phase, fromDriver, toDriver)
	r.append(Event{
		TaskID: taskID, Type: EventProviderSwitch, Phase: phase,
		Driver: toDriver, Error: fmt.Sprintf("switched from %s", fromDriver),
	})
}

// Screenshot stores a capture under task+label and records its stable path.
// Storage failures are recorded in the trail rather than failing the phase;
// a store that deliberately discards (empty path, nil error) leaves no
// trace.
func (r *Recorder) Screenshot(taskID, phase, label string, png []byte) string {
	path, err := r.shots.Save(taskID, label, png)
	if err != nil {
		logging.AuditError("[%s] screenshot %s not stored: %v", taskID, label, err)
		r.append(Event{TaskID: taskID, Type: EventScreenshotSaved, Phase: phase, Label: label, Error: err.Error()})
		return ""
	}
	if path == "" {
		return ""
	}
	r.append(Event{TaskID: taskID, Type: EventScreenshotSaved, Phase: phase, Label: label, Path: path})
	return path
}

// Trail returns the full ordered event list plus summary for a task.
// An unknown task yields an empty trail, not an error.
func (r *Recorder) Trail(taskID string) Trail {
	r.mu.RLock()
	events := r.events[taskID]
	out := make([]Event, len(events))
	copy(out, events)
	r.mu.RUnlock()
	return Trail{TaskID: taskID, Events: out, Summary: Summarize(out)}
}

// Tasks lists known task IDs in first-seen order.
func (r *Recorder) Tasks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Summarize derives the summary counts from an event list.
func Summarize(events []Event) Summary {
	var s Summary
	for _, ev := range events {
		switch ev.Type {
		case EventPhaseSuccess:
			s.SuccessfulPhases++
		case EventPhaseFailure:
			s.Failures++
		case EventScreenshotSaved:
			if ev.Path != "" {
				s.Screenshots++
			}
		case EventProviderSwitch:
			s.Switches++
		}
	}
	return s
}

// Package event defines the observer through which the sync engine reports
// every structural decision it makes. Library packages never print; a host
// application decides what to show by supplying an Observer.
package event

import (
	"fmt"
	"sync"
)

// Kind identifies what happened.
type Kind string

const (
	NodeAdded           Kind = "node-added"
	NodeRemoved         Kind = "node-removed"
	BranchReplaced      Kind = "branch-replaced"
	ScalarDrift         Kind = "scalar-drift"
	PathConflict        Kind = "path-conflict"
	PathAborted         Kind = "path-aborted"
	PlaceholderMismatch Kind = "placeholder-mismatch"
	ValueRestored       Kind = "value-restored"
	BatchMismatch       Kind = "batch-mismatch"
	BatchFailed         Kind = "batch-failed"
	TreeFailed          Kind = "tree-failed"
	TargetUnreadable    Kind = "target-unreadable"
	FileCreated         Kind = "file-created"
	FileWritten         Kind = "file-written"
	FileFailed          Kind = "file-failed"
)

// Level is the severity of an event.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Event is a single report. File and Lang are filled in by the workflow when
// the event belongs to a particular file.
type Event struct {
	Kind    Kind
	Level   Level
	Lang    string
	File    string
	Path    string
	Message string
}

func (e Event) String() string {
	s := string(e.Kind)
	if e.Lang != "" || e.File != "" {
		s += fmt.Sprintf(" [%s %s]", e.Lang, e.File)
	}
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// Observer receives events. Implementations used with parallel syncs must be
// safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// Func adapts a function to the Observer interface.
type Func func(Event)

// Observe calls f(e).
func (f Func) Observe(e Event) { f(e) }

// Discard drops every event.
var Discard Observer = Func(func(Event) {})

// Emit sends e to o. A nil observer discards the event.
func Emit(o Observer, e Event) {
	if o != nil {
		o.Observe(e)
	}
}

// WithFile returns an observer that stamps lang and file on every event
// before passing it to o.
func WithFile(o Observer, lang, file string) Observer {
	return Func(func(e Event) {
		e.Lang = lang
		e.File = file
		Emit(o, e)
	})
}

// Recorder collects events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe records e.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

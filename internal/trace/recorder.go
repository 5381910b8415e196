package trace

import (
	"sort"
	"sync"
)

// Sink receives the events of menu actions as they happen.
type Sink interface {
	Record(event Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Record(e Event) { f(e) }

// Discard drops every event. Actions built without a sink use it.
var Discard Sink = SinkFunc(func(Event) {})

// SafeRecord hands event to s. A nil sink is skipped and a panicking sink
// cannot take the action down with it.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() { _ = recover() }()
	s.Record(event)
}

// IsTerminal reports whether kind ends an invocation.
func IsTerminal(kind EventKind) bool {
	return kind == EventViewerLaunched || isFailure(kind)
}

// Recorder collects a session's events in arrival order, numbering them
// from 1, and remembers the latest event of each action.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	latest map[string]int
}

func NewRecorder() *Recorder { return &Recorder{latest: make(map[string]int)} }

func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		r.latest = make(map[string]int)
	}
	event.Seq = len(r.events) + 1
	r.latest[event.Action] = len(r.events)
	r.events = append(r.events, event)
}

// Snapshot copies the events recorded so far.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent event recorded for action.
func (r *Recorder) Last(action string) (Event, bool) {
	if r == nil {
		return Event{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.latest[action]
	if !ok {
		return Event{}, false
	}
	return r.events[i], true
}

// Unfinished lists, by ID, the actions whose latest event is not terminal:
// invocations that stopped before either opening a file or failing.
func (r *Recorder) Unfinished() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for action, i := range r.latest {
		if !IsTerminal(r.events[i].Kind) {
			out = append(out, action)
		}
	}
	sort.Strings(out)
	return out
}

// Trace returns a canonical ActionTrace stamped with build. It shares no
// memory with the recorder.
func (r *Recorder) Trace(build string) ActionTrace {
	tr := ActionTrace{Build: build, Events: r.Snapshot()}
	tr.Canonicalize()
	return tr
}

// Package trace records what each host action decided: which target it
// resolved, whether a viewer was started, and why not.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ActionTrace is the canonical record of the actions invoked during one host
// session.
//
// Events carry no timestamps, pids or error strings; Reason is one of the
// stable error kind codes. Two sessions that made the same decisions against
// the same filesystem state encode to the same bytes.
type ActionTrace struct {
	Build  string
	Events []Event
}

// EventKind is the stable discriminator for Event. The string values are
// part of the encoded form; do not rename.
type EventKind string

const (
	EventActionInvoked  EventKind = "ActionInvoked"
	EventTargetResolved EventKind = "TargetResolved"
	EventResolveFailed  EventKind = "ResolveFailed"
	EventViewerLaunched EventKind = "ViewerLaunched"
	EventLaunchFailed   EventKind = "LaunchFailed"
)

// Event is one decision taken by an action.
type Event struct {
	// Seq is assigned by the Recorder in recording order, starting at 1.
	Seq    int
	Kind   EventKind
	Action string
	Mode   string
	Path   string
	// Reason is an error kind code such as "NotFound"; empty on success.
	Reason string
}

// Validate checks that every event is well formed.
func (t *ActionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	for i := range t.Events {
		e := t.Events[i]
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.Action == "" {
			return fmt.Errorf("events[%d].action is required for kind %q", i, e.Kind)
		}
		if isFailure(e.Kind) && e.Reason == "" {
			return fmt.Errorf("events[%d].reason is required for kind %q", i, e.Kind)
		}
	}
	return nil
}

func isFailure(kind EventKind) bool {
	return kind == EventResolveFailed || kind == EventLaunchFailed
}

// Canonicalize sorts events by (seq, kindOrder, action). Recording order is
// the primary key because an action's events only make sense in sequence.
func (t *ActionTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a := t.Events[i]
		b := t.Events[j]
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		return a.Action < b.Action
	})
}

func kindOrder(k EventKind) int {
	switch k {
	case EventActionInvoked:
		return 10
	case EventTargetResolved:
		return 20
	case EventResolveFailed:
		return 30
	case EventViewerLaunched:
		return 40
	case EventLaunchFailed:
		return 50
	default:
		return 1000
	}
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
// It canonicalizes a copy to avoid mutating the caller's slice.
func (t ActionTrace) CanonicalJSON() ([]byte, error) {
	c := ActionTrace{Build: t.Build, Events: make([]Event, len(t.Events))}
	copy(c.Events, t.Events)
	c.Canonicalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&c)
}

// MarshalJSON fixes field order.
func (t ActionTrace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"build":`)
	bb, _ := json.Marshal(t.Build)
	buf.Write(bb)

	buf.WriteString(`,"events":[`)
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"seq":%d`, e.Seq)
	writeField(&buf, "kind", string(e.Kind))
	writeField(&buf, "action", e.Action)
	writeField(&buf, "mode", e.Mode)
	writeField(&buf, "path", e.Path)
	writeField(&buf, "reason", e.Reason)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	buf.WriteString(`,"` + name + `":`)
	vb, _ := json.Marshal(value)
	buf.Write(vb)
}

// Package trace records the logical steps of a build session as a
// deterministic, timestamp-free event log.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ExecutionTrace is the canonical record of one build session.
//
// It holds logical facts only: no timestamps, no session ids, no absolute
// temporary paths. Once Canonicalize has run, two sessions over the same
// inputs with the same outcomes encode to the same bytes.
//
// The trace is observational. Recording must never change a build result.
type ExecutionTrace struct {
	TemplatePath string
	Events       []TraceEvent
}

// TraceEventKind discriminates TraceEvent. The string values are part of the
// canonical bytes; do not rename.
type TraceEventKind string

const (
	EventTargetDiscovered TraceEventKind = "TargetDiscovered"
	EventTargetLocalized  TraceEventKind = "TargetLocalized"
	EventKeyUnresolved    TraceEventKind = "KeyUnresolved"
	EventStageVerified    TraceEventKind = "StageVerified"
	EventBuildSucceeded   TraceEventKind = "BuildSucceeded"
	EventBuildFailed      TraceEventKind = "BuildFailed"
	EventCleanupFailed    TraceEventKind = "CleanupFailed"
)

// TraceEvent is a single logical step.
//
// Target is the target display name ("default" for the neutral target).
// Stage is set for toolchain events. Detail carries the kind-specific
// payload: the resource key, the artifact base name, the failure class or
// the file that could not be removed.
type TraceEvent struct {
	Kind   TraceEventKind
	Target string
	Stage  string
	Detail string
}

// Validate checks basic invariants and returns a descriptive error.
func (t *ExecutionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.TemplatePath == "" {
		return errors.New("templatePath is required")
	}
	for i, e := range t.Events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single event.
func (e TraceEvent) Validate() error {
	if e.Kind == "" {
		return errors.New("kind is required")
	}
	if kindOrder(e.Kind) == unknownKindOrder {
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Target == "" {
		return fmt.Errorf("target is required for kind %q", e.Kind)
	}
	if e.Kind == EventStageVerified && e.Stage == "" {
		return fmt.Errorf("stage is required for kind %q", e.Kind)
	}
	return nil
}

// Canonicalize sorts events by (target, kind order, stage order, detail).
// Kind order follows the pipeline, so a target's events read top to bottom
// in the order they happen.
func (t *ExecutionTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a := t.Events[i]
		b := t.Events[j]

		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if stageOrder(a.Stage) != stageOrder(b.Stage) {
			return stageOrder(a.Stage) < stageOrder(b.Stage)
		}
		return a.Detail < b.Detail
	})
}

const unknownKindOrder = 1000

func kindOrder(k TraceEventKind) int {
	switch k {
	case EventTargetDiscovered:
		return 10
	case EventTargetLocalized:
		return 20
	case EventKeyUnresolved:
		return 30
	case EventStageVerified:
		return 40
	case EventBuildSucceeded:
		return 50
	case EventBuildFailed:
		return 60
	case EventCleanupFailed:
		return 70
	default:
		return unknownKindOrder
	}
}

func stageOrder(s string) int {
	switch s {
	case "":
		return 0
	case "script":
		return 10
	case "markup":
		return 20
	case "resource":
		return 30
	case "link":
		return 40
	default:
		return 1000
	}
}

// CanonicalJSON returns the canonical JSON encoding of the trace without
// mutating the receiver's slice.
func (t ExecutionTrace) CanonicalJSON() ([]byte, error) {
	c := ExecutionTrace{TemplatePath: t.TemplatePath}
	c.Events = make([]TraceEvent, len(t.Events))
	copy(c.Events, t.Events)
	c.Canonicalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&c)
}

// Hash returns the sha256 hex digest of the canonical JSON bytes.
func (t ExecutionTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order. It does not sort.
func (t ExecutionTrace) MarshalJSON() ([]byte, error) {
	if t.TemplatePath == "" {
		return nil, errors.New("templatePath is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"templatePath":`)
	tp, _ := json.Marshal(t.TemplatePath)
	buf.Write(tp)

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
func (e TraceEvent) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField(&buf, "kind", string(e.Kind), true)
	writeField(&buf, "target", e.Target, false)
	writeField(&buf, "stage", e.Stage, false)
	writeField(&buf, "detail", e.Detail, false)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, name, value string, first bool) {
	if value == "" && !first {
		return
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteByte('"')
	buf.WriteString(name)
	buf.WriteString(`":`)
	b, _ := json.Marshal(value)
	buf.Write(b)
}

package trace

import "sync"

// Sink receives build events. Record must not panic and cannot fail; callers
// assume it may be a no-op.
type Sink interface {
	Record(event TraceEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(TraceEvent) {}

// SafeRecord hands event to s. A panicking sink loses the event, not the build.
func SafeRecord(s Sink, event TraceEvent) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder collects the events of one invocation in memory. Events failing
// TraceEvent.Validate are counted and dropped, so Trace always yields a
// writable trace. Safe for concurrent use; order is fixed by Canonicalize.
type Recorder struct {
	mu       sync.Mutex
	events   []TraceEvent
	rejected int
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(event TraceEvent) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.Validate() != nil {
		r.rejected++
		return
	}
	r.events = append(r.events, event)
}

// Rejected returns how many events failed validation and were not kept.
func (r *Recorder) Rejected() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rejected
}

// Snapshot returns a copy of the events recorded so far.
func (r *Recorder) Snapshot() []TraceEvent {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Trace returns the canonical trace of everything recorded so far for
// templatePath. Events are copied.
func (r *Recorder) Trace(templatePath string) ExecutionTrace {
	tr := ExecutionTrace{TemplatePath: templatePath}
	tr.Events = r.Snapshot()
	tr.Canonicalize()
	return tr
}

// Reset drops every recorded event and the rejected count.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.rejected = 0
	r.mu.Unlock()
}

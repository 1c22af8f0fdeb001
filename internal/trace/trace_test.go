package trace

import (
	"bytes"
	"testing"
)

func TestCanonicalTraceStability_ByteForByte(t *testing.T) {
	trace1 := ExecutionTrace{
		TemplatePath: "Ribbon.xml",
		Events: []TraceEvent{
			{Kind: EventBuildSucceeded, Target: "de"},
			{Kind: EventTargetDiscovered, Target: "default"},
			{Kind: EventKeyUnresolved, Target: "de", Detail: "Title"},
		},
	}

	trace2 := ExecutionTrace{
		TemplatePath: "Ribbon.xml",
		Events: []TraceEvent{
			{Kind: EventKeyUnresolved, Target: "de", Detail: "Title"},
			{Kind: EventTargetDiscovered, Target: "default"},
			{Kind: EventBuildSucceeded, Target: "de"},
		},
	}

	b1, err := trace1.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json (1): %v", err)
	}
	b2, err := trace2.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json (2): %v", err)
	}

	if !bytes.Equal(b1, b2) {
		t.Fatalf("expected identical bytes\n1=%s\n2=%s", string(b1), string(b2))
	}
}

func TestCanonicalOrdering_PipelineOrderWithinTarget(t *testing.T) {
	tr := ExecutionTrace{
		TemplatePath: "Ribbon.xml",
		Events: []TraceEvent{
			{Kind: EventBuildFailed, Target: "de", Detail: "build"},
			{Kind: EventStageVerified, Target: "de", Stage: "markup", Detail: "Ribbon.de.rc"},
			{Kind: EventTargetLocalized, Target: "de"},
			{Kind: EventTargetDiscovered, Target: "de"},
		},
	}
	b, err := tr.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	expected := `{"templatePath":"Ribbon.xml","events":[` +
		`{"kind":"TargetDiscovered","target":"de"},` +
		`{"kind":"TargetLocalized","target":"de"},` +
		`{"kind":"StageVerified","target":"de","stage":"markup","detail":"Ribbon.de.rc"},` +
		`{"kind":"BuildFailed","target":"de","detail":"build"}]}`
	if string(b) != expected {
		t.Fatalf("unexpected canonical bytes\nexpected=%s\nactual  =%s", expected, string(b))
	}
}

func TestCanonicalOrdering_StagesInPipelineOrder(t *testing.T) {
	tr := ExecutionTrace{
		TemplatePath: "t.xml",
		Events: []TraceEvent{
			{Kind: EventStageVerified, Target: "de", Stage: "link"},
			{Kind: EventStageVerified, Target: "de", Stage: "markup"},
			{Kind: EventStageVerified, Target: "de", Stage: "resource"},
		},
	}
	tr.Canonicalize()
	got := []string{tr.Events[0].Stage, tr.Events[1].Stage, tr.Events[2].Stage}
	want := []string{"markup", "resource", "link"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages = %v, want %v", got, want)
		}
	}
}

func TestHash_IgnoresInsertionOrder(t *testing.T) {
	tr1 := ExecutionTrace{
		TemplatePath: "t.xml",
		Events: []TraceEvent{
			{Kind: EventBuildSucceeded, Target: "fr"},
			{Kind: EventBuildSucceeded, Target: "de"},
		},
	}
	tr2 := ExecutionTrace{
		TemplatePath: "t.xml",
		Events: []TraceEvent{
			{Kind: EventBuildSucceeded, Target: "de"},
			{Kind: EventBuildSucceeded, Target: "fr"},
		},
	}

	h1, err := tr1.Hash()
	if err != nil {
		t.Fatalf("hash (1): %v", err)
	}
	h2, err := tr2.Hash()
	if err != nil {
		t.Fatalf("hash (2): %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected equal hash, got %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected hex sha256, got %q", h1)
	}
}

func TestValidate_RejectsIncompleteEvents(t *testing.T) {
	cases := []ExecutionTrace{
		{Events: []TraceEvent{{Kind: EventBuildSucceeded, Target: "de"}}},
		{TemplatePath: "t", Events: []TraceEvent{{Target: "de"}}},
		{TemplatePath: "t", Events: []TraceEvent{{Kind: EventBuildSucceeded}}},
		{TemplatePath: "t", Events: []TraceEvent{{Kind: EventStageVerified, Target: "de"}}},
	}
	for i, tr := range cases {
		if _, err := tr.CanonicalJSON(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

type panickySink struct{}

func (panickySink) Record(TraceEvent) { panic("boom") }

func TestSafeRecord_SwallowsPanics(t *testing.T) {
	SafeRecord(panickySink{}, TraceEvent{Kind: EventBuildSucceeded, Target: "de"})
	SafeRecord(nil, TraceEvent{Kind: EventBuildSucceeded, Target: "de"})
}

func TestRecorder_TraceIsCanonicalAndResettable(t *testing.T) {
	r := NewRecorder()
	r.Record(TraceEvent{Kind: EventBuildSucceeded, Target: "fr"})
	r.Record(TraceEvent{Kind: EventTargetDiscovered, Target: "de"})

	tr := r.Trace("t.xml")
	if tr.TemplatePath != "t.xml" || len(tr.Events) != 2 {
		t.Fatalf("unexpected trace: %+v", tr)
	}
	if tr.Events[0].Target != "de" {
		t.Fatalf("expected de first, got %+v", tr.Events)
	}

	r.Reset()
	if got := len(r.Snapshot()); got != 0 {
		t.Fatalf("expected empty recorder after Reset, got %d events", got)
	}
}

func TestRecorder_RejectsUnwritableEvents(t *testing.T) {
	r := NewRecorder()
	r.Record(TraceEvent{Kind: EventTargetDiscovered, Target: "de"})
	r.Record(TraceEvent{Kind: EventStageVerified, Target: "de"})
	r.Record(TraceEvent{Kind: "Mystery", Target: "de"})
	r.Record(TraceEvent{Kind: EventBuildSucceeded})

	if got := r.Rejected(); got != 3 {
		t.Fatalf("rejected = %d, want 3", got)
	}
	if _, err := r.Trace("t.xml").CanonicalJSON(); err != nil {
		t.Fatalf("trace must stay writable: %v", err)
	}

	r.Reset()
	if r.Rejected() != 0 || len(r.Snapshot()) != 0 {
		t.Fatalf("reset left state behind")
	}
}

package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRingTracerWrapsAndKeepsOrder(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for i := 0; i < 5; i++ {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeFile, Name: string(rune('a' + i))})
	}
	got := r.Snapshot()
	if len(got) != 3 || r.Len() != 3 || r.Dropped() != 2 {
		t.Fatalf("expected 3 kept and 2 dropped, got %d/%d", len(got), r.Dropped())
	}
	names := got[0].Name + got[1].Name + got[2].Name
	if names != "cde" {
		t.Fatalf("unexpected order %q", names)
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	if !LevelFile.ShouldEmit(ScopeFile) || LevelFile.ShouldEmit(ScopePhase) {
		t.Fatal("file level must stop at file scope")
	}
	if !LevelPhase.ShouldEmit(ScopePhase) || LevelPhase.ShouldEmit(ScopeLayout) {
		t.Fatal("phase level must stop at phase scope")
	}
	if LevelError.ShouldEmit(ScopeRun) {
		t.Fatal("error level emits nothing through spans")
	}
}

func TestStartSpanNestsUnderContext(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	ctx := WithTracer(context.Background(), r)

	ctx, file := StartSpan(ctx, ScopeFile, "file:a.json")
	_, phase := StartSpan(ctx, ScopePhase, "parse")
	phase.End("")
	file.End("ok")

	events := r.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[1].ParentID != file.ID() {
		t.Fatalf("phase parent = %d, want %d", events[1].ParentID, file.ID())
	}
	if events[3].Detail != "ok" {
		t.Fatalf("end detail lost: %+v", events[3])
	}
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamTracer(&buf, LevelDebug, FormatChrome)
	span := Begin(s, ScopeRun, "fmt", 0, 3)
	span.AttrInt("files", 2).End("")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome trace: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 || doc.TraceEvents[0]["ph"] != "B" {
		t.Fatalf("unexpected events %v", doc.TraceEvents)
	}
	if doc.TraceEvents[1]["tid"] != float64(3) {
		t.Fatalf("lane lost: %v", doc.TraceEvents[1])
	}
}

func TestTextFormatSortsExtra(t *testing.T) {
	ev := &Event{Kind: KindSpanEnd, Name: "print", Extra: map[string]string{"b": "2", "a": "1"}}
	line := string(FormatEvent(ev, FormatText))
	if !strings.Contains(line, "print {a=1, b=2}") {
		t.Fatalf("unexpected text %q", line)
	}
}

func TestNopContext(t *testing.T) {
	ctx, span := StartSpan(context.Background(), ScopeRun, "x")
	if span.ID() != 0 || span.Recording() || CurrentSpan(ctx) != 0 {
		t.Fatal("nop tracer must not allocate spans")
	}
	Point(ctx, ScopeRun, "p", "")
}

func TestLaneTagsSpansAndText(t *testing.T) {
	r := NewRingTracer(8, LevelPhase)
	ctx := WithLane(WithTracer(context.Background(), r), 2)
	_, span := StartSpan(ctx, ScopePhase, "print")
	span.End("")
	events := r.Snapshot()
	if len(events) != 2 || events[0].Lane != 2 {
		t.Fatalf("unexpected events %+v", events)
	}
	if line := string(FormatEvent(&events[0], FormatText)); !strings.Contains(line, "w2 ") {
		t.Fatalf("lane missing from %q", line)
	}
}

func TestRingDumpChromeIsComplete(t *testing.T) {
	r := NewRingTracer(4, LevelDebug)
	Begin(r, ScopeFile, "file:a.json", 0, 1).End("")
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatChrome); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome dump: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 {
		t.Fatalf("expected 2 events, got %d", len(doc.TraceEvents))
	}
}

func TestResolvedFormat(t *testing.T) {
	cases := map[string]Format{
		"out.ndjson":      FormatNDJSON,
		"out.chrome.json": FormatChrome,
		"-":               FormatText,
		"":                FormatText,
	}
	for path, want := range cases {
		if got := (Config{OutputPath: path}).ResolvedFormat(); got != want {
			t.Errorf("%q: got %v, want %v", path, got, want)
		}
	}
	if got := (Config{OutputPath: "x.json", Format: FormatText}).ResolvedFormat(); got != FormatText {
		t.Errorf("explicit format overridden: %v", got)
	}
}

func TestHeartbeatStopsCleanly(t *testing.T) {
	r := NewRingTracer(8, LevelFile)
	h := StartHeartbeat(r, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	h.Stop()
	h.Stop()
	n := r.Len()
	time.Sleep(3 * time.Millisecond)
	if r.Len() != n {
		t.Fatal("heartbeat kept running after Stop")
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("nop tracer must not beat")
	}
	var nilBeat *Heartbeat
	nilBeat.Stop()
}

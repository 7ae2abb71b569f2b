package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"loom/internal/driver"
)

func newModel() *progressModel {
	return NewProgressModel("loom fmt", nil).(*progressModel)
}

func TestApplyEventTracksFiles(t *testing.T) {
	m := newModel()
	m.apply(driver.ProgressEvent{Path: "a.json", Status: driver.FileStart, Index: 0, Total: 3})
	m.apply(driver.ProgressEvent{Path: "b.md", Status: driver.FileDone, Index: 1, Total: 3, Changed: true})
	m.apply(driver.ProgressEvent{Path: "c.json", Status: driver.FileDone, Index: 2, Total: 3, Err: errors.New("boom")})

	if got := m.finished(); got != 2 {
		t.Fatalf("finished = %d, want 2", got)
	}
	view := m.View()
	for _, want := range []string{"2/3", "a.json", "b.md", "c.json", "formatting", "1 changed", "1 error"} {
		if !strings.Contains(view, want) {
			t.Errorf("view misses %q:\n%s", want, view)
		}
	}
}

func TestCountersFollowTransitions(t *testing.T) {
	m := newModel()
	m.apply(driver.ProgressEvent{Path: "a.json", Status: driver.FileStart, Index: 0, Total: 2})
	m.apply(driver.ProgressEvent{Path: "a.json", Status: driver.FileDone, Index: 0, Total: 2, Cached: true})
	if m.counts[outcomePending] != 1 || m.counts[outcomeRunning] != 0 || m.counts[outcomeCached] != 1 {
		t.Fatalf("unexpected counters %v", m.counts)
	}
	if strings.Contains(m.View(), "formatting") {
		t.Error("finished file still shown as running")
	}
}

func TestUnchangedFilesHidden(t *testing.T) {
	m := newModel()
	m.apply(driver.ProgressEvent{Path: "same.json", Status: driver.FileDone, Index: 0, Total: 1})
	view := m.View()
	if strings.Contains(view, "same.json") {
		t.Error("unchanged file should not be listed")
	}
	if !strings.Contains(view, "1 unchanged") {
		t.Errorf("summary misses unchanged count:\n%s", view)
	}
}

func TestNotableListScrolls(t *testing.T) {
	m := newModel()
	m.maxNotable = 2
	for i, p := range []string{"a.json", "b.json", "c.json"} {
		m.apply(driver.ProgressEvent{Path: p, Status: driver.FileDone, Index: i, Total: 3, Changed: true})
	}
	view := m.View()
	if strings.Contains(view, "a.json") || !strings.Contains(view, "c.json") {
		t.Fatalf("oldest entry should scroll away:\n%s", view)
	}
}

func TestSlowestShownWhenDone(t *testing.T) {
	m := newModel()
	m.apply(driver.ProgressEvent{Path: "fast.json", Status: driver.FileDone, Index: 0, Total: 2, Elapsed: time.Millisecond})
	m.apply(driver.ProgressEvent{Path: "slow.md", Status: driver.FileDone, Index: 1, Total: 2, Elapsed: 40 * time.Millisecond})
	m.Update(doneMsg{})
	if view := m.View(); !strings.Contains(view, "slowest slow.md (40ms)") || !strings.Contains(view, "done:") {
		t.Fatalf("unexpected final view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
	got := truncate("a/very/long/path.json", 10)
	if got != "...th.json" {
		t.Errorf("got %q", got)
	}
}

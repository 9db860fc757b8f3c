package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopePackage, false},
		{LevelDetail, ScopePackage, true},
		{LevelDetail, ScopeDecl, false},
		{LevelDebug, ScopeDecl, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestStreamTracerFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	s := Begin(tr, ScopePass, "check", 0)
	Begin(tr, ScopeDecl, "fn:main", s.ID()).End("")
	s.WithExtra("packages", "2").End("ok")

	out := buf.String()
	if strings.Contains(out, "fn:main") {
		t.Fatalf("decl span leaked at phase level:\n%s", out)
	}
	if !strings.Contains(out, "→ check") || !strings.Contains(out, "← check (ok) {packages=2}") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeDecl, "unify", "i32 vs {int}", 7)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["kind"] != "point" || got["scope"] != "decl" || got["parent_id"] != float64(7) {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestRingKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(3, LevelError)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ring, ScopeDecl, name, "", 0)
	}
	snap := ring.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("dump:\n%s", buf.String())
	}
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	ctx, outer := BeginCtx(ctx, ScopePass, "outer")
	_, inner := BeginCtx(ctx, ScopeDecl, "inner")
	inner.End("")
	outer.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d events", len(lines))
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Name != "inner" || ev.ParentID != outer.ID() {
		t.Fatalf("inner event = %+v, outer id %d", ev, outer.ID())
	}
	if FromContext(context.Background()) != Nop {
		t.Fatal("empty context must yield Nop")
	}
}

func TestNewOff(t *testing.T) {
	tr, ring, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop || ring != nil {
		t.Fatalf("New(off) = %v, %v, %v", tr, ring, err)
	}
	if _, _, err := New(Config{Level: LevelPhase, Mode: 9}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestHeartbeat(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat started on a disabled tracer")
	}
	ring := NewRingTracer(1024, LevelPhase)
	if StartHeartbeat(ring, 0) != nil {
		t.Fatal("heartbeat started without an interval")
	}

	h := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(5 * time.Second)
	for len(ring.Snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()

	snap := ring.Snapshot()
	if len(snap) < 2 {
		t.Fatalf("got %d heartbeats", len(snap))
	}
	if snap[0].Kind != KindHeartbeat || !strings.HasPrefix(snap[0].Detail, "#1 after ") {
		t.Fatalf("first heartbeat = %+v", snap[0])
	}
	after := len(ring.Snapshot())
	time.Sleep(10 * time.Millisecond)
	if len(ring.Snapshot()) != after {
		t.Fatal("heartbeat kept running after Stop")
	}
	var stopped *Heartbeat
	stopped.Stop()
}

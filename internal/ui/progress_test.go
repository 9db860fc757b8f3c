package ui

import (
	"strings"
	"testing"

	"flux/internal/driver"
)

func TestProgressModelTracksPhases(t *testing.T) {
	events := make(chan driver.ProgressEvent)
	m := NewProgressModel("check flux.toml", []string{"build", "bodies"}, events).(*progressModel)

	steps := []driver.ProgressEvent{
		{Kind: driver.ProgressPhaseStart, Phase: "build"},
		{Kind: driver.ProgressPhaseEnd, Phase: "build"},
		{Kind: driver.ProgressPhaseStart, Phase: "bodies"},
		{Kind: driver.ProgressDecl, Phase: "bodies", Name: "app::main", Done: 1, Total: 2},
		{Kind: driver.ProgressDecl, Phase: "bodies", Name: "app::flag", Done: 2, Total: 2, Failed: true},
	}
	for _, ev := range steps {
		m.applyEvent(ev)
	}

	if got := m.percent(); got != 1 {
		t.Fatalf("percent = %v, want 1", got)
	}
	view := m.View()
	for _, want := range []string{"bodies 2/2", "app::flag", "1 declaration(s) failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q:\n%s", want, view)
		}
	}
}

func TestProgressModelCacheHit(t *testing.T) {
	m := NewProgressModel("check", []string{"graph", "build"}, nil).(*progressModel)
	m.applyEvent(driver.ProgressEvent{Kind: driver.ProgressCacheHit})
	m.done = true
	if !strings.Contains(m.View(), "(cached)") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"core::ops::Add", 8, "core:..."},
		{"日本語", 4, "..."},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

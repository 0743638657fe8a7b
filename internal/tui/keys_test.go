package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		scope scope
		msg   tea.KeyMsg
		want  Action
	}{
		{"vim down", scopeGrid, keyMsg("j"), actionDown},
		{"arrow down", scopeGrid, keyMsg("down"), actionDown},
		{"space selects", scopeGrid, keyMsg(" "), actionSelect},
		{"enter edits", scopeGrid, keyMsg("enter"), actionEditField},
		{"enter saves while editing", scopeEdit, keyMsg("enter"), actionCommit},
		{"save and add another", scopeEdit, keyMsg("ctrl+n"), actionCommitNext},
		{"letters type while editing", scopeEdit, keyMsg("j"), actionNone},
		{"backspace reaches the input", scopeEdit, keyMsg("backspace"), actionNone},
		{"prompt cancels", scopePrompt, keyMsg("esc"), actionCancel},
		{"quit outside editing", scopeGrid, keyMsg("q"), actionQuit},
		{"q types in the prompt", scopePrompt, keyMsg("q"), actionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolve(tt.scope, tt.msg); got != tt.want {
				t.Errorf("resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHelpLine(t *testing.T) {
	line := helpLine(scopeGrid)
	for _, want := range []string{"space", "select", "[", "prev month", "quit"} {
		if !strings.Contains(line, want) {
			t.Errorf("grid help missing %q: %s", want, line)
		}
	}
	if strings.Contains(line, "home") {
		t.Error("undocumented bindings should stay out of the help line")
	}
}

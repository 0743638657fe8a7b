package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is a user intent resolved from a key press.
type Action string

const (
	actionNone       Action = ""
	actionQuit       Action = "quit"
	actionUp         Action = "up"
	actionDown       Action = "down"
	actionLeft       Action = "left"
	actionRight      Action = "right"
	actionTop        Action = "top"
	actionBottom     Action = "bottom"
	actionEditField  Action = "edit_field"
	actionEditRow    Action = "edit_row"
	actionAdd        Action = "add"
	actionDelete     Action = "delete"
	actionSelect     Action = "select"
	actionToggle     Action = "toggle_cleared"
	actionPrevPeriod Action = "prev_period"
	actionNextPeriod Action = "next_period"
	actionRefetch    Action = "refetch"
	actionUpload     Action = "upload"

	actionCommit     Action = "commit"
	actionCommitNext Action = "commit_add_another"
	actionCancel     Action = "cancel"
	actionNextField  Action = "next_field"
	actionPrevField  Action = "prev_field"
)

type scope int

const (
	scopeGrid scope = iota
	scopeEdit
	scopePrompt
)

// Binding ties a key binding to an action within a scope.
type Binding struct {
	Action Action
	key.Binding
}

func bind(a Action, help string, keys ...string) Binding {
	opts := []key.BindingOpt{key.WithKeys(keys...)}
	if help != "" {
		name := keys[0]
		if name == " " {
			name = "space"
		}
		opts = append(opts, key.WithHelp(name, help))
	}
	return Binding{Action: a, Binding: key.NewBinding(opts...)}
}

var bindings = map[scope][]Binding{
	scopeGrid: {
		bind(actionUp, "up", "up", "k"),
		bind(actionDown, "down", "down", "j"),
		bind(actionLeft, "", "left", "h"),
		bind(actionRight, "", "right", "l"),
		bind(actionTop, "", "g", "home"),
		bind(actionBottom, "", "G", "end"),
		bind(actionEditField, "edit", "enter"),
		bind(actionEditRow, "edit row", "e"),
		bind(actionAdd, "add", "a"),
		bind(actionSelect, "select", " "),
		bind(actionDelete, "delete", "d", "delete"),
		bind(actionToggle, "cleared", "x"),
		bind(actionPrevPeriod, "prev month", "["),
		bind(actionNextPeriod, "next month", "]"),
		bind(actionRefetch, "reload", "r"),
		bind(actionUpload, "upload", "u"),
		bind(actionQuit, "quit", "q", "ctrl+c"),
	},
	scopeEdit: {
		bind(actionCommit, "save", "enter"),
		bind(actionCommitNext, "save+add", "ctrl+n"),
		bind(actionCancel, "cancel", "esc"),
		bind(actionNextField, "next", "tab"),
		bind(actionPrevField, "prev", "shift+tab"),
		bind(actionUp, "", "up"),
		bind(actionDown, "", "down"),
		bind(actionQuit, "", "ctrl+c"),
	},
	scopePrompt: {
		bind(actionCommit, "upload", "enter"),
		bind(actionCancel, "cancel", "esc"),
		bind(actionQuit, "", "ctrl+c"),
	},
}

// resolve returns the action bound to msg in sc, or actionNone. Unbound
// keys fall through to the text input.
func resolve(sc scope, msg tea.KeyMsg) Action {
	for _, b := range bindings[sc] {
		if key.Matches(msg, b.Binding) {
			return b.Action
		}
	}
	return actionNone
}

// helpLine lists the documented bindings of sc.
func helpLine(sc scope) string {
	var parts []string
	for _, b := range bindings[sc] {
		h := b.Help()
		if h.Desc == "" {
			continue
		}
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// Package suggest implements the hybrid dropdown/autocomplete input used for
// enumerated fields.
//
// An Input runs in dropdown mode when it has a finite option list and in
// free-text autocomplete mode over a suggestion pool otherwise. Every
// commit path ends in the same OnSelect callback, so callers get identical
// derived-default propagation whichever way a value was picked.
package suggest

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultMax       = 8
	DefaultBlurDelay = 150 * time.Millisecond
)

// Mode is the presentation of an Input.
type Mode int

const (
	ModeAutocomplete Mode = iota
	ModeDropdown
)

// Key is a navigation key understood by Input.
type Key int

const (
	KeyDown Key = iota
	KeyUp
	KeyEnter
	KeyEscape
)

// Config configures an Input.
type Config struct {
	// Suggestions is the pool autocomplete mode filters over.
	Suggestions []string
	// Max caps the number of autocomplete suggestions. Zero means DefaultMax.
	Max int
	// BlurDelay postpones hiding after Blur so a pointer selection lands first.
	BlurDelay time.Duration
	// OnSelect receives every committed value.
	OnSelect func(value string)
	// CommitOnBlur commits the current text when focus leaves the input.
	CommitOnBlur bool
	// Derive computes a default when the bound value is empty at mount time.
	Derive func() (string, bool)
	// Schedule runs fn after d. Defaults to time.AfterFunc.
	Schedule func(d time.Duration, fn func())
}

// Input is safe for concurrent use; the blur timer fires on its own goroutine.
type Input struct {
	mu      sync.Mutex
	mode    Mode
	options []string
	pool    []string
	cfg     Config

	text        string
	suggestions []string
	highlight   int
	open        bool

	mounted       bool
	lastCommitted string
	focusGen      int
}

// New returns an Input bound to value. A non-empty options list selects
// dropdown mode; otherwise the input autocompletes over cfg.Suggestions.
func New(options []string, value string, cfg Config) *Input {
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	if cfg.BlurDelay <= 0 {
		cfg.BlurDelay = DefaultBlurDelay
	}
	if cfg.Schedule == nil {
		cfg.Schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	in := &Input{
		mode:          ModeAutocomplete,
		options:       append([]string(nil), options...),
		pool:          append([]string(nil), cfg.Suggestions...),
		cfg:           cfg,
		text:          value,
		highlight:     -1,
		lastCommitted: value,
	}
	if len(in.options) > 0 {
		in.mode = ModeDropdown
	}
	return in
}

// Filter returns up to max options containing query, case-insensitively, in
// option order. An empty query returns the first max options.
func Filter(options []string, query string, max int) []string {
	if max <= 0 {
		max = DefaultMax
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, max)
	for _, o := range options {
		if len(out) == max {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(o), q) {
			out = append(out, o)
		}
	}
	return out
}

// Mount runs the derived-default mapper once if the bound value is empty.
func (in *Input) Mount() {
	in.mu.Lock()
	if in.mounted {
		in.mu.Unlock()
		return
	}
	in.mounted = true
	empty := strings.TrimSpace(in.text) == ""
	derive := in.cfg.Derive
	in.mu.Unlock()

	if !empty || derive == nil {
		return
	}
	if v, ok := derive(); ok && v != "" {
		in.applySelection(v)
	}
}

// Focus opens the input and cancels a pending blur.
func (in *Input) Focus() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.focusGen++
	in.refresh()
}

// Type replaces the typed text and recomputes suggestions.
func (in *Input) Type(text string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.text = text
	in.refresh()
}

func (in *Input) refresh() {
	if in.mode == ModeDropdown {
		in.suggestions = append(in.suggestions[:0], in.options...)
	} else {
		in.suggestions = Filter(in.pool, in.text, in.cfg.Max)
	}
	in.highlight = -1
	in.open = len(in.suggestions) > 0
}

// Key handles a navigation key and reports whether a value was committed.
func (in *Input) Key(k Key) bool {
	in.mu.Lock()
	switch k {
	case KeyDown, KeyUp:
		if len(in.suggestions) == 0 {
			in.mu.Unlock()
			return false
		}
		in.open = true
		if k == KeyDown {
			in.highlight++
		} else {
			in.highlight--
		}
		in.highlight = clamp(in.highlight, 0, len(in.suggestions)-1)
		in.mu.Unlock()
		return false
	case KeyEnter:
		v := in.text
		if in.open && in.highlight >= 0 && in.highlight < len(in.suggestions) {
			v = in.suggestions[in.highlight]
		}
		in.mu.Unlock()
		return in.applySelection(v)
	case KeyEscape:
		in.open = false
		in.highlight = -1
		in.mu.Unlock()
		return false
	default:
		in.mu.Unlock()
		return false
	}
}

// PointerDown commits suggestion i. It must run before Blur so the
// selection survives the focus change.
func (in *Input) PointerDown(i int) bool {
	in.mu.Lock()
	if i < 0 || i >= len(in.suggestions) {
		in.mu.Unlock()
		return false
	}
	v := in.suggestions[i]
	in.mu.Unlock()
	return in.applySelection(v)
}

// Choose commits v from the dropdown. Values outside the options are ignored.
func (in *Input) Choose(v string) bool {
	in.mu.Lock()
	known := false
	for _, o := range in.options {
		if o == v {
			known = true
			break
		}
	}
	in.mu.Unlock()
	if !known {
		return false
	}
	return in.applySelection(v)
}

// Blur hides the suggestions after BlurDelay and, with CommitOnBlur,
// commits the text current at that moment. A Focus in between cancels it.
func (in *Input) Blur() {
	in.mu.Lock()
	gen := in.focusGen
	delay := in.cfg.BlurDelay
	schedule := in.cfg.Schedule
	in.mu.Unlock()

	schedule(delay, func() {
		in.mu.Lock()
		if in.focusGen != gen {
			in.mu.Unlock()
			return
		}
		in.open = false
		in.highlight = -1
		v := in.text
		commit := in.cfg.CommitOnBlur
		in.mu.Unlock()
		if commit {
			in.applySelection(v)
		}
	})
}

// applySelection is the single commit path. Repeating the last committed
// value is a no-op, so a pointer selection followed by blur commits once.
func (in *Input) applySelection(v string) bool {
	in.mu.Lock()
	in.text = v
	in.open = false
	in.highlight = -1
	if v == in.lastCommitted {
		in.mu.Unlock()
		return false
	}
	in.lastCommitted = v
	onSelect := in.cfg.OnSelect
	in.mu.Unlock()

	if onSelect != nil {
		onSelect(v)
	}
	return true
}

func (in *Input) Mode() Mode {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.mode
}

func (in *Input) Text() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.text
}

// Suggestions returns the visible suggestions, or nil when the list is closed.
func (in *Input) Suggestions() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.open {
		return nil
	}
	return append([]string(nil), in.suggestions...)
}

// Highlight returns the highlighted index, or -1.
func (in *Input) Highlight() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.highlight
}

func (in *Input) Open() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.open
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

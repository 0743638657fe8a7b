package suggest

import (
	"reflect"
	"testing"
	"time"
)

var categories = []string{"Groceries", "Gifts", "Rent", "Utilities", "Dining", "Gym", "Games", "Garden", "Gas", "Travel"}

// manualScheduler captures scheduled blur callbacks so tests fire them explicitly.
type manualScheduler struct {
	pending []func()
	delays  []time.Duration
}

func (m *manualScheduler) schedule(d time.Duration, fn func()) {
	m.delays = append(m.delays, d)
	m.pending = append(m.pending, fn)
}

func (m *manualScheduler) fire() {
	fns := m.pending
	m.pending = nil
	for _, fn := range fns {
		fn()
	}
}

func newAuto(t *testing.T, value string, commits *[]string, commitOnBlur bool) (*Input, *manualScheduler) {
	t.Helper()
	s := &manualScheduler{}
	in := New(nil, value, Config{
		Suggestions:  categories,
		OnSelect:     func(v string) { *commits = append(*commits, v) },
		CommitOnBlur: commitOnBlur,
		Schedule:     s.schedule,
	})
	return in, s
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name  string
		query string
		max   int
		want  []string
	}{
		{"empty query returns first max", "", 8, categories[:8]},
		{"case insensitive substring", "GA", 8, []string{"Games", "Garden", "Gas"}},
		{"cap applies", "g", 2, []string{"Groceries", "Gifts"}},
		{"no match", "zzz", 8, []string{}},
		{"zero max uses default", "", 0, categories[:DefaultMax]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(categories, tc.query, tc.max)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestModeSelection(t *testing.T) {
	if New([]string{"Essential"}, "", Config{}).Mode() != ModeDropdown {
		t.Fatalf("options should select dropdown mode")
	}
	if New(nil, "", Config{Suggestions: categories}).Mode() != ModeAutocomplete {
		t.Fatalf("no options should select autocomplete mode")
	}
}

func TestTypeOpensPanelOnlyWithMatches(t *testing.T) {
	var commits []string
	in, _ := newAuto(t, "", &commits, false)

	in.Type("zzz")
	if in.Open() || in.Suggestions() != nil {
		t.Fatalf("no suggestions panel expected for unmatched query")
	}
	in.Type("gro")
	if !in.Open() || !reflect.DeepEqual(in.Suggestions(), []string{"Groceries"}) {
		t.Fatalf("unexpected suggestions %v", in.Suggestions())
	}
	if in.Highlight() != -1 {
		t.Fatalf("typing should reset the highlight")
	}
}

func TestKeyboardNavigation(t *testing.T) {
	var commits []string
	in, _ := newAuto(t, "", &commits, false)
	in.Type("ga") // Games, Garden, Gas

	in.Key(KeyUp)
	if in.Highlight() != 0 {
		t.Fatalf("up from none should clamp to 0, got %d", in.Highlight())
	}
	for i := 0; i < 5; i++ {
		in.Key(KeyDown)
	}
	if in.Highlight() != 2 {
		t.Fatalf("down should clamp to last index, got %d", in.Highlight())
	}
	in.Key(KeyUp)
	if !in.Key(KeyEnter) {
		t.Fatalf("enter with highlight should commit")
	}
	if !reflect.DeepEqual(commits, []string{"Garden"}) || in.Text() != "Garden" || in.Open() {
		t.Fatalf("unexpected commit state: %v %q", commits, in.Text())
	}
}

func TestEnterWithoutHighlightCommitsRawText(t *testing.T) {
	var commits []string
	in, _ := newAuto(t, "", &commits, false)
	in.Type("Bakery")
	in.Key(KeyEnter)
	if !reflect.DeepEqual(commits, []string{"Bakery"}) {
		t.Fatalf("expected raw text commit, got %v", commits)
	}
}

func TestEscapeClosesWithoutCommit(t *testing.T) {
	var commits []string
	in, _ := newAuto(t, "", &commits, false)
	in.Type("g")
	in.Key(KeyDown)
	if in.Key(KeyEscape) {
		t.Fatalf("escape must not commit")
	}
	if in.Open() || in.Highlight() != -1 || len(commits) != 0 {
		t.Fatalf("escape should close the list")
	}
}

func TestPointerDownBeforeBlurCommitsOnce(t *testing.T) {
	var commits []string
	in, s := newAuto(t, "", &commits, true)
	in.Type("ut")

	in.PointerDown(0)
	in.Blur()
	if len(s.delays) != 1 || s.delays[0] != DefaultBlurDelay {
		t.Fatalf("blur should schedule with the default delay: %v", s.delays)
	}
	s.fire()

	if !reflect.DeepEqual(commits, []string{"Utilities"}) {
		t.Fatalf("expected a single commit of the pointer selection, got %v", commits)
	}
}

func TestBlurCommitsTextAndHides(t *testing.T) {
	var commits []string
	in, s := newAuto(t, "Rent", &commits, true)
	in.Focus()
	in.Type("Travel")
	in.Blur()
	if !in.Open() {
		t.Fatalf("panel should stay open until the delay elapses")
	}
	s.fire()
	if in.Open() || !reflect.DeepEqual(commits, []string{"Travel"}) {
		t.Fatalf("unexpected state after blur: open=%v commits=%v", in.Open(), commits)
	}
}

func TestBlurWithoutCommitOnBlur(t *testing.T) {
	var commits []string
	in, s := newAuto(t, "", &commits, false)
	in.Type("Travel")
	in.Blur()
	s.fire()
	if len(commits) != 0 {
		t.Fatalf("blur should not commit, got %v", commits)
	}
}

func TestFocusCancelsPendingBlur(t *testing.T) {
	var commits []string
	in, s := newAuto(t, "", &commits, true)
	in.Type("Gas")
	in.Blur()
	in.Focus()
	s.fire()
	if len(commits) != 0 || !in.Open() {
		t.Fatalf("refocus should cancel the blur: commits=%v", commits)
	}
}

func TestChooseDropdown(t *testing.T) {
	var commits []string
	in := New([]string{"Essential", "Nonessential"}, "Essential", Config{
		OnSelect: func(v string) { commits = append(commits, v) },
	})
	if in.Choose("Bogus") {
		t.Fatalf("unknown option must be ignored")
	}
	if in.Choose("Essential") {
		t.Fatalf("re-choosing the current value is not a commit")
	}
	if !in.Choose("Nonessential") || !reflect.DeepEqual(commits, []string{"Nonessential"}) {
		t.Fatalf("unexpected commits %v", commits)
	}
	in.Focus()
	if !reflect.DeepEqual(in.Suggestions(), []string{"Essential", "Nonessential"}) {
		t.Fatalf("dropdown should list every option")
	}
}

func TestMountDerivesOnce(t *testing.T) {
	var commits []string
	calls := 0
	derive := func() (string, bool) { calls++; return "Debit Card", true }

	in := New(nil, "", Config{
		OnSelect: func(v string) { commits = append(commits, v) },
		Derive:   derive,
	})
	in.Mount()
	in.Mount()
	if calls != 1 || !reflect.DeepEqual(commits, []string{"Debit Card"}) {
		t.Fatalf("expected one derivation, got calls=%d commits=%v", calls, commits)
	}

	bound := New(nil, "Cash", Config{Derive: derive})
	bound.Mount()
	if calls != 1 || bound.Text() != "Cash" {
		t.Fatalf("non-empty value must not be derived")
	}
}

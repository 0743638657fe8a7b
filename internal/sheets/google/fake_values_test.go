package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// fakeValues emulates a single sheet of the Sheets values API.
type fakeValues struct {
	mu       sync.Mutex
	grid     [][]any
	gets     int
	failNext error
}

func (f *fakeValues) fail() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeValues) get(_ context.Context, rng string) ([][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if err := f.fail(); err != nil {
		return nil, err
	}
	onlyA := strings.HasSuffix(rng, "!A:A")
	out := make([][]any, 0, len(f.grid))
	for _, row := range f.grid {
		switch {
		case len(row) == 0:
			out = append(out, []any{})
		case onlyA:
			out = append(out, []any{row[0]})
		default:
			out = append(out, append([]any(nil), row...))
		}
	}
	return out, nil
}

func (f *fakeValues) update(_ context.Context, rng string, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	row, err := rowFromRange(rng)
	if err != nil {
		return err
	}
	for len(f.grid) < row {
		f.grid = append(f.grid, []any{})
	}
	f.grid[row-1] = append([]any(nil), rows[0]...)
	return nil
}

func (f *fakeValues) append(_ context.Context, rng string, rows [][]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return "", err
	}
	sheet := rng[:strings.Index(rng, "!")]
	f.grid = append(f.grid, append([]any(nil), rows[0]...))
	n := len(f.grid)
	return fmt.Sprintf("'%s'!A%d:I%d", sheet, n, n), nil
}

func (f *fakeValues) clear(_ context.Context, rng string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	row, err := rowFromRange(rng)
	if err != nil {
		return err
	}
	if row > len(f.grid) {
		return errors.New("clear past end of sheet")
	}
	f.grid[row-1] = []any{}
	return nil
}

func (f *fakeValues) cell(row, col int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row-1 >= len(f.grid) || col >= len(f.grid[row-1]) {
		return ""
	}
	return fmt.Sprint(f.grid[row-1][col])
}

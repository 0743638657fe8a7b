package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"conti/internal/core"
)

var errBlankRow = errors.New("blank row")

// formatRow renders t in Header column order.
func formatRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.TransactionDate.UTC().Format(core.DateLayout),
		t.Name,
		t.Amount.StringFixed(2),
		t.Category,
		t.Criticality,
		t.Account,
		t.PaymentMethod,
		strconv.FormatBool(t.Cleared),
	}
}

// parseRow is the inverse of formatRow. It tolerates decimal commas and
// short rows, since people edit the sheet by hand.
func parseRow(cols []string) (core.Transaction, error) {
	if len(cols) == 0 || strings.TrimSpace(cols[0]) == "" {
		return core.Transaction{}, errBlankRow
	}
	if len(cols) < 4 {
		return core.Transaction{}, fmt.Errorf("row %s: expected at least 4 columns, got %d", cols[0], len(cols))
	}

	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", cols[0], err)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(cols[3]), ",", "."))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", cols[0], core.ErrInvalidAmount)
	}

	t := core.Transaction{
		ID:              cols[0],
		TransactionDate: date,
		Name:            cols[2],
		Amount:          amount,
		Category:        safeGet(cols, 4),
		Criticality:     safeGet(cols, 5),
		Account:         safeGet(cols, 6),
		PaymentMethod:   safeGet(cols, 7),
	}
	switch strings.ToLower(safeGet(cols, 8)) {
	case "true", "yes", "x", "1":
		t.Cleared = true
	}
	return t, nil
}

// rowFromRange extracts the first row number from an A1 range such as "Sheet!A5:I5".
func rowFromRange(rng string) (int, error) {
	cell := rng
	if i := strings.LastIndex(cell, "!"); i >= 0 {
		cell = cell[i+1:]
	}
	if i := strings.Index(cell, ":"); i >= 0 {
		cell = cell[:i]
	}
	digits := strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	row, err := strconv.Atoi(digits)
	if err != nil || row <= 0 {
		return 0, fmt.Errorf("no row in range %q", rng)
	}
	return row, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// Package importer reads transaction CSV exports.
//
// Columns: date, name, amount, category, account, payment_method,
// criticality, cleared. Only the first three are required; an optional
// header row is skipped.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"conti/internal/core"
)

const minColumns = 3

// ErrOutOfPeriod is reported for rows dated outside the target period.
var ErrOutOfPeriod = errors.New("date outside period")

// ParseCSV decodes every row of r. Rows are dated within period when it is
// non-empty. All line errors are collected and returned joined; no rows are
// returned in that case.
func ParseCSV(r io.Reader, period string) ([]core.Transaction, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	var (
		out  []core.Transaction
		errs []error
	)
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) < minColumns {
			errs = append(errs, fmt.Errorf("line %d: expected at least %d columns (date, name, amount)", line, minColumns))
			continue
		}
		t, err := parseRecord(rec, period)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		out = append(out, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func parseRecord(rec []string, period string) (core.Transaction, error) {
	col := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	date, err := core.ParseDate(col(0))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", col(0), err)
	}
	if !core.InPeriod(date, period) {
		return core.Transaction{}, fmt.Errorf("%s: %w %s", date.Format(core.DateLayout), ErrOutOfPeriod, period)
	}
	name := col(1)
	if name == "" {
		return core.Transaction{}, errors.New("name is required")
	}
	amount, err := core.ParseAmount(col(2))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", col(2), err)
	}
	cleared := false
	if v := col(7); v != "" {
		if cleared, err = strconv.ParseBool(v); err != nil {
			return core.Transaction{}, fmt.Errorf("cleared %q: %w", v, err)
		}
	}

	return core.Transaction{
		Name:            name,
		Amount:          amount,
		Category:        col(3),
		Account:         col(4),
		PaymentMethod:   col(5),
		Criticality:     col(6),
		TransactionDate: date,
		Cleared:         cleared,
	}, nil
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "date")
}

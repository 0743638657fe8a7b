package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFieldKind(t *testing.T) {
	cases := map[Field]FieldKind{
		FieldName:          KindText,
		FieldAmount:        KindMoney,
		FieldDate:          KindDate,
		FieldCriticality:   KindEnumDropdown,
		FieldCategory:      KindEnumAutocomplete,
		FieldAccount:       KindEnumAutocomplete,
		FieldPaymentMethod: KindEnumAutocomplete,
		FieldCleared:       KindToggle,
	}
	for f, want := range cases {
		if got := f.Kind(); got != want {
			t.Errorf("%s: expected kind %d, got %d", f, want, got)
		}
	}
	if Field("bogus").Valid() {
		t.Fatalf("unexpected valid field")
	}
}

func TestPendingID(t *testing.T) {
	a, b := NewPendingID(), NewPendingID()
	if a == b {
		t.Fatalf("pending ids must be unique")
	}
	if !IsPendingID(a) || IsPendingID("42") {
		t.Fatalf("IsPendingID mismatch")
	}
}

func TestApplyPatch(t *testing.T) {
	base := Transaction{
		ID:              "1",
		Name:            "Rent",
		Amount:          decimal.RequireFromString("900"),
		TransactionDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	got := ApplyPatch(base, Patch{
		FieldName:    "Coffee",
		FieldAmount:  "4,5",
		FieldDate:    "2024-05-17",
		FieldCleared: "true",
	})
	if got.Name != "Coffee" || got.Amount.StringFixed(2) != "4.50" || !got.Cleared {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if got.TransactionDate.Day() != 17 {
		t.Fatalf("expected day 17, got %v", got.TransactionDate)
	}

	got = ApplyPatch(base, Patch{FieldAmount: "abc", FieldDate: "not a date"})
	if !got.Amount.IsZero() {
		t.Fatalf("unparsable amount should become zero, got %s", got.Amount)
	}
	if !got.TransactionDate.Equal(base.TransactionDate) {
		t.Fatalf("unparsable date should be kept, got %v", got.TransactionDate)
	}
	if base.Name != "Rent" {
		t.Fatalf("base record mutated")
	}
}

func TestPatchFromRoundTrip(t *testing.T) {
	tx := Transaction{
		Name:            "Coffee",
		Amount:          decimal.RequireFromString("4.5"),
		Category:        "Groceries",
		TransactionDate: time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
		Cleared:         true,
	}
	p := PatchFrom(tx)
	if p[FieldAmount] != "4.50" || p[FieldDate] != "2024-05-17" || p[FieldCleared] != "true" {
		t.Fatalf("unexpected patch: %v", p)
	}
	c := p.Clone()
	c[FieldName] = "Tea"
	if p[FieldName] != "Coffee" {
		t.Fatalf("clone shares storage")
	}
	if got := ApplyPatch(Transaction{}, p); !got.Amount.Equal(tx.Amount) || got.Category != tx.Category {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPageValidate(t *testing.T) {
	p := Page{Records: []Transaction{{ID: "1"}, {ID: "2"}}}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Count != 2 || p.Total != 2 {
		t.Fatalf("expected count/total 2/2, got %d/%d", p.Count, p.Total)
	}

	p = Page{Records: []Transaction{{ID: "1"}}, Total: 40}
	if err := p.Validate(); err != nil || p.Total != 40 {
		t.Fatalf("total should be kept, got %d (%v)", p.Total, err)
	}

	p = Page{Records: []Transaction{{ID: ""}}}
	if err := p.Validate(); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}

	p = Page{Records: []Transaction{{ID: NewPendingID()}}}
	if err := p.Validate(); !errors.Is(err, ErrPendingRecord) {
		t.Fatalf("expected ErrPendingRecord, got %v", err)
	}
}

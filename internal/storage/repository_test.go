package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conti/internal/core"
	"conti/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "conti.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func tx(name, amount string, day int) core.Transaction {
	return core.Transaction{
		Name:            name,
		Amount:          decimal.RequireFromString(amount),
		Category:        "Groceries",
		Criticality:     "Essential",
		TransactionDate: time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC),
		Account:         "Checking",
		PaymentMethod:   "Debit Card",
	}
}

func TestSQLiteRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	input := tx("Market", "-40.10", 3)
	input.ID = core.NewPendingID()
	input.Pending = true
	a, err := repo.Create(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" || core.IsPendingID(a.ID) || a.Pending {
		t.Fatalf("unexpected created record %+v", a)
	}

	a.Name = "Farmers market"
	a.Cleared = true
	if err := repo.Update(ctx, a.ID, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Farmers market" || !got.Cleared || got.Amount.StringFixed(2) != "-40.10" {
		t.Fatalf("unexpected stored record %+v", got)
	}
	if !got.TransactionDate.Equal(a.TransactionDate) {
		t.Fatalf("date round trip: %v != %v", got.TransactionDate, a.TransactionDate)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should report ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, "missing", a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, rec := range []core.Transaction{tx("Rent", "-900", 1), tx("Coffee", "-4.5", 10), tx("Salary", "2500", 27)} {
		if _, err := repo.Create(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	june := tx("June rent", "-900", 1)
	june.TransactionDate = june.TransactionDate.AddDate(0, 1, 0)
	if _, err := repo.Create(ctx, june); err != nil {
		t.Fatal(err)
	}

	page, err := repo.List(ctx, ports.ListFilter{Period: "2024-05"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || page.Count != 3 || page.Records[0].Name != "Salary" {
		t.Fatalf("unexpected page %+v", page)
	}

	page, err = repo.List(ctx, ports.ListFilter{Period: "2024-05", Limit: 2, Offset: 2})
	if err != nil || page.Total != 3 || page.Count != 1 || page.Records[0].Name != "Rent" {
		t.Fatalf("pagination: %+v %v", page, err)
	}

	page, err = repo.List(ctx, ports.ListFilter{Search: "rent"})
	if err != nil || page.Total != 2 {
		t.Fatalf("search should match both rents: %+v %v", page, err)
	}

	if err := page.Validate(); err != nil {
		t.Fatalf("repository output must validate: %v", err)
	}
}

func TestSQLiteRepositoryUpload(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	bad := "2024-05-01,Rent,-900\n2024-05-02,,1\n"
	if err := repo.Upload(ctx, strings.NewReader(bad), "2024-05"); err == nil {
		t.Fatalf("expected upload error")
	}
	if page, _ := repo.List(ctx, ports.ListFilter{}); page.Total != 0 {
		t.Fatalf("failed upload must not import anything, got %d", page.Total)
	}

	good := "date,name,amount\n2024-05-01,Rent,-900\n2024-05-02,Bread,-2.20\n"
	if err := repo.Upload(ctx, strings.NewReader(good), "2024-05"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if page, _ := repo.List(ctx, ports.ListFilter{Period: "2024-05"}); page.Total != 2 {
		t.Fatalf("expected 2 uploaded rows, got %d", page.Total)
	}
}

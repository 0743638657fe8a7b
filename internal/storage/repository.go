package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"conti/internal/core"
	"conti/internal/importer"
	"conti/internal/log"
	"conti/internal/ports"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for ids with no live row.
var ErrNotFound = errors.New("transaction not found")

// SQLiteRepository is the persistent ports.TransactionsRepository.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectColumns = `id, name, amount, category, criticality, transaction_date, account, payment_method, cleared`

// List implements ports.TransactionsRepository. Rows are newest first.
func (r *SQLiteRepository) List(ctx context.Context, f ports.ListFilter) (core.Page, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if f.Period != "" {
		where = append(where, "period = ?")
		args = append(args, f.Period)
	}
	if f.Account != "" {
		where = append(where, "account = ?")
		args = append(args, f.Account)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(name LIKE ? OR category LIKE ?)")
		args = append(args, "%"+s+"%", "%"+s+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE "+cond, args...).Scan(&total); err != nil {
		return core.Page{}, fmt.Errorf("count transactions: %w", err)
	}

	query := "SELECT " + selectColumns + " FROM transactions WHERE " + cond +
		" ORDER BY transaction_date DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return core.Page{}, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var records []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return core.Page{}, err
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return core.Page{}, fmt.Errorf("iterate transactions: %w", err)
	}

	return core.Page{Records: records, Total: total, Count: len(records)}, nil
}

// Get returns a live row by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM transactions WHERE id = ? AND deleted_at IS NULL", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return t, err
}

// Create implements ports.TransactionsRepository. The id is always assigned here.
func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.Pending = false
	if err := insert(ctx, r.db, t); err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldID, t.ID,
		log.FieldName, t.Name,
		log.FieldAmount, t.Amount.StringFixed(2),
		log.FieldPeriod, core.PeriodOf(t.TransactionDate))
	return t, nil
}

// Update implements ports.TransactionsRepository.
func (r *SQLiteRepository) Update(ctx context.Context, id string, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			name = ?, amount = ?, category = ?, criticality = ?, transaction_date = ?,
			period = ?, account = ?, payment_method = ?, cleared = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`,
		t.Name, t.Amount.StringFixed(2), t.Category, t.Criticality, formatDate(t.TransactionDate),
		core.PeriodOf(t.TransactionDate), t.Account, t.PaymentMethod, t.Cleared,
		id)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return expectOne(res, id)
}

// Delete implements ports.TransactionsRepository as a soft delete.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET deleted_at = CURRENT_TIMESTAMP, version = version + 1 WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Transaction soft deleted", log.FieldID, id)
	return nil
}

// Upload implements ports.TransactionsRepository. The import is all or nothing.
func (r *SQLiteRepository) Upload(ctx context.Context, rd io.Reader, period string) error {
	records, err := importer.ParseCSV(rd, period)
	if err != nil {
		return fmt.Errorf("parse upload: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upload: %w", err)
	}
	defer tx.Rollback()

	for _, t := range records {
		t.ID = uuid.NewString()
		if err := insert(ctx, tx, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upload: %w", err)
	}

	r.logger.InfoContext(ctx, "Transactions uploaded",
		log.FieldPeriod, period, log.FieldCount, len(records))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, t core.Transaction) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, name, amount, category, criticality, transaction_date, period, account, payment_method, cleared)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Amount.StringFixed(2), t.Category, t.Criticality, formatDate(t.TransactionDate),
		core.PeriodOf(t.TransactionDate), t.Account, t.PaymentMethod, t.Cleared)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		amount  string
		date    string
		cleared bool
	)
	err := s.Scan(&t.ID, &t.Name, &amount, &t.Category, &t.Criticality, &date, &t.Account, &t.PaymentMethod, &cleared)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
	}
	if t.TransactionDate, err = time.Parse(time.RFC3339, date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
	}
	t.Cleared = cleared
	return t, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/log"
	ports "conti/internal/sheets"
)

const (
	DefaultSheetName = "Transactions"
	DefaultCacheSize = 5000
	DefaultCacheTTL  = 30 * time.Minute

	lastColumn = "I"
)

// Header is written to row 1 of an empty sheet.
var Header = []any{"ID", "Date", "Name", "Amount", "Category", "Criticality", "Account", "Payment Method", "Cleared"}

var _ ports.Mirror = (*Client)(nil)

// ErrNotPersisted is returned for records without a server id.
var ErrNotPersisted = errors.New("transaction has no server id")

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	CacheSize       int
	CacheTTL        time.Duration
}

// valuesAPI is the subset of the Sheets values service the mirror needs.
type valuesAPI interface {
	get(ctx context.Context, rng string) ([][]any, error)
	update(ctx context.Context, rng string, rows [][]any) error
	append(ctx context.Context, rng string, rows [][]any) (updatedRange string, err error)
	clear(ctx context.Context, rng string) error
}

// Client mirrors transactions into a single sheet, one row per id, with
// column A holding the id. Rows are blanked on delete and never removed,
// so cached row numbers stay valid.
type Client struct {
	api    valuesAPI
	sheet  string
	rows   *cache.LRUCache[int]
	logger *log.Logger

	// writeMu serializes lookups that may append, so one id never gets two rows.
	writeMu sync.Mutex
}

// New creates a Sheets mirror authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	api := &sheetsValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}
	return newClient(api, cfg, logger), nil
}

func newClient(api valuesAPI, cfg Config, logger *log.Logger) *Client {
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &Client{
		api:    api,
		sheet:  sheet,
		rows:   cache.NewLRUCache[int](size, ttl),
		logger: logger,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over a file; GOOGLE_APPLICATION_CREDENTIALS is the last resort.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inline != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read credentials file", "path", file, "size", len(b))
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// RowCache exposes the id->row cache so a cache.Manager can expire it.
func (c *Client) RowCache() *cache.LRUCache[int] {
	return c.rows
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn, row)
}

// findRow returns the 1-based row holding id, or 0. A sheet scan also
// warms the cache with every id it sees.
func (c *Client) findRow(ctx context.Context, id string) (row int, empty bool, err error) {
	if r, ok := c.rows.Get(id); ok {
		return r, false, nil
	}

	rng := fmt.Sprintf("%s!A:A", c.sheet)
	values, err := c.api.get(ctx, rng)
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, v := range values {
		if len(v) == 0 {
			continue
		}
		cell := strings.TrimSpace(fmt.Sprint(v[0]))
		if cell == "" || i == 0 {
			continue
		}
		c.rows.Set(cell, i+1)
		if cell == id {
			row = i + 1
		}
	}
	return row, len(values) == 0, nil
}

// Upsert writes t to its row, appending one when the id is new.
func (c *Client) Upsert(ctx context.Context, t core.Transaction) error {
	if strings.TrimSpace(t.ID) == "" || t.Pending {
		return fmt.Errorf("upsert %q: %w", t.ID, ErrNotPersisted)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	row, empty, err := c.findRow(ctx, t.ID)
	if err != nil {
		return err
	}
	values := [][]any{formatRow(t)}

	if row > 0 {
		if err := c.api.update(ctx, c.rowRange(row), values); err != nil {
			c.rows.Delete(t.ID)
			return fmt.Errorf("update row %d in %s: %w", row, c.sheet, err)
		}
		c.logger.DebugContext(ctx, "Mirrored transaction", log.FieldID, t.ID, log.FieldSheetRow, row)
		return nil
	}

	if empty {
		if err := c.api.update(ctx, c.rowRange(1), [][]any{Header}); err != nil {
			return fmt.Errorf("write header in %s: %w", c.sheet, err)
		}
	}

	updated, err := c.api.append(ctx, fmt.Sprintf("%s!A:%s", c.sheet, lastColumn), values)
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	row, err = rowFromRange(updated)
	if err != nil {
		c.logger.WarnContext(ctx, "Could not read appended row", log.FieldID, t.ID, log.FieldError, err)
		return nil
	}
	c.rows.Set(t.ID, row)
	c.logger.DebugContext(ctx, "Appended transaction", log.FieldID, t.ID, log.FieldSheetRow, row)
	return nil
}

// Remove blanks the row holding id.
func (c *Client) Remove(ctx context.Context, id string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	row, _, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		c.logger.DebugContext(ctx, "Nothing to remove", log.FieldID, id)
		return nil
	}
	if err := c.api.clear(ctx, c.rowRange(row)); err != nil {
		return fmt.Errorf("clear row %d in %s: %w", row, c.sheet, err)
	}
	c.rows.Delete(id)
	return nil
}

// List reads the whole sheet back. Blank and unparseable rows are skipped.
func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	rng := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	values, err := c.api.get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []core.Transaction
	for i, v := range values {
		if i == 0 {
			continue
		}
		t, err := parseRow(toStrings(v))
		if errors.Is(err, errBlankRow) {
			continue
		}
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping unreadable sheet row", log.FieldSheetRow, i+1, log.FieldError, err)
			continue
		}
		c.rows.Set(t.ID, i+1)
		out = append(out, t)
	}
	return out, nil
}

type sheetsValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *sheetsValues) get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetsValues) update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *sheetsValues) append(ctx context.Context, rng string, rows [][]any) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates == nil {
		return "", errors.New("append response without updates")
	}
	return resp.Updates.UpdatedRange, nil
}

func (s *sheetsValues) clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

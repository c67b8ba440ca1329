package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string // base name; the year is prefixed per row
	CredentialsJSON string
	CredentialsFile string
}

// Client mirrors ledger rows into one sheet per year of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	mu       sync.Mutex
	sheetIDs map[string]int64 // title -> sheetId
}

// Ensure interface conformance
var _ ports.LedgerMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Ledger"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
		sheetIDs:      map[string]int64{},
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte

	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append writes t to the sheet of its year, creating the sheet on first
// use. A row that is already mirrored is left alone.
func (c *Client) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := c.sheetName(t.Date.Year())
	if _, err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	rows, err := c.readRows(ctx, sheet)
	if err != nil {
		return "", err
	}
	if row := rowIndex(rows, t.ID); row > 0 {
		slog.DebugContext(ctx, "Row already mirrored", "transaction_id", t.ID, "sheet", sheet, "row", row)
		return rowRef(sheet, row), nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{toRow(t)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:H", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rowRef(sheet, len(rows)+1), nil
}

// Delete removes the row of t from the sheet of its year.
func (c *Client) Delete(ctx context.Context, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := c.sheetName(t.Date.Year())
	sheetID, err := c.ensureSheet(ctx, sheet)
	if err != nil {
		return err
	}
	rows, err := c.readRows(ctx, sheet)
	if err != nil {
		return err
	}
	row := rowIndex(rows, t.ID)
	if row == 0 {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", row, sheet, err)
	}
	return nil
}

// ListMonth reads the mirrored rows of the given month.
func (c *Client) ListMonth(ctx context.Context, year int, month int) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	sheet := c.sheetName(year)
	ok, err := c.hasSheet(ctx, sheet)
	if err != nil || !ok {
		return nil, err
	}
	rows, err := c.readRows(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return parseLedger(rows, year, month), nil
}

func (c *Client) readRows(ctx context.Context, sheet string) ([][]any, error) {
	rng := sheet + "!A:H"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) hasSheet(ctx context.Context, title string) (bool, error) {
	if err := c.loadSheetIDs(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sheetIDs[title]
	return ok, nil
}

// ensureSheet returns the id of the sheet titled title, adding it with a
// header row when it does not exist yet.
func (c *Client) ensureSheet(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[title]
	c.mu.Unlock()
	if ok {
		return id, nil
	}
	if err := c.loadSheetIDs(ctx); err != nil {
		return 0, err
	}
	c.mu.Lock()
	id, ok = c.sheetIDs[title]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	slog.InfoContext(ctx, "Creating ledger sheet", "sheet", title)
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %s: empty reply", title)
	}
	id = resp.Replies[0].AddSheet.Properties.SheetId

	vr := &gsheet.ValueRange{Values: [][]any{header}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, title+"!A1:H1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write header of %s: %w", title, err)
	}

	c.mu.Lock()
	c.sheetIDs[title] = id
	c.mu.Unlock()
	return id, nil
}

func (c *Client) loadSheetIDs(ctx context.Context) error {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return nil
}

func (c *Client) sheetName(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

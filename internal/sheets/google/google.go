// Package google mirrors expenses into a Google Sheet, one row per expense
// keyed by id in column A.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	ports "expensetracker/internal/sheets"
)

const valueInputOption = "USER_ENTERED"

// Ensure interface conformance
var (
	_ ports.ExpenseMirror = (*Client)(nil)
	_ ports.MirrorLister  = (*Client)(nil)
)

// Client writes one row per expense. Writes through the same Client are
// serialised so a lookup and the append that follows it cannot interleave
// with another write for the same id.
type Client struct {
	writeMu sync.Mutex

	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

// Config selects the target sheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated as a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		logger:        logger,
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// EnsureHeader writes the column titles when the first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	rng := rowRange(c.sheet, 1)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", rng, err)
	}
	return nil
}

// Upsert overwrites the row holding e.ID, or appends a new row.
func (c *Client) Upsert(ctx context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", fmt.Errorf("invalid expense id %d", e.ID)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	n, err := c.rowOf(ctx, e.ID)
	if err != nil {
		return "", err
	}
	vr := &gsheet.ValueRange{Values: [][]any{expenseRow(e)}}

	if n > 0 {
		rng := rowRange(c.sheet, n)
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption(valueInputOption).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("update %s: %w", rng, err)
		}
		return rng, nil
	}

	rng := a1(c.sheet, firstColumn+":"+lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// Remove clears the row holding id. Rows are cleared rather than deleted so
// other row references stay valid.
func (c *Client) Remove(ctx context.Context, id int64) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	n, err := c.rowOf(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		c.logger.DebugContext(ctx, "Expense not mirrored, nothing to remove", log.FieldExpenseID, id)
		return nil
	}
	rng := rowRange(c.sheet, n)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// IDs lists the ids found in column A.
func (c *Client) IDs(ctx context.Context) ([]int64, error) {
	values, err := c.idColumn(ctx)
	if err != nil {
		return nil, err
	}
	return collectIDs(values), nil
}

func (c *Client) rowOf(ctx context.Context, id int64) (int, error) {
	values, err := c.idColumn(ctx)
	if err != nil {
		return 0, err
	}
	return findRow(values, id), nil
}

func (c *Client) idColumn(ctx context.Context) ([][]any, error) {
	rng := a1(c.sheet, firstColumn+":"+firstColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

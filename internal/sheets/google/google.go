package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"dompet/internal/core"
	"dompet/internal/log"
	ports "dompet/internal/sheets"
)

// lastColumn is the column of the final Header cell.
const lastColumn = "G"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

// Options configures the mirror client. Exactly one of CredentialsJSON or
// CredentialsFile is needed; CredentialsFile falls back to
// GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Logger          *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	creds, err := credentials(ctx, logger, opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName, logger: logger}
}

func credentials(ctx context.Context, logger *log.Logger, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var b []byte
	switch {
	case inline != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		b = []byte(inline)
	case file != "":
		logger.DebugContext(ctx, "Reading service account credentials", "path", file)
		var err error
		b, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	if !json.Valid(b) {
		return nil, errors.New("invalid service account credentials: not JSON")
	}
	return b, nil
}

func (c *Client) Upsert(ctx context.Context, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if t.ID == "" {
		return errors.New("transaction without id")
	}

	row, used, err := c.locate(ctx, t.ID)
	if err != nil {
		return err
	}

	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn, row)
		vr := &gsheet.ValueRange{Values: [][]any{ports.Row(t)}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "Updated mirrored row", log.FieldTransactionID, t.ID, "row", row)
		return nil
	}

	values := [][]any{ports.Row(t)}
	if used == 0 {
		values = [][]any{ports.Header, ports.Row(t)}
	}
	rng := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	c.logger.DebugContext(ctx, "Appended mirrored row", log.FieldTransactionID, t.ID)
	return nil
}

func (c *Client) Remove(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, _, err := c.locate(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		c.logger.DebugContext(ctx, "Row already absent", log.FieldTransactionID, id)
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) Replace(ctx context.Context, txs []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	all := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", all, err)
	}

	values := make([][]any, 0, len(txs)+1)
	values = append(values, ports.Header)
	for _, t := range txs {
		values = append(values, ports.Row(t))
	}
	rng := fmt.Sprintf("%s!A1:%s%d", c.sheet, lastColumn, len(values))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	c.logger.InfoContext(ctx, "Replaced mirrored sheet", log.FieldCount, len(txs))
	return nil
}

// locate returns the 1-based row holding id (0 when absent) and the number
// of rows currently used in column A.
func (c *Client) locate(ctx context.Context, id string) (int, int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, cells := range resp.Values {
		if i == 0 || len(cells) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cells[0])) == id {
			return i + 1, len(resp.Values), nil
		}
	}
	return 0, len(resp.Values), nil
}

// Package sheets is a minimal Google Sheets v4 API client covering the
// operations the expense tracker needs: reading header rows and columns,
// writing cells and adding monthly worksheets.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://sheets.googleapis.com"

var (
	// ErrWorksheetNotFound is returned when a worksheet title does not exist
	// in the spreadsheet.
	ErrWorksheetNotFound = errors.New("worksheet not found")
	// ErrAPIFailure is returned when the Sheets API rejects a request.
	ErrAPIFailure = errors.New("sheets api request failed")
)

// Worksheet describes one tab of a spreadsheet.
type Worksheet struct {
	SheetID int64
	Title   string
	Rows    int
	Cols    int
}

// Client is a Google Sheets API client bound to a single spreadsheet.
type Client struct {
	spreadsheetID string
	baseURL       string
	tokens        *TokenSource
	hc            *http.Client
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Sheets API endpoint (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// NewClient creates a client for the given spreadsheet.
func NewClient(spreadsheetID string, tokens *TokenSource, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		spreadsheetID: spreadsheetID,
		baseURL:       defaultBaseURL,
		tokens:        tokens,
		hc: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SpreadsheetID returns the bound spreadsheet ID.
func (c *Client) SpreadsheetID() string {
	return c.spreadsheetID
}

// Ping verifies the spreadsheet is reachable with the current credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Worksheets(ctx)
	return err
}

// Worksheets lists all worksheets of the spreadsheet.
func (c *Client) Worksheets(ctx context.Context) ([]Worksheet, error) {
	path := fmt.Sprintf("/v4/spreadsheets/%s?fields=sheets.properties", c.spreadsheetID)

	var result struct {
		Sheets []struct {
			Properties struct {
				SheetID int64  `json:"sheetId"`
				Title   string `json:"title"`
				Grid    struct {
					RowCount    int `json:"rowCount"`
					ColumnCount int `json:"columnCount"`
				} `json:"gridProperties"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}

	worksheets := make([]Worksheet, 0, len(result.Sheets))
	for _, s := range result.Sheets {
		worksheets = append(worksheets, Worksheet{
			SheetID: s.Properties.SheetID,
			Title:   s.Properties.Title,
			Rows:    s.Properties.Grid.RowCount,
			Cols:    s.Properties.Grid.ColumnCount,
		})
	}

	return worksheets, nil
}

// Worksheet returns the worksheet with the given title.
func (c *Client) Worksheet(ctx context.Context, title string) (*Worksheet, error) {
	worksheets, err := c.Worksheets(ctx)
	if err != nil {
		return nil, err
	}

	for i := range worksheets {
		if worksheets[i].Title == title {
			return &worksheets[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrWorksheetNotFound, title)
}

// AddWorksheet creates a new worksheet with the given title and dimensions.
func (c *Client) AddWorksheet(ctx context.Context, title string, rows, cols int) (*Worksheet, error) {
	body := map[string]any{
		"requests": []map[string]any{
			{
				"addSheet": map[string]any{
					"properties": map[string]any{
						"title": title,
						"gridProperties": map[string]any{
							"rowCount":    rows,
							"columnCount": cols,
						},
					},
				},
			},
		},
	}

	var result struct {
		Replies []struct {
			AddSheet struct {
				Properties struct {
					SheetID int64  `json:"sheetId"`
					Title   string `json:"title"`
				} `json:"properties"`
			} `json:"addSheet"`
		} `json:"replies"`
	}

	path := fmt.Sprintf("/v4/spreadsheets/%s:batchUpdate", c.spreadsheetID)
	if err := c.do(ctx, "POST", path, body, &result); err != nil {
		return nil, err
	}
	if len(result.Replies) == 0 {
		return nil, fmt.Errorf("%w: addSheet returned no reply", ErrAPIFailure)
	}

	props := result.Replies[0].AddSheet.Properties
	c.logger.Info("worksheet created", "title", props.Title, "sheet_id", props.SheetID)

	return &Worksheet{SheetID: props.SheetID, Title: props.Title, Rows: rows, Cols: cols}, nil
}

// RowValues returns the values of a single row (1-based) of a worksheet.
// Trailing empty cells are not included.
func (c *Client) RowValues(ctx context.Context, worksheet string, row int) ([]string, error) {
	rangeRef := fmt.Sprintf("%d:%d", row, row)
	values, err := c.values(ctx, worksheet, rangeRef)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values[0], nil
}

// ColumnValues returns the values of a single column (1-based) of a
// worksheet, from the top down. Trailing empty cells are not included.
func (c *Client) ColumnValues(ctx context.Context, worksheet string, col int) ([]string, error) {
	letter := columnLetter(col)
	values, err := c.values(ctx, worksheet, fmt.Sprintf("%s:%s", letter, letter))
	if err != nil {
		return nil, err
	}

	column := make([]string, 0, len(values))
	for _, row := range values {
		if len(row) > 0 {
			column = append(column, row[0])
		} else {
			column = append(column, "")
		}
	}
	return column, nil
}

// UpdateCell writes a single value at the given 1-based row and column.
func (c *Client) UpdateCell(ctx context.Context, worksheet string, row, col int, value string) error {
	ref := fmt.Sprintf("%s%d", columnLetter(col), row)
	return c.UpdateRange(ctx, worksheet, ref, [][]string{{value}})
}

// UpdateRange writes a rectangular block of values starting at the given
// A1-style reference.
func (c *Client) UpdateRange(ctx context.Context, worksheet, ref string, values [][]string) error {
	rows := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		rows[i] = cells
	}

	body := map[string]any{
		"range":  fmt.Sprintf("%s!%s", worksheet, ref),
		"values": rows,
	}

	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s?valueInputOption=USER_ENTERED",
		c.spreadsheetID, url.PathEscape(fmt.Sprintf("%s!%s", worksheet, ref)))

	return c.do(ctx, "PUT", path, body, nil)
}

// values fetches a range and returns the raw value grid.
func (c *Client) values(ctx context.Context, worksheet, ref string) ([][]string, error) {
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s",
		c.spreadsheetID, url.PathEscape(fmt.Sprintf("%s!%s", worksheet, ref)))

	var result struct {
		Values [][]any `json:"values"`
	}
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}

	grid := make([][]string, len(result.Values))
	for i, row := range result.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

// do executes a request against the Sheets API, decoding the JSON response
// into out when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("getting access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrAPIFailure, method, path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}

	return nil
}

// columnLetter converts a 1-based column index to its A1 letter form
// (1 -> A, 26 -> Z, 27 -> AA).
func columnLetter(col int) string {
	letters := make([]byte, 0, 2)
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

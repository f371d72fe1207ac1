// Package expense implements the expense-tracking domain: monthly worksheet
// lifecycle, category discovery from header rows and appending expense rows.
package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tallylabs/expensebot/internal/sheets"
)

var (
	// ErrUnknownCategory is returned when an expense names a category that
	// is not a header of the current month's worksheet.
	ErrUnknownCategory = errors.New("category not found in spreadsheet")
	// ErrNoCategories is returned when the current worksheet has no header
	// row to derive categories from.
	ErrNoCategories = errors.New("no categories found in spreadsheet")
)

// newWorksheetRows and newWorksheetCols size freshly created monthly tabs.
const (
	newWorksheetRows = 1000
	newWorksheetCols = 40
)

// SheetsAPI is the part of the sheets client the service depends on.
type SheetsAPI interface {
	SpreadsheetID() string
	Worksheets(ctx context.Context) ([]sheets.Worksheet, error)
	Worksheet(ctx context.Context, title string) (*sheets.Worksheet, error)
	AddWorksheet(ctx context.Context, title string, rows, cols int) (*sheets.Worksheet, error)
	RowValues(ctx context.Context, worksheet string, row int) ([]string, error)
	ColumnValues(ctx context.Context, worksheet string, col int) ([]string, error)
	UpdateCell(ctx context.Context, worksheet string, row, col int, value string) error
	UpdateRange(ctx context.Context, worksheet, ref string, values [][]string) error
}

// Service manages monthly worksheets and writes expenses to them. The
// category map for the current month is cached and rebuilt whenever the
// month rolls over.
type Service struct {
	client SheetsAPI
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	cachedMonth string
	categories  map[string]int // category name -> 1-based column index
}

// NewService creates an expense service backed by the given sheets client.
func NewService(client SheetsAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// CurrentMonthTab returns the worksheet title for the current month,
// clearing the category cache when the month has changed since the last call.
func (s *Service) CurrentMonthTab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentMonthTabLocked()
}

func (s *Service) currentMonthTabLocked() string {
	tab := MonthTab(s.now())
	if s.cachedMonth != tab {
		s.categories = nil
		s.cachedMonth = tab
		s.logger.Info("month changed, category cache cleared", "month", tab)
	}
	return tab
}

// Categories returns the category names of the current month's worksheet,
// sorted alphabetically, bootstrapping the worksheet when needed.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureWorksheetLocked(ctx); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// AddExpense writes an expense entry under the given category in the current
// month's worksheet. The amount lands in the category column, the
// description in the column directly to its right, at the first empty row.
func (s *Service) AddExpense(ctx context.Context, category string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureWorksheetLocked(ctx); err != nil {
		return err
	}

	col, ok := s.categories[category]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	tab := s.cachedMonth
	column, err := s.client.ColumnValues(ctx, tab, col)
	if err != nil {
		return fmt.Errorf("reading category column: %w", err)
	}

	row := firstEmptyRow(column)

	s.logger.Info("adding expense",
		"category", category,
		"column", col,
		"row", row,
		"amount", entry.Amount,
	)

	if err := s.client.UpdateCell(ctx, tab, row, col, entry.Amount); err != nil {
		return fmt.Errorf("writing amount: %w", err)
	}
	if entry.Description != "" {
		if err := s.client.UpdateCell(ctx, tab, row, col+1, entry.Description); err != nil {
			return fmt.Errorf("writing description: %w", err)
		}
	}

	return nil
}

// SpreadsheetURL returns a deep link that opens the spreadsheet on the
// current month's tab.
func (s *Service) SpreadsheetURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureWorksheetLocked(ctx); err != nil {
		return "", err
	}

	ws, err := s.client.Worksheet(ctx, s.cachedMonth)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d",
		s.client.SpreadsheetID(), ws.SheetID), nil
}

// ensureWorksheetLocked makes sure the current month's worksheet exists and
// the category map is populated. When the tab is missing it is created and
// the header row of the most recent previous monthly tab is copied over.
func (s *Service) ensureWorksheetLocked(ctx context.Context) error {
	tab := s.currentMonthTabLocked()
	if s.categories != nil {
		return nil
	}

	_, err := s.client.Worksheet(ctx, tab)
	switch {
	case err == nil:
		s.logger.Debug("using existing worksheet", "title", tab)
	case errors.Is(err, sheets.ErrWorksheetNotFound):
		if err := s.createMonthWorksheet(ctx, tab); err != nil {
			return err
		}
	default:
		return fmt.Errorf("looking up worksheet: %w", err)
	}

	headers, err := s.client.RowValues(ctx, tab, 1)
	if err != nil {
		return fmt.Errorf("reading header row: %w", err)
	}

	categories := make(map[string]int)
	for i, value := range headers {
		name := strings.TrimSpace(value)
		if name != "" {
			categories[name] = i + 1
		}
	}
	s.categories = categories

	s.logger.Info("categories rescanned", "month", tab, "count", len(categories))
	return nil
}

// createMonthWorksheet creates a fresh monthly tab and seeds its header row
// from the previous month when one exists.
func (s *Service) createMonthWorksheet(ctx context.Context, tab string) error {
	s.logger.Info("creating worksheet", "title", tab)

	if _, err := s.client.AddWorksheet(ctx, tab, newWorksheetRows, newWorksheetCols); err != nil {
		return fmt.Errorf("creating worksheet: %w", err)
	}

	previous, err := s.previousMonthTab(ctx, tab)
	if err != nil {
		return err
	}
	if previous == "" {
		s.logger.Warn("no previous month worksheet found to copy headers from")
		return nil
	}

	headers, err := s.client.RowValues(ctx, previous, 1)
	if err != nil {
		return fmt.Errorf("reading previous header row: %w", err)
	}

	if !hasContent(headers) {
		s.logger.Warn("previous worksheet has no header row", "title", previous)
		return nil
	}

	if err := s.client.UpdateRange(ctx, tab, "A1", [][]string{headers}); err != nil {
		return fmt.Errorf("copying header row: %w", err)
	}

	s.logger.Info("header row copied", "from", previous, "to", tab)
	return nil
}

// previousMonthTab finds the most recent monthly tab other than the current
// one. Non-monthly tabs and the default sheet are skipped.
func (s *Service) previousMonthTab(ctx context.Context, current string) (string, error) {
	worksheets, err := s.client.Worksheets(ctx)
	if err != nil {
		return "", fmt.Errorf("listing worksheets: %w", err)
	}

	var (
		bestTitle string
		bestMonth time.Time
	)
	for _, ws := range worksheets {
		if ws.Title == current {
			continue
		}
		month, ok := ParseMonthTab(ws.Title)
		if !ok {
			continue
		}
		if bestTitle == "" || month.After(bestMonth) {
			bestTitle = ws.Title
			bestMonth = month
		}
	}

	return bestTitle, nil
}

// firstEmptyRow returns the 1-based row index of the first empty cell in a
// column, never above row 2 so the header row is preserved. The scan stops
// at the first blank cell, matching how expenses are appended contiguously.
func firstEmptyRow(column []string) int {
	row := 2
	for i := 1; i < len(column); i++ {
		if strings.TrimSpace(column[i]) == "" {
			break
		}
		row = i + 2
	}
	return row
}

// hasContent reports whether any cell in the row is non-blank.
func hasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

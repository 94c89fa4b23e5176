package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/m3rciful/airdropbot/airdrop"
	"github.com/m3rciful/airdropbot/core/logger"
	"github.com/m3rciful/airdropbot/core/telegram/netutil"
)

const (
	newSheetRows = 1000
	newSheetCols = 15

	readAttempts = 3
	readBackoff  = 500 * time.Millisecond
)

// SheetsConfig locates the worksheet.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsPath string
}

// Sheets is a Backend over one worksheet of a Google spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string

	mu      sync.Mutex
	sheetID int64
	ready   bool
}

// OpenSheets authenticates with the service account credentials file and
// returns a backend for cfg.SheetName. The worksheet is created lazily.
func OpenSheets(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*Sheets, error) {
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: authorize: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}, nil
}

// Name returns the worksheet title.
func (s *Sheets) Name() string { return s.sheetName }

// Close is a no-op; the HTTP client is shared.
func (s *Sheets) Close() error { return nil }

// Rows reads the whole worksheet.
func (s *Sheets) Rows(ctx context.Context) ([][]string, error) {
	if _, err := s.ensureSheet(ctx); err != nil {
		return nil, err
	}
	var vr *sheets.ValueRange
	err := netutil.Retry(ctx, readAttempts, readBackoff, retryable, func(ctx context.Context) error {
		var err error
		vr, err = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("")).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(vr.Values))
	for i, raw := range vr.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// AppendRow inserts row below the last data row. It is not retried so a
// timed out request cannot be written twice.
func (s *Sheets) AppendRow(ctx context.Context, row []string) error {
	if _, err := s.ensureSheet(ctx); err != nil {
		return err
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.a1("A1"), &sheets.ValueRange{
		Values: [][]any{cells(row)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// UpdateStatus sets column J of every listed row in one batch request.
func (s *Sheets) UpdateStatus(ctx context.Context, updates []airdrop.StatusUpdate) error {
	if _, err := s.ensureSheet(ctx); err != nil {
		return err
	}
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  s.a1(fmt.Sprintf("%s%d", statusColumn, u.Row)),
			Values: [][]any{{u.Status}},
		})
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	return netutil.Retry(ctx, readAttempts, readBackoff, retryable, func(ctx context.Context) error {
		_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		return err
	})
}

// Snapshot duplicates the worksheet inside the same spreadsheet.
func (s *Sheets) Snapshot(ctx context.Context, name string) error {
	id, err := s.ensureSheet(ctx)
	if err != nil {
		return err
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DuplicateSheet: &sheets.DuplicateSheetRequest{
				SourceSheetId: id,
				NewSheetName:  name,
				// sheet id 0 is valid and would be dropped as empty otherwise
				ForceSendFields: []string{"SourceSheetId"},
			},
		}},
	}).Context(ctx).Do()
	return err
}

// ensureSheet resolves the worksheet id, creating the worksheet when it does
// not exist. The worksheet is ready only once row 1 holds the header.
func (s *Sheets) ensureSheet(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return s.sheetID, nil
	}
	var doc *sheets.Spreadsheet
	err := netutil.Retry(ctx, readAttempts, readBackoff, retryable, func(ctx context.Context) error {
		var err error
		doc, err = s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("open spreadsheet: %w", err)
	}
	found := false
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			s.sheetID, found = sh.Properties.SheetId, true
			break
		}
	}

	if found {
		has, err := s.hasHeader(ctx)
		if err != nil {
			return 0, fmt.Errorf("read header: %w", err)
		}
		if !has {
			if err := s.writeHeader(ctx); err != nil {
				return 0, err
			}
		}
		s.ready = true
		return s.sheetID, nil
	}

	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{
				Title: s.sheetName,
				GridProperties: &sheets.GridProperties{
					RowCount:    newSheetRows,
					ColumnCount: newSheetCols,
				},
			}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("create worksheet %q: %w", s.sheetName, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		s.sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "store.sheet_created",
		slog.String("sheet", s.sheetName),
	)
	if err := s.writeHeader(ctx); err != nil {
		return 0, err
	}
	s.ready = true
	return s.sheetID, nil
}

// hasHeader reports whether any cell of the header row is filled.
func (s *Sheets) hasHeader(ctx context.Context) (bool, error) {
	var vr *sheets.ValueRange
	err := netutil.Retry(ctx, readAttempts, readBackoff, retryable, func(ctx context.Context) error {
		var err error
		vr, err = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1(headerRange)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return false, err
	}
	for _, row := range vr.Values {
		for _, cell := range row {
			if strings.TrimSpace(fmt.Sprint(cell)) != "" {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Sheets) writeHeader(ctx context.Context) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.a1(headerRange), &sheets.ValueRange{
		Values: [][]any{cells(airdrop.Header)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// statusColumn is the A1 column letter of the status cell.
var statusColumn = string(rune('A' + airdrop.ColStatus))

// headerRange spans the header row, A1:L1.
var headerRange = fmt.Sprintf("A1:%c1", rune('A'+len(airdrop.Header)-1))

// a1 qualifies cell with the quoted sheet name; an empty cell selects the whole sheet.
func (s *Sheets) a1(cell string) string {
	name := "'" + escapeSheetName(s.sheetName) + "'"
	if cell == "" {
		return name
	}
	return name + "!" + cell
}

func escapeSheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(out)
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// retryable extends netutil.ShouldRetry with API throttling and server errors.
func retryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return netutil.ShouldRetry(err)
}

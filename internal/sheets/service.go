// Package sheets is a thin client over the Google Sheets API scoped to one
// spreadsheet document: whole-sheet reads, whole-sheet overwrites and
// worksheet creation. Service-account credentials only.
package sheets

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/pinpon/datapipe/internal/logger"
)

// Service handles Google Sheets operations against a single spreadsheet.
type Service struct {
	api           *gsheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// New creates a sheets client for the given spreadsheet ID authenticated
// with a service-account credential bundle (JSON).
func New(ctx context.Context, credentials []byte, spreadsheetID string) (*Service, error) {
	const op = "sheets.New"

	jwtConfig, err := google.JWTConfigFromJSON(credentials, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to parse credentials: %v", op, ErrAuthentication, err)
	}

	api, err := gsheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		api:           api,
		spreadsheetID: spreadsheetID,
		log:           logger.WithComponent("sheets"),
	}, nil
}

// NewForURL creates a sheets client for a spreadsheet referenced by URL.
func NewForURL(ctx context.Context, credentials []byte, sheetURL string) (*Service, error) {
	spreadsheetID, err := ExtractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, err
	}
	return New(ctx, credentials, spreadsheetID)
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
func ExtractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", ErrInvalidURL
	}
	return matches[1], nil
}

// FirstSheetName returns the title of the document's first worksheet.
func (s *Service) FirstSheetName(ctx context.Context) (string, error) {
	const op = "FirstSheetName"

	spreadsheet, err := s.api.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError(op, err)
	}
	if len(spreadsheet.Sheets) == 0 {
		return "", fmt.Errorf("%s: %w: spreadsheet has no worksheets", op, ErrNotFound)
	}
	return spreadsheet.Sheets[0].Properties.Title, nil
}

// ReadSheet reads all cell values of a worksheet as strings. An empty
// worksheet yields a nil slice.
func (s *Service) ReadSheet(ctx context.Context, name string) ([][]string, error) {
	const op = "ReadSheet"

	s.log.Debug().Str("sheet", name).Msg("Reading worksheet")

	resp, err := s.api.Spreadsheets.Values.Get(s.spreadsheetID, name).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(op, err)
	}

	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cellString(v)
		}
		values = append(values, cells)
	}

	s.log.Debug().Str("sheet", name).Int("rows", len(values)).Msg("Worksheet read")
	return values, nil
}

// OverwriteSheet replaces the entire contents of a worksheet with the given
// values. The write is a clear-then-update, not a merge.
func (s *Service) OverwriteSheet(ctx context.Context, name string, values [][]interface{}) error {
	const op = "OverwriteSheet"

	s.log.Info().Str("sheet", name).Int("rows", len(values)).Msg("Overwriting worksheet")

	_, err := s.api.Spreadsheets.Values.Clear(s.spreadsheetID, name, &gsheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return wrapAPIError(op, err)
	}

	valueRange := &gsheets.ValueRange{Values: values}
	_, err = s.api.Spreadsheets.Values.Update(s.spreadsheetID, name+"!A1", valueRange).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return wrapAPIError(op, err)
	}

	return nil
}

// EnsureSheet creates the worksheet with a header row when the document does
// not have it yet.
func (s *Service) EnsureSheet(ctx context.Context, name string, header []string) error {
	const op = "EnsureSheet"

	spreadsheet, err := s.api.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return wrapAPIError(op, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == name {
			return nil
		}
	}

	s.log.Info().Str("sheet", name).Msg("Creating worksheet")

	batchUpdateReq := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{
			{AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: name},
			}},
		},
	}
	if _, err := s.api.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return wrapAPIError(op, err)
	}

	if len(header) == 0 {
		return nil
	}

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	valueRange := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.api.Spreadsheets.Values.Update(s.spreadsheetID, name+"!A1", valueRange).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return wrapAPIError(op, err)
	}

	return nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

package sheets

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// Common spreadsheet API errors
var (
	// ErrAuthentication is returned when the service account credentials are
	// rejected or lack access to the spreadsheet.
	ErrAuthentication = errors.New("spreadsheet authentication failed")

	// ErrNotFound is returned when the spreadsheet or worksheet cannot be found.
	ErrNotFound = errors.New("spreadsheet not found")

	// ErrRemote is returned for any other non-success spreadsheet API response.
	ErrRemote = errors.New("spreadsheet API request failed")

	// ErrInvalidURL is returned when a spreadsheet ID cannot be extracted
	// from a Google Sheets URL.
	ErrInvalidURL = errors.New("invalid Google Sheets URL format")
)

// wrapAPIError classifies a Google API failure into the package sentinels so
// callers can match with errors.Is.
func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fmt.Errorf("%s: %w: %v", op, ErrAuthentication, err)
		case 404:
			return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
		default:
			return fmt.Errorf("%s: %w: %v", op, ErrRemote, err)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrRemote, err)
}

// Package source loads raw tables from the supported data sources (uploaded
// files, a Google Sheet by URL, a Notion database) and hands them to the
// normalizer. Every adapter returns a canonicalized table.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/normalize"
	"github.com/pinpon/datapipe/internal/table"
)

// LoadFile parses an uploaded file by extension (.csv, .xlsx, .xls) and
// returns the normalized table. Unknown extensions fail with
// ErrUnsupportedFormat.
func LoadFile(name string, r io.Reader) (*table.Table, error) {
	const op = "LoadFile"

	log := logger.WithComponent("source-file")

	var (
		t   *table.Table
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		t, err = readCSV(r)
	case ".xlsx", ".xls":
		t, err = readWorkbook(r)
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse %q: %w", op, name, err)
	}

	log.Info().Str("file", name).Int("rows", t.Len()).Msg("File loaded")
	return normalize.Normalize(t), nil
}

func readCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows allowed
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return table.New(), nil
	}
	return table.FromGrid(records[0], records[1:]), nil
}

func readWorkbook(r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return table.New(), nil
	}
	return table.FromGrid(rows[0], rows[1:]), nil
}

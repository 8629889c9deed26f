package source

import (
	"context"
	"fmt"

	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/normalize"
	"github.com/pinpon/datapipe/internal/sheets"
	"github.com/pinpon/datapipe/internal/table"
)

// LoadGoogleSheet loads the first worksheet of a Google Sheet referenced by
// URL, treating the first row as the header, and returns the normalized
// table. Credential and lookup failures surface as sheets.ErrAuthentication
// and sheets.ErrNotFound.
func LoadGoogleSheet(ctx context.Context, credentials []byte, sheetURL string) (*table.Table, error) {
	const op = "LoadGoogleSheet"

	log := logger.WithComponent("source-gsheet")

	svc, err := sheets.NewForURL(ctx, credentials, sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	worksheet, err := svc.FirstSheetName(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	values, err := svc.ReadSheet(ctx, worksheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(values) == 0 {
		return table.New(), nil
	}

	t := table.FromGrid(values[0], values[1:])
	log.Info().Str("worksheet", worksheet).Int("rows", t.Len()).Msg("Google Sheet loaded")
	return normalize.Normalize(t), nil
}

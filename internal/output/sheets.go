package output

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure SheetsWriter implements model.TableWriter.
var _ model.TableWriter = (*SheetsWriter)(nil)

// SheetsWriter mirrors the snapshot into one tab of a Google spreadsheet.
// Each run clears the tab's columns and rewrites them from A1.
type SheetsWriter struct {
	service       *sheets.Service
	spreadsheetID string
	tab           string
}

// NewSheetsWriter creates the Sheets client. Credentials are supplied through
// opts, typically option.WithCredentialsFile.
func NewSheetsWriter(ctx context.Context, spreadsheetID, tab string, opts ...option.ClientOption) (*SheetsWriter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}
	if tab == "" {
		tab = "Jobs"
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}
	return &SheetsWriter{
		service:       service,
		spreadsheetID: spreadsheetID,
		tab:           tab,
	}, nil
}

// WriteRecords clears the tab and writes the header plus one row per record.
func (w *SheetsWriter) WriteRecords(ctx context.Context, records []model.JobRecord) error {
	clearRange := w.tab + "!A:H"
	if _, err := w.service.Spreadsheets.Values.Clear(w.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: clearing %s: %w", clearRange, err)
	}

	values := make([][]interface{}, 0, len(records)+1)
	values = append(values, toCells(Header))
	for _, r := range records {
		values = append(values, toCells(Row(r)))
	}

	updateRange := w.tab + "!A1"
	_, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, updateRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: updating %s: %w", updateRange, err)
	}
	return nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

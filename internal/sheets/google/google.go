package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	ports "eixo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Exporter writes each export to a new tab of one spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.TransactionExporter = (*Exporter)(nil)

// Credentials names where the service account key comes from. JSON wins over
// File; both empty falls back to GOOGLE_APPLICATION_CREDENTIALS.
type Credentials struct {
	JSON string
	File string
}

func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing export spreadsheet id")
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func loadCredentials(creds Credentials) ([]byte, error) {
	jsonCreds := strings.TrimSpace(creds.JSON)
	file := strings.TrimSpace(creds.File)
	if jsonCreds == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case jsonCreds != "":
		return []byte(jsonCreds), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(creds)
	if err != nil {
		return nil, err
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}

// ExportTransactions adds a tab named title and writes rows from A1. The last
// column is written as a number.
func (e *Exporter) ExportTransactions(ctx context.Context, title string, rows [][]string) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(rows) == 0 {
		return "", errors.New("nothing to export")
	}

	add := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	resp, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, add).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("add sheet %q: %w", title, err)
	}
	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	vr := &gsheet.ValueRange{Values: toValues(rows)}
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, quoteSheet(title)+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("write values: %w", err)
	}

	slog.InfoContext(ctx, "Transactions exported to Google Sheets",
		"sheet", title,
		"rows", len(rows)-1)

	return fmt.Sprintf("%s#gid=%d", e.spreadsheetID, sheetID), nil
}

// toValues converts rows for the API. Data rows get their last cell as a
// float when it parses, so the sheet can sum the column.
func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for i, row := range rows {
		vals := make([]interface{}, len(row))
		for j, cell := range row {
			vals[j] = cell
			if i > 0 && j == len(row)-1 {
				if f, err := strconv.ParseFloat(cell, 64); err == nil {
					vals[j] = f
				}
			}
		}
		out = append(out, vals)
	}
	return out
}

// quoteSheet quotes a sheet title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// Package google exports computed statements to a Google Sheets spreadsheet,
// one tab per building and month.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"koinochrista/internal/core"
	"koinochrista/internal/export"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab name; the building ID and month label are appended, e.g.
	// "Statements 1 2025-07".
	sheetBase string
}

var _ export.StatementWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Statements").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "Statements"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// WriteStatement replaces the statement tab for (building, month) with the
// current computed lines.
func (c *Client) WriteStatement(ctx context.Context, st *core.Statement) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheetName := fmt.Sprintf("%s %d %s", c.sheetBase, st.BuildingID, st.MonthLabel)
	if err := c.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	values := statementRows(st)
	clearRange := fmt.Sprintf("%s!A:J", sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1:J%d", sheetName, len(values))
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Exported statement",
		"building_id", st.BuildingID,
		"month", st.MonthLabel,
		"rows", len(values))
	return nil
}

// ensureSheet adds the tab when it does not exist yet.
func (c *Client) ensureSheet(ctx context.Context, sheetName string) error {
	spreadsheet, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheetName},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheetName, err)
	}
	return nil
}

// statementRows flattens a statement into spreadsheet rows: a header, one
// row per apartment, and a totals row.
func statementRows(st *core.Statement) [][]any {
	values := [][]any{{
		"Apartment", "Owner", "Mills", "Previous", "Expenses",
		"Reserve", "Fee", "Payments", "Net", "Status",
	}}
	for _, line := range st.Apartments {
		values = append(values, []any{
			line.ApartmentNumber,
			line.OwnerName,
			line.Mills,
			line.PreviousBalance.String(),
			line.ExpenseShare.String(),
			line.ReserveContribution.String(),
			line.ManagementFee.String(),
			line.TotalPayments.String(),
			line.NetObligation.String(),
			string(line.Status),
		})
	}
	values = append(values, []any{
		"Total", "", "", "",
		"", "", "",
		st.Summary.TotalPayments.String(),
		st.Summary.TotalNetObligations.String(),
		fmt.Sprintf("debt:%d critical:%d", st.Summary.DebtCount, st.Summary.CriticalCount),
	})
	return values
}

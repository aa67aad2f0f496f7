// Package google exports goals to a Google Sheets spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"goals/internal/core"
	ports "goals/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ ports.GoalExporter = (*Client)(nil)

// New builds a client for one sheet. Without extra options, credentials come
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func New(ctx context.Context, spreadsheetID, sheet string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return nil, errors.New("missing sheet name")
	}

	if len(opts) == 0 {
		creds, err := credentialsFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	slog.InfoContext(ctx, "Read service account credentials", "path", path, "size", len(b))
	return b, nil
}

// UpsertGoal locates the goal's row by id in column A and rewrites it, or
// appends after the last row. The header row is written when missing.
func (c *Client) UpsertGoal(ctx context.Context, g core.Goal) (string, error) {
	col, err := c.readColumnA(ctx)
	if err != nil {
		return "", err
	}
	if len(col) == 0 {
		if err := c.writeRow(ctx, 1, ports.Header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		col = [][]any{{ports.Header[0]}}
	}

	row, found := ports.FindRow(col, g.ID)
	if err := c.writeRow(ctx, row, ports.GoalRow(g)); err != nil {
		return "", fmt.Errorf("write goal %s: %w", g.ID, err)
	}

	ref := c.rowRange(row)
	slog.InfoContext(ctx, "Exported goal to sheet",
		"goal_id", g.ID,
		"sheet_row", row,
		"appended", !found)
	return ref, nil
}

// ReplaceAll clears the sheet and writes the header plus one row per goal.
func (c *Client) ReplaceAll(ctx context.Context, goals []core.Goal) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, fmt.Sprintf("%s!A:%s", c.sheet, ports.LastColumn), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheet, err)
	}

	values := make([][]any, 0, len(goals)+1)
	values = append(values, toCells(ports.Header))
	for _, g := range goals {
		values = append(values, toCells(ports.GoalRow(g)))
	}
	rng := fmt.Sprintf("%s!A1:%s%d", c.sheet, ports.LastColumn, len(values))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Replaced goals sheet", "sheet", c.sheet, "count", len(goals))
	return nil
}

func (c *Client) readColumnA(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRow(ctx context.Context, row int, cells []string) error {
	rng := c.rowRange(row)
	vr := &gsheet.ValueRange{Values: [][]any{toCells(cells)}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, ports.LastColumn, row)
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

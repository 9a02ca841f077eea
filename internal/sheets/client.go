// Package sheets implements the remote table on top of the Google Sheets
// API. The spreadsheet mirrors the local data file: one header row plus
// one row per application record.
package sheets

import (
	"context"
	"fmt"

	"github.com/apptrack/apptrack/internal/record"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// DefaultRange covers the whole first sheet.
const DefaultRange = "Sheet1"

// Client reads and writes one spreadsheet as a whole table.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	readRange     string
	logger        *zap.Logger
}

// NewClient authenticates with a service account key file and binds to
// the given spreadsheet.
func NewClient(ctx context.Context, credentialsFile, spreadsheetID string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		readRange:     DefaultRange,
		logger:        logger,
	}, nil
}

// Fetch downloads the whole table.
func (c *Client) Fetch(ctx context.Context) (record.Snapshot, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading spreadsheet %s: %w", c.spreadsheetID, err)
	}
	snap := SnapshotFromRows(resp.Values)
	c.logger.Debug("fetched spreadsheet", zap.Int("rows", len(resp.Values)), zap.Int("records", len(snap)))
	return snap, nil
}

// Overwrite replaces the whole table with snap: the sheet is cleared
// first so rows deleted locally do not linger remotely.
func (c *Client) Overwrite(ctx context.Context, snap record.Snapshot) error {
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.readRange, &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing spreadsheet %s: %w", c.spreadsheetID, err)
	}
	vr := &gsheets.ValueRange{Values: RowsFromSnapshot(snap)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.readRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("updating spreadsheet %s: %w", c.spreadsheetID, err)
	}
	c.logger.Debug("overwrote spreadsheet", zap.Int("records", len(snap)))
	return nil
}

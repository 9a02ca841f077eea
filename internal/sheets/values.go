package sheets

import (
	"fmt"

	"github.com/apptrack/apptrack/internal/record"
)

// RowsFromSnapshot renders the table as sheet values: the column header
// row followed by one row per record, all cells as strings.
func RowsFromSnapshot(snap record.Snapshot) [][]interface{} {
	rows := make([][]interface{}, 0, len(snap)+1)
	header := make([]interface{}, len(record.Columns))
	for i, col := range record.Columns {
		header[i] = col
	}
	rows = append(rows, header)
	for _, app := range snap {
		rows = append(rows, []interface{}{
			app.Company,
			app.Position,
			app.PortalURL,
			app.DateApplied,
			string(app.Status),
		})
	}
	return rows
}

// SnapshotFromRows parses sheet values into a normalized snapshot. A
// leading header row is skipped, short rows are padded with empty cells,
// and non-string cells are stringified. Rows with no company and no
// position are dropped; the sheet UI leaves such husks behind.
func SnapshotFromRows(rows [][]interface{}) record.Snapshot {
	var snap record.Snapshot
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		app := record.Application{
			Company:     cell(row, 0),
			Position:    cell(row, 1),
			PortalURL:   cell(row, 2),
			DateApplied: cell(row, 3),
			Status:      record.Status(cell(row, 4)),
		}
		if app.Company == "" && app.Position == "" {
			continue
		}
		snap = append(snap, app)
	}
	return record.Normalize(snap)
}

func isHeader(row []interface{}) bool {
	return len(row) > 0 && cell(row, 0) == record.FieldCompany
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprint(row[i])
}

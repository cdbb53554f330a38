// filepath: internal/repository/utils.go
package repository

import (
	"database/sql"

	"courrierkit/internal/models"
)

// scanRow reads the current row into a models.Row, keeping column order.
// TEXT values come back as string rather than []byte.
func scanRow(rows *sql.Rows, columns []string) (models.Row, error) {
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return models.Row{}, err
	}

	for i, val := range values {
		if b, ok := val.([]byte); ok {
			values[i] = string(b)
		}
	}

	return models.Row{Columns: columns, Values: values}, nil
}

// collectRows drains rows into a slice of models.Row.
func collectRows(rows *sql.Rows) ([]models.Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []models.Row
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func filterExisting(wanted []string, have map[string]bool) (present, missing []string) {
	for _, c := range wanted {
		if have[c] {
			present = append(present, c)
		} else {
			missing = append(missing, c)
		}
	}
	return present, missing
}

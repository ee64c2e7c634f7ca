package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CoerceValue renders a sampled value as a string suitable for the
// reasoning service. Dates render as YYYY-MM-DD; JSON and composite values
// are serialized to a JSON string; everything else is stringified.
// The second return is false for NULL values, which callers must drop.
func CoerceValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case time.Time:
		return val.Format("2006-01-02"), true
	case *time.Time:
		if val == nil {
			return "", false
		}
		return val.Format("2006-01-02"), true
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val), true
		}
		return string(b), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// CoerceRow builds a Row from parallel column name and value slices,
// dropping NULLs.
func CoerceRow(columns []string, values []any) Row {
	row := make(Row, len(columns))
	for i, name := range columns {
		if i >= len(values) {
			break
		}
		if s, ok := CoerceValue(values[i]); ok {
			row[name] = s
		}
	}
	return row
}

// ScanRows drains a database/sql result set into coerced Rows.
// Shared by the adapters built on database/sql drivers.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		result = append(result, CoerceRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample rows: %w", err)
	}

	return result, nil
}

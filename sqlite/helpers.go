package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// parseTimestamp reads a column stored with time.RFC3339.
func parseTimestamp(value, column string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", column, value, err)
	}
	return t, nil
}

// paginate appends LIMIT and OFFSET clauses. SQLite only accepts OFFSET
// after a LIMIT, so an offset without a limit uses LIMIT -1.
func paginate(query *strings.Builder, args *[]any, limit, offset int) {
	switch {
	case limit > 0:
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	case offset > 0:
		query.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}

package postgres

import (
	"database/sql"
	"encoding/json"
	"time"
)

// nullTime converts a domain timestamp to its database representation.
// Zero times are stored as NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// timeFromNull converts a nullable database timestamp back to a domain
// timestamp, mapping NULL to the zero time.
func timeFromNull(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time
}

// nullJSON converts raw JSON to its database representation. Empty
// payloads are stored as NULL rather than an empty string, which JSONB
// columns would reject.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

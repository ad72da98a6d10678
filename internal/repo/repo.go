// Package repo is the raw database/sql persistence layer. Nested structures
// (skills, reviews, decision options) live in JSON columns; timestamps are
// RFC3339 TEXT in UTC.
package repo

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func tsPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

func parseTS(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTSPtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTS(s.String)
	return &t
}

// jsonEnc marshals v for a JSON column. Encoding failures collapse to the
// given zero literal rather than poisoning the row.
func jsonEnc(v any, zero string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return zero
	}
	return string(data)
}

func jsonDec(data string, v any) {
	if data == "" {
		return
	}
	_ = json.Unmarshal([]byte(data), v)
}

func notFoundOnZero(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

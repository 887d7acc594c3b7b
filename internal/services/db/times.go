package db

import (
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// timestamps are stored as RFC3339 text in UTC; optional timestamps store the
// empty string when unset, which SQLiteTime scans back to the zero time

func sqlTime(t time.Time) treasury.SQLiteTime {
	return treasury.SQLiteTime(t.UTC())
}

func sqlOptTime(t time.Time) any {
	if t.IsZero() {
		return ""
	}

	return treasury.SQLiteTime(t.UTC())
}

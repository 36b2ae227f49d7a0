package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// pgDateToTime converts pgtype.Date to time.Time in UTC.
func pgDateToTime(d pgtype.Date) time.Time {
	if d.Valid {
		return d.Time
	}
	return time.Time{}
}

// pgDateToTimePtr converts pgtype.Date to *time.Time.
func pgDateToTimePtr(d pgtype.Date) *time.Time {
	if d.Valid {
		t := d.Time
		return &t
	}
	return nil
}

// timeToPgDate converts time.Time to pgtype.Date, keeping the calendar day
// of t's own location.
func timeToPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// timePtrToPgDate converts *time.Time to pgtype.Date.
func timePtrToPgDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	return timeToPgDate(*t)
}

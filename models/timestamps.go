package models

import "time"

// utc normalizes a timestamp read back from the database. Drivers return
// instants in the connection's zone; the API always speaks UTC.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := utc(*t)
	return &u
}

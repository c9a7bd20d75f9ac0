package util

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID generates a new time-ordered ULID string for audit rows.
func NewULID() string {
	return ulid.Make().String()
}

// ULIDTime returns the timestamp embedded in id.
func ULIDTime(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}

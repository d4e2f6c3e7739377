package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// ClockTime is a wall-clock time of day with minute precision, stored as
// minutes since midnight. Its wire format is "HH:MM".
type ClockTime int

// NewClockTime builds a ClockTime from hours and minutes.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses "HH:MM". Seconds ("HH:MM:SS") are accepted and dropped.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	layout := constants.ClockTimeLayout
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

// MustClockTime parses s and panics on error. Intended for tests and constants.
func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Minutes returns the number of minutes since midnight.
func (c ClockTime) Minutes() int {
	return int(c)
}

// String formats the time as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalJSON implements json.Marshaler.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan implements sql.Scanner for TIME columns.
func (c *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*c = NewClockTime(v.Hour(), v.Minute())
		return nil
	case []byte:
		parsed, err := ParseClockTime(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case int64:
		*c = ClockTime(v)
		return nil
	}
	return fmt.Errorf("cannot scan %T into ClockTime", src)
}

// Value implements driver.Valuer.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// WorkDate is a calendar date in "YYYY-MM-DD" form.
type WorkDate string

// ParseWorkDate validates and normalises s.
func ParseWorkDate(s string) (WorkDate, error) {
	t, err := time.Parse(constants.WorkDateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid work date %q: %w", s, err)
	}
	return WorkDate(t.Format(constants.WorkDateLayout)), nil
}

// NewWorkDate formats t as a WorkDate.
func NewWorkDate(t time.Time) WorkDate {
	return WorkDate(t.Format(constants.WorkDateLayout))
}

// Time returns the date at midnight UTC.
func (d WorkDate) Time() (time.Time, error) {
	return time.Parse(constants.WorkDateLayout, string(d))
}

// String returns the date in "YYYY-MM-DD" form.
func (d WorkDate) String() string {
	return string(d)
}

// Scan implements sql.Scanner for DATE columns.
func (d *WorkDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewWorkDate(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	}
	return fmt.Errorf("cannot scan %T into WorkDate", src)
}

func (d *WorkDate) scanString(s string) error {
	if len(s) > len(constants.WorkDateLayout) {
		s = s[:len(constants.WorkDateLayout)]
	}
	parsed, err := ParseWorkDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d WorkDate) Value() (driver.Value, error) {
	return string(d), nil
}

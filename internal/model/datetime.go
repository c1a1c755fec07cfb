package model

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire format for every timestamp exchanged over HTTP.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateTime is a UTC timestamp encoded as "yyyy-MM-dd HH:mm:ss".
type DateTime struct {
	time.Time
}

// NewDateTime truncates t to whole seconds in UTC.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC().Truncate(time.Second)}
}

// ParseDateTime parses s using DateTimeLayout as UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date-time %q, expected %s", s, DateTimeLayout)
	}
	return t, nil
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.UTC().Format(DateTimeLayout) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateTime) String() string {
	return d.UTC().Format(DateTimeLayout)
}

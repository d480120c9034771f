package timex

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// StampLayout is the TEXT form of timestamp columns: UTC, nanosecond
// precision, fixed width. Lexical order of stamps equals time order.
const StampLayout = "2006-01-02T15:04:05.000000000Z"

// ErrStampRange is returned for times whose UTC year is outside 0000-9999.
var ErrStampRange = errors.New("time outside the storable range")

// CheckStamp reports whether t can be stored by FormatStamp.
func CheckStamp(t time.Time) error {
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return fmt.Errorf("%w: %s", ErrStampRange, t.Format(time.RFC3339Nano))
	}
	return nil
}

// FormatStamp encodes t for a TEXT column.
func FormatStamp(t time.Time) (string, error) {
	if err := CheckStamp(t); err != nil {
		return "", err
	}
	return t.UTC().Format(StampLayout), nil
}

// ParseStamp decodes a value written by FormatStamp as UTC.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.Parse(StampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Stamp adapts a required timestamp column for Exec arguments and Scan
// destinations.
type Stamp struct {
	Time time.Time
}

func (s Stamp) Value() (driver.Value, error) {
	return FormatStamp(s.Time)
}

func (s *Stamp) Scan(src any) error {
	str, err := stampText(src)
	if err != nil {
		return err
	}
	s.Time, err = ParseStamp(str)
	return err
}

// NullStamp is Stamp for nullable columns; a nil Time is SQL NULL.
type NullStamp struct {
	Time *time.Time
}

func (s NullStamp) Value() (driver.Value, error) {
	if s.Time == nil {
		return nil, nil
	}
	return FormatStamp(*s.Time)
}

func (s *NullStamp) Scan(src any) error {
	if src == nil {
		s.Time = nil
		return nil
	}
	str, err := stampText(src)
	if err != nil {
		return err
	}
	t, err := ParseStamp(str)
	if err != nil {
		return err
	}
	s.Time = &t
	return nil
}

func stampText(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into a stamp", src)
	}
}

package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a civil time-of-day expressed as minutes since midnight.
// No timezone handling; callers exchange it as "HH:MM".
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	tod := TimeOfDay(hours*60 + minutes)
	if !tod.Valid() {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return tod, nil
}

// Valid reports whether the value lies within a single day. 24:00 is a
// permitted end-of-day boundary.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= minutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON renders the value as a quoted "HH:MM" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid time of day payload: %w", err)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner for SMALLINT columns.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
	case int32:
		*t = TimeOfDay(v)
	case int16:
		*t = TimeOfDay(v)
	case nil:
		*t = 0
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return int64(t), nil
}

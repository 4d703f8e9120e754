// Package schedule holds the pure time arithmetic behind doctor
// availability: a canonical time-of-day representation and slot
// generation over a working window.
package schedule

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is minutes since midnight. It is the canonical form every
// slot label is reduced to before comparison; rendering back to "HH:MM"
// or "hh:MM AM/PM" happens only at the edges.
type TimeOfDay int

// Unset marks a missing time-of-day, e.g. a doctor who has not
// configured working hours yet.
const Unset TimeOfDay = -1

const minutesPerDay = 24 * 60

func New(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Parse accepts both 24-hour ("14:00") and 12-hour ("02:00 PM") labels.
// Legacy appointment rows store either form interchangeably, so every
// read path must go through here.
func Parse(s string) (TimeOfDay, error) {
	orig := s
	s = strings.TrimSpace(s)

	meridiem := ""
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		meridiem = upper[len(upper)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return Unset, fmt.Errorf("invalid time %q", orig)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return Unset, fmt.Errorf("invalid time %q", orig)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || minute < 0 || minute > 59 {
		return Unset, fmt.Errorf("invalid time %q", orig)
	}

	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return Unset, fmt.Errorf("invalid time %q", orig)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return Unset, fmt.Errorf("invalid time %q", orig)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return Unset, fmt.Errorf("invalid time %q", orig)
		}
	}

	return New(hour, minute), nil
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// Format24 renders the canonical "HH:MM" label.
func (t TimeOfDay) Format24() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Format12 renders "hh:MM AM/PM". Hour 0 is 12 AM, hour 12 is 12 PM.
func (t TimeOfDay) Format12() string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "AM"
	if t.Hour() >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", hour, t.Minute(), meridiem)
}

func (t TimeOfDay) String() string {
	return t.Format24()
}

// Labels returns every spelling a stored slot may carry for this time:
// the canonical 24-hour label plus the padded and unpadded 12-hour
// forms legacy rows were written with.
func (t TimeOfDay) Labels() []string {
	padded := t.Format12()
	unpadded := strings.TrimPrefix(padded, "0")
	if unpadded == padded {
		return []string{t.Format24(), padded}
	}
	return []string{t.Format24(), padded, unpadded}
}

// At anchors the time-of-day on the given calendar day, in that day's
// location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

// Scan parses either label format, so rows written before the canonical
// form was enforced still load.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = Unset
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case int64:
		*t = TimeOfDay(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// Value always writes the canonical 24-hour label.
func (t TimeOfDay) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, nil
	}
	return t.Format24(), nil
}

// MarshalJSON renders the canonical label so API payloads carry "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.Format24())), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid time label: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

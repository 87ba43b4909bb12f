// Package timex extends time.Duration handling for configuration: JSON
// values may be strings such as "15m" or "90d", or integer nanoseconds.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Day is 24 hours. Calendar irregularities (DST) are ignored on purpose for
// validity arithmetic, which is performed in UTC.
const Day = 24 * time.Hour

// Duration wraps time.Duration for JSON decoding.
type Duration struct {
	time.Duration
}

// ParseDuration accepts everything time.ParseDuration does plus a whole
// number of days with a "d" suffix ("90d"). Mixed forms like "1d12h" are
// not supported.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		return time.Duration(n) * Day, nil
	}
	return time.ParseDuration(s)
}

// MarshalJSON encodes the duration in its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes either a duration string or integer nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// DaysCeil returns the number of started days in d; zero or negative
// durations yield 0.
func DaysCeil(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := int(d / Day)
	if d%Day != 0 {
		days++
	}
	return days
}

package ohlcv

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"UyoAI/internal/model"
)

// ErrInvalidDate is returned when a date string cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts an ISO-8601 date or date-time and returns its calendar
// date. Anything after the first ten characters is ignored, so
// "2024-01-05T23:59:59-05:00" is 2024-01-05.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

package sizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a size string has no recognizable unit or number.
var ErrInvalidFormat = errors.New("invalid size format")

// unit is one step of the binary size ladder.
type unit struct {
	symbol string
	factor float64
}

// units is ordered from the smallest to the largest factor.
var units = []unit{
	{symbol: "B", factor: 1},
	{symbol: "kB", factor: 1 << 10},
	{symbol: "MB", factor: 1 << 20},
	{symbol: "GB", factor: 1 << 30},
	{symbol: "TB", factor: 1 << 40},
	{symbol: "PB", factor: 1 << 50},
}

// Parse converts a "<number> <unit>" string into a byte count.
// An empty string yields 0. Non-breaking spaces are accepted as separators
// because the tracker renders sizes with &nbsp;.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if s == "" {
		return 0, nil
	}

	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	for _, u := range units {
		if fields[1] == u.symbol {
			return int64(value * u.factor), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidFormat, fields[1])
}

// Format renders a byte count with the largest unit whose value stays
// below 1024, using two decimal digits.
func Format(n int64) string {
	v := float64(n)
	u := units[0]
	for _, next := range units[1:] {
		if v < next.factor {
			break
		}
		u = next
	}
	return fmt.Sprintf("%.2f %s", v/u.factor, u.symbol)
}

package jwtx

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTTL parses a token lifetime. It accepts Go durations ("15m", "12h"),
// day and week suffixes ("7d", "2w") and bare integers, which are seconds.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("jwtx: empty ttl")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return positive(time.Duration(n)*time.Second, s)
	}

	unit := time.Duration(0)
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}
	if unit != 0 {
		n, err := strconv.Atoi(strings.TrimSpace(s[:len(s)-1]))
		if err != nil {
			return 0, fmt.Errorf("jwtx: invalid ttl %q", s)
		}
		return positive(time.Duration(n)*unit, s)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("jwtx: invalid ttl %q: %w", s, err)
	}
	return positive(d, s)
}

func positive(d time.Duration, raw string) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("jwtx: ttl %q must be positive", raw)
	}
	return d, nil
}

package watch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nugget/mqttwatch/internal/config"
)

// parseHHMM converts "HH:MM" to minutes since midnight.
func parseHHMM(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed minute in %q", s)
	}
	return h*60 + m, nil
}

// withinActiveHours reports whether now falls inside at least one of
// the configured local-time ranges. An empty range list means always
// active. A range with from <= to is inclusive on both ends; from > to
// wraps midnight. Malformed ranges are skipped (the error is returned
// for the caller to log once).
func withinActiveHours(ranges []config.TimeRange, now time.Time) (bool, error) {
	if len(ranges) == 0 {
		return true, nil
	}

	minutes := now.Hour()*60 + now.Minute()
	var firstErr error
	for _, r := range ranges {
		from, err := parseHHMM(r.From)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		to, err := parseHHMM(r.To)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if from <= to {
			if minutes >= from && minutes <= to {
				return true, firstErr
			}
		} else if minutes >= from || minutes <= to {
			return true, firstErr
		}
	}
	return false, firstErr
}

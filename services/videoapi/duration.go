package videoapi

import (
	"regexp"
	"strconv"
)

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDurationMinutes converts a platform ISO-8601 duration (e.g. "PT1H42M10S")
// into total whole minutes. Seconds are discarded, not rounded. Malformed input
// yields zero so a single bad field never aborts a batch.
func ParseDurationMinutes(s string) int {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	days := atoi(m[1])
	hours := atoi(m[2])
	minutes := atoi(m[3])
	return days*24*60 + hours*60 + minutes
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

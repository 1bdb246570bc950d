package youtube

import (
	"regexp"
	"strconv"
)

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts an ISO-8601 video duration (PT#H#M#S) to seconds.
// Unparseable input yields 0, which classifies as a Short; the next metadata
// refresh corrects it.
func ParseDuration(iso string) int {
	match := durationPattern.FindStringSubmatch(iso)
	if match == nil {
		return 0
	}

	hours, _ := strconv.Atoi(zeroIfEmpty(match[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(match[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(match[3]))

	return hours*3600 + minutes*60 + seconds
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

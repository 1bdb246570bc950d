package database

import "time"

// timeLayout is how timestamps are stored. RFC3339 in UTC keeps string
// comparison in SQL consistent with chronological order.
const timeLayout = time.RFC3339

// Today returns today's date as YYYY-MM-DD in local time, matching the
// daily ranking and quota reset boundary.
func Today() string {
	return time.Now().Format("2006-01-02")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

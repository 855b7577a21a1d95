package dto

import "time"

// CivilLayout is how phase start/end are written on the wire: a wall clock
// without zone, read in the scheduler timezone.
const CivilLayout = "2006-01-02T15:04:05"

// timeLayout formats audit timestamps.
const timeLayout = time.RFC3339

// FormatTime formats an audit timestamp.
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// FormatCivil formats a stored civil time.
func FormatCivil(t time.Time) string {
	return t.Format(CivilLayout)
}

// ParseCivil parses a civil time. The result carries UTC only as a neutral
// zone; the wall clock is what gets stored.
func ParseCivil(s string) (time.Time, error) {
	return time.ParseInLocation(CivilLayout, s, time.UTC)
}

// ── query parameters ──

// LimitRequest caps list sizes.
type LimitRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// GetLimit returns the limit with its default.
func (r *LimitRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 50
	}
	return r.Limit
}

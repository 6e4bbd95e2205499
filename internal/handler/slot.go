package handler

import (
	"time"

	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// parseSlot interprets date plus start and end clock times in loc and
// returns the UTC window. The end must be strictly after the start.
func parseSlot(date, start, end string, loc *time.Location) (time.Time, time.Time, error) {
	s, err := time.ParseInLocation("2006-01-02 15:04", date+" "+start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, validation.Fieldf("startTime", "Invalid date or time")
	}
	e, err := time.ParseInLocation("2006-01-02 15:04", date+" "+end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, validation.Fieldf("endTime", "Invalid date or time")
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, validation.Fieldf("endTime", "must be after startTime")
	}
	return s.UTC(), e.UTC(), nil
}

// dayBounds returns the UTC window covering the local calendar day.
func dayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, validation.Fieldf("date", "Invalid date format YYYY-MM-DD")
	}
	return d.UTC(), d.AddDate(0, 0, 1).UTC(), nil
}

// parseMoment accepts RFC 3339 timestamps, "YYYY-MM-DD HH:MM" and bare
// dates (start of day) in loc.
func parseMoment(v string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

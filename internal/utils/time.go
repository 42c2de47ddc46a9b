package utils

import (
	"time"
)

// DateLayout is the calendar-date form used for intended dates and trip dates.
const DateLayout = "2006-01-02"

// LoadLocation falls back to UTC when the zone name is empty or unknown.
func LoadLocation(timezone string) *time.Location {
	if timezone == "" {
		timezone = DefaultTimeZone
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

func IsValidDate(date string) bool {
	_, err := ParseDate(date)
	return err == nil
}

// YesterdayAndToday computes both calendar dates once from the same instant.
func YesterdayAndToday(now time.Time, loc *time.Location) (string, string) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return local.AddDate(0, 0, -1).Format(DateLayout), local.Format(DateLayout)
}

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, 999999999, t.Location())
}

// DayRange turns two calendar dates into the instant range covering both
// whole days in loc.
func DayRange(startDate, endDate string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(DateLayout, startDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(DateLayout, endDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return StartOfDay(start), EndOfDay(end), nil
}

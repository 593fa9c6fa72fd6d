package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDateString is returned when a date string is not "M/D/YYYY h:mm AM|PM TZ"
var ErrInvalidDateString = errors.New("invalid date string")

var dateStringPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})\s(\d{1,2}):(\d{2})\s(AM|PM)\s([A-Z]{2,4})$`)

// timezoneOffsets maps US timezone abbreviations to fixed UTC offsets in hours.
// The abbreviation itself names standard or daylight time, so no DST rules apply.
var timezoneOffsets = map[string]int{
	"PST":  -8,
	"PDT":  -7,
	"MST":  -7,
	"MDT":  -6,
	"CST":  -6,
	"CDT":  -5,
	"EST":  -5,
	"EDT":  -4,
	"AKST": -9,
	"AKDT": -8,
	"HST":  -10,
	"UTC":  0,
	"GMT":  0,
}

// TimezoneOffset returns the fixed zone for a supported abbreviation
func TimezoneOffset(abbr string) (*time.Location, bool) {
	hours, ok := timezoneOffsets[abbr]
	if !ok {
		return nil, false
	}
	return time.FixedZone(abbr, hours*60*60), true
}

// IsValidDateString reports whether text is a well-formed "M/D/YYYY h:mm AM|PM TZ"
// date with a supported timezone abbreviation
func IsValidDateString(text string) bool {
	_, err := DateFromTimezoneDateString(text)
	return err == nil
}

// DateFromTimezoneDateString parses "12/9/2024 06:15 PM PST" into an absolute instant
func DateFromTimezoneDateString(text string) (time.Time, error) {
	m := dateStringPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match M/D/YYYY h:mm AM|PM TZ", ErrInvalidDateString, text)
	}

	loc, ok := TimezoneOffset(m[7])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidDateString, m[7])
	}

	// The pattern guarantees digits, so Atoi cannot fail.
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDateString, month)
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, fmt.Errorf("%w: day %d out of range", ErrInvalidDateString, day)
	}
	if hour < 1 || hour > 12 {
		return time.Time{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidDateString, hour)
	}
	if minute > 59 {
		return time.Time{}, fmt.Errorf("%w: minute %d out of range", ErrInvalidDateString, minute)
	}

	hour %= 12
	if m[6] == "PM" {
		hour += 12
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

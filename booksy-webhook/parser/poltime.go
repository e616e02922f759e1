package parser

import (
	"regexp"
	"strconv"
	"time"
)

// Booksy emails spell dates in Polish genitive case: "23 lutego 2026".
var polishMonths = map[string]time.Month{
	"stycznia":     time.January,
	"lutego":       time.February,
	"marca":        time.March,
	"kwietnia":     time.April,
	"maja":         time.May,
	"czerwca":      time.June,
	"lipca":        time.July,
	"sierpnia":     time.August,
	"września":     time.September,
	"października": time.October,
	"listopada":    time.November,
	"grudnia":      time.December,
}

var (
	datePattern = regexp.MustCompile(`(\d{1,2})\s+(stycznia|lutego|marca|kwietnia|maja|czerwca|lipca|sierpnia|września|października|listopada|grudnia)\s+(\d{4})`)

	// "17:00 - 19:00" with either a hyphen or an en dash
	timeRangePattern = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*[-–]\s*(\d{1,2}):(\d{2})`)

	// single time, optionally labelled "o godzinie 15:45"
	singleTimePattern = regexp.MustCompile(`(?:o\s+godzinie\s+)?(\d{1,2}):(\d{2})`)
)

// parseDateTime extracts the first Polish-grammar date from text plus a
// time range or single time, and returns instants carrying the correct
// Polish UTC offset. A lone time gets a default end of start + 1 hour
// (typical for cancellation emails, which never state a range).
func parseDateTime(text string) (start, end time.Time, ok bool) {
	dm := datePattern.FindStringSubmatchIndex(text)
	if dm == nil {
		return time.Time{}, time.Time{}, false
	}

	day, _ := strconv.Atoi(text[dm[2]:dm[3]])
	month := polishMonths[text[dm[4]:dm[5]]]
	year, _ := strconv.Atoi(text[dm[6]:dm[7]])
	if day < 1 || day > 31 {
		return time.Time{}, time.Time{}, false
	}

	zone := warsawZone(year, month, day)

	// Look for times after the date first; a price like "126,00 zł,
	// 17:00 - 19:00" keeps the range on the same line anyway.
	rest := text[dm[1]:]
	if tm := timeRangePattern.FindStringSubmatch(rest); tm != nil {
		sh, _ := strconv.Atoi(tm[1])
		sm, _ := strconv.Atoi(tm[2])
		eh, _ := strconv.Atoi(tm[3])
		em, _ := strconv.Atoi(tm[4])
		start = time.Date(year, month, day, sh, sm, 0, 0, zone)
		end = time.Date(year, month, day, eh, em, 0, 0, zone)
		return start, end, true
	}
	if tm := timeRangePattern.FindStringSubmatch(text); tm != nil {
		sh, _ := strconv.Atoi(tm[1])
		sm, _ := strconv.Atoi(tm[2])
		eh, _ := strconv.Atoi(tm[3])
		em, _ := strconv.Atoi(tm[4])
		start = time.Date(year, month, day, sh, sm, 0, 0, zone)
		end = time.Date(year, month, day, eh, em, 0, 0, zone)
		return start, end, true
	}

	if tm := singleTimePattern.FindStringSubmatch(rest); tm != nil {
		sh, _ := strconv.Atoi(tm[1])
		sm, _ := strconv.Atoi(tm[2])
		start = time.Date(year, month, day, sh, sm, 0, 0, zone)
		return start, start.Add(time.Hour), true
	}

	return time.Time{}, time.Time{}, false
}

// warsawZone computes Poland's UTC offset for a calendar date: +02:00 from
// the last Sunday of March (inclusive) through the day before the last
// Sunday of October, +01:00 otherwise. Computed per year, never hard-coded.
func warsawZone(year int, month time.Month, day int) *time.Location {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	dstStart := lastSunday(year, time.March)
	dstEnd := lastSunday(year, time.October)

	if !date.Before(dstStart) && date.Before(dstEnd) {
		return time.FixedZone("CEST", 2*60*60)
	}
	return time.FixedZone("CET", 60*60)
}

func lastSunday(year int, month time.Month) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

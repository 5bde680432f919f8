package checklist

import (
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ActivityEntry is one row of an activity (employment/education/unemployment) history.
// EndDate is an exclusive bound; date-only values are advanced to the following midnight
// when parsed so that consecutive days touch.
type ActivityEntry struct {
	ActivityType string
	StartDate    *time.Time
	EndDate      *time.Time
	TillNow      bool
}

// GapRange is an uncovered stretch inside the look-back window.
type GapRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type interval struct {
	start time.Time
	end   time.Time
}

// CheckActivityPeriod returns the parts of [now - yearsRequired, now] not covered
// by any entry, in ascending order. Entries without a usable start, or without an
// end while not marked till_now, are ignored. Entries straddling the window edge
// are clipped to it.
func CheckActivityPeriod(entries []ActivityEntry, yearsRequired int, now time.Time) []GapRange {
	if yearsRequired <= 0 {
		return nil
	}
	windowStart := now.AddDate(-yearsRequired, 0, 0)

	intervals := make([]interval, 0, len(entries))
	for _, entry := range entries {
		if entry.StartDate == nil {
			continue
		}
		var end time.Time
		switch {
		case entry.TillNow:
			end = now
		case entry.EndDate != nil:
			end = *entry.EndDate
		default:
			continue
		}
		start := *entry.StartDate
		if start.Before(windowStart) {
			start = windowStart
		}
		if end.After(now) {
			end = now
		}
		if !end.After(start) {
			continue
		}
		intervals = append(intervals, interval{start: start, end: end})
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	var gaps []GapRange
	cursor := windowStart
	for _, iv := range intervals {
		if iv.start.After(cursor) {
			gaps = append(gaps, GapRange{Start: cursor, End: iv.start})
		}
		if iv.end.After(cursor) {
			cursor = iv.end
		}
	}
	if now.After(cursor) {
		gaps = append(gaps, GapRange{Start: cursor, End: now})
	}
	return gaps
}

// ActivityEntriesFrom converts activity_history sub-records into entries.
// Unparsable dates leave the corresponding bound nil.
func ActivityEntriesFrom(v Value) []ActivityEntry {
	records := v.Records()
	entries := make([]ActivityEntry, 0, len(records))
	for _, rec := range records {
		entry := ActivityEntry{ActivityType: rec.String("activity_type")}
		if start, _, ok := parseDate(rec.String("start_date")); ok {
			entry.StartDate = &start
		}
		if end, dateOnly, ok := parseDate(rec.String("end_date")); ok {
			if dateOnly {
				end = end.AddDate(0, 0, 1)
			}
			entry.EndDate = &end
		}
		entry.TillNow = truthy(rec["till_now"])
		entries = append(entries, entry)
	}
	return entries
}

func parseDate(raw string) (time.Time, bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.ParseInLocation(dateLayout, raw, time.UTC); err == nil {
		return t, true, true
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, false, true
		}
	}
	return time.Time{}, false, false
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

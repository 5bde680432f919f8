package checklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func day(s string) *time.Time {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestCheckActivityPeriodEmptyInputIsOneFullGap(t *testing.T) {
	gaps := CheckActivityPeriod(nil, 3, refNow)
	require.Len(t, gaps, 1)
	assert.Equal(t, refNow.AddDate(-3, 0, 0), gaps[0].Start)
	assert.Equal(t, refNow, gaps[0].End)
}

func TestCheckActivityPeriodUsesCurrentTime(t *testing.T) {
	before := time.Now()
	gaps := CheckActivityPeriod([]ActivityEntry{}, 3, time.Now())
	require.Len(t, gaps, 1)
	assert.WithinDuration(t, before.AddDate(-3, 0, 0), gaps[0].Start, 50*time.Millisecond)
	assert.WithinDuration(t, before, gaps[0].End, 50*time.Millisecond)
}

func TestCheckActivityPeriodFullCoverage(t *testing.T) {
	entries := []ActivityEntry{
		{StartDate: day("2020-01-01"), EndDate: day("2024-06-01")},
		{StartDate: day("2024-06-01"), TillNow: true},
	}
	assert.Empty(t, CheckActivityPeriod(entries, 3, refNow))
}

func TestCheckActivityPeriodReportsMiddleGap(t *testing.T) {
	entries := []ActivityEntry{
		{StartDate: day("2024-03-01"), TillNow: true},
		{StartDate: day("2019-01-01"), EndDate: day("2024-01-01")},
	}
	gaps := CheckActivityPeriod(entries, 3, refNow)
	require.Len(t, gaps, 1)
	assert.Equal(t, *day("2024-01-01"), gaps[0].Start)
	assert.Equal(t, *day("2024-03-01"), gaps[0].End)
}

func TestCheckActivityPeriodLeadingAndTrailingGaps(t *testing.T) {
	entries := []ActivityEntry{
		{StartDate: day("2024-01-01"), EndDate: day("2025-01-01")},
	}
	gaps := CheckActivityPeriod(entries, 3, refNow)
	require.Len(t, gaps, 2)
	assert.Equal(t, refNow.AddDate(-3, 0, 0), gaps[0].Start)
	assert.Equal(t, *day("2024-01-01"), gaps[0].End)
	assert.Equal(t, *day("2025-01-01"), gaps[1].Start)
	assert.Equal(t, refNow, gaps[1].End)
	assert.True(t, gaps[0].End.Before(gaps[1].Start))
}

func TestCheckActivityPeriodIgnoresMalformedAndOutsideEntries(t *testing.T) {
	entries := []ActivityEntry{
		{StartDate: nil, TillNow: true},
		{StartDate: day("2024-01-01")},
		{StartDate: day("2010-01-01"), EndDate: day("2012-01-01")},
		{StartDate: day("2025-01-01"), EndDate: day("2024-01-01")},
	}
	gaps := CheckActivityPeriod(entries, 3, refNow)
	require.Len(t, gaps, 1)
	assert.Equal(t, refNow.AddDate(-3, 0, 0), gaps[0].Start)
	assert.Equal(t, refNow, gaps[0].End)
}

func TestCheckActivityPeriodClipsEntryStraddlingWindowStart(t *testing.T) {
	entries := []ActivityEntry{
		{StartDate: day("2015-05-05"), TillNow: true},
	}
	assert.Empty(t, CheckActivityPeriod(entries, 3, refNow))
}

func TestCheckActivityPeriodNonPositiveYears(t *testing.T) {
	assert.Nil(t, CheckActivityPeriod(nil, 0, refNow))
	assert.Nil(t, CheckActivityPeriod(nil, -2, refNow))
}

func TestCheckActivityPeriodTotality(t *testing.T) {
	entries := []ActivityEntry{
		{StartDate: day("2023-02-01"), EndDate: day("2023-08-01")},
		{StartDate: day("2023-07-01"), EndDate: day("2024-02-01")},
		{StartDate: day("2024-05-01"), EndDate: day("2024-09-01")},
		{StartDate: day("2025-03-01"), TillNow: true},
	}
	windowStart := refNow.AddDate(-3, 0, 0)
	gaps := CheckActivityPeriod(entries, 3, refNow)

	var gapTotal time.Duration
	for i, g := range gaps {
		assert.False(t, g.Start.Before(windowStart))
		assert.False(t, g.End.After(refNow))
		if i > 0 {
			assert.True(t, gaps[i-1].End.Before(g.Start))
		}
		gapTotal += g.End.Sub(g.Start)
	}

	covered := []GapRange{
		{Start: windowStart, End: *day("2024-02-01")},
		{Start: *day("2024-05-01"), End: *day("2024-09-01")},
		{Start: *day("2025-03-01"), End: refNow},
	}
	var coveredTotal time.Duration
	for _, c := range covered {
		coveredTotal += c.End.Sub(c.Start)
	}
	assert.Equal(t, refNow.Sub(windowStart), gapTotal+coveredTotal)
	assert.Len(t, gaps, 2)
}

func TestActivityEntriesFromRecordsTreatsDateOnlyEndAsInclusive(t *testing.T) {
	v := List(
		Record{"activity_type": "employment", "start_date": "2022-01-01", "end_date": "2024-01-31", "till_now": false},
		Record{"activity_type": "employment", "start_date": "2024-02-01", "end_date": nil, "till_now": true},
		Record{"activity_type": "unemployment", "start_date": "not-a-date"},
	)
	entries := ActivityEntriesFrom(v)
	require.Len(t, entries, 3)
	assert.Equal(t, *day("2024-02-01"), *entries[0].EndDate)
	assert.True(t, entries[1].TillNow)
	assert.Nil(t, entries[2].StartDate)

	assert.Empty(t, CheckActivityPeriod(entries, 3, refNow))
}

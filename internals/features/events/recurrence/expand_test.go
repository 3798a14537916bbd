package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func starts(exp Expansion) []time.Time {
	out := make([]time.Time, 0, len(exp.Occurrences))
	for _, o := range exp.Occurrences {
		out = append(out, o.Start)
	}
	return out
}

func TestExpand_WeeklyCountThree(t *testing.T) {
	dtstart := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyWeekly, Interval: 1, Count: intPtr(3)}

	exp, err := Expand(rule, dtstart, dtstart, dtstart.AddDate(0, 0, 60))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}, starts(exp))
	assert.Equal(t, 3, exp.Occurrences[2].Sequence)
	assert.False(t, exp.Truncated)
}

func TestExpand_WindowIsHalfOpen(t *testing.T) {
	dtstart := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyDaily, Interval: 1}

	exp, err := Expand(rule, dtstart,
		time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, exp.Occurrences, 3)
	assert.Equal(t, time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), exp.Occurrences[0].Start)
	assert.Equal(t, 3, exp.Occurrences[0].Sequence)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), exp.Occurrences[2].Start)
}

func TestExpand_Interval(t *testing.T) {
	dtstart := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyWeekly, Interval: 2, Count: intPtr(4)}

	exp, err := Expand(rule, dtstart, dtstart.AddDate(-1, 0, 0), dtstart.AddDate(1, 0, 0))
	require.NoError(t, err)

	got := starts(exp)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, 14*24*time.Hour, got[i].Sub(got[i-1]))
	}
}

func TestExpand_MonthlyOn31stSkipsShortMonths(t *testing.T) {
	dtstart := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyMonthly, Interval: 1}

	exp, err := Expand(rule, dtstart, dtstart, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var months []time.Month
	for _, s := range starts(exp) {
		assert.Equal(t, 31, s.Day())
		months = append(months, s.Month())
	}
	assert.Equal(t, []time.Month{time.January, time.March, time.May, time.July, time.August}, months)
}

func TestExpand_UntilIsInclusive(t *testing.T) {
	dtstart := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	until := time.Date(2024, 5, 4, 7, 0, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyDaily, Interval: 1, Until: &until}

	exp, err := Expand(rule, dtstart, dtstart, dtstart.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, exp.Occurrences, 4)

	total, err := TotalCount(rule, dtstart)
	require.NoError(t, err)
	require.NotNil(t, total)
	assert.Equal(t, 4, *total)
}

func TestExpand_KeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	dtstart := time.Date(2024, 3, 4, 9, 0, 0, 0, loc)
	rule := Rule{Frequency: FrequencyWeekly, Interval: 1, Count: intPtr(3)}

	exp, err := Expand(rule, dtstart, dtstart, dtstart.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, exp.Occurrences, 3)

	for _, o := range exp.Occurrences {
		assert.Equal(t, 9, o.Start.In(loc).Hour())
	}
	// 10 Maret 2024: EST -> EDT
	assert.Equal(t, 14, exp.Occurrences[0].Start.Hour())
	assert.Equal(t, 13, exp.Occurrences[1].Start.Hour())
}

func TestExpand_Deterministic(t *testing.T) {
	dtstart := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyDaily, Interval: 3}
	ws := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	we := ws.AddDate(0, 2, 0)

	a, err := Expand(rule, dtstart, ws, we)
	require.NoError(t, err)
	b, err := Expand(rule, dtstart, ws, we)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExpand_WindowBeforeSeriesIsEmpty(t *testing.T) {
	dtstart := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyYearly, Interval: 1}

	exp, err := Expand(rule, dtstart, dtstart.AddDate(-2, 0, 0), dtstart)
	require.NoError(t, err)
	assert.Empty(t, exp.Occurrences)
}

func TestExpand_ValidationErrors(t *testing.T) {
	dtstart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := dtstart.AddDate(0, 1, 0)

	tests := []struct {
		name   string
		rule   Rule
		end    time.Time
		reason string
	}{
		{"zero interval", Rule{Frequency: FrequencyDaily, Interval: 0}, until, ReasonInvalidInterval},
		{"negative interval", Rule{Frequency: FrequencyDaily, Interval: -2}, until, ReasonInvalidInterval},
		{"unknown frequency", Rule{Frequency: "hourly", Interval: 1}, until, ReasonInvalidFrequency},
		{"zero count", Rule{Frequency: FrequencyDaily, Interval: 1, Count: intPtr(0)}, until, ReasonInvalidCount},
		{"count and until", Rule{Frequency: FrequencyDaily, Interval: 1, Count: intPtr(2), Until: &until}, until, ReasonConflictingEnd},
		{"empty window", Rule{Frequency: FrequencyDaily, Interval: 1}, dtstart, ReasonInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.rule, dtstart, dtstart, tt.end)
			var re *RuleError
			require.True(t, errors.As(err, &re), "expected RuleError, got %v", err)
			assert.Equal(t, tt.reason, re.Reason)
		})
	}
}

func TestIsOccurrence(t *testing.T) {
	dtstart := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rule := Rule{Frequency: FrequencyWeekly, Interval: 1}

	occ, ok, err := IsOccurrence(rule, dtstart, dtstart.AddDate(0, 0, 14))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, occ.Sequence)

	_, ok, err = IsOccurrence(rule, dtstart, dtstart.AddDate(0, 0, 13))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTotalCount_Unbounded(t *testing.T) {
	total, err := TotalCount(Rule{Frequency: FrequencyMonthly, Interval: 1}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, total)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("", "Asia/Jakarta")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())

	_, err = LoadLocation("Mars/Olympus", "")
	var re *RuleError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ReasonInvalidTimezone, re.Reason)
}

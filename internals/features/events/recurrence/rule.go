// file: internals/features/events/recurrence/rule.go
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Reason codes (machine-readable) untuk RuleError.
const (
	ReasonInvalidFrequency = "invalid_frequency"
	ReasonInvalidInterval  = "invalid_interval"
	ReasonInvalidCount     = "invalid_count"
	ReasonConflictingEnd   = "conflicting_end"
	ReasonInvalidWindow    = "invalid_window"
	ReasonInvalidTimezone  = "invalid_timezone"
)

type RuleError struct {
	Reason  string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("recurrence: %s: %s", e.Reason, e.Message)
}

func ruleErr(reason, format string, args ...any) *RuleError {
	return &RuleError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Rule is the subset of RRULE the calendar supports: a frequency, an interval
// and at most one of Count / Until. No BYxxx parts.
type Rule struct {
	Frequency Frequency
	Interval  int
	Count     *int
	Until     *time.Time
}

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return f, nil
	default:
		return "", ruleErr(ReasonInvalidFrequency, "unknown frequency %q", s)
	}
}

func (r Rule) Validate() error {
	if _, err := ParseFrequency(string(r.Frequency)); err != nil {
		return err
	}
	if r.Interval <= 0 {
		return ruleErr(ReasonInvalidInterval, "interval must be >= 1, got %d", r.Interval)
	}
	if r.Count != nil && r.Until != nil {
		return ruleErr(ReasonConflictingEnd, "count and until are mutually exclusive")
	}
	if r.Count != nil && *r.Count <= 0 {
		return ruleErr(ReasonInvalidCount, "count must be >= 1, got %d", *r.Count)
	}
	return nil
}

// Bounded reports whether the series has a finite number of occurrences.
func (r Rule) Bounded() bool { return r.Count != nil || r.Until != nil }

func (r Rule) rruleFreq() rrule.Frequency {
	switch r.Frequency {
	case FrequencyDaily:
		return rrule.DAILY
	case FrequencyWeekly:
		return rrule.WEEKLY
	case FrequencyMonthly:
		return rrule.MONTHLY
	default:
		return rrule.YEARLY
	}
}

// build membuat *rrule.RRule dengan DTSTART di zona waktu lokal template,
// supaya jam dinding (mis. 09:00) tetap stabil melewati DST.
func (r Rule) build(dtstart time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Freq:     r.rruleFreq(),
		Interval: r.Interval,
		Dtstart:  dtstart,
	}
	if r.Count != nil {
		opt.Count = *r.Count
	}
	if r.Until != nil {
		opt.Until = r.Until.In(dtstart.Location())
	}
	return rrule.NewRRule(opt)
}

// Snapshot is what instances keep of the rule they were generated from.
func (r Rule) Snapshot() map[string]any {
	m := map[string]any{
		"frequency": string(r.Frequency),
		"interval":  r.Interval,
	}
	if r.Count != nil {
		m["count"] = *r.Count
	}
	if r.Until != nil {
		m["until"] = r.Until.UTC().Format(time.RFC3339)
	}
	return m
}

// LoadLocation resolves an IANA zone name, falling back to def when empty.
func LoadLocation(name, def string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = def
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ruleErr(ReasonInvalidTimezone, "unknown timezone %q", name)
	}
	return loc, nil
}

// file: internals/features/events/recurrence/expand.go
package recurrence

import (
	"time"
)

const (
	// batas keras jumlah occurrence yang dikembalikan per ekspansi
	MaxOccurrencesPerExpansion = 5000
	// batas iterasi dari DTSTART (dipakai untuk menghitung sequence number)
	maxWalk = 100000
)

type Occurrence struct {
	Start    time.Time // UTC
	Sequence int       // 1-based posisi dalam seri
}

type Expansion struct {
	Occurrences []Occurrence
	// Truncated true jika salah satu batas di atas tercapai sebelum window habis.
	Truncated bool
}

/* =========================
   Expand
========================= */

// Expand returns every occurrence t of rule with windowStart <= t < windowEnd,
// strictly increasing. dtstart carries the zone the series is evaluated in.
func Expand(rule Rule, dtstart, windowStart, windowEnd time.Time) (Expansion, error) {
	if err := rule.Validate(); err != nil {
		return Expansion{}, err
	}
	if !windowEnd.After(windowStart) {
		return Expansion{}, ruleErr(ReasonInvalidWindow, "window end must be after window start")
	}

	out := Expansion{}
	if !windowEnd.After(dtstart) {
		return out, nil
	}
	if rule.Until != nil && rule.Until.Before(windowStart) {
		return out, nil
	}

	rr, err := rule.build(dtstart)
	if err != nil {
		return Expansion{}, ruleErr(ReasonInvalidFrequency, "%v", err)
	}

	next := rr.Iterator()
	seq := 0
	var last time.Time
	for {
		t, ok := next()
		if !ok {
			break
		}
		seq++
		if seq > maxWalk {
			out.Truncated = true
			break
		}
		if !t.Before(windowEnd) {
			break
		}
		if t.Before(windowStart) {
			continue
		}
		u := normalize(t)
		if len(out.Occurrences) > 0 && !u.After(last) {
			continue
		}
		out.Occurrences = append(out.Occurrences, Occurrence{Start: u, Sequence: seq})
		last = u
		if len(out.Occurrences) >= MaxOccurrencesPerExpansion {
			out.Truncated = true
			break
		}
	}
	return out, nil
}

// IsOccurrence reports whether t is one of the series' start times.
func IsOccurrence(rule Rule, dtstart, t time.Time) (Occurrence, bool, error) {
	t = normalize(t)
	exp, err := Expand(rule, dtstart, t, t.Add(time.Microsecond))
	if err != nil {
		return Occurrence{}, false, err
	}
	if len(exp.Occurrences) == 1 && exp.Occurrences[0].Start.Equal(t) {
		return exp.Occurrences[0], true, nil
	}
	return Occurrence{}, false, nil
}

// TotalCount returns the number of occurrences of a bounded series and nil
// for an unbounded one.
func TotalCount(rule Rule, dtstart time.Time) (*int, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if rule.Count != nil {
		n := *rule.Count
		return &n, nil
	}
	if rule.Until == nil {
		return nil, nil
	}
	rr, err := rule.build(dtstart)
	if err != nil {
		return nil, ruleErr(ReasonInvalidFrequency, "%v", err)
	}
	next := rr.Iterator()
	n := 0
	for n < maxWalk {
		if _, ok := next(); !ok {
			break
		}
		n++
	}
	return &n, nil
}

// normalize: UTC + presisi mikrodetik (sama dengan timestamptz Postgres)
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Normalize is exported for callers that build occurrence keys themselves.
func Normalize(t time.Time) time.Time { return normalize(t) }

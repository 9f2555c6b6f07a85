// Package recur implements the calendar arithmetic for recurring appointment
// series: pure generation of occurrence instants and reconciliation of a new
// series request against a patient's existing pending series.
package recur

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"practice-scheduler-backend/internal/model"
)

// DefaultMaxOccurrences bounds a generated series when the caller does not
// supply its own cap.
const DefaultMaxOccurrences = 52

// Generate produces the bounded sequence of occurrence instants for a series
// starting at start. Generation stops when the next instant would exceed
// start plus one year, or when maxOccurrences instants have been produced,
// whichever comes first. The function is pure: the same inputs always yield
// the same sequence.
func Generate(start time.Time, frequency model.Frequency, maxOccurrences int) ([]time.Time, error) {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	horizon := start.AddDate(1, 0, 0)

	switch frequency {
	case model.FrequencySingle:
		return []time.Time{start}, nil
	case model.FrequencyWeekly:
		return weeklyInstants(start, horizon, 1, maxOccurrences)
	case model.FrequencyBiweekly:
		return weeklyInstants(start, horizon, 2, maxOccurrences)
	case model.FrequencyMonthly:
		return monthlyInstants(start, horizon, maxOccurrences), nil
	default:
		return nil, fmt.Errorf("unknown frequency %q", frequency)
	}
}

// weeklyInstants expands weekly and biweekly series through an RRULE with the
// given week interval, bounded by the horizon.
func weeklyInstants(start, horizon time.Time, interval, maxOccurrences int) ([]time.Time, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: interval,
		Dtstart:  start,
		Until:    horizon,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly rule: %w", err)
	}

	instants := rule.All()
	if len(instants) > maxOccurrences {
		instants = instants[:maxOccurrences]
	}
	return instants, nil
}

// monthlyInstants advances one calendar month at a time, preserving the day
// of the start instant. When the target month is shorter than that day, the
// occurrence is clamped to the month's last day; the anchor stays the start
// day, so later months revert to it. RFC 5545 BYMONTHDAY skips short months
// instead of clamping, so this path does not go through rrule.
func monthlyInstants(start, horizon time.Time, maxOccurrences int) []time.Time {
	instants := make([]time.Time, 0, maxOccurrences)
	for i := 0; len(instants) < maxOccurrences; i++ {
		next := addMonthsClamped(start, i)
		if next.After(horizon) {
			break
		}
		instants = append(instants, next)
	}
	return instants
}

func addMonthsClamped(start time.Time, months int) time.Time {
	year, month, _ := start.Date()
	hour, minute, sec := start.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1,
		hour, minute, sec, start.Nanosecond(), start.Location())

	day := start.Day()
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		hour, minute, sec, start.Nanosecond(), start.Location())
}

func lastDayOfMonth(t time.Time) int {
	// Day zero of the next month normalizes to the last day of t's month.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

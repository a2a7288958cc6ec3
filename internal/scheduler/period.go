package scheduler

import (
	"errors"

	"cloud.google.com/go/civil"
)

// ErrInvalidRange indicates a period whose start date follows its end date.
var ErrInvalidRange = errors.New("scheduler: period start must not be after end")

// Period is a named, inclusive date range during which exams may be scheduled.
type Period struct {
	ID     string
	Start  civil.Date
	End    civil.Date
	Active bool
}

// Validate checks the range ordering.
func (p Period) Validate() error {
	if p.Start.After(p.End) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether d lies within the period, bounds included.
func (p Period) Contains(d civil.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Overlaps reports whether two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.Start.After(other.End) && !other.Start.After(p.End)
}

// IsDateBookable reports whether d falls inside at least one active period.
func IsDateBookable(periods []Period, d civil.Date) bool {
	for _, p := range periods {
		if p.Active && p.Contains(d) {
			return true
		}
	}
	return false
}

// Overlapping returns the periods that share a day with candidate, ignoring
// the period whose ID equals candidate.ID.
func Overlapping(periods []Period, candidate Period) []Period {
	var out []Period
	for _, p := range periods {
		if candidate.ID != "" && p.ID == candidate.ID {
			continue
		}
		if p.Overlaps(candidate) {
			out = append(out, p)
		}
	}
	return out
}

// BookableDates expands the period into the weekday dates it covers, in order.
// Inactive periods yield no dates.
func BookableDates(p Period) []civil.Date {
	if !p.Active || p.Validate() != nil {
		return nil
	}

	var dates []civil.Date
	for d := p.Start; !d.After(p.End); d = d.AddDays(1) {
		if IsWeekday(d) {
			dates = append(dates, d)
		}
	}
	return dates
}
